package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"chessGo/bots"
	"chessGo/config"
	"chessGo/game"

	"github.com/muesli/termenv"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

// Match plays one game between two move pickers, each on its own clock.
type Match struct {
	chessGame *chess.Game
	players   map[chess.Color]*bots.Selector
	clocks    map[chess.Color]*bots.Clock
	allocator *bots.TimeAllocator
	logger    zerolog.Logger
}

func NewMatch(white, black *bots.Selector, cfg config.Config, logger zerolog.Logger) *Match {
	return &Match{
		chessGame: chess.NewGame(),
		players:   map[chess.Color]*bots.Selector{chess.White: white, chess.Black: black},
		clocks:    map[chess.Color]*bots.Clock{chess.White: cfg.Clock(), chess.Black: cfg.Clock()},
		allocator: cfg.TimeAllocator(),
		logger:    logger,
	}
}

// errFlagged ends a game lost on time.
var errFlagged = errors.New("flag fell")

// makeBotMove asks the side to move for a move, charges its clock and
// plays the move. It returns false once the game is over.
func (m *Match) makeBotMove(ctx context.Context) (bool, error) {
	pos := m.chessGame.Position()
	if game.StatusOf(pos).Terminal() || m.chessGame.Outcome() != chess.NoOutcome {
		return false, nil
	}

	turn := pos.Turn()
	clock := m.clocks[turn]
	budget := m.allocator.TimeFor(pos, clock.Remaining, clock.MoveCount)

	start := time.Now()
	d, err := m.players[turn].Select(ctx, pos, budget)
	if err != nil {
		return false, err
	}
	spent := time.Since(start)
	clock.Update(spent)
	if d.Move == nil {
		return false, nil
	}
	if err := m.chessGame.Move(d.Move); err != nil {
		return false, fmt.Errorf("play %s: %w", game.MoveString(pos, d.Move), err)
	}

	m.logger.Info().
		Str("side", turn.Name()).
		Str("move", game.MoveString(pos, d.Move)).
		Str("source", string(d.Source)).
		Dur("budget", budget).
		Dur("spent", spent).
		Dur("remaining", clock.Remaining).
		Msg("move")
	if clock.Flagged() {
		return false, errFlagged
	}
	return true, nil
}

// Play runs the game until it ends, a side runs out of time or maxPlies
// moves have been made.
func (m *Match) Play(ctx context.Context, maxPlies int) error {
	for ply := 0; maxPlies <= 0 || ply < maxPlies; ply++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := m.makeBotMove(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// Result describes the final position.
func (m *Match) Result() string {
	pos := m.chessGame.Position()
	status := game.StatusOf(pos)
	for _, c := range []chess.Color{chess.White, chess.Black} {
		if m.clocks[c].Flagged() {
			return fmt.Sprintf("%s lost on time", c.Name())
		}
	}
	switch {
	case status == game.Checkmate:
		return fmt.Sprintf("%s wins by checkmate", pos.Turn().Other().Name())
	case status == game.Ongoing && m.chessGame.Outcome() != chess.NoOutcome:
		return fmt.Sprintf("draw (%v)", m.chessGame.Method())
	}
	return status.String()
}

// MoveList renders the moves with numbers, in UCI notation.
func (m *Match) MoveList() string {
	var sb strings.Builder
	positions := m.chessGame.Positions()
	for i, mv := range m.chessGame.Moves() {
		if i%2 == 0 {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%d.", i/2+1)
		}
		sb.WriteByte(' ')
		sb.WriteString(game.MoveString(positions[i], mv))
	}
	return sb.String()
}

func runPlay(ctx context.Context, cfg config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	maxPlies := fs.Int("plies", 200, "stop after this many plies; 0 plays to the end")
	_ = fs.Parse(args)

	white, cleanupWhite, err := newSelector(cfg, logger.With().Str("player", "white").Logger())
	if err != nil {
		return err
	}
	defer cleanupWhite()
	black, cleanupBlack, err := newSelector(cfg, logger.With().Str("player", "black").Logger())
	if err != nil {
		return err
	}
	defer cleanupBlack()

	match := NewMatch(white, black, cfg, logger)
	err = match.Play(ctx, *maxPlies)
	if err != nil && !errors.Is(err, errFlagged) {
		return err
	}

	out := termenv.NewOutput(os.Stdout)
	fmt.Fprintln(os.Stdout, match.MoveList())
	fmt.Fprintln(os.Stdout, out.String(match.Result()).Bold())
	return nil
}
