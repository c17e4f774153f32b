package bots

import (
	"context"
	"time"

	"chessGo/game"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

// MoveSource is an external lookup service such as an opening book or an
// endgame tablebase. A nil move with a nil error means the source has no
// entry for the position; that is not a failure.
type MoveSource interface {
	Probe(ctx context.Context, pos *chess.Position) (*chess.Move, error)
}

// Source names where a selected move came from.
type Source string

const (
	SourceNone      Source = "none"
	SourceTablebase Source = "tablebase"
	SourceBook      Source = "book"
	SourceSearch    Source = "search"
	SourceRandom    Source = "random"
)

// Decision is the outcome of Selector.Select.
type Decision struct {
	Move   *chess.Move
	Source Source
}

// DefaultTablebasePieces is the largest piece count, kings included, for
// which the tablebase is probed.
const DefaultTablebasePieces = 7

// Selector tries the tablebase, the opening book, the search engine and
// finally a random legal move, in that order. Any of the collaborators may
// be nil.
type Selector struct {
	Tablebase       MoveSource
	TablebasePieces int
	Book            MoveSource
	Engine          ChessBot
	Random          *RandomBot
	Logger          zerolog.Logger
}

func NewSelector(engine ChessBot, seed int64) *Selector {
	return &Selector{
		TablebasePieces: DefaultTablebasePieces,
		Engine:          engine,
		Random:          NewRandomBot(seed),
		Logger:          zerolog.Nop(),
	}
}

func (s *Selector) Name() string {
	if s.Engine == nil {
		return "Selector"
	}
	return "Selector (" + s.Engine.Name() + ")"
}

// BestMove implements ChessBot.
func (s *Selector) BestMove(ctx context.Context, pos *chess.Position, budget time.Duration) (*chess.Move, error) {
	d, err := s.Select(ctx, pos, budget)
	return d.Move, err
}

// Select returns a legal move for pos, or a nil move only when pos has no
// legal moves. The only error is game.ErrInvalidPosition.
func (s *Selector) Select(ctx context.Context, pos *chess.Position, budget time.Duration) (Decision, error) {
	if err := game.Validate(pos); err != nil {
		return Decision{Source: SourceNone}, err
	}
	moves := pos.ValidMoves()
	if len(moves) == 0 {
		return Decision{Source: SourceNone}, nil
	}

	if s.Tablebase != nil && game.PieceCount(pos) <= s.TablebasePieces {
		if m := s.probe(ctx, SourceTablebase, s.Tablebase, pos); m != nil {
			return Decision{Move: m, Source: SourceTablebase}, nil
		}
	}
	if s.Book != nil {
		if m := s.probe(ctx, SourceBook, s.Book, pos); m != nil {
			return Decision{Move: m, Source: SourceBook}, nil
		}
	}

	if s.Engine != nil {
		m, err := s.Engine.BestMove(ctx, pos, budget)
		switch {
		case err != nil:
			s.Logger.Warn().Err(err).Str("engine", s.Engine.Name()).Msg("search failed")
		case m != nil:
			if legal, ok := game.FindLegal(pos, m); ok {
				return Decision{Move: legal, Source: SourceSearch}, nil
			}
			s.Logger.Warn().Str("move", m.String()).Msg("search returned an illegal move")
		}
	}

	random := s.Random
	if random == nil {
		random = NewRandomBot(0)
	}
	return Decision{Move: random.Pick(moves), Source: SourceRandom}, nil
}

// probe asks one collaborator. Failures and illegal answers count as no
// data.
func (s *Selector) probe(ctx context.Context, source Source, src MoveSource, pos *chess.Position) *chess.Move {
	m, err := src.Probe(ctx, pos)
	if err != nil {
		s.Logger.Warn().Err(err).Str("source", string(source)).Msg("lookup failed")
		return nil
	}
	if m == nil {
		return nil
	}
	legal, ok := game.FindLegal(pos, m)
	if !ok {
		s.Logger.Warn().Str("source", string(source)).Str("move", m.String()).Msg("lookup returned an illegal move")
		return nil
	}
	s.Logger.Debug().Str("source", string(source)).Str("move", legal.String()).Msg("lookup hit")
	return legal
}
