package bots

import (
	"context"
	"fmt"
	"math"
	"time"

	"chessGo/game"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

// checkInterval is the number of nodes between deadline checks.
const checkInterval = 1024

// MinimaxBot is a fixed-depth minimax search with alpha-beta pruning.
// Given a time budget it deepens iteratively up to Depth and keeps the
// last completed iteration. The bot holds configuration only, so one value
// may serve concurrent searches.
type MinimaxBot struct {
	Depth     int
	Evaluator PositionEvaluator
	Logger    zerolog.Logger
}

// abSearch is the state of one search call.
type abSearch struct {
	evaluator PositionEvaluator
	ctx       context.Context
	deadline  time.Time
	nodes     int
	aborted   bool
}

func (b *MinimaxBot) newSearch(ctx context.Context, deadline time.Time) *abSearch {
	return &abSearch{evaluator: b.Evaluator, ctx: ctx, deadline: deadline}
}

func NewMinimaxBot(depth int, evaluator PositionEvaluator) *MinimaxBot {
	if evaluator == nil {
		evaluator = DefaultEvaluator{}
	}
	return &MinimaxBot{
		Depth:     max(depth, 1),
		Evaluator: evaluator,
		Logger:    zerolog.Nop(),
	}
}

func (b *MinimaxBot) Name() string {
	return fmt.Sprintf("Minimax Bot (depth %d)", b.Depth)
}

// BestMove implements ChessBot. A zero budget searches straight to Depth.
func (b *MinimaxBot) BestMove(ctx context.Context, pos *chess.Position, budget time.Duration) (*chess.Move, error) {
	res, err := b.Search(ctx, pos, budget)
	return res.Move, err
}

// Search runs the search and reports statistics alongside the move.
func (b *MinimaxBot) Search(ctx context.Context, pos *chess.Position, budget time.Duration) (SearchResult, error) {
	if err := game.Validate(pos); err != nil {
		return SearchResult{}, err
	}
	start := time.Now()
	if len(pos.ValidMoves()) == 0 {
		return SearchResult{StopReason: StopNoMoves}, nil
	}

	var deadline time.Time
	if budget > 0 {
		deadline = start.Add(budget)
	}
	s := b.newSearch(ctx, deadline)

	var res SearchResult
	res.StopReason = StopDepth
	for depth := 1; depth <= b.Depth; depth++ {
		// Without a budget the only iteration that matters is the last.
		if budget <= 0 && depth < b.Depth {
			continue
		}
		move, score, ok := s.rootSearch(pos, depth, budget > 0 && depth > 1)
		if !ok {
			res.StopReason = s.abortReason()
			break
		}
		res.Move, res.Score, res.Depth = move, score, depth
		if math.Abs(score) >= MateScore {
			break
		}
		if s.expired() {
			res.StopReason = s.abortReason()
			break
		}
	}
	res.Iterations = s.nodes
	res.Elapsed = time.Since(start)

	b.Logger.Debug().
		Int("depth", res.Depth).
		Int("nodes", s.nodes).
		Float64("score", res.Score).
		Dur("elapsed", res.Elapsed).
		Str("stop", res.StopReason.String()).
		Msg("alpha-beta search finished")
	return res, nil
}

// BestMoveDepth searches exactly depth plies and returns the best move and
// its score from the point of view of the side to move. The move is nil
// when there are no legal moves.
func (b *MinimaxBot) BestMoveDepth(pos *chess.Position, depth int) (*chess.Move, float64) {
	move, score, _ := b.newSearch(context.Background(), time.Time{}).rootSearch(pos, max(depth, 1), false)
	return move, score
}

// SearchValue returns the minimax value of pos, White-positive, searched
// depth plies deep inside the (alpha, beta) window.
func (b *MinimaxBot) SearchValue(pos *chess.Position, depth int, alpha, beta float64, maximizing bool) float64 {
	return b.newSearch(context.Background(), time.Time{}).search(pos, depth, alpha, beta, maximizing, false)
}

func (s *abSearch) rootSearch(pos *chess.Position, depth int, abortable bool) (*chess.Move, float64, bool) {
	moves := pos.ValidMoves()
	if len(moves) == 0 {
		return nil, s.evaluator.Evaluate(pos), true
	}

	// A mate on the board beats any deeper line that scores the same.
	for _, move := range moves {
		if game.StatusOf(pos.Update(move)) == game.Checkmate {
			return move, MateScore, true
		}
	}

	maximizing := pos.Turn() == chess.White
	sign := 1.0
	if !maximizing {
		sign = -1
	}

	var bestMove *chess.Move
	bestScore := math.Inf(-1)
	alpha, beta := math.Inf(-1), math.Inf(1)
	for _, move := range moves {
		score := s.search(pos.Update(move), depth-1, alpha, beta, !maximizing, abortable)
		if abortable && s.aborted {
			return nil, 0, false
		}
		if sign*score > bestScore {
			bestScore = sign * score
			bestMove = move
		}
		if maximizing {
			alpha = math.Max(alpha, score)
		} else {
			beta = math.Min(beta, score)
		}
	}
	return bestMove, bestScore, true
}

func (s *abSearch) search(pos *chess.Position, depth int, alpha, beta float64, maximizing bool, abortable bool) float64 {
	s.nodes++
	if abortable && s.nodes%checkInterval == 0 && s.expired() {
		s.aborted = true
	}
	if s.aborted {
		return 0
	}

	if depth <= 0 || game.StatusOf(pos).Terminal() {
		return s.evaluator.Evaluate(pos)
	}

	validMoves := pos.ValidMoves()
	if maximizing {
		best := math.Inf(-1)
		for _, move := range validMoves {
			score := s.search(pos.Update(move), depth-1, alpha, beta, false, abortable)
			best = math.Max(best, score)
			alpha = math.Max(alpha, best)
			if beta <= alpha {
				break
			}
		}
		return best
	}

	best := math.Inf(1)
	for _, move := range validMoves {
		score := s.search(pos.Update(move), depth-1, alpha, beta, true, abortable)
		best = math.Min(best, score)
		beta = math.Min(beta, best)
		if beta <= alpha {
			break
		}
	}
	return best
}

func (s *abSearch) expired() bool {
	if s.ctx != nil && s.ctx.Err() != nil {
		return true
	}
	return !s.deadline.IsZero() && time.Now().After(s.deadline)
}

func (s *abSearch) abortReason() StopReason {
	if s.ctx != nil && s.ctx.Err() != nil {
		return StopCancelled
	}
	return StopDeadline
}
