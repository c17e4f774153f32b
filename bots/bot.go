// bot.go
package bots

import (
	"context"
	"fmt"
	"time"

	"github.com/notnil/chess"
)

// ChessBot is implemented by every move source: the individual searches,
// the engine that dispatches between them and the selector facade.
// A nil move with a nil error means the position has no legal moves.
type ChessBot interface {
	BestMove(ctx context.Context, pos *chess.Position, budget time.Duration) (*chess.Move, error)
	Name() string
}

// PositionEvaluator maps a position to a centipawn score, positive for
// White. Implementations must be deterministic and total.
type PositionEvaluator interface {
	Evaluate(pos *chess.Position) float64
}

// Algorithm selects the search behind an Engine. It is fixed at
// construction.
type Algorithm int

const (
	AlgorithmMCTS Algorithm = iota
	AlgorithmAlphaBeta
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmMCTS:
		return "mcts"
	case AlgorithmAlphaBeta:
		return "alphabeta"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm is the inverse of Algorithm.String.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "mcts", "":
		return AlgorithmMCTS, nil
	case "alphabeta", "minimax":
		return AlgorithmAlphaBeta, nil
	}
	return 0, fmt.Errorf("unknown algorithm %q", s)
}

// StopReason tells why a search returned.
type StopReason int

const (
	StopNone StopReason = iota
	StopIterations
	StopDeadline
	StopCancelled
	StopDepth
	StopNoMoves
)

func (r StopReason) String() string {
	switch r {
	case StopIterations:
		return "iterations"
	case StopDeadline:
		return "deadline"
	case StopCancelled:
		return "cancelled"
	case StopDepth:
		return "depth"
	case StopNoMoves:
		return "no-moves"
	default:
		return "none"
	}
}

// SearchResult carries the chosen move together with search statistics.
// Score is in centipawns from the point of view of the side to move.
type SearchResult struct {
	Move       *chess.Move
	Score      float64
	Depth      int
	Iterations int
	Visits     int
	Elapsed    time.Duration
	StopReason StopReason
}
