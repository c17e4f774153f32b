package bots

import (
	"time"

	"chessGo/game"

	"github.com/notnil/chess"
	"golang.org/x/exp/constraints"
)

const (
	// DefaultMinTimePerMove is the floor of every budget.
	DefaultMinTimePerMove = 100 * time.Millisecond
	// DefaultMaxTimePercentage caps one move at this share of the clock.
	DefaultMaxTimePercentage = 0.2
	// DefaultInitialTime and DefaultIncrement set up a 3+2 clock.
	DefaultInitialTime = 180 * time.Second
	DefaultIncrement   = 2 * time.Second

	minBudget = time.Millisecond
)

// TimeAllocator splits the remaining clock time into per-move budgets.
type TimeAllocator struct {
	MinPerMove  time.Duration
	MaxFraction float64
	// HorizonMoves is the assumed game length; FloorMoves is the fewest
	// moves ever assumed to remain.
	HorizonMoves int
	FloorMoves   int
}

func NewTimeAllocator(minPerMove time.Duration, maxFraction float64) *TimeAllocator {
	return &TimeAllocator{
		MinPerMove:   minPerMove,
		MaxFraction:  maxFraction,
		HorizonMoves: 40,
		FloorMoves:   20,
	}
}

// TimeFor returns the budget for the move about to be searched. The result
// never exceeds remaining*MaxFraction unless that is below the floor, in
// which case the floor wins. The floor is MinPerMove but at least
// minBudget, since a zero budget means an unbounded search.
func (a *TimeAllocator) TimeFor(pos *chess.Position, remaining time.Duration, moveCount int) time.Duration {
	floor := max(a.MinPerMove, minBudget)
	if remaining <= 0 {
		return floor
	}
	movesLeft := max(a.HorizonMoves-moveCount, a.FloorMoves, 1)
	base := float64(remaining) / float64(movesLeft)

	budget := time.Duration(base * Complexity(pos))
	budget = clamp(budget, 0, time.Duration(float64(remaining)*a.MaxFraction))
	return max(budget, floor)
}

// Complexity scales the base allocation: busy positions and positions in
// check get more time. The factor lies in [0.5, 2].
func Complexity(pos *chess.Position) float64 {
	if pos == nil {
		return 1
	}
	return complexityFactor(game.PieceCount(pos), len(pos.ValidMoves()), game.InCheck(pos, pos.Turn()))
}

func complexityFactor(pieces, legalMoves int, inCheck bool) float64 {
	factor := float64(pieces) / 32 * float64(legalMoves) / 20
	if inCheck {
		factor *= 1.5
	}
	return clamp(factor, 0.5, 2.0)
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clock tracks one side's remaining time over a game.
type Clock struct {
	Remaining time.Duration
	Increment time.Duration
	MoveCount int
}

func NewClock(initial, increment time.Duration) *Clock {
	return &Clock{Remaining: initial, Increment: increment}
}

// Update charges spent to the clock and credits the increment.
func (c *Clock) Update(spent time.Duration) {
	c.Remaining -= spent
	c.Remaining += c.Increment
	c.MoveCount++
}

// Flagged reports whether the clock ran out before the increment could
// save it.
func (c *Clock) Flagged() bool {
	return c.Remaining <= 0
}
