package bots

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"chessGo/game"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"
)

// SeedGeneratorFn supplies seeds for searches configured without one.
var SeedGeneratorFn = func() int64 {
	return int64(frand.Uint64n(math.MaxInt64)) + 1
}

const (
	// DefaultExplorationConstant is the UCB1 c, close to sqrt(2).
	DefaultExplorationConstant = 1.41
	DefaultMaxIterations       = 1000
	DefaultMaxRolloutDepth     = 50

	// rolloutScale converts a centipawn score into the logistic [0, 1]
	// result range used by the tree.
	rolloutScale = 400.0
)

// MCTSBot searches with Monte Carlo tree search. Every call builds a fresh
// tree and discards it on return.
type MCTSBot struct {
	ExplorationConstant float64
	// MaxIterations caps the iterations of one search; zero means no cap
	// when a time budget is given.
	MaxIterations   int
	MaxRolloutDepth int
	// Seed fixes the random source for reproducible searches. Zero draws a
	// fresh seed per search.
	Seed int64
	// Threads > 1 grows that many independent trees and sums their root
	// visit counts.
	Threads   int
	Evaluator PositionEvaluator
	Logger    zerolog.Logger
}

func NewMCTSBot(evaluator PositionEvaluator) *MCTSBot {
	if evaluator == nil {
		evaluator = DefaultEvaluator{}
	}
	return &MCTSBot{
		ExplorationConstant: DefaultExplorationConstant,
		MaxIterations:       DefaultMaxIterations,
		MaxRolloutDepth:     DefaultMaxRolloutDepth,
		Threads:             1,
		Evaluator:           evaluator,
		Logger:              zerolog.Nop(),
	}
}

func (b *MCTSBot) Name() string {
	return fmt.Sprintf("MCTS Bot (c=%.2f)", b.ExplorationConstant)
}

// BestMove implements ChessBot.
func (b *MCTSBot) BestMove(ctx context.Context, pos *chess.Position, budget time.Duration) (*chess.Move, error) {
	res, err := b.Search(ctx, pos, budget)
	return res.Move, err
}

// Search runs until the budget or the iteration cap is exhausted, checking
// both only between iterations, and returns the most visited root move.
func (b *MCTSBot) Search(ctx context.Context, pos *chess.Position, budget time.Duration) (SearchResult, error) {
	if err := game.Validate(pos); err != nil {
		return SearchResult{}, err
	}
	start := time.Now()
	moves := pos.ValidMoves()
	if len(moves) == 0 {
		return SearchResult{StopReason: StopNoMoves}, nil
	}

	var deadline time.Time
	if budget > 0 {
		deadline = start.Add(budget)
	}
	maxIterations := b.MaxIterations
	if maxIterations <= 0 && deadline.IsZero() {
		maxIterations = DefaultMaxIterations
	}
	seed := b.Seed
	if seed == 0 {
		seed = SeedGeneratorFn()
	}

	var res SearchResult
	if b.Threads > 1 {
		res = b.searchParallel(ctx, pos, deadline, maxIterations, seed)
	} else {
		tree := b.NewTree(pos, seed)
		res.StopReason = tree.Run(ctx, deadline, maxIterations)
		res = tree.result(res.StopReason)
	}

	if res.Move == nil {
		// Nothing was expanded before the budget ran out.
		rng := rand.New(rand.NewSource(seed))
		res.Move = moves[rng.Intn(len(moves))]
	}
	res.Elapsed = time.Since(start)

	b.Logger.Debug().
		Int("iterations", res.Iterations).
		Int("visits", res.Visits).
		Float64("score", res.Score).
		Dur("elapsed", res.Elapsed).
		Str("stop", res.StopReason.String()).
		Msg("mcts search finished")
	return res, nil
}

func (b *MCTSBot) searchParallel(ctx context.Context, pos *chess.Position, deadline time.Time, maxIterations int, seed int64) SearchResult {
	trees := make([]*SearchTree, b.Threads)
	reasons := make([]StopReason, b.Threads)
	g, gctx := errgroup.WithContext(ctx)
	for i := range trees {
		i := i
		trees[i] = b.NewTree(pos, seed+int64(i))
		g.Go(func() error {
			reasons[i] = trees[i].Run(gctx, deadline, maxIterations)
			return nil
		})
	}
	_ = g.Wait()

	// Sum visits per root move. Ties go to the earlier legal move.
	res := SearchResult{StopReason: reasons[0]}
	for _, tree := range trees {
		res.Iterations += tree.Iterations()
	}
	for _, move := range pos.ValidMoves() {
		visits, total := 0, 0.0
		for _, tree := range trees {
			if c := tree.root.child(move); c != nil {
				visits += c.visits
				total += c.total
			}
		}
		if visits > res.Visits {
			res.Move, res.Visits = move, visits
			res.Score = winRateToCentipawns(total / float64(visits))
		}
	}
	return res
}

// SearchTree is the tree of one search invocation.
type SearchTree struct {
	root            *mctsNode
	rng             *rand.Rand
	evaluator       PositionEvaluator
	exploration     float64
	maxRolloutDepth int
	iterations      int
}

// NewTree builds an unexpanded tree rooted at pos with its own random
// source.
func (b *MCTSBot) NewTree(pos *chess.Position, seed int64) *SearchTree {
	return &SearchTree{
		root:            newRootNode(pos),
		rng:             rand.New(rand.NewSource(seed)),
		evaluator:       b.Evaluator,
		exploration:     b.ExplorationConstant,
		maxRolloutDepth: max(b.MaxRolloutDepth, 0),
	}
}

// Iterations is the number of completed select/expand/simulate/backprop
// cycles.
func (t *SearchTree) Iterations() int {
	return t.iterations
}

// Size counts the nodes of the tree.
func (t *SearchTree) Size() int {
	return t.root.size()
}

// Run iterates until one of the limits is hit. A zero deadline or a
// non-positive maxIterations disables that limit.
func (t *SearchTree) Run(ctx context.Context, deadline time.Time, maxIterations int) StopReason {
	for {
		if maxIterations > 0 && t.iterations >= maxIterations {
			return StopIterations
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return StopDeadline
		}
		if ctx != nil && ctx.Err() != nil {
			return StopCancelled
		}
		if t.root.terminal() {
			return StopNoMoves
		}
		t.Iterate()
	}
}

// Iterate runs a single MCTS cycle.
func (t *SearchTree) Iterate() {
	node := t.root
	for node.fullyExpanded() {
		node = node.selectChild(t.exploration)
	}
	if child := node.expand(t.rng); child != nil {
		node = child
	}
	t.backpropagate(node, t.simulate(node.pos))
	t.iterations++
}

// simulate plays uniformly random moves from pos and returns the outcome
// in [0, 1] for the side to move at pos.
func (t *SearchTree) simulate(pos *chess.Position) float64 {
	leaf := pos.Turn()
	status := game.StatusOf(pos)
	for depth := 0; depth < t.maxRolloutDepth && status == game.Ongoing; depth++ {
		moves := pos.ValidMoves()
		pos = pos.Update(moves[t.rng.Intn(len(moves))])
		status = game.StatusOf(pos)
	}

	switch status {
	case game.Checkmate:
		if pos.Turn() == leaf {
			return 0
		}
		return 1
	case game.Stalemate, game.DrawByRule:
		return 0.5
	}

	score := t.evaluator.Evaluate(pos)
	if leaf == chess.Black {
		score = -score
	}
	return 1 / (1 + math.Exp(-score/rolloutScale))
}

// backpropagate credits result, given for the side to move at node, to
// every node on the path to the root, complementing it at each ply.
func (t *SearchTree) backpropagate(node *mctsNode, result float64) {
	for n := node; n != nil; n = n.parent {
		result = 1 - result
		n.update(result)
	}
}

func (t *SearchTree) result(reason StopReason) SearchResult {
	res := SearchResult{StopReason: reason, Iterations: t.iterations}
	if best := t.root.mostVisited(); best != nil {
		res.Move = best.move
		res.Visits = best.visits
		res.Score = winRateToCentipawns(best.winRate())
	}
	return res
}

// winRateToCentipawns inverts the rollout squashing.
func winRateToCentipawns(w float64) float64 {
	const eps = 1e-6
	w = math.Min(math.Max(w, eps), 1-eps)
	return rolloutScale * math.Log(w/(1-w))
}
