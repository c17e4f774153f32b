package bots

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"chessGo/game"
)

func newTestMCTS(iterations int) *MCTSBot {
	bot := NewMCTSBot(nil)
	bot.MaxIterations = iterations
	bot.MaxRolloutDepth = 10
	bot.Seed = 7
	return bot
}

func TestUCB1PrefersUnvisitedChild(t *testing.T) {
	root := newRootNode(game.StartingPosition())
	rng := rand.New(rand.NewSource(1))
	visited := root.expand(rng)
	fresh := root.expand(rng)

	// Give the visited child a perfect record.
	for i := 0; i < 10; i++ {
		visited.update(1)
		root.update(0)
	}
	if got := root.selectChild(DefaultExplorationConstant); got != fresh {
		t.Fatalf("selected %v, want the unvisited child %v", got.move, fresh.move)
	}
	if !math.IsInf(fresh.ucb1(DefaultExplorationConstant), 1) {
		t.Fatalf("ucb1 of unvisited child = %v", fresh.ucb1(DefaultExplorationConstant))
	}
}

func TestMCTSLegalMoves(t *testing.T) {
	fens := []string{
		game.StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		"8/5k2/8/3p4/2P1P3/8/5K2/8 b - - 0 40",
	}
	for _, fen := range fens {
		pos := mustPosition(t, fen)
		move, err := newTestMCTS(100).BestMove(context.Background(), pos, 0)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := game.FindLegal(pos, move); !ok {
			t.Fatalf("%s: illegal move %v", fen, move)
		}
	}
}

func TestMCTSSingleLegalMove(t *testing.T) {
	pos := mustPosition(t, "k7/8/8/8/8/8/1r6/K7 w - - 0 1")
	for _, iterations := range []int{1, 50} {
		move, err := newTestMCTS(iterations).BestMove(context.Background(), pos, 0)
		if err != nil {
			t.Fatal(err)
		}
		if got := game.MoveString(pos, move); got != "a1b2" {
			t.Fatalf("iterations %d: move=%s, want a1b2", iterations, got)
		}
	}
}

func TestMCTSNoMoves(t *testing.T) {
	pos := mustPosition(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	res, err := newTestMCTS(10).Search(context.Background(), pos, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Move != nil || res.StopReason != StopNoMoves {
		t.Fatalf("got %+v, want no move", res)
	}
}

func TestMCTSMonotonicVisits(t *testing.T) {
	pos := mustPosition(t, "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	bot := newTestMCTS(0)
	tree := bot.NewTree(pos, 11)

	const short = 150
	if reason := tree.Run(context.Background(), time.Time{}, short); reason != StopIterations {
		t.Fatalf("stop=%v", reason)
	}
	before := map[string]int{}
	for _, c := range tree.root.children {
		before[c.move.String()] = c.visits
	}

	// Continuing the same tree replays a longer run with the same seed.
	tree.Run(context.Background(), time.Time{}, 2*short)
	best := tree.root.mostVisited()
	if best.visits < before[best.move.String()] {
		t.Fatalf("chosen move lost visits: %d < %d", best.visits, before[best.move.String()])
	}

	// The same seed from scratch reaches the same tree.
	fresh := bot.NewTree(pos, 11)
	fresh.Run(context.Background(), time.Time{}, 2*short)
	if got := fresh.root.mostVisited(); !game.SameMove(got.move, best.move) || got.visits != best.visits {
		t.Fatalf("fresh run chose %v (%d), continued run %v (%d)", got.move, got.visits, best.move, best.visits)
	}
}

func TestMCTSTreeStatistics(t *testing.T) {
	bot := newTestMCTS(0)
	tree := bot.NewTree(game.StartingPosition(), 3)
	tree.Run(context.Background(), time.Time{}, 300)

	if tree.root.visits != tree.Iterations() {
		t.Fatalf("root visits %d, iterations %d", tree.root.visits, tree.Iterations())
	}
	sum := 0
	for _, c := range tree.root.children {
		sum += c.visits
	}
	if sum != tree.root.visits {
		t.Fatalf("children visits %d, root visits %d", sum, tree.root.visits)
	}
	if tree.Size() > tree.Iterations()+1 {
		t.Fatalf("size %d after %d iterations", tree.Size(), tree.Iterations())
	}

	var walk func(n *mctsNode)
	walk = func(n *mctsNode) {
		if n.total < 0 || n.total > float64(n.visits) {
			t.Fatalf("node %v: total %v outside [0, %d]", n.move, n.total, n.visits)
		}
		for _, c := range n.children {
			if c.parent != n {
				t.Fatalf("child %v has wrong parent", c.move)
			}
			walk(c)
		}
	}
	walk(tree.root)
}

func TestMCTSFindsMateInOne(t *testing.T) {
	pos := mustPosition(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	res, err := newTestMCTS(2000).Search(context.Background(), pos, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := game.MoveString(pos, res.Move); got != "a1a8" {
		t.Fatalf("move=%s, want a1a8", got)
	}
}

func TestMCTSBudgetExhaustedFallsBack(t *testing.T) {
	pos := game.StartingPosition()
	bot := newTestMCTS(0)
	res, err := bot.Search(context.Background(), pos, time.Nanosecond)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := game.FindLegal(pos, res.Move); !ok {
		t.Fatalf("illegal fallback move %v", res.Move)
	}
}

func TestMCTSCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := newTestMCTS(1000).Search(ctx, game.StartingPosition(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.StopReason != StopCancelled || res.Iterations != 0 || res.Move == nil {
		t.Fatalf("got %+v", res)
	}
}

func TestMCTSRootParallel(t *testing.T) {
	pos := game.StartingPosition()
	bot := newTestMCTS(100)
	bot.Threads = 4
	res, err := bot.Search(context.Background(), pos, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Iterations != 400 {
		t.Fatalf("iterations=%d, want 400", res.Iterations)
	}
	if _, ok := game.FindLegal(pos, res.Move); !ok {
		t.Fatalf("illegal move %v", res.Move)
	}
}

func TestMCTSTimeBudget(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 2s search in short mode")
	}
	const budget = 2 * time.Second
	bot := NewMCTSBot(nil)
	bot.MaxIterations = 0

	pos := game.StartingPosition()
	start := time.Now()
	res, err := bot.Search(context.Background(), pos, budget)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed > budget*12/10 {
		t.Fatalf("search took %v for a %v budget", elapsed, budget)
	}
	if res.StopReason != StopDeadline {
		t.Fatalf("stop=%v, want deadline", res.StopReason)
	}
	if _, ok := game.FindLegal(pos, res.Move); !ok {
		t.Fatalf("illegal move %v", res.Move)
	}
}
