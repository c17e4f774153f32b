package bots

import (
	"testing"
	"time"

	"chessGo/game"
)

func TestTimeForBounds(t *testing.T) {
	a := NewTimeAllocator(DefaultMinTimePerMove, DefaultMaxTimePercentage)
	fens := []string{
		game.StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		"4k3/8/8/8/8/8/8/3QK3 w - - 0 1",
		"rnbqkbnr/ppp2ppp/8/3pp2Q/4P3/8/PPPP1PPP/RNB1KBNR b KQkq - 1 3",
	}
	remainings := []time.Duration{
		time.Second, 5 * time.Second, 30 * time.Second, 3 * time.Minute, time.Hour,
	}
	for _, fen := range fens {
		pos := mustPosition(t, fen)
		for _, remaining := range remainings {
			for _, moveCount := range []int{0, 10, 39, 80} {
				got := a.TimeFor(pos, remaining, moveCount)
				if got < a.MinPerMove {
					t.Errorf("%s rem=%v move=%d: %v below floor", fen, remaining, moveCount, got)
				}
				if ceiling := time.Duration(float64(remaining) * a.MaxFraction); ceiling >= a.MinPerMove && got > ceiling {
					t.Errorf("%s rem=%v move=%d: %v above %v", fen, remaining, moveCount, got, ceiling)
				}
			}
		}
	}
}

func TestTimeForFloorWins(t *testing.T) {
	a := NewTimeAllocator(DefaultMinTimePerMove, DefaultMaxTimePercentage)
	pos := game.StartingPosition()
	for _, remaining := range []time.Duration{0, -time.Second, 200 * time.Millisecond} {
		if got := a.TimeFor(pos, remaining, 5); got != a.MinPerMove {
			t.Errorf("rem=%v: got %v, want floor %v", remaining, got, a.MinPerMove)
		}
	}
}

func TestTimeForNeverZero(t *testing.T) {
	a := NewTimeAllocator(0, DefaultMaxTimePercentage)
	pos := game.StartingPosition()
	for _, remaining := range []time.Duration{0, -time.Second, time.Microsecond} {
		if got := a.TimeFor(pos, remaining, 10); got <= 0 {
			t.Errorf("rem=%v: budget %v, want positive", remaining, got)
		}
	}
}

func TestComplexityCheckGetsMore(t *testing.T) {
	cases := []struct{ pieces, moves int }{
		{32, 20}, {24, 30}, {20, 25}, {12, 40},
	}
	for _, tc := range cases {
		quiet := complexityFactor(tc.pieces, tc.moves, false)
		check := complexityFactor(tc.pieces, tc.moves, true)
		if check <= quiet {
			t.Errorf("%+v: in check %v, quiet %v", tc, check, quiet)
		}
	}
	if got := complexityFactor(32, 20, false); got != 1 {
		t.Errorf("reference factor %v, want 1", got)
	}

	a := NewTimeAllocator(time.Millisecond, 1)
	pos := game.StartingPosition()
	if got, want := a.TimeFor(pos, 60*time.Second, 0), 1500*time.Millisecond; got != want {
		t.Errorf("start budget %v, want %v", got, want)
	}
}

func TestComplexityClamped(t *testing.T) {
	cases := map[string]float64{
		"bare kings": Complexity(mustPosition(t, "8/8/4k3/8/8/3K4/8/8 w - - 0 1")),
		"start":      Complexity(game.StartingPosition()),
		"busy":       Complexity(mustPosition(t, "r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/2N2N2/PPPP1PPP/R1BQK2R w KQkq - 6 5")),
	}
	for name, c := range cases {
		if c < 0.5 || c > 2 {
			t.Errorf("%s: complexity %v outside [0.5, 2]", name, c)
		}
	}
	if cases["bare kings"] != 0.5 {
		t.Errorf("bare kings complexity %v, want 0.5", cases["bare kings"])
	}
}

func TestClockUpdate(t *testing.T) {
	c := NewClock(DefaultInitialTime, DefaultIncrement)
	c.Update(5 * time.Second)
	if c.Remaining != DefaultInitialTime-5*time.Second+DefaultIncrement || c.MoveCount != 1 {
		t.Fatalf("clock after one move: %+v", c)
	}
	c.Update(c.Remaining + DefaultIncrement)
	if !c.Flagged() {
		t.Fatalf("clock should be flagged: %+v", c)
	}
}
