package bots

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"chessGo/game"

	"github.com/notnil/chess"
)

// RandomBot plays a uniformly random legal move.
type RandomBot struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomBot seeds the bot; a zero seed draws one at random.
func NewRandomBot(seed int64) *RandomBot {
	if seed == 0 {
		seed = SeedGeneratorFn()
	}
	return &RandomBot{rng: rand.New(rand.NewSource(seed))}
}

func (b *RandomBot) BestMove(ctx context.Context, pos *chess.Position, budget time.Duration) (*chess.Move, error) {
	if err := game.Validate(pos); err != nil {
		return nil, err
	}
	return b.Pick(pos.ValidMoves()), nil
}

// Pick returns one of moves, or nil when there are none.
func (b *RandomBot) Pick(moves []*chess.Move) *chess.Move {
	if len(moves) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return moves[b.rng.Intn(len(moves))]
}

func (b *RandomBot) Name() string {
	return "Random Bot"
}
