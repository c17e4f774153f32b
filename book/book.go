// Package book provides the lookups tried before searching: opening books
// keyed by position and an endgame oracle backed by an external UCI engine.
//
// Every type here satisfies bots.MoveSource. A nil move with a nil error
// means the position is not covered.
package book

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chessGo/game"

	"github.com/notnil/chess"
)

// Key identifies a position for book lookups: placement, side to move and
// castling rights. The en passant field is left out because FEN writers
// disagree on when to set it.
func Key(pos *chess.Position) string {
	fields := strings.Fields(game.Key(pos))
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}

// MapBook is an in-memory book of one move per position.
type MapBook struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMapBook() *MapBook {
	return &MapBook{entries: make(map[string]string)}
}

// Add stores move, in UCI notation, for the position given as FEN. The move
// must be legal there.
func (b *MapBook) Add(fen, move string) error {
	pos, err := game.ParsePosition(fen)
	if err != nil {
		return err
	}
	if _, err := game.ParseMove(pos, move); err != nil {
		return fmt.Errorf("book entry for %q: %w", fen, err)
	}
	b.mu.Lock()
	b.entries[Key(pos)] = move
	b.mu.Unlock()
	return nil
}

func (b *MapBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (b *MapBook) Probe(ctx context.Context, pos *chess.Position) (*chess.Move, error) {
	b.mu.RLock()
	move, ok := b.entries[Key(pos)]
	b.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return game.ParseMove(pos, move)
}
