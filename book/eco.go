package book

import (
	"context"
	"sort"
	"sync"

	"chessGo/game"

	"github.com/notnil/chess"
	"github.com/notnil/chess/opening"
	"github.com/rs/zerolog"
)

// ECOBook answers with the most popular continuation across the ECO
// opening lines that pass through a position. The index is built on first
// use.
type ECOBook struct {
	Logger zerolog.Logger

	once  sync.Once
	index map[string][]candidate
}

type candidate struct {
	move  string
	count int
}

func NewECOBook() *ECOBook {
	return &ECOBook{Logger: zerolog.Nop()}
}

func (b *ECOBook) build() {
	counts := make(map[string]map[string]int)
	openings := opening.NewBookECO().Possible(nil)
	for _, o := range openings {
		g := o.Game()
		positions := g.Positions()
		for i, m := range g.Moves() {
			if i >= len(positions) {
				break
			}
			key := Key(positions[i])
			if counts[key] == nil {
				counts[key] = make(map[string]int)
			}
			counts[key][game.MoveString(positions[i], m)]++
		}
	}

	b.index = make(map[string][]candidate, len(counts))
	for key, moves := range counts {
		cands := make([]candidate, 0, len(moves))
		for m, n := range moves {
			cands = append(cands, candidate{move: m, count: n})
		}
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].count != cands[j].count {
				return cands[i].count > cands[j].count
			}
			return cands[i].move < cands[j].move
		})
		b.index[key] = cands
	}
	b.Logger.Debug().Int("openings", len(openings)).Int("positions", len(b.index)).Msg("opening book indexed")
}

// Probe implements bots.MoveSource.
func (b *ECOBook) Probe(ctx context.Context, pos *chess.Position) (*chess.Move, error) {
	for _, c := range b.Candidates(pos) {
		if m, err := game.ParseMove(pos, c); err == nil {
			return m, nil
		}
	}
	return nil, nil
}

// Candidates lists the book moves for pos in UCI notation, most popular
// first.
func (b *ECOBook) Candidates(pos *chess.Position) []string {
	b.once.Do(b.build)
	cands := b.index[Key(pos)]
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.move
	}
	return out
}

// Size is the number of indexed positions.
func (b *ECOBook) Size() int {
	b.once.Do(b.build)
	return len(b.index)
}
