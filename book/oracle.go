package book

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"github.com/rs/zerolog"
)

// ErrOracleClosed is returned by Probe after Close.
var ErrOracleClosed = errors.New("oracle closed")

// DefaultOracleMoveTime bounds one oracle query.
const DefaultOracleMoveTime = 200 * time.Millisecond

// EngineOracle stands in for an endgame tablebase by asking an external
// UCI engine for its best move. It is only worth consulting in positions
// with few pieces, where such engines play perfectly.
type EngineOracle struct {
	MoveTime time.Duration
	Depth    int
	Logger   zerolog.Logger

	mu  sync.Mutex
	eng *uci.Engine
}

// NewEngineOracle starts the engine binary at path and performs the UCI
// handshake.
func NewEngineOracle(path string) (*EngineOracle, error) {
	if path == "" {
		path = "stockfish"
	}
	eng, err := uci.New(path)
	if err != nil {
		return nil, fmt.Errorf("start oracle %q: %w", path, err)
	}
	if err := eng.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		eng.Close()
		return nil, fmt.Errorf("oracle handshake: %w", err)
	}
	return &EngineOracle{
		MoveTime: DefaultOracleMoveTime,
		Logger:   zerolog.Nop(),
		eng:      eng,
	}, nil
}

// Probe implements bots.MoveSource. The engine process serves one query
// at a time.
func (o *EngineOracle) Probe(ctx context.Context, pos *chess.Position) (*chess.Move, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.eng == nil {
		return nil, ErrOracleClosed
	}

	cmdGo := uci.CmdGo{MoveTime: o.MoveTime}
	if o.Depth > 0 {
		cmdGo = uci.CmdGo{Depth: o.Depth}
	}
	start := time.Now()
	if err := o.eng.Run(uci.CmdPosition{Position: pos}, cmdGo); err != nil {
		return nil, err
	}
	move := o.eng.SearchResults().BestMove
	o.Logger.Debug().
		Str("fen", pos.String()).
		Dur("elapsed", time.Since(start)).
		Bool("found", move != nil).
		Msg("oracle probed")
	return move, nil
}

// Close stops the engine process.
func (o *EngineOracle) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.eng == nil {
		return nil
	}
	err := o.eng.Close()
	o.eng = nil
	return err
}
