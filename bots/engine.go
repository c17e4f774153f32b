package bots

import (
	"context"
	"fmt"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

// Searcher is a bot that reports statistics with its move.
type Searcher interface {
	ChessBot
	Search(ctx context.Context, pos *chess.Position, budget time.Duration) (SearchResult, error)
}

// EngineOptions configures the search behind an Engine.
type EngineOptions struct {
	Algorithm           Algorithm
	ExplorationConstant float64
	MaxIterations       int
	// MaxRolloutDepth of zero keeps DefaultMaxRolloutDepth.
	MaxRolloutDepth int
	SearchDepth     int
	Seed            int64
	Threads         int
	Evaluator       PositionEvaluator
	Logger          zerolog.Logger
}

func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		Algorithm:           AlgorithmMCTS,
		ExplorationConstant: DefaultExplorationConstant,
		MaxIterations:       DefaultMaxIterations,
		MaxRolloutDepth:     DefaultMaxRolloutDepth,
		SearchDepth:         3,
		Threads:             1,
		Logger:              zerolog.Nop(),
	}
}

// Engine is the search entry point. The algorithm is chosen once, when the
// engine is built.
type Engine struct {
	algorithm Algorithm
	searcher  Searcher
}

func NewEngine(opts EngineOptions) (*Engine, error) {
	evaluator := opts.Evaluator
	if evaluator == nil {
		evaluator = DefaultEvaluator{}
	}

	var s Searcher
	switch opts.Algorithm {
	case AlgorithmMCTS:
		m := NewMCTSBot(evaluator)
		if opts.ExplorationConstant > 0 {
			m.ExplorationConstant = opts.ExplorationConstant
		}
		m.MaxIterations = opts.MaxIterations
		if opts.MaxRolloutDepth > 0 {
			m.MaxRolloutDepth = opts.MaxRolloutDepth
		}
		m.Seed = opts.Seed
		m.Threads = max(opts.Threads, 1)
		m.Logger = opts.Logger
		s = m
	case AlgorithmAlphaBeta:
		ab := NewMinimaxBot(opts.SearchDepth, evaluator)
		ab.Logger = opts.Logger
		s = ab
	default:
		return nil, fmt.Errorf("bots: unsupported algorithm %v", opts.Algorithm)
	}
	return &Engine{algorithm: opts.Algorithm, searcher: s}, nil
}

func (e *Engine) Algorithm() Algorithm {
	return e.algorithm
}

func (e *Engine) Name() string {
	return e.searcher.Name()
}

// BestMove returns nil, nil when pos has no legal moves.
func (e *Engine) BestMove(ctx context.Context, pos *chess.Position, budget time.Duration) (*chess.Move, error) {
	res, err := e.searcher.Search(ctx, pos, budget)
	return res.Move, err
}

func (e *Engine) Search(ctx context.Context, pos *chess.Position, budget time.Duration) (SearchResult, error) {
	return e.searcher.Search(ctx, pos, budget)
}
