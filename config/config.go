package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"chessGo/bots"

	"github.com/rs/zerolog"
)

type Config struct {
	Algorithm           string  `json:"algorithm"`
	ExplorationConstant float64 `json:"exploration_constant"`
	MaxIterations       int     `json:"max_iterations"`
	MaxRolloutDepth     int     `json:"max_rollout_depth"`
	SearchDepth         int     `json:"search_depth"`
	MinTimePerMoveMs    int     `json:"min_time_per_move_ms"`
	MaxTimePercentage   float64 `json:"max_time_percentage"`
	InitialTimeMs       int     `json:"initial_time_ms"`
	IncrementMs         int     `json:"increment_ms"`
	TablebasePieces     int     `json:"tablebase_pieces"`
	UseOpeningBook      bool    `json:"use_opening_book"`
	OraclePath          string  `json:"oracle_path"`
	Seed                int64   `json:"seed"`
	Threads             int     `json:"threads"`
	LogLevel            string  `json:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Algorithm:           bots.AlgorithmMCTS.String(),
		ExplorationConstant: bots.DefaultExplorationConstant,
		MaxIterations:       bots.DefaultMaxIterations,
		MaxRolloutDepth:     bots.DefaultMaxRolloutDepth,
		SearchDepth:         3,

		MinTimePerMoveMs:  int(bots.DefaultMinTimePerMove / time.Millisecond),
		MaxTimePercentage: bots.DefaultMaxTimePercentage,
		InitialTimeMs:     int(bots.DefaultInitialTime / time.Millisecond),
		IncrementMs:       int(bots.DefaultIncrement / time.Millisecond),

		TablebasePieces: bots.DefaultTablebasePieces,
		UseOpeningBook:  true,
		OraclePath:      "", // no oracle unless configured

		Seed:     0, // fresh seed per search
		Threads:  1,
		LogLevel: "info",
	}
}

// Load reads a JSON file over the defaults, so a file only needs the keys
// it changes. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() error {
	var errs []error
	envFloat("MCTS_EXPLORATION_CONSTANT", &c.ExplorationConstant, &errs)
	envInt("MCTS_MAX_ITERATIONS", &c.MaxIterations, &errs)
	envInt("MCTS_MAX_DEPTH", &c.MaxRolloutDepth, &errs)
	envInt("CHESS_SEARCH_DEPTH", &c.SearchDepth, &errs)
	if v, ok := os.LookupEnv("CHESS_ALGORITHM"); ok {
		c.Algorithm = v
	}
	if v, ok := os.LookupEnv("CHESS_ORACLE_PATH"); ok {
		c.OraclePath = v
	}
	if v, ok := os.LookupEnv("CHESS_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	return errors.Join(errs...)
}

func envInt(name string, dst *int, errs *[]error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", name, err))
		return
	}
	*dst = n
}

func envFloat(name string, dst *float64, errs *[]error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", name, err))
		return
	}
	*dst = f
}

func (c Config) Validate() error {
	var errs []error
	if _, err := bots.ParseAlgorithm(c.Algorithm); err != nil {
		errs = append(errs, err)
	}
	if c.ExplorationConstant <= 0 {
		errs = append(errs, fmt.Errorf("exploration_constant must be positive, got %v", c.ExplorationConstant))
	}
	if c.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("max_iterations must not be negative, got %d", c.MaxIterations))
	}
	if c.MaxRolloutDepth <= 0 {
		errs = append(errs, fmt.Errorf("max_rollout_depth must be positive, got %d", c.MaxRolloutDepth))
	}
	if c.SearchDepth < 1 {
		errs = append(errs, fmt.Errorf("search_depth must be at least 1, got %d", c.SearchDepth))
	}
	if c.MinTimePerMoveMs <= 0 {
		errs = append(errs, fmt.Errorf("min_time_per_move_ms must be positive, got %d", c.MinTimePerMoveMs))
	}
	if c.MaxTimePercentage <= 0 || c.MaxTimePercentage > 1 {
		errs = append(errs, fmt.Errorf("max_time_percentage must be in (0, 1], got %v", c.MaxTimePercentage))
	}
	if c.InitialTimeMs <= 0 {
		errs = append(errs, fmt.Errorf("initial_time_ms must be positive, got %d", c.InitialTimeMs))
	}
	if c.IncrementMs < 0 {
		errs = append(errs, fmt.Errorf("increment_ms must not be negative, got %d", c.IncrementMs))
	}
	if c.Threads < 1 {
		errs = append(errs, fmt.Errorf("threads must be at least 1, got %d", c.Threads))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// EngineOptions maps the search settings onto bots.EngineOptions.
func (c Config) EngineOptions(logger zerolog.Logger) (bots.EngineOptions, error) {
	alg, err := bots.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return bots.EngineOptions{}, err
	}
	opts := bots.DefaultEngineOptions()
	opts.Algorithm = alg
	opts.ExplorationConstant = c.ExplorationConstant
	opts.MaxIterations = c.MaxIterations
	opts.MaxRolloutDepth = c.MaxRolloutDepth
	opts.SearchDepth = c.SearchDepth
	opts.Seed = c.Seed
	opts.Threads = c.Threads
	opts.Logger = logger
	return opts, nil
}

func (c Config) TimeAllocator() *bots.TimeAllocator {
	return bots.NewTimeAllocator(
		time.Duration(c.MinTimePerMoveMs)*time.Millisecond,
		c.MaxTimePercentage,
	)
}

func (c Config) Clock() *bots.Clock {
	return bots.NewClock(
		time.Duration(c.InitialTimeMs)*time.Millisecond,
		time.Duration(c.IncrementMs)*time.Millisecond,
	)
}

func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
