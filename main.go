package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"chessGo/book"
	"chessGo/bots"
	"chessGo/config"
	"chessGo/game"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
)

const usage = `usage: chessGo [-config file] <command> [flags]

commands:
  bestmove  pick a move for one position
  play      let the engine play itself on a clock
  serve     answer move requests over HTTP
`

func main() {
	fs := flag.NewFlagSet("chessGo", flag.ExitOnError)
	configPath := fs.String("config", "", "JSON configuration file")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.ApplyEnv()
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, args := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "bestmove":
		err = runBestMove(ctx, cfg, logger, args)
	case "play":
		err = runPlay(ctx, cfg, logger, args)
	case "serve":
		err = runServe(ctx, cfg, logger, args)
	default:
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error().Err(err).Str("command", cmd).Msg("failed")
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(cfg.Level()).With().Timestamp().Logger()
}

// newSelector wires the configured collaborators around the engine. The
// returned func releases the oracle process, if one was started.
func newSelector(cfg config.Config, logger zerolog.Logger) (*bots.Selector, func(), error) {
	opts, err := cfg.EngineOptions(logger)
	if err != nil {
		return nil, nil, err
	}
	engine, err := bots.NewEngine(opts)
	if err != nil {
		return nil, nil, err
	}

	s := bots.NewSelector(engine, cfg.Seed)
	s.TablebasePieces = cfg.TablebasePieces
	s.Logger = logger
	if cfg.UseOpeningBook {
		eco := book.NewECOBook()
		eco.Logger = logger
		s.Book = eco
	}

	cleanup := func() {}
	if cfg.OraclePath != "" {
		oracle, err := book.NewEngineOracle(cfg.OraclePath)
		if err != nil {
			logger.Warn().Err(err).Msg("endgame oracle unavailable")
		} else {
			oracle.Logger = logger
			s.Tablebase = oracle
			cleanup = func() { _ = oracle.Close() }
		}
	}
	logger.Debug().
		Str("engine", engine.Name()).
		Bool("book", s.Book != nil).
		Bool("tablebase", s.Tablebase != nil).
		Msg("selector ready")
	return s, cleanup, nil
}

func runBestMove(ctx context.Context, cfg config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("bestmove", flag.ExitOnError)
	fen := fs.String("fen", game.StartFEN, "position in FEN")
	movetime := fs.Duration("movetime", 0, "fixed search time; 0 allocates from the clock")
	remaining := fs.Duration("remaining", time.Duration(cfg.InitialTimeMs)*time.Millisecond, "remaining clock time")
	_ = fs.Parse(args)

	pos, err := game.ParsePosition(*fen)
	if err != nil {
		return err
	}
	budget := *movetime
	if budget <= 0 {
		budget = cfg.TimeAllocator().TimeFor(pos, *remaining, game.FullMoveNumber(pos)-1)
	}

	s, cleanup, err := newSelector(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	d, err := s.Select(ctx, pos, budget)
	if err != nil {
		return err
	}

	out := termenv.NewOutput(os.Stdout)
	if d.Move == nil {
		fmt.Fprintln(os.Stdout, out.String("no legal moves: "+game.StatusOf(pos).String()).Foreground(out.Color("1")))
		return nil
	}
	fmt.Fprintf(os.Stdout, "%s %s\n",
		out.String(game.MoveString(pos, d.Move)).Bold().Foreground(out.Color("2")),
		out.String(fmt.Sprintf("(%s, budget %v, took %v)", d.Source, budget, time.Since(start).Round(time.Millisecond))).Faint(),
	)
	return nil
}
