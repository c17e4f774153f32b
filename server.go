package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"time"

	"chessGo/bots"
	"chessGo/config"
	"chessGo/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type bestMoveRequest struct {
	FEN         string `json:"fen"`
	MoveTimeMs  int    `json:"movetime_ms"`
	RemainingMs int    `json:"remaining_ms"`
	IncrementMs int    `json:"increment_ms"`
	MoveNumber  int    `json:"move_number"`
}

type bestMoveResponse struct {
	Move     string `json:"move"`
	Source   string `json:"source"`
	Status   string `json:"status"`
	BudgetMs int64  `json:"budget_ms"`
}

func newRouter(s *bots.Selector, allocator *bots.TimeAllocator, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Post("/bestmove", func(w http.ResponseWriter, r *http.Request) {
		var payload bestMoveRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if payload.FEN == "" {
			payload.FEN = game.StartFEN
		}
		pos, err := game.ParsePosition(payload.FEN)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		budget := time.Duration(payload.MoveTimeMs) * time.Millisecond
		if budget <= 0 {
			moveCount := payload.MoveNumber
			if moveCount <= 0 {
				moveCount = game.FullMoveNumber(pos) - 1
			}
			remaining := time.Duration(payload.RemainingMs+payload.IncrementMs) * time.Millisecond
			budget = allocator.TimeFor(pos, remaining, moveCount)
		}

		d, err := s.Select(r.Context(), pos, budget)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, game.ErrInvalidPosition) {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("fen", payload.FEN).
			Str("source", string(d.Source)).
			Dur("budget", budget).
			Msg("bestmove")

		resp := bestMoveResponse{
			Source:   string(d.Source),
			Status:   game.StatusOf(pos).String(),
			BudgetMs: budget.Milliseconds(),
		}
		if d.Move != nil {
			resp.Move = game.MoveString(pos, d.Move)
		}
		writeJSON(w, http.StatusOK, resp)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func runServe(ctx context.Context, cfg config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	_ = fs.Parse(args)

	s, cleanup, err := newSelector(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newRouter(s, cfg.TimeAllocator(), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", *addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
