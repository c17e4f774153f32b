package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"chessGo/bots"
	"chessGo/config"
	"chessGo/game"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Algorithm = "alphabeta"
	cfg.SearchDepth = 1
	cfg.UseOpeningBook = false
	cfg.Seed = 9
	cfg.InitialTimeMs = 60000
	return cfg
}

func testSelector(t *testing.T, cfg config.Config) *bots.Selector {
	t.Helper()
	s, cleanup, err := newSelector(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(cleanup)
	return s
}

func postBestMove(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, bestMoveResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/bestmove", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var resp bestMoveResponse
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&resp); err != nil {
			t.Fatal(err)
		}
	}
	return rec, resp
}

func TestServerBestMove(t *testing.T) {
	cfg := testConfig()
	h := newRouter(testSelector(t, cfg), cfg.TimeAllocator(), zerolog.Nop())

	rec, resp := postBestMove(t, h, `{"fen": "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "movetime_ms": 50}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if resp.Move != "a1a8" || resp.Source != string(bots.SourceSearch) || resp.BudgetMs != 50 {
		t.Fatalf("response %+v", resp)
	}

	// Without a fixed move time the clock fields drive the budget.
	rec, resp = postBestMove(t, h, `{"remaining_ms": 40000, "move_number": 0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if resp.BudgetMs != 1000 {
		t.Fatalf("budget %dms, want 1000ms", resp.BudgetMs)
	}
}

func TestServerTerminalAndErrors(t *testing.T) {
	cfg := testConfig()
	h := newRouter(testSelector(t, cfg), cfg.TimeAllocator(), zerolog.Nop())

	rec, resp := postBestMove(t, h, `{"fen": "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", "movetime_ms": 10}`)
	if rec.Code != http.StatusOK || resp.Move != "" || resp.Status != game.Stalemate.String() {
		t.Fatalf("terminal: %d %+v", rec.Code, resp)
	}

	for _, body := range []string{`{`, `{"fen": "8/8/8/8/8/8/8/K7 w - - 0 1"}`} {
		rec, _ := postBestMove(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d", body, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	hrec := httptest.NewRecorder()
	h.ServeHTTP(hrec, req)
	if hrec.Code != http.StatusOK {
		t.Fatalf("healthz status %d", hrec.Code)
	}
}

func TestMatchPlaysLegalGame(t *testing.T) {
	cfg := testConfig()
	cfg.MinTimePerMoveMs = 1
	m := NewMatch(testSelector(t, cfg), testSelector(t, cfg), cfg, zerolog.Nop())
	if err := m.Play(context.Background(), 12); err != nil {
		t.Fatal(err)
	}
	n := len(m.chessGame.Moves())
	if n == 0 || n > 12 {
		t.Fatalf("played %d plies", n)
	}
	if n < 12 && !game.StatusOf(m.chessGame.Position()).Terminal() {
		t.Fatalf("stopped after %d plies in a live position", n)
	}
	if white, black := m.clocks[chess.White].MoveCount, m.clocks[chess.Black].MoveCount; white != (n+1)/2 || black != n/2 {
		t.Fatalf("clock move counts %d/%d after %d plies", white, black, n)
	}
	if !strings.HasPrefix(m.MoveList(), "1. ") {
		t.Fatalf("move list %q", m.MoveList())
	}
	if m.Result() == "" {
		t.Fatal("empty result")
	}
}

func TestMatchStopsAtMate(t *testing.T) {
	cfg := testConfig()
	m := NewMatch(testSelector(t, cfg), testSelector(t, cfg), cfg, zerolog.Nop())
	for _, s := range []string{"f2f3", "e7e5", "g2g4"} {
		mv, err := game.ParseMove(m.chessGame.Position(), s)
		if err != nil {
			t.Fatal(err)
		}
		if err := m.chessGame.Move(mv); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Play(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	if got := m.Result(); got != "Black wins by checkmate" {
		t.Fatalf("result %q after %s", got, m.MoveList())
	}
}

func TestServerConcurrentRequests(t *testing.T) {
	cfg := testConfig()
	cfg.SearchDepth = 3
	h := newRouter(testSelector(t, cfg), cfg.TimeAllocator(), zerolog.Nop())

	movetimes := []int{5, 300, 5, 300}
	codes := make([]int, len(movetimes))
	moves := make([]string, len(movetimes))
	var wg sync.WaitGroup
	for i, ms := range movetimes {
		i, ms := i, ms
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := fmt.Sprintf(`{"fen": %q, "movetime_ms": %d}`, game.StartFEN, ms)
			req := httptest.NewRequest(http.MethodPost, "/bestmove", strings.NewReader(body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			codes[i] = rec.Code
			var resp bestMoveResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err == nil {
				moves[i] = resp.Move
			}
		}()
	}
	wg.Wait()

	for i := range movetimes {
		if codes[i] != http.StatusOK {
			t.Fatalf("request %d: status %d", i, codes[i])
		}
		if _, err := game.ParseMove(game.StartingPosition(), moves[i]); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
}
