package uci_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/park285/cheese-desk/internal/chess/uci"
	"github.com/park285/cheese-desk/internal/chess/uci/ucitest"
)

func TestHelperProcess(t *testing.T) { ucitest.Main() }

func startSession(t *testing.T, script ucitest.Script, opt uci.Options) *uci.Session {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	s, err := uci.NewSession(ctx, ucitest.Command(script), opt, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionHandshakeAndOptions(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "engine.log")
	s := startSession(t, ucitest.Script{LogPath: logPath}, uci.Options{SkillLevel: 3, HashMB: 16})

	if s.Name() != "FakeFish 1.0" {
		t.Fatalf("Name() = %q", s.Name())
	}
	if err := s.SetOption(context.Background(), "Skill Level", 5); err != nil {
		t.Fatalf("SetOption: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	log := string(raw)
	for _, want := range []string{
		"uci",
		"setoption name Skill Level value 3",
		"setoption name Hash value 16",
		"setoption name Skill Level value 5",
		"isready",
	} {
		if !strings.Contains(log, want+"\n") {
			t.Fatalf("engine did not receive %q; log:\n%s", want, log)
		}
	}
	if strings.Contains(log, "UCI_LimitStrength") {
		t.Fatalf("strength limit must not be sent without elo")
	}
}

func TestSessionSearch(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "engine.log")
	s := startSession(t, ucitest.Script{BestMove: "g1f3", LogPath: logPath}, uci.Options{SkillLevel: 1})

	resp, err := s.Search(context.Background(), uci.SearchRequest{
		Moves:  []string{"e2e4", "e7e5"},
		Limits: uci.Limits{MoveTimeMillis: 50},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.BestMove != "g1f3" {
		t.Fatalf("BestMove = %q", resp.BestMove)
	}
	if len(resp.Candidates) != 2 || resp.Candidates[0].Move != "g1f3" || resp.Candidates[0].EvalCP != 31 {
		t.Fatalf("Candidates = %+v", resp.Candidates)
	}
	_ = s.Close()

	raw, _ := os.ReadFile(logPath)
	log := string(raw)
	if !strings.Contains(log, "position startpos moves e2e4 e7e5\n") {
		t.Fatalf("missing position command; log:\n%s", log)
	}
	if !strings.Contains(log, "go movetime 50\n") {
		t.Fatalf("missing go command; log:\n%s", log)
	}
}

func TestSessionSearchDeadline(t *testing.T) {
	s := startSession(t, ucitest.Script{Mode: ucitest.ModeSilent}, uci.Options{})

	start := time.Now()
	_, err := s.Search(context.Background(), uci.SearchRequest{
		Limits: uci.Limits{MoveTimeMillis: 10, Grace: 100 * time.Millisecond},
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Search error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("deadline not honoured, took %v", elapsed)
	}
}

func TestSessionSearchCancelled(t *testing.T) {
	s := startSession(t, ucitest.Script{Mode: ucitest.ModeSilent}, uci.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := s.Search(ctx, uci.SearchRequest{Limits: uci.Limits{MoveTimeMillis: 5000}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Search error = %v, want canceled", err)
	}
}

func TestSessionHandshakeTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := uci.NewSession(ctx, ucitest.Command(ucitest.Script{Mode: ucitest.ModeNoHandshake}), uci.Options{}, nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
}

func TestSessionMissingBinary(t *testing.T) {
	_, err := uci.NewSession(context.Background(), uci.Command{Path: filepath.Join(t.TempDir(), "missing")}, uci.Options{}, nil)
	if err == nil {
		t.Fatalf("expected start failure")
	}
}

func TestSessionRejectsBadOptions(t *testing.T) {
	_, err := uci.NewSession(context.Background(), uci.Command{Path: "stockfish"}, uci.Options{SkillLevel: 21}, nil)
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestSessionSkipsLateReply(t *testing.T) {
	s := startSession(t, ucitest.Script{Mode: ucitest.ModeLateFirst, BestMove: "b1c3"}, uci.Options{})

	_, err := s.Search(context.Background(), uci.SearchRequest{
		Limits: uci.Limits{MoveTimeMillis: 10, Grace: 50 * time.Millisecond},
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("first Search error = %v, want deadline exceeded", err)
	}

	resp, err := s.Search(context.Background(), uci.SearchRequest{
		Moves:  []string{"e2e4"},
		Limits: uci.Limits{MoveTimeMillis: 10},
	})
	if err != nil {
		t.Fatalf("second Search: %v", err)
	}
	if resp.BestMove != "b1c3" {
		t.Fatalf("BestMove = %q, stale reply leaked", resp.BestMove)
	}
	for _, c := range resp.Candidates {
		if c.Move == "a2a3" {
			t.Fatalf("stale candidate leaked: %+v", resp.Candidates)
		}
	}
}

func TestSessionNoMove(t *testing.T) {
	s := startSession(t, ucitest.Script{Mode: ucitest.ModeNoMove}, uci.Options{})
	resp, err := s.Search(context.Background(), uci.SearchRequest{Limits: uci.Limits{Depth: 1}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.BestMove != "(none)" || len(resp.Candidates) != 0 {
		t.Fatalf("resp = %+v", resp)
	}
}
