package archive

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/park285/cheese-desk/internal/game"
)

type stubHistory struct {
	uci, san []string
}

func (h stubHistory) StartFEN() string     { return game.StartFEN }
func (h stubHistory) UCIHistory() []string { return h.uci }
func (h stubHistory) SANHistory() []string { return h.san }

func TestRecorderArchivesFinishedGame(t *testing.T) {
	repo := NewMemoryRepository()
	history := stubHistory{
		uci: []string{"f2f3", "e7e5", "g2g4", "d8h4"},
		san: []string{"f3", "e5", "g4", "Qh4#"},
	}
	rec := NewRecorder(repo, history, RecorderConfig{Engine: "FakeFish", Preset: "skill1"}, nil)
	start := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	rec.started = start
	rec.now = func() time.Time { return start.Add(90 * time.Second) }

	rec.MoveApplied(game.MoveRecord{Side: game.Human, Think: time.Hour})
	rec.MoveApplied(game.MoveRecord{Side: game.Opponent, Think: 100 * time.Millisecond})
	rec.MoveApplied(game.MoveRecord{Side: game.Opponent, Think: 300 * time.Millisecond})
	rec.GameFinished(game.Report{Outcome: game.OpponentWin, Plies: 4, Human: game.White})

	saved, err := rec.Saved()
	if err != nil || saved == nil {
		t.Fatalf("Saved = %v, %v", saved, err)
	}
	if saved.Result != "0-1" || saved.Outcome != "opponent-win" || saved.Duration != 90*time.Second {
		t.Fatalf("record = %+v", saved)
	}
	if saved.EngineLatency != 200*time.Millisecond {
		t.Fatalf("latency = %v", saved.EngineLatency)
	}
	if !strings.Contains(saved.PGN, "2. g4 Qh4# 0-1") || !strings.Contains(saved.PGN, `[Black "FakeFish"]`) {
		t.Fatalf("PGN:\n%s", saved.PGN)
	}
	if rec.Name() == "" || saved.Name != rec.Name() {
		t.Fatalf("name = %q / %q", rec.Name(), saved.Name)
	}

	stored, _ := repo.GameBySession(context.Background(), rec.SessionUUID())
	if stored == nil || stored.ID != saved.ID {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestRecorderEngineFailure(t *testing.T) {
	repo := NewMemoryRepository()
	rec := NewRecorder(repo, stubHistory{uci: []string{"e2e4"}, san: []string{"e4"}}, RecorderConfig{Engine: "FakeFish"}, nil)
	rec.GameFinished(game.Report{
		Outcome: game.Unknown,
		Err:     fmt.Errorf("%w: boom", game.ErrOpponentUnavailable),
		Human:   game.Black,
	})
	saved, err := rec.Saved()
	if err != nil {
		t.Fatalf("Saved: %v", err)
	}
	if saved.Result != "*" || !strings.Contains(saved.Failure, "boom") || saved.HumanColor != "black" {
		t.Fatalf("record = %+v", saved)
	}
	if !strings.Contains(saved.PGN, `[White "FakeFish"]`) || !strings.Contains(saved.PGN, `[Termination "abandoned"]`) {
		t.Fatalf("PGN:\n%s", saved.PGN)
	}

	rec.GameFinished(game.Report{Outcome: game.Unknown, Human: game.Black})
	if _, err := rec.Saved(); err == nil {
		t.Fatalf("second save of the same session should fail")
	}
}
