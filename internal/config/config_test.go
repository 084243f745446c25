package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/park285/cheese-desk/internal/game"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CHESS_CONFIG", "STOCKFISH_PATH", "CHESS_SKILL_LEVEL", "CHESS_PRESET",
		"CHESS_MOVE_TIME_MS", "CHESS_HUMAN_COLOR", "CHESS_BOARD_SIZE",
		"CHESS_START_FEN", "CHESS_POLYGLOT_BOOK_PATH", "REDIS_URL", "DATABASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StockfishPath != "stockfish" || cfg.SkillLevel != 1 || cfg.MoveBudget() != 200*time.Millisecond {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Human() != game.White || cfg.SquareSize() != 80 || cfg.StartFEN != game.StartFEN {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "desk.yaml")
	body := "stockfish_path: /opt/sf\nskill_level: 5\nhuman_color: black\nboard_size: 480\nmove_time_ms: 500\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CHESS_CONFIG", path)
	t.Setenv("CHESS_SKILL_LEVEL", "0")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StockfishPath != "/opt/sf" || cfg.Human() != game.Black || cfg.SquareSize() != 60 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.SkillLevel != 0 {
		t.Fatalf("env skill 0 not applied, got %d", cfg.SkillLevel)
	}
	if cfg.MoveTimeMS != 500 || cfg.RedisURL == "" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.BoardSize = 100
	cfg.SkillLevel = 21
	cfg.MoveTimeMS = 0
	cfg.HumanColor = "purple"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"board size 100", "skill level 21", "move time", "purple"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
