// Package config loads the desk settings: defaults, then an optional YAML
// file, then environment variables. Command-line flags are applied by the
// caller on top of the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/park285/cheese-desk/internal/game"
)

type AppConfig struct {
	StockfishPath string   `yaml:"stockfish_path"`
	EngineArgs    []string `yaml:"engine_args"`
	SkillLevel    int      `yaml:"skill_level"`
	// Preset names a strength preset (level1..level8 or an alias). When set
	// it takes precedence over SkillLevel.
	Preset        string `yaml:"preset"`
	MoveTimeMS    int    `yaml:"move_time_ms"`
	EngineGraceMS int    `yaml:"engine_grace_ms"`
	HumanColor    string `yaml:"human_color"`
	BoardSize     int    `yaml:"board_size"`
	StartFEN      string `yaml:"start_fen"`
	Coordinates   bool   `yaml:"coordinates"`
	ResultDialog  bool   `yaml:"result_dialog"`

	PolyglotBookPath string `yaml:"polyglot_book_path"`
	OpeningMaxPly    int    `yaml:"opening_max_ply"`
	OpeningMinWeight int    `yaml:"opening_min_weight"`

	MessagesDir string `yaml:"messages_dir"`

	RedisURL       string `yaml:"redis_url"`
	DatabaseURL    string `yaml:"database_url"`
	ArchiveTTLSec  int    `yaml:"archive_ttl_sec"`
	ArchiveHistory int    `yaml:"archive_history"`

	SpectatorAddr     string `yaml:"spectator_addr"`
	SpectatorRelayURL string `yaml:"spectator_relay_url"`
}

func Default() *AppConfig {
	return &AppConfig{
		StockfishPath:    "stockfish",
		SkillLevel:       1,
		MoveTimeMS:       200,
		EngineGraceMS:    2000,
		HumanColor:       "white",
		BoardSize:        640,
		StartFEN:         game.StartFEN,
		Coordinates:      true,
		ResultDialog:     true,
		OpeningMaxPly:    12,
		OpeningMinWeight: 1,
		ArchiveTTLSec:    30 * 24 * 3600,
		ArchiveHistory:   20,
	}
}

// Load builds the configuration. path may be empty, in which case
// CHESS_CONFIG is consulted; a missing explicit file is an error.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv("CHESS_CONFIG"))
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setString(&cfg.StockfishPath, "STOCKFISH_PATH")
	setString(&cfg.Preset, "CHESS_PRESET")
	setString(&cfg.HumanColor, "CHESS_HUMAN_COLOR")
	setString(&cfg.StartFEN, "CHESS_START_FEN")
	setString(&cfg.PolyglotBookPath, "CHESS_POLYGLOT_BOOK_PATH")
	setString(&cfg.MessagesDir, "CHESS_MESSAGES_DIR")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.SpectatorAddr, "SPECTATOR_ADDR")
	setString(&cfg.SpectatorRelayURL, "SPECTATOR_RELAY_URL")

	// skill 0 is a valid level, so only parse failures are skipped
	if v := strings.TrimSpace(os.Getenv("CHESS_SKILL_LEVEL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SkillLevel = n
		}
	}
	setPositiveInt(&cfg.MoveTimeMS, "CHESS_MOVE_TIME_MS")
	setPositiveInt(&cfg.EngineGraceMS, "CHESS_ENGINE_GRACE_MS")
	setPositiveInt(&cfg.BoardSize, "CHESS_BOARD_SIZE")
	setPositiveInt(&cfg.OpeningMaxPly, "CHESS_OPENING_MAX_PLY")
	setPositiveInt(&cfg.OpeningMinWeight, "CHESS_OPENING_MIN_WEIGHT")
	setPositiveInt(&cfg.ArchiveTTLSec, "CHESS_ARCHIVE_TTL")
	setPositiveInt(&cfg.ArchiveHistory, "CHESS_HISTORY_LIMIT")

	if v := strings.TrimSpace(os.Getenv("CHESS_COORDINATES")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Coordinates = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHESS_RESULT_DIALOG")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ResultDialog = b
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setPositiveInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func (c *AppConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.StockfishPath) == "" {
		errs = append(errs, errors.New("stockfish path is required"))
	}
	if c.SkillLevel < 0 || c.SkillLevel > 20 {
		errs = append(errs, fmt.Errorf("skill level %d out of range 0-20", c.SkillLevel))
	}
	if c.MoveTimeMS <= 0 {
		errs = append(errs, fmt.Errorf("move time must be positive, got %dms", c.MoveTimeMS))
	}
	if c.EngineGraceMS < 0 {
		errs = append(errs, fmt.Errorf("engine grace must not be negative, got %dms", c.EngineGraceMS))
	}
	if c.BoardSize <= 0 || c.BoardSize%8 != 0 {
		errs = append(errs, fmt.Errorf("board size %d must be a positive multiple of 8", c.BoardSize))
	}
	if _, err := game.ParseColor(c.HumanColor); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *AppConfig) MoveBudget() time.Duration {
	return time.Duration(c.MoveTimeMS) * time.Millisecond
}

func (c *AppConfig) EngineGrace() time.Duration {
	return time.Duration(c.EngineGraceMS) * time.Millisecond
}

func (c *AppConfig) SquareSize() int { return c.BoardSize / 8 }

// Human returns the human's colour; Validate has already rejected bad values.
func (c *AppConfig) Human() game.Color {
	color, _ := game.ParseColor(c.HumanColor)
	return color
}

func (c *AppConfig) ArchiveTTL() time.Duration {
	return time.Duration(c.ArchiveTTLSec) * time.Second
}
