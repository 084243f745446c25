// Package archive stores finished games in Postgres, Redis or memory.
package archive

import (
	"context"
	"errors"
	"time"
)

var ErrDuplicateGame = errors.New("game already archived")

// GameRecord is one finished session as written to the archive.
type GameRecord struct {
	ID            int64         `json:"id"`
	SessionUUID   string        `json:"session_uuid"`
	Name          string        `json:"name"`
	HumanColor    string        `json:"human_color"`
	Engine        string        `json:"engine"`
	Preset        string        `json:"preset"`
	Outcome       string        `json:"outcome"`
	Result        string        `json:"result"`
	Failure       string        `json:"failure,omitempty"`
	StartFEN      string        `json:"start_fen"`
	MovesUCI      []string      `json:"moves_uci"`
	MovesSAN      []string      `json:"moves_san"`
	PGN           string        `json:"pgn"`
	StartedAt     time.Time     `json:"started_at"`
	EndedAt       time.Time     `json:"ended_at"`
	Duration      time.Duration `json:"duration"`
	EngineLatency time.Duration `json:"engine_latency"`
}

type Repository interface {
	// SaveGame stores rec and returns its id. A second save of the same
	// session fails with ErrDuplicateGame.
	SaveGame(ctx context.Context, rec *GameRecord) (int64, error)
	// RecentGames lists games newest first.
	RecentGames(ctx context.Context, limit int) ([]*GameRecord, error)
	// GameBySession returns nil, nil when the session is unknown.
	GameBySession(ctx context.Context, sessionUUID string) (*GameRecord, error)
	Close() error
}
