package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS desk_games (
	id                BIGSERIAL PRIMARY KEY,
	session_uuid      TEXT NOT NULL UNIQUE,
	name              TEXT NOT NULL,
	human_color       TEXT NOT NULL,
	engine            TEXT NOT NULL,
	preset            TEXT NOT NULL,
	outcome           TEXT NOT NULL,
	result            TEXT NOT NULL,
	failure           TEXT NOT NULL DEFAULT '',
	start_fen         TEXT NOT NULL,
	moves_uci         JSONB NOT NULL,
	moves_san         JSONB NOT NULL,
	pgn               TEXT NOT NULL,
	started_at        TIMESTAMPTZ NOT NULL,
	ended_at          TIMESTAMPTZ NOT NULL,
	duration_ms       BIGINT,
	engine_latency_ms BIGINT
);
CREATE INDEX IF NOT EXISTS desk_games_ended_at ON desk_games (ended_at DESC);`

const selectColumns = `
	id,
	session_uuid,
	name,
	human_color,
	engine,
	preset,
	outcome,
	result,
	failure,
	start_fen,
	moves_uci,
	moves_san,
	pgn,
	started_at,
	ended_at,
	duration_ms,
	engine_latency_ms`

type postgresRepository struct {
	db *sql.DB
}

// OpenPostgres connects with lib/pq, checks the connection and creates the
// table when missing.
func OpenPostgres(ctx context.Context, databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("database url is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return NewPostgresRepository(db), nil
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) SaveGame(ctx context.Context, rec *GameRecord) (int64, error) {
	if rec == nil {
		return 0, errors.New("nil game record")
	}
	movesUCI, err := json.Marshal(nonNil(rec.MovesUCI))
	if err != nil {
		return 0, fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(nonNil(rec.MovesSAN))
	if err != nil {
		return 0, fmt.Errorf("marshal moves_san: %w", err)
	}

	const query = `
		INSERT INTO desk_games (
			session_uuid,
			name,
			human_color,
			engine,
			preset,
			outcome,
			result,
			failure,
			start_fen,
			moves_uci,
			moves_san,
			pgn,
			started_at,
			ended_at,
			duration_ms,
			engine_latency_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11::jsonb, $12, $13, $14, $15, $16)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		rec.SessionUUID,
		rec.Name,
		rec.HumanColor,
		rec.Engine,
		rec.Preset,
		rec.Outcome,
		rec.Result,
		rec.Failure,
		rec.StartFEN,
		movesUCI,
		movesSAN,
		rec.PGN,
		rec.StartedAt,
		rec.EndedAt,
		rec.Duration.Milliseconds(),
		rec.EngineLatency.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return id.Int64, nil
}

func (r *postgresRepository) RecentGames(ctx context.Context, limit int) ([]*GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT` + selectColumns + `
		FROM desk_games
		ORDER BY ended_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	defer rows.Close()

	games := make([]*GameRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

func (r *postgresRepository) GameBySession(ctx context.Context, sessionUUID string) (*GameRecord, error) {
	query := `SELECT` + selectColumns + `
		FROM desk_games
		WHERE session_uuid = $1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, strings.TrimSpace(sessionUUID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *postgresRepository) Close() error { return r.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*GameRecord, error) {
	var (
		rec          GameRecord
		movesUCIJSON []byte
		movesSANJSON []byte
		durationMS   sql.NullInt64
		latencyMS    sql.NullInt64
	)
	err := row.Scan(
		&rec.ID,
		&rec.SessionUUID,
		&rec.Name,
		&rec.HumanColor,
		&rec.Engine,
		&rec.Preset,
		&rec.Outcome,
		&rec.Result,
		&rec.Failure,
		&rec.StartFEN,
		&movesUCIJSON,
		&movesSANJSON,
		&rec.PGN,
		&rec.StartedAt,
		&rec.EndedAt,
		&durationMS,
		&latencyMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan game: %w", err)
	}
	if durationMS.Valid {
		rec.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if latencyMS.Valid {
		rec.EngineLatency = time.Duration(latencyMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(movesUCIJSON, &rec.MovesUCI); err != nil {
		return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
	}
	if err := json.Unmarshal(movesSANJSON, &rec.MovesSAN); err != nil {
		return nil, fmt.Errorf("unmarshal moves_san: %w", err)
	}
	return &rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
