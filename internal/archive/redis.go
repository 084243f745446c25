package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "desk:game:"
	keyIndex    = "desk:games"
	keySequence = "desk:games:seq"
)

type redisRepository struct {
	rdb     *redis.Client
	ttl     time.Duration
	history int
}

// OpenRedis parses a redis:// or rediss:// URL and checks the connection.
func OpenRedis(ctx context.Context, redisURL string, ttl time.Duration, history int) (Repository, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisRepository(rdb, ttl, history), nil
}

// NewRedisRepository stores each game as JSON under its session key with
// ttl, and keeps at most history sessions in the recency index. Zero values
// mean no expiry and no trimming.
func NewRedisRepository(rdb *redis.Client, ttl time.Duration, history int) Repository {
	return &redisRepository{rdb: rdb, ttl: ttl, history: history}
}

func (r *redisRepository) keyGame(sessionUUID string) string {
	return keyPrefix + strings.TrimSpace(sessionUUID)
}

func (r *redisRepository) SaveGame(ctx context.Context, rec *GameRecord) (int64, error) {
	if rec == nil {
		return 0, errors.New("nil game record")
	}
	exists, err := r.rdb.Exists(ctx, r.keyGame(rec.SessionUUID)).Result()
	if err != nil {
		return 0, fmt.Errorf("check game: %w", err)
	}
	if exists > 0 {
		return 0, ErrDuplicateGame
	}

	id, err := r.rdb.Incr(ctx, keySequence).Result()
	if err != nil {
		return 0, fmt.Errorf("next game id: %w", err)
	}
	stored := cloneRecord(rec)
	stored.ID = id
	raw, err := json.Marshal(stored)
	if err != nil {
		return 0, fmt.Errorf("marshal game: %w", err)
	}

	ok, err := r.rdb.SetNX(ctx, r.keyGame(rec.SessionUUID), raw, r.ttl).Result()
	if err != nil {
		return 0, fmt.Errorf("store game: %w", err)
	}
	if !ok {
		return 0, ErrDuplicateGame
	}

	member := redis.Z{Score: float64(stored.EndedAt.UnixMilli()), Member: strings.TrimSpace(rec.SessionUUID)}
	if err := r.rdb.ZAdd(ctx, keyIndex, member).Err(); err != nil {
		return 0, fmt.Errorf("index game: %w", err)
	}
	if r.history > 0 {
		// keep the newest r.history entries
		_ = r.rdb.ZRemRangeByRank(ctx, keyIndex, 0, int64(-r.history-1)).Err()
	}
	return id, nil
}

func (r *redisRepository) RecentGames(ctx context.Context, limit int) ([]*GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	sessions, err := r.rdb.ZRevRange(ctx, keyIndex, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	games := make([]*GameRecord, 0, len(sessions))
	for _, session := range sessions {
		rec, err := r.GameBySession(ctx, session)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			// expired record; drop the dangling index entry
			_ = r.rdb.ZRem(ctx, keyIndex, session).Err()
			continue
		}
		games = append(games, rec)
	}
	return games, nil
}

func (r *redisRepository) GameBySession(ctx context.Context, sessionUUID string) (*GameRecord, error) {
	raw, err := r.rdb.Get(ctx, r.keyGame(sessionUUID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	var rec GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal game: %w", err)
	}
	return &rec, nil
}

func (r *redisRepository) Close() error { return r.rdb.Close() }
