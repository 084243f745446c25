package archive

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// memoryRepository keeps games for the lifetime of the process. It is used
// when neither Postgres nor Redis is configured.
type memoryRepository struct {
	mu        sync.RWMutex
	nextID    int64
	byID      map[int64]*GameRecord
	bySession map[string]*GameRecord
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:      make(map[int64]*GameRecord),
		bySession: make(map[string]*GameRecord),
	}
}

func (m *memoryRepository) SaveGame(ctx context.Context, rec *GameRecord) (int64, error) {
	if rec == nil {
		return 0, ErrDuplicateGame
	}
	key := strings.TrimSpace(rec.SessionUUID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.bySession[key]; exists {
		return 0, ErrDuplicateGame
	}
	m.nextID++
	stored := cloneRecord(rec)
	stored.ID = m.nextID
	m.byID[stored.ID] = stored
	m.bySession[key] = stored
	return stored.ID, nil
}

func (m *memoryRepository) RecentGames(ctx context.Context, limit int) ([]*GameRecord, error) {
	m.mu.RLock()
	items := make([]*GameRecord, 0, len(m.byID))
	for _, rec := range m.byID {
		items = append(items, cloneRecord(rec))
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memoryRepository) GameBySession(ctx context.Context, sessionUUID string) (*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.bySession[strings.TrimSpace(sessionUUID)]; ok {
		return cloneRecord(rec), nil
	}
	return nil, nil
}

func (m *memoryRepository) Close() error { return nil }

func cloneRecord(rec *GameRecord) *GameRecord {
	out := *rec
	out.MovesUCI = append([]string(nil), rec.MovesUCI...)
	out.MovesSAN = append([]string(nil), rec.MovesSAN...)
	return &out
}
