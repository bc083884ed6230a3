package casefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrProgressNotFound = errors.New("progress not found")

// DefaultProgressTTL bounds how long an abandoned wizard session is kept.
const DefaultProgressTTL = 30 * 24 * time.Hour

const progressKeyPrefix = "tavi:case:"

func progressKey(id uuid.UUID) string {
	return progressKeyPrefix + id.String() + ":progress"
}

// RedisProgressStore keeps wizard progress in Redis with a sliding TTL.
type RedisProgressStore struct {
	c   *redis.Client
	ttl time.Duration
}

func NewRedisProgressStore(c *redis.Client, ttl time.Duration) *RedisProgressStore {
	if ttl <= 0 {
		ttl = DefaultProgressTTL
	}
	return &RedisProgressStore{c: c, ttl: ttl}
}

func (r *RedisProgressStore) Get(ctx context.Context, caseID uuid.UUID) (*Progress, error) {
	val, err := r.c.Get(ctx, progressKey(caseID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}
	var p Progress
	if err := json.Unmarshal(val, &p); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &p, nil
}

func (r *RedisProgressStore) Set(ctx context.Context, caseID uuid.UUID, p Progress) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.c.Set(ctx, progressKey(caseID), b, r.ttl).Err()
}

func (r *RedisProgressStore) Delete(ctx context.Context, caseID uuid.UUID) error {
	return r.c.Del(ctx, progressKey(caseID)).Err()
}

// MemoryProgressStore is the single-process fallback when Redis is not
// configured. Entries never expire.
type MemoryProgressStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Progress
}

func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{items: make(map[uuid.UUID]Progress)}
}

func (m *MemoryProgressStore) Get(_ context.Context, caseID uuid.UUID) (*Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.items[caseID]
	if !ok {
		return nil, ErrProgressNotFound
	}
	return &p, nil
}

func (m *MemoryProgressStore) Set(_ context.Context, caseID uuid.UUID, p Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[caseID] = p
	return nil
}

func (m *MemoryProgressStore) Delete(_ context.Context, caseID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, caseID)
	return nil
}
