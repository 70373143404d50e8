package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/ameibeauty/cards/internal/pkg/cache"
	"github.com/redis/go-redis/v9"
)

// Counter is the minimal store contract the limiter needs. Increment bumps
// the key's integer value, arms the TTL on first write, and returns the new
// count.
type Counter interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type redisCounter struct {
	client *redis.Client
}

// NewRedisCounter returns a Counter backed by the shared cache client.
func NewRedisCounter() Counter {
	return &redisCounter{client: cache.GetClient()}
}

// NewRedisCounterWithClient is used by tests that own their client.
func NewRedisCounterWithClient(client *redis.Client) Counter {
	return &redisCounter{client: client}
}

func (r *redisCounter) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// MemoryCounter is an in-process Counter for tests and single-node dev
// setups. Expiry is checked lazily on access.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryCounter) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &memoryEntry{expiresAt: now.Add(ttl)}
		m.entries[key] = entry
	}
	entry.count++
	return entry.count, nil
}
