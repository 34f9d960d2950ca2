package intake

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"prism/internal/attestation/models"
)

// ResultCache remembers successful outcomes by session ID.
type ResultCache interface {
	Get(ctx context.Context, sessionID string) (*models.Outcome, bool, error)
	Put(ctx context.Context, sessionID string, outcome *models.Outcome, ttl time.Duration) error
}

type memoryEntry struct {
	outcome   models.Outcome
	expiresAt time.Time
}

// MemoryCache is a process-local ResultCache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   func() time.Time
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		clock:   time.Now,
	}
}

// Get returns a copy of the unexpired outcome for sessionID.
func (c *MemoryCache) Get(_ context.Context, sessionID string) (*models.Outcome, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[sessionID]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.clock().Before(entry.expiresAt) {
		delete(c.entries, sessionID)
		return nil, false, nil
	}
	outcome := entry.outcome
	return &outcome, true, nil
}

// Put stores a copy of outcome. A non-positive ttl never expires.
// Expired entries for other sessions are swept on the way.
func (c *MemoryCache) Put(_ context.Context, sessionID string, outcome *models.Outcome, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock()
	c.sweep(now)
	entry := memoryEntry{outcome: *outcome}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	c.entries[sessionID] = entry
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) sweep(now time.Time) {
	for id, entry := range c.entries {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(c.entries, id)
		}
	}
}

// KV is the subset of go-redis commands RedisCache uses.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache stores outcomes as JSON under a key prefix.
type RedisCache struct {
	kv     KV
	prefix string
}

// NewRedisCache returns a cache over kv.
func NewRedisCache(kv KV) *RedisCache {
	return &RedisCache{kv: kv, prefix: "prism:intake:session:"}
}

// Get returns the outcome stored for sessionID.
func (c *RedisCache) Get(ctx context.Context, sessionID string) (*models.Outcome, bool, error) {
	raw, err := c.kv.Get(ctx, c.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var outcome models.Outcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return nil, false, err
	}
	return &outcome, true, nil
}

// Put stores outcome for ttl. A non-positive ttl never expires.
func (c *RedisCache) Put(ctx context.Context, sessionID string, outcome *models.Outcome, ttl time.Duration) error {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return c.kv.Set(ctx, c.prefix+sessionID, raw, ttl).Err()
}
