package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

// RedisTokenDenylist stores revoked token IDs in redis, each key expiring
// when the token itself would have. Nothing is stored for tokens that are
// never revoked, so the set stays small.
type RedisTokenDenylist struct {
	client *redis.Client
}

func NewRedisTokenDenylist(client *redis.Client) *RedisTokenDenylist {
	return &RedisTokenDenylist{client: client}
}

func (d *RedisTokenDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		// Already expired, nothing to revoke.
		return nil
	}

	key := revokedKeyPrefix + tokenID
	if err := d.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (d *RedisTokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := revokedKeyPrefix + tokenID

	_, err := d.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return true, nil
}

// MemoryTokenDenylist is the in-process equivalent for tests and
// single-node deployments without redis.
type MemoryTokenDenylist struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewMemoryTokenDenylist() *MemoryTokenDenylist {
	return &MemoryTokenDenylist{revoked: make(map[string]time.Time)}
}

func (d *MemoryTokenDenylist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if time.Now().After(until) {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[tokenID] = until
	return nil
}

func (d *MemoryTokenDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.RLock()
	until, ok := d.revoked[tokenID]
	d.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		// Lazy cleanup of naturally expired entries.
		d.mu.Lock()
		delete(d.revoked, tokenID)
		d.mu.Unlock()
		return false, nil
	}
	return true, nil
}
