package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlocklist records revoked token ids until they expire.
type TokenBlocklist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisBlocklist keeps revoked ids as expiring redis keys.
type RedisBlocklist struct {
	redis  *redis.Client
	prefix string
}

// NewRedisBlocklist creates a blocklist backed by redis
func NewRedisBlocklist(client *redis.Client) *RedisBlocklist {
	return &RedisBlocklist{redis: client, prefix: "auth:revoked"}
}

func (b *RedisBlocklist) key(tokenID string) string {
	return b.prefix + ":" + tokenID
}

func (b *RedisBlocklist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return b.redis.Set(ctx, b.key(tokenID), 1, ttl).Err()
}

func (b *RedisBlocklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := b.redis.Get(ctx, b.key(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MemoryBlocklist is the single-process blocklist used when redis is disabled.
type MemoryBlocklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewMemoryBlocklist() *MemoryBlocklist {
	return &MemoryBlocklist{revoked: make(map[string]time.Time)}
}

func (b *MemoryBlocklist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	for id, exp := range b.revoked {
		if exp.Before(now) {
			delete(b.revoked, id)
		}
	}
	b.revoked[tokenID] = until
	return nil
}

func (b *MemoryBlocklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.revoked[tokenID]
	return ok && time.Now().Before(exp), nil
}
