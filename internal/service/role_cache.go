package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"authgate/internal/domain"
)

// RoleCache guarda el rol resuelto de una cuenta durante un TTL corto para el guard.
// Quien escribe la cuenta llama Invalidate para que el próximo chequeo lea del store.
type RoleCache interface {
	Get(ctx context.Context, accountID string) (domain.Role, bool, error)
	Set(ctx context.Context, accountID string, role domain.Role, ttl time.Duration) error
	Invalidate(ctx context.Context, accountID string) error
}

type roleEntry struct {
	role      domain.Role
	expiresAt time.Time
}

type memoryRoleCache struct {
	mu    sync.Mutex
	items map[string]roleEntry
}

func NewMemoryRoleCache() RoleCache {
	return &memoryRoleCache{
		items: make(map[string]roleEntry),
	}
}

func (c *memoryRoleCache) Get(_ context.Context, accountID string) (domain.Role, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[accountID]
	if !ok {
		return "", false, nil
	}
	if time.Now().UTC().After(entry.expiresAt) {
		delete(c.items, accountID)
		return "", false, nil
	}
	return entry.role, true, nil
}

func (c *memoryRoleCache) Set(_ context.Context, accountID string, role domain.Role, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(accountID) == "" {
		return nil
	}
	c.items[accountID] = roleEntry{role: role, expiresAt: time.Now().UTC().Add(ttl)}
	return nil
}

func (c *memoryRoleCache) Invalidate(_ context.Context, accountID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, accountID)
	return nil
}

type redisKVClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisRoleCache struct {
	client redisKVClient
	prefix string
}

func NewRedisRoleCache(client *redis.Client) RoleCache {
	if client == nil {
		return nil
	}
	return &redisRoleCache{
		client: client,
		prefix: "auth:role:",
	}
}

func (c *redisRoleCache) Get(ctx context.Context, accountID string) (domain.Role, bool, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	val, err := c.client.Get(ctx, c.prefix+accountID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return domain.Role(val), true, nil
}

func (c *redisRoleCache) Set(ctx context.Context, accountID string, role domain.Role, ttl time.Duration) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return c.client.Set(ctx, c.prefix+accountID, string(role), ttl).Err()
}

func (c *redisRoleCache) Invalidate(ctx context.Context, accountID string) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return c.client.Del(ctx, c.prefix+accountID).Err()
}
