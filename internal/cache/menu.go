// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// menu.go caches rendered category menus as JSON. Any structural change can
// alter every menu, so the only invalidation is InvalidateAll.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const (
	// menuKeyPrefix is the Valkey key prefix for cached menus.
	menuKeyPrefix = "menu:"

	// DefaultMenuTTL is how long a rendered menu stays cached.
	DefaultMenuTTL = 5 * time.Minute
)

// MenuKey returns the cache key of the menu rendered for lang.
func MenuKey(lang string) string {
	return langField(lang)
}

// MenuCache stores rendered menus in Valkey.
type MenuCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewMenuCache creates a menu cache backed by the given Valkey client.
func NewMenuCache(client *redis.Client, ttl time.Duration) *MenuCache {
	if ttl <= 0 {
		ttl = DefaultMenuTTL
	}
	return &MenuCache{client: client, ttl: ttl, breaker: newBreaker("valkey-menu")}
}

// Get retrieves a cached menu.
func (mc *MenuCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := mc.breaker.Execute(func() (interface{}, error) {
		return mc.client.Get(ctx, menuKeyPrefix+key).Bytes()
	})
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("menu cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("menu cache hit", "key", key)
	return val.([]byte), true
}

// Set stores a rendered menu with the configured TTL.
func (mc *MenuCache) Set(ctx context.Context, key string, body []byte) {
	_, err := mc.breaker.Execute(func() (interface{}, error) {
		return nil, mc.client.Set(ctx, menuKeyPrefix+key, body, mc.ttl).Err()
	})
	if err != nil {
		slog.Warn("menu cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes all cached menus by scanning for the prefix.
func (mc *MenuCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := mc.client.Scan(ctx, cursor, menuKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("menu cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := mc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("menu cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("menu cache cleared", "deleted", deleted)
	}
}

type menuEntry struct {
	body    []byte
	expires time.Time
}

// MemoryMenuCache is the in-process menu cache.
type MemoryMenuCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]menuEntry
	now     func() time.Time
}

// NewMemoryMenuCache creates an empty in-process menu cache.
func NewMemoryMenuCache(ttl time.Duration) *MemoryMenuCache {
	if ttl <= 0 {
		ttl = DefaultMenuTTL
	}
	return &MemoryMenuCache{ttl: ttl, entries: make(map[string]menuEntry), now: time.Now}
}

// Get retrieves a cached menu if it has not expired.
func (mc *MemoryMenuCache) Get(_ context.Context, key string) ([]byte, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	e, ok := mc.entries[key]
	if !ok || !mc.now().Before(e.expires) {
		return nil, false
	}
	return e.body, true
}

// Set stores a rendered menu.
func (mc *MemoryMenuCache) Set(_ context.Context, key string, body []byte) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.entries[key] = menuEntry{body: body, expires: mc.now().Add(mc.ttl)}
}

// InvalidateAll clears the cache.
func (mc *MemoryMenuCache) InvalidateAll(context.Context) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.entries = make(map[string]menuEntry)
	slog.Debug("menu cache fully cleared")
}
