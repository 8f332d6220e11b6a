// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// breadcrumbs.go caches computed breadcrumb trails. A trail is stored per
// category in a hash keyed by language, so invalidating a category drops
// every localized variant with a single DEL.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"taxonomy/internal/models"
)

const (
	// crumbKeyPrefix is the Valkey key prefix for breadcrumb trails.
	crumbKeyPrefix = "crumbs:"

	// DefaultBreadcrumbTTL is how long a breadcrumb trail stays cached.
	DefaultBreadcrumbTTL = 5 * time.Minute

	// defaultLangField stores the trail requested without a language.
	defaultLangField = "_"
)

// BreadcrumbCache stores breadcrumb trails in Valkey.
type BreadcrumbCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewBreadcrumbCache creates a breadcrumb cache backed by the given client.
func NewBreadcrumbCache(client *redis.Client, ttl time.Duration) *BreadcrumbCache {
	if ttl <= 0 {
		ttl = DefaultBreadcrumbTTL
	}
	return &BreadcrumbCache{client: client, ttl: ttl, breaker: newBreaker("valkey-breadcrumbs")}
}

// BreadcrumbKey returns the Valkey key holding the trails of a category.
func BreadcrumbKey(id uuid.UUID) string {
	return crumbKeyPrefix + id.String()
}

func langField(lang string) string {
	if lang == "" {
		return defaultLangField
	}
	return lang
}

// Get returns the cached trail for a category and language.
func (bc *BreadcrumbCache) Get(ctx context.Context, id uuid.UUID, lang string) ([]models.Breadcrumb, bool) {
	raw, err := bc.breaker.Execute(func() (interface{}, error) {
		return bc.client.HGet(ctx, BreadcrumbKey(id), langField(lang)).Bytes()
	})
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("breadcrumb cache get error", "category_id", id, "lang", lang, "error", err)
		return nil, false
	}

	var crumbs []models.Breadcrumb
	if err := json.Unmarshal(raw.([]byte), &crumbs); err != nil {
		slog.Warn("breadcrumb cache decode error", "category_id", id, "error", err)
		return nil, false
	}
	return crumbs, true
}

// Set stores a trail. Writing any language refreshes the expiry of the
// whole hash.
func (bc *BreadcrumbCache) Set(ctx context.Context, id uuid.UUID, lang string, crumbs []models.Breadcrumb) {
	data, err := json.Marshal(crumbs)
	if err != nil {
		slog.Warn("breadcrumb cache encode error", "category_id", id, "error", err)
		return
	}
	key := BreadcrumbKey(id)
	_, err = bc.breaker.Execute(func() (interface{}, error) {
		pipe := bc.client.TxPipeline()
		pipe.HSet(ctx, key, langField(lang), data)
		pipe.Expire(ctx, key, bc.ttl)
		return pipe.Exec(ctx)
	})
	if err != nil {
		slog.Warn("breadcrumb cache set error", "category_id", id, "error", err)
	}
}

// Invalidate drops the trails of the given categories in all languages.
func (bc *BreadcrumbCache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BreadcrumbKey(id)
	}
	_, err := bc.breaker.Execute(func() (interface{}, error) {
		return bc.client.Del(ctx, keys...).Result()
	})
	if err != nil {
		slog.Warn("breadcrumb cache invalidate error", "count", len(ids), "error", err)
		return
	}
	slog.Debug("breadcrumb cache invalidated", "count", len(ids))
}

type crumbEntry struct {
	crumbs  []models.Breadcrumb
	expires time.Time
}

// MemoryBreadcrumbCache is the in-process breadcrumb cache. Entries expire
// lazily on read.
type MemoryBreadcrumbCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[uuid.UUID]map[string]crumbEntry
	now     func() time.Time
}

// NewMemoryBreadcrumbCache creates an empty in-process breadcrumb cache.
func NewMemoryBreadcrumbCache(ttl time.Duration) *MemoryBreadcrumbCache {
	if ttl <= 0 {
		ttl = DefaultBreadcrumbTTL
	}
	return &MemoryBreadcrumbCache{
		ttl:     ttl,
		entries: make(map[uuid.UUID]map[string]crumbEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the cached trail if it has not expired.
func (mc *MemoryBreadcrumbCache) Get(_ context.Context, id uuid.UUID, lang string) ([]models.Breadcrumb, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	e, ok := mc.entries[id][langField(lang)]
	if !ok || !mc.now().Before(e.expires) {
		return nil, false
	}
	return append([]models.Breadcrumb(nil), e.crumbs...), true
}

// Set stores a copy of the trail.
func (mc *MemoryBreadcrumbCache) Set(_ context.Context, id uuid.UUID, lang string, crumbs []models.Breadcrumb) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	byLang, ok := mc.entries[id]
	if !ok {
		byLang = make(map[string]crumbEntry)
		mc.entries[id] = byLang
	}
	byLang[langField(lang)] = crumbEntry{
		crumbs:  append([]models.Breadcrumb(nil), crumbs...),
		expires: mc.now().Add(mc.ttl),
	}
}

// Invalidate drops the trails of the given categories.
func (mc *MemoryBreadcrumbCache) Invalidate(_ context.Context, ids ...uuid.UUID) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, id := range ids {
		delete(mc.entries, id)
	}
}

// Len reports how many categories have at least one cached trail.
func (mc *MemoryBreadcrumbCache) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.entries)
}
