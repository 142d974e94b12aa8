// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// fields.go provides a Valkey-backed cache for the grouped field catalog.
// The catalog changes rarely but is read on every editor load, so the
// grouped-and-sorted result is cached instead of hitting the DB each time.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"certstudio/internal/models"
)

const (
	fieldCatalogKey = "fields:catalog"

	// DefaultFieldTTL is how long the grouped catalog stays cached.
	DefaultFieldTTL = 5 * time.Minute
)

// FieldCache caches the grouped field catalog in Valkey.
type FieldCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFieldCache creates a field catalog cache backed by the given Valkey
// client.
func NewFieldCache(client *redis.Client, ttl time.Duration) *FieldCache {
	if ttl == 0 {
		ttl = DefaultFieldTTL
	}
	return &FieldCache{client: client, ttl: ttl}
}

// Get retrieves the cached catalog. Returns false on miss.
func (fc *FieldCache) Get(ctx context.Context) ([]models.FieldGroup, bool) {
	val, err := fc.client.Get(ctx, fieldCatalogKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("field cache get error", "error", err)
		return nil, false
	}
	var groups []models.FieldGroup
	if err := json.Unmarshal(val, &groups); err != nil {
		slog.Warn("field cache decode error", "error", err)
		return nil, false
	}
	return groups, true
}

// Set stores the grouped catalog with the configured TTL.
func (fc *FieldCache) Set(ctx context.Context, groups []models.FieldGroup) {
	data, err := json.Marshal(groups)
	if err != nil {
		slog.Warn("field cache encode error", "error", err)
		return
	}
	if err := fc.client.Set(ctx, fieldCatalogKey, data, fc.ttl).Err(); err != nil {
		slog.Warn("field cache set error", "error", err)
	}
}

// Invalidate removes the cached catalog. Called when an admin edits the
// field templates.
func (fc *FieldCache) Invalidate(ctx context.Context) {
	if err := fc.client.Del(ctx, fieldCatalogKey).Err(); err != nil {
		slog.Warn("field cache invalidate error", "error", err)
	}
}
