// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Tier identifies one of the fixed cache tiers.
type Tier string

const (
	// TierEntity holds individual catalogue records keyed by local ID.
	TierEntity Tier = "entity"
	// TierSearch holds whole search result pages keyed by canonical filter.
	TierSearch Tier = "search"
	// TierTag holds slow-moving taxonomy data (genres, upstream tags).
	TierTag Tier = "tag"
)

// Config carries the per-tier TTLs and the shared capacity bound.
type Config struct {
	EntityTTL time.Duration
	SearchTTL time.Duration
	TagTTL    time.Duration
	MaxKeys   int
}

// Manager owns the cache tiers and the optional Redis mirror.
//
// Only the entity tier is mirrored: records are expensive to rebuild and
// shared between instances, while search pages are cheap and short-lived.
type Manager struct {
	tiers  map[Tier]*TTLCache
	remote *Remote
	log    *slog.Logger
}

// NewManager builds the three tiers. remote may be nil when Redis is not
// configured.
func NewManager(cfg Config, remote *Remote, log *slog.Logger) *Manager {
	return &Manager{
		tiers: map[Tier]*TTLCache{
			TierEntity: NewTTL(string(TierEntity), cfg.EntityTTL, cfg.MaxKeys),
			TierSearch: NewTTL(string(TierSearch), cfg.SearchTTL, cfg.MaxKeys),
			TierTag:    NewTTL(string(TierTag), cfg.TagTTL, cfg.MaxKeys),
		},
		remote: remote,
		log:    log,
	}
}

// Get returns the locally cached value for key in the given tier.
func (m *Manager) Get(tier Tier, key string) (any, bool) {
	return m.tiers[tier].Get(key)
}

// Set stores value locally. Use [SetTyped] when the value should also reach
// the Redis mirror.
func (m *Manager) Set(tier Tier, key string, value any) {
	m.tiers[tier].Set(key, value)
}

// Delete removes key from the tier and, for the entity tier, from the mirror.
func (m *Manager) Delete(ctx context.Context, tier Tier, key string) {
	m.tiers[tier].Delete(key)
	if tier == TierEntity && m.remote != nil {
		m.remote.Delete(ctx, key)
	}
}

// DeleteMatching removes every key containing substr from the tier and, for
// the entity tier, from the mirror. It returns the local removal count.
func (m *Manager) DeleteMatching(ctx context.Context, tier Tier, substr string) int {
	removed := m.tiers[tier].DeleteMatching(substr)
	if tier == TierEntity && m.remote != nil {
		m.remote.DeleteMatching(ctx, substr)
	}
	return removed
}

// Clear empties every tier and the mirror.
func (m *Manager) Clear(ctx context.Context) {
	for _, tier := range m.tiers {
		tier.Clear()
	}
	if m.remote != nil {
		m.remote.Clear(ctx)
	}
}

// Stats returns a per-tier snapshot keyed by tier name.
func (m *Manager) Stats() map[string]Stats {
	snapshot := make(map[string]Stats, len(m.tiers))
	for name, tier := range m.tiers {
		snapshot[string(name)] = tier.Stats()
	}
	return snapshot
}

// HasRemote reports whether the Redis mirror is configured.
func (m *Manager) HasRemote() bool {
	return m.remote != nil
}

// Stop terminates the janitors of every tier.
func (m *Manager) Stop() {
	for _, tier := range m.tiers {
		tier.Stop()
	}
}

// GetTyped returns the cached value for key as T.
//
// On a local miss in the entity tier it falls through to the Redis mirror,
// decodes the payload, and repopulates the local tier. Type mismatches and
// decode failures read as misses.
func GetTyped[T any](ctx context.Context, m *Manager, tier Tier, key string) (T, bool) {
	var zero T

	if value, found := m.Get(tier, key); found {
		typed, ok := value.(T)
		if !ok {
			m.log.Warn("cache_type_mismatch", slog.String("tier", string(tier)), slog.String("key", key))
			return zero, false
		}
		return typed, true
	}

	if tier != TierEntity || m.remote == nil {
		return zero, false
	}

	payload, found := m.remote.Get(ctx, key)
	if !found {
		return zero, false
	}

	var typed T
	if err := json.Unmarshal(payload, &typed); err != nil {
		m.log.Warn("cache_remote_decode_failed", slog.String("key", key), slog.Any("error", err))
		return zero, false
	}

	m.Set(tier, key, typed)
	return typed, true
}

// SetTyped stores value locally and, for the entity tier, mirrors it to Redis
// as JSON.
func SetTyped[T any](ctx context.Context, m *Manager, tier Tier, key string, value T) {
	m.Set(tier, key, value)

	if tier != TierEntity || m.remote == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		m.log.Warn("cache_remote_encode_failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	m.remote.Set(ctx, key, payload)
}
