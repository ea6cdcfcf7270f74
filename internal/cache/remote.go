// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// remoteKeyPrefix namespaces mirror keys so several deployments can share one
// Redis instance.
const remoteKeyPrefix = "manhwaru:cache:"

// scanBatchSize is the COUNT hint for SCAN during pattern deletes.
const scanBatchSize = 100

// Remote mirrors the entity tier into Redis so that multiple API instances
// share warmed entries.
//
// # Failure Policy
//
// Every Redis error is logged and swallowed. A broken mirror turns reads into
// misses and writes into no-ops; it never surfaces to callers.
type Remote struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewRemote wraps an established Redis client as a cache mirror.
func NewRemote(client *redis.Client, ttl time.Duration, log *slog.Logger) *Remote {
	return &Remote{client: client, ttl: ttl, log: log}
}

// Get fetches the raw payload mirrored under key. A missing key or any Redis
// error reads as a miss.
func (r *Remote) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := r.client.Get(ctx, remoteKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("cache_remote_get_failed", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}
	return payload, true
}

// Set mirrors a payload under key with the mirror's TTL.
func (r *Remote) Set(ctx context.Context, key string, payload []byte) {
	if err := r.client.Set(ctx, remoteKeyPrefix+key, payload, r.ttl).Err(); err != nil {
		r.log.Warn("cache_remote_set_failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Delete removes a single mirrored key.
func (r *Remote) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, remoteKeyPrefix+key).Err(); err != nil {
		r.log.Warn("cache_remote_delete_failed", slog.String("key", key), slog.Any("error", err))
	}
}

// DeleteMatching removes every mirrored key containing substr.
func (r *Remote) DeleteMatching(ctx context.Context, substr string) {
	r.deleteByPattern(ctx, remoteKeyPrefix+"*"+substr+"*")
}

// Clear removes every key belonging to this mirror.
func (r *Remote) Clear(ctx context.Context) {
	r.deleteByPattern(ctx, remoteKeyPrefix+"*")
}

// deleteByPattern walks the keyspace with SCAN and deletes matches in batches.
// SCAN keeps Redis responsive where KEYS would block the event loop.
func (r *Remote) deleteByPattern(ctx context.Context, pattern string) {
	var (
		cursor uint64
		keys   []string
		err    error
	)

	for {
		keys, cursor, err = r.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			r.log.Warn("cache_remote_scan_failed", slog.String("pattern", pattern), slog.Any("error", err))
			return
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				r.log.Warn("cache_remote_delete_failed", slog.String("pattern", pattern), slog.Any("error", err))
				return
			}
		}

		if cursor == 0 {
			return
		}
	}
}
