// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"clubhouse/internal/metrics"
)

const (
	queryKeyPrefix = "q:"

	// DefaultQueryTTL is how long a cached read stays valid when nothing
	// invalidates it first.
	DefaultQueryTTL = 5 * time.Minute
)

// QueryCache stores JSON-encoded read results in Valkey, keyed by table
// and query parameters. A write to a table drops that table's keys and
// nothing else.
type QueryCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewQueryCache creates a query cache. m may be nil.
func NewQueryCache(client *redis.Client, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultQueryTTL
	}
	return &QueryCache{client: client, ttl: ttl, metrics: m}
}

// Key returns the Valkey key for a table query.
func Key(table, query string) string {
	return queryKeyPrefix + table + ":" + query
}

// Get decodes the cached value for table and query into dest. Errors
// count as misses.
func (qc *QueryCache) Get(ctx context.Context, table, query string, dest any) bool {
	raw, err := qc.client.Get(ctx, Key(table, query)).Bytes()
	if errors.Is(err, redis.Nil) {
		qc.metrics.CacheMiss("query")
		return false
	}
	if err != nil {
		slog.Warn("query cache get error", "table", table, "error", err)
		qc.metrics.CacheMiss("query")
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		slog.Warn("query cache decode error", "table", table, "error", err)
		qc.metrics.CacheMiss("query")
		return false
	}
	qc.metrics.CacheHit("query")
	return true
}

// Set stores value for table and query with the configured TTL.
func (qc *QueryCache) Set(ctx context.Context, table, query string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("query cache encode error", "table", table, "error", err)
		return
	}
	if err := qc.client.Set(ctx, Key(table, query), raw, qc.ttl).Err(); err != nil {
		slog.Warn("query cache set error", "table", table, "error", err)
	}
}

// InvalidateTable removes every cached query for table and returns how
// many keys were dropped.
func (qc *QueryCache) InvalidateTable(ctx context.Context, table string) int {
	var cursor uint64
	var deleted int
	pattern := queryKeyPrefix + table + ":*"
	for {
		keys, next, err := qc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("query cache scan error", "table", table, "error", err)
			return deleted
		}
		if len(keys) > 0 {
			if err := qc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("query cache bulk delete error", "table", table, "error", err)
			} else {
				deleted += len(keys)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	qc.metrics.CacheInvalidated("query")
	slog.Debug("query cache invalidated", "table", table, "deleted", deleted)
	return deleted
}

// Remember returns the cached value for table and query, or calls load
// and caches its result. A nil cache always calls load.
func Remember[T any](ctx context.Context, qc *QueryCache, table, query string, load func(context.Context) (T, error)) (T, error) {
	var out T
	if qc != nil && qc.Get(ctx, table, query, &out) {
		return out, nil
	}
	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	if qc != nil {
		qc.Set(ctx, table, query, out)
	}
	return out, nil
}
