// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimiter limits requests per client IP with counters kept in Valkey,
// so every server instance shares one budget.
type RateLimiter struct {
	limiter *limiter.Limiter
	name    string
}

// NewRateLimiter allows limit requests per period for each client IP.
// name separates the counters of independent limiters.
func NewRateLimiter(client *redis.Client, name string, limit int64, period time.Duration) (*RateLimiter, error) {
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "ratelimit:" + name,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit store: %w", err)
	}
	rate := limiter.Rate{Period: period, Limit: limit}
	return &RateLimiter{limiter: limiter.New(store, rate), name: name}, nil
}

// Middleware rejects requests over the limit with 429. If Valkey cannot
// be reached the request is let through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		lctx, err := rl.limiter.Get(r.Context(), ip)
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request", "limiter", rl.name, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			slog.Warn("rate limit reached", "limiter", rl.name, "ip", ip)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
