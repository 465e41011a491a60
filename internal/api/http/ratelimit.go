package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"ricemeet-backend/internal/logger"
)

// Counter increments a windowed counter and returns the new value.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisCounter struct {
	client *redis.Client
}

// NewRedisCounter counts with INCR and refreshes the key TTL in the same
// pipeline.
func NewRedisCounter(client *redis.Client) Counter {
	return &redisCounter{client: client}
}

func (c *redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter limits check-in attempts per user. It fails open: when the
// counter is unavailable requests pass.
type RateLimiter struct {
	counter Counter
	limit   int
	window  time.Duration
}

func NewRateLimiter(counter Counter, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{counter: counter, limit: limit, window: window}
}

// Wrap applies the limit to next. It must run after authentication.
func (l *RateLimiter) Wrap(scope string, next http.HandlerFunc) http.HandlerFunc {
	if l == nil || l.counter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			next(w, r)
			return
		}
		key := fmt.Sprintf("ratelimit:%s:%d", scope, userID)
		count, err := l.counter.Incr(r.Context(), key, l.window)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request", "key", key, "error", err)
			next(w, r)
			return
		}
		if count > int64(l.limit) {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			writeStatus(w, http.StatusTooManyRequests, codeRateLimited, "", "too many check-in attempts, try again shortly")
			return
		}
		next(w, r)
	}
}
