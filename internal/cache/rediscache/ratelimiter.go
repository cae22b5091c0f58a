package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter: one Redis key per (subject, window).
type RateLimiter struct {
	c      *redis.Client
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRateLimiter(c *redis.Client, limit int64, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{c: c, limit: limit, window: window, now: time.Now}
}

// RateLimiter returns a limiter sharing the store's client and key prefix.
func (r *Store) RateLimiter(limit int64, window time.Duration) *RateLimiter {
	rl := NewRateLimiter(r.c, limit, window)
	rl.prefix = r.prefix
	return rl
}

// Allow increments the counter for subject in the current window.
// Returns (allowed, currentCount).
func (rl *RateLimiter) Allow(ctx context.Context, subject string) (bool, int64, error) {
	bucket := rl.now().UTC().Truncate(rl.window).Unix()
	key := fmt.Sprintf("%srl:%s:%d", rl.prefix, subject, bucket)

	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// slightly longer than the window so a slow clock does not reset the bucket early
	pipe.Expire(ctx, key, rl.window+10*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	n := incr.Val()
	return n <= rl.limit, n, nil
}
