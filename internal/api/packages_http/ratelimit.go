package packages_http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
)

// RateLimiter is satisfied by rediscache.RateLimiter.
type RateLimiter interface {
	Allow(ctx context.Context, subject string) (bool, int64, error)
}

// RateLimit rejects clients over their per-window budget with 429.
// Limiter failures let the request through.
func RateLimit(l RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := clientIP(r)
			ok, n, err := l.Allow(r.Context(), subject)
			if err != nil {
				slog.Warn("rate limiter unavailable", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Count", strconv.FormatInt(n, 10))
			if !ok {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
