package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "shop-cart:ratelimit:"

type RateLimitOptions struct {
	Limit  int
	Window time.Duration
	Logger *slog.Logger
	now    func() time.Time
}

// RateLimit applies a fixed-window request limit per caller, counted in
// Redis. Redis errors let the request through.
func RateLimit(client redis.Cmdable, opts RateLimitOptions) func(http.Handler) http.Handler {
	if opts.Window <= 0 {
		opts.Window = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.now == nil {
		opts.now = time.Now
	}

	return func(next http.Handler) http.Handler {
		if client == nil || opts.Limit <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := opts.now()
			window := now.Truncate(opts.Window)
			key := rateLimitKeyPrefix + callerKey(r) + ":" + strconv.FormatInt(window.Unix(), 10)

			count, err := hit(r.Context(), client, key, opts.Window)
			if err != nil {
				opts.Logger.WarnContext(r.Context(), "rate limit unavailable",
					"error", err,
					"correlation_id", GetCorrelationID(r.Context()),
				)
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(opts.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(opts.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(opts.Limit) {
				retryAfter := int(window.Add(opts.Window).Sub(now).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, r, http.StatusTooManyRequests, errorResponse{
					Error:      "request was throttled",
					RetryAfter: retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hit(ctx context.Context, client redis.Cmdable, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("rate limit incr: %w", err)
	}
	return incr.Val(), nil
}

func callerKey(r *http.Request) string {
	if uid := GetUserID(r.Context()); uid != "" {
		return "user:" + uid
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
