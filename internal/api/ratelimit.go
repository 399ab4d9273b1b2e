package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/teemow/dealdesk/internal/instrumentation"
	"github.com/teemow/dealdesk/internal/logging"
)

// Counter increments a fixed-window counter and returns the new count.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter keeps fixed-window counters in Redis so that every replica shares them.
type RedisCounter struct {
	rdb *redis.Client
}

// NewRedisCounter creates a counter on rdb.
func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Incr implements Counter.
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	res, err := fixedWindowScript.Run(ctx, c.rdb, []string{key}, window.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}

// RateLimiter allows limit requests per client IP per window.
type RateLimiter struct {
	counter  Counter
	limit    int
	window   time.Duration
	prefix   string
	failOpen bool
}

// NewRateLimiter creates a limiter. Non-positive limit and window default to 60 per
// minute. With failOpen, requests pass when the counter is unavailable.
func NewRateLimiter(counter Counter, limit int, window time.Duration, failOpen bool) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{counter: counter, limit: limit, window: window, prefix: "dealdesk:rl", failOpen: failOpen}
}

// Middleware returns a mux middleware enforcing the limit.
func (rl *RateLimiter) Middleware(logger *slog.Logger, metrics *instrumentation.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count, err := rl.counter.Incr(r.Context(), rl.prefix+":"+clientKey(r), rl.window)
			if err != nil {
				logger.Warn("rate limiter unavailable", logging.Err(err))
				if rl.failOpen {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "rate limiter unavailable", http.StatusServiceUnavailable)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			if count > int64(rl.limit) {
				metrics.RecordRateLimited(r.Context(), routeTemplate(r))
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(rl.limit)-count, 10))
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
