package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/paysim/gateway/internal/logging"
)

type RateLimitConfig struct {
	Enabled bool
	Limit   int           // requests per window
	Window  time.Duration // fixed window length
	Prefix  string        // redis key prefix, distinguishes limited routes
}

// credential-stuffing protection for the login/register endpoints
var incrScript = redis.NewScript(`
	local n = redis.call('INCR', KEYS[1])
	if n == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	return { n, ttl }
`)

// RateLimit is a fixed-window per-IP limiter backed by redis. With no client
// configured it is a no-op, and a redis outage fails open: availability of
// login beats strictness of the limit.
func RateLimit(cfg RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := "ratelimit:" + cfg.Prefix + ":" + c.RealIP()

			vals, err := incrScript.Run(ctx, rdb, []string{key}, cfg.Window.Milliseconds()).Int64Slice()
			if err != nil || len(vals) != 2 {
				logging.FromContext(ctx).Warn("rate limiter unavailable", "error", err)
				return next(c)
			}

			count, ttlMs := vals[0], vals[1]
			remaining := int64(cfg.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.Limit) {
				retry := int((ttlMs + 999) / 1000)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
