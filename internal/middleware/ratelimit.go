package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

const codeRateLimited = "RATE_LIMITED"

var errNoRedis = errors.New("redis client is nil")

// rateLimitBypassed is true outside deployed environments so local
// workflows and tests are not throttled.
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// CheckRateLimit counts one hit for id against resource in a fixed window
// stored at rl:<resource>:<id>. It reports whether the hit is within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitBypassed() {
		return true, nil
	}
	if rdb == nil {
		return false, errNoRedis
	}

	key := rateLimitKey(resource, id)
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(limit), nil
}

func rateLimitKey(resource, id string) string {
	return fmt.Sprintf("rl:%s:%s", resource, id)
}

// RateLimit enforces limit requests per window, keyed by the bound account
// when there is one and by client IP otherwise. Redis failures let requests
// through. Without a Redis client the count is kept in process memory.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	if rdb == nil {
		return limiter.New(limiter.Config{
			Max:          limit,
			Expiration:   window,
			Next:         func(*fiber.Ctx) bool { return rateLimitBypassed() },
			KeyGenerator: rateLimitID,
			LimitReached: func(c *fiber.Ctx) error { return tooManyRequests(c, window) },
		})
	}
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit behavior for Redis
// failures. resource defaults to the request path.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}
		ctx := c.UserContext()
		id := rateLimitID(c)

		allowed, err := CheckRateLimit(ctx, rdb, resource, id, limit, window)
		switch {
		case err != nil && policy == FailClosed:
			Logger.WarnContext(ctx, "rate limit store unavailable, rejecting",
				slog.String("resource", resource), slog.String("error", err.Error()))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "rate limit unavailable",
				"code":  codeRateLimited,
			})
		case err != nil:
			Logger.DebugContext(ctx, "rate limit store unavailable, allowing",
				slog.String("resource", resource), slog.String("error", err.Error()))
			return c.Next()
		case !allowed:
			retry := window
			if ttl, err := rdb.TTL(ctx, rateLimitKey(resource, id)).Result(); err == nil && ttl > 0 {
				retry = ttl
			}
			return tooManyRequests(c, retry)
		}
		return c.Next()
	}
}

func tooManyRequests(c *fiber.Ctx, retryAfter time.Duration) error {
	secs := int(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error": "rate limit exceeded",
		"code":  codeRateLimited,
	})
}

func rateLimitID(c *fiber.Ctx) string {
	if uid := CurrentUserID(c); uid != 0 {
		return fmt.Sprintf("user:%d", uid)
	}
	return "ip:" + c.IP()
}
