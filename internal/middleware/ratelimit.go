package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
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

// KeyFunc derives the identity a limit is counted against.
type KeyFunc func(c *fiber.Ctx) string

// ByIP keys by remote address.
func ByIP(c *fiber.Ctx) string {
	return "ip:" + c.IP()
}

// ByAPIKey keys by the presented agent key, falling back to the remote address.
func ByAPIKey(c *fiber.Ctx) string {
	if key, ok := c.Locals(LocalAPIKey).(string); ok && key != "" {
		return "key:" + HashKey(key)
	}
	return ByIP(c)
}

// ByHuman keys by the authenticated human, falling back to the remote address.
func ByHuman(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocalHumanID).(string); ok && id != "" {
		return "human:" + id
	}
	return ByIP(c)
}

// CheckRateLimit checks if a resource has exceeded its rate limit.
// Returns true if allowed, false if limit exceeded.
// Rate limiting is disabled when APP_ENV is "test" or "development".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	switch env {
	case "test", "development":
		return true, nil
	}

	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := rateLimitKey(resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	if cnt > int64(limit) {
		return false, nil
	}
	return true, nil
}

func rateLimitKey(resource, id string) string {
	return fmt.Sprintf("rl:%s:%s", resource, id)
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window` keyed by remote IP.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, ByIP, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window`
// with a specific failure policy and key function.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, keyFn KeyFunc, name ...string) fiber.Handler {
	if keyFn == nil {
		keyFn = ByIP
	}
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		id := keyFn(c)

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(ctx, rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(ctx, "rate limit fail-closed",
					slog.String("resource", resource),
					slog.String("error", err.Error()))
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "Rate limit unavailable.",
				})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		if !allowed {
			retryAfter := window
			if rdb != nil {
				if ttl, ttlErr := rdb.TTL(ctx, rateLimitKey(resource, id)).Result(); ttlErr == nil && ttl > 0 {
					retryAfter = ttl
				}
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Max(1, math.Ceil(retryAfter.Seconds())))))
			c.Set("X-RateLimit-Remaining", "0")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
				"code":  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
