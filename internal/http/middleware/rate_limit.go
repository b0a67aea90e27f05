package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 100,
		Window:      time.Minute,
		KeyPrefix:   "graby:ratelimit",
	}
}

// RateLimit creates a fixed-window, per-IP rate limiting middleware using Redis.
// Preflight requests are never counted.
func RateLimit(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) fiber.Handler {
	if config.MaxRequests <= 0 {
		config.MaxRequests = DefaultRateLimitConfig().MaxRequests
	}
	if config.Window <= 0 {
		config.Window = DefaultRateLimitConfig().Window
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultRateLimitConfig().KeyPrefix
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		ctx := c.UserContext()
		key := config.KeyPrefix + ":" + c.IP()

		// INCR and EXPIRE NX go out together so a new window always gets a TTL.
		pipe := redisClient.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, config.Window)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Error("rate limit redis error", zap.Error(err))
			// Fail open: allow request if Redis is unavailable
			return c.Next()
		}
		count := incr.Val()

		remaining := config.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > int64(config.MaxRequests) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}

		return c.Next()
	}
}
