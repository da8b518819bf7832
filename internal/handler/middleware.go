package handler

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/oggyb/matchmaker/internal/cache"
	"github.com/oggyb/matchmaker/internal/logger"
)

// RequestLogger logs method, path, status and latency of every request.
func RequestLogger(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"ip", c.IP(),
			logger.Since(start),
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("http request", attrs...)
		} else {
			log.Debug("http request", attrs...)
		}
		return err
	}
}

// RateLimiter is a fixed-window limiter keyed by client IP and backed by Redis.
type RateLimiter struct {
	cache   *cache.RedisCache
	maxReqs int
	window  time.Duration
	log     *slog.Logger
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(rc *cache.RedisCache, maxReqs int, window time.Duration, log *slog.Logger) *RateLimiter {
	return &RateLimiter{cache: rc, maxReqs: maxReqs, window: window, log: log}
}

// Handler returns a Fiber middleware handler for rate limiting.
// Redis failures let the request through.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		count, ttl, err := rl.cache.Hit(c.UserContext(), c.IP(), rl.window)
		if err != nil {
			rl.log.Warn("rate limiter unavailable", "err", err)
			return c.Next()
		}

		resetIn := int(ttl.Seconds())
		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.maxReqs))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(rl.maxReqs)-count), 10))
		c.Set("X-RateLimit-Reset", strconv.Itoa(resetIn))

		if count > int64(rl.maxReqs) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(resetIn))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"retry_after": resetIn,
			})
		}
		return c.Next()
	}
}
