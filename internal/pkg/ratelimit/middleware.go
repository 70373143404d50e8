package ratelimit

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Middleware classifies each request, counts it against the caller's quota
// and attaches the standard X-RateLimit headers. Rejections get a 429 with
// Retry-After.
func Middleware(limiter *Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		class := ClassifyEndpoint(c.Path(), c.Method())
		res := limiter.Check(c.Context(), ClientIP(c), class)

		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt, 10))

		if !res.Allowed {
			retryAfter := res.ResetAt - time.Now().Unix()
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too Many Requests",
				"message":     "Rate limit exceeded. Please try again later.",
				"retry_after": retryAfter,
			})
		}

		return c.Next()
	}
}
