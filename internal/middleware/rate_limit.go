package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	loginRateLimitPrefix  = "rl:login:"
	placesRateLimitPrefix = "rl:places:"
)

// LoginRateLimit limits login attempts per email (or IP when the body has
// none) within a one-minute window. Without Redis it is a no-op.
func LoginRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return fixedWindow(cache, maxPerMin, logger, "too many login attempts, try again later", func(c *fiber.Ctx) string {
		var req struct {
			Email string `json:"email"`
		}
		_ = c.BodyParser(&req)
		subject := strings.ToLower(strings.TrimSpace(req.Email))
		if subject == "" {
			subject = c.IP()
		}
		return loginRateLimitPrefix + subject
	})
}

// PlacesRateLimit caps provider-backed place lookups per user, or per IP for
// anonymous callers. Run it after OptionalJWT.
func PlacesRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 120
	}
	return fixedWindow(cache, maxPerMin, logger, "too many place lookups, try again later", func(c *fiber.Ctx) string {
		if userID, _ := c.Locals("user_id").(string); userID != "" {
			return placesRateLimitPrefix + "user:" + userID
		}
		return placesRateLimitPrefix + "ip:" + c.IP()
	})
}

func fixedWindow(cache *redis.Client, limit int, logger *slog.Logger, message string, keyFor func(*fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		key := keyFor(c)

		ctx := c.UserContext()
		cnt, err := cache.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit unavailable", slog.String("key", key), slog.Any("error", err))
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(ctx, key, time.Minute)
		}
		if cnt > int64(limit) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(http.StatusTooManyRequests, message)
		}
		return c.Next()
	}
}
