package middleware

import (
	"crypto/subtle"

	"github.com/23f2003700/padosi-politics/internal/config"
	"github.com/23f2003700/padosi-politics/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// CronSecret guards the task endpoints called by external schedulers. With
// no CRON_SECRET configured the endpoints are disabled.
func CronSecret(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.CronSecret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: true, Message: "Cron endpoints are disabled",
			})
		}
		given := c.Get("X-Cron-Secret")
		if subtle.ConstantTimeCompare([]byte(given), []byte(cfg.CronSecret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid cron secret",
			})
		}
		return c.Next()
	}
}
