package middleware

import (
	"github.com/23f2003700/padosi-politics/internal/dto"
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/gofiber/fiber/v2"
)

// RoleRequired rejects callers whose role is below min. It must run after
// LoadActor.
func RoleRequired(min models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if !actor.Role.AtLeast(min) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: string(min) + " access required",
			})
		}
		return c.Next()
	}
}
