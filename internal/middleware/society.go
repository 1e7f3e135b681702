package middleware

import (
	"errors"
	"log/slog"

	"github.com/23f2003700/padosi-politics/internal/dto"
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/23f2003700/padosi-politics/internal/services"
	"github.com/23f2003700/padosi-politics/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const localActor = "actor"

// LoadActor resolves the JWT subject to an active user and stores the caller
// as a services.Actor. The society and role always come from the store, never
// from token claims.
func LoadActor(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := tenant.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var user models.User
		err = db.WithContext(c.UserContext()).First(&user, "id = ? AND active = ?", userID, true).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found or deactivated",
			})
		}
		if err != nil {
			slog.Error("failed to load actor", "error", err, "user_id", userID.String())
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}

		c.Locals(localActor, services.ActorFromUser(&user))
		tenant.SetSocietyID(c, user.SocietyID)
		return c.Next()
	}
}

// CurrentActor returns the caller stored by LoadActor.
func CurrentActor(c *fiber.Ctx) (services.Actor, bool) {
	actor, ok := c.Locals(localActor).(services.Actor)
	return actor, ok
}

// SetActor stores actor as the caller. LoadActor is the production path.
func SetActor(c *fiber.Ctx, actor services.Actor) {
	c.Locals(localActor, actor)
	tenant.SetSocietyID(c, actor.SocietyID)
}
