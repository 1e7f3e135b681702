package tenant

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	localUser    = "user"
	localSociety = "society_id"
)

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals(localUser).(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// SetSocietyID records the caller's society once it has been loaded.
func SetSocietyID(c *fiber.Ctx, societyID uuid.UUID) {
	c.Locals(localSociety, societyID)
}

// GetSocietyID returns the society set by SetSocietyID, or uuid.Nil.
func GetSocietyID(c *fiber.Ctx) uuid.UUID {
	if id, ok := c.Locals(localSociety).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
