package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/23f2003700/padosi-politics/internal/dto"
	"github.com/23f2003700/padosi-politics/internal/middleware"
	"github.com/23f2003700/padosi-politics/internal/services"
	"github.com/23f2003700/padosi-politics/internal/tenant"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindValidation:    fiber.StatusBadRequest,
	services.KindAuthorization: fiber.StatusForbidden,
	services.KindNotFound:      fiber.StatusNotFound,
	services.KindConflict:      fiber.StatusConflict,
	services.KindState:         fiber.StatusUnprocessableEntity,
}

// respondError writes a service error with the status for its kind. Internal
// errors are logged, reported to Sentry and answered with a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	var se *services.Error
	if errors.As(err, &se) {
		status, ok := kindStatus[se.Kind]
		if !ok {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(dto.ErrorResponse{
			Error: true, Message: se.Message, Fields: se.Fields,
		})
	}

	attrs := []any{"error", err, "method", c.Method(), "path", c.Path()}
	if rid, ok := c.Locals("requestid").(string); ok {
		attrs = append(attrs, "request_id", rid)
	}
	if actor, ok := middleware.CurrentActor(c); ok {
		attrs = append(attrs, "user_id", actor.UserID.String())
	}
	if societyID := tenant.GetSocietyID(c); societyID != uuid.Nil {
		attrs = append(attrs, "society_id", societyID.String())
	}
	slog.Error("request failed", attrs...)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, services.FieldError(name, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

func pageOf(c *fiber.Ctx) services.Page {
	return services.NewPage(c.QueryInt("page", 1), c.QueryInt("per_page", services.DefaultPerPage))
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, services.FieldError(key, fmt.Sprintf("%s must be true or false", key))
	}
	return &b, nil
}
