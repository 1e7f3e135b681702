package handlers

import (
	"github.com/23f2003700/padosi-politics/internal/dto"
	"github.com/23f2003700/padosi-politics/internal/middleware"
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/23f2003700/padosi-politics/internal/services"
	"github.com/gofiber/fiber/v2"
)

type EscalationHandler struct {
	escalations *services.EscalationService
}

func NewEscalationHandler(escalations *services.EscalationService) *EscalationHandler {
	return &EscalationHandler{escalations: escalations}
}

func (h *EscalationHandler) Escalate(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	esc, err := h.escalations.Escalate(c.UserContext(), actor, id, req.EscalateTo, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(esc)
}

func (h *EscalationHandler) ForComplaint(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	items, err := h.escalations.ForComplaint(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *EscalationHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	acknowledged, err := queryBool(c, "acknowledged")
	if err != nil {
		return respondError(c, err)
	}
	filter := services.EscalationFilter{
		Acknowledged: acknowledged,
		Target:       models.EscalationTarget(c.Query("escalate_to")),
		AutoOnly:     c.QueryBool("auto"),
	}
	page, err := h.escalations.List(c.UserContext(), actor, filter, pageOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *EscalationHandler) Acknowledge(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req dto.AcknowledgeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	esc, err := h.escalations.Acknowledge(c.UserContext(), actor, id, req.ResponseNote)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(esc)
}
