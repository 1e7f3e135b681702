package handlers

import (
	"time"

	"github.com/23f2003700/padosi-politics/internal/dto"
	"github.com/23f2003700/padosi-politics/internal/middleware"
	"github.com/23f2003700/padosi-politics/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type KarmaHandler struct {
	karma *services.KarmaService
}

func NewKarmaHandler(karma *services.KarmaService) *KarmaHandler {
	return &KarmaHandler{karma: karma}
}

func (h *KarmaHandler) Me(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	st, err := h.karma.Stats(c.UserContext(), actor.UserID, time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(st)
}

// History reads the caller's ledger, or another user's via ?user_id= for
// committee members.
func (h *KarmaHandler) History(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	userID := actor.UserID
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return respondError(c, services.FieldError("user_id", "invalid user_id"))
		}
		userID = id
	}

	page, err := h.karma.History(c.UserContext(), actor, userID, pageOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *KarmaHandler) Leaderboard(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	entries, err := h.karma.Leaderboard(c.UserContext(), actor.SocietyID, c.QueryInt("limit", 10), c.Query("order") == "asc")
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": entries})
}

func (h *KarmaHandler) Adjust(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.AdjustKarmaRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	entry, err := h.karma.AdjustManual(c.UserContext(), actor, req.UserID, req.Points, req.Description)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *KarmaHandler) Verify(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	drift, err := h.karma.VerifyLedger(c.UserContext(), actor.SocietyID)
	if err != nil {
		return respondError(c, err)
	}
	if drift == nil {
		drift = []services.LedgerDrift{}
	}
	return c.JSON(fiber.Map{"consistent": len(drift) == 0, "drift": drift})
}
