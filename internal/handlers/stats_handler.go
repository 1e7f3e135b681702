package handlers

import (
	"time"

	"github.com/23f2003700/padosi-politics/internal/middleware"
	"github.com/23f2003700/padosi-politics/internal/services"
	"github.com/gofiber/fiber/v2"
)

type StatsHandler struct {
	stats *services.StatsService
}

func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	st, err := h.stats.Dashboard(c.UserContext(), actor, time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(st)
}

func (h *StatsHandler) Society(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	st, err := h.stats.Society(c.UserContext(), actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(st)
}
