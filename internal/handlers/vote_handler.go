package handlers

import (
	"github.com/23f2003700/padosi-politics/internal/dto"
	"github.com/23f2003700/padosi-politics/internal/middleware"
	"github.com/23f2003700/padosi-politics/internal/services"
	"github.com/gofiber/fiber/v2"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

func (h *VoteHandler) Cast(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req dto.CastVoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	res, err := h.votes.CastVote(c.UserContext(), actor, id, req.VoteType, req.IsAnonymous)
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	if res.IsNew {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(res)
}

func (h *VoteHandler) Remove(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	removed, err := h.votes.RemoveVote(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	if !removed {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "You have not voted on this complaint",
		})
	}
	return c.JSON(dto.MessageResponse{Message: "Vote removed"})
}

func (h *VoteHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	summary, err := h.votes.ListVotes(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}
