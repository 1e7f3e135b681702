package handlers

import (
	"github.com/23f2003700/padosi-politics/internal/dto"
	"github.com/23f2003700/padosi-politics/internal/middleware"
	"github.com/23f2003700/padosi-politics/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) Add(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := h.comments.AddComment(c.UserContext(), actor, id, req.Text, req.IsAnonymous)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *CommentHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	page, err := h.comments.ListComments(c.UserContext(), actor, id, pageOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *CommentHandler) Update(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "comment_id")
	if err != nil {
		return respondError(c, err)
	}

	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := h.comments.UpdateComment(c.UserContext(), actor, id, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "comment_id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.comments.DeleteComment(c.UserContext(), actor, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Comment deleted"})
}
