package handlers

import (
	"github.com/23f2003700/padosi-politics/internal/dto"
	"github.com/23f2003700/padosi-politics/internal/middleware"
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/23f2003700/padosi-politics/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ComplaintHandler struct {
	complaints *services.ComplaintService
	votes      *services.VoteService
	stats      *services.StatsService
}

func NewComplaintHandler(complaints *services.ComplaintService, votes *services.VoteService, stats *services.StatsService) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints, votes: votes, stats: stats}
}

// complaintView hides the complainant of an anonymous complaint unless the
// viewer filed it or is secretary-or-above.
func complaintView(actor services.Actor, c *models.Complaint, vote *models.VoteType) dto.ComplaintResponse {
	resp := dto.ComplaintResponse{
		Complaint: *c,
		UserVote:  vote,
		CanEdit:   services.CanEdit(actor, c),
		CanDelete: services.CanDelete(actor, c),
	}
	if !c.IsAnonymous || c.ComplainantID == actor.UserID || actor.IsSecretaryOrAbove() {
		id := c.ComplainantID
		resp.ComplainantID = &id
	}
	return resp
}

func (h *ComplaintHandler) view(c *fiber.Ctx, actor services.Actor, complaint *models.Complaint) (dto.ComplaintResponse, error) {
	vote, err := h.votes.GetUserVote(c.UserContext(), actor, complaint.ID)
	if err != nil {
		return dto.ComplaintResponse{}, err
	}
	var vt *models.VoteType
	if vote != nil {
		vt = &vote.VoteType
	}
	return complaintView(actor, complaint, vt), nil
}

func (h *ComplaintHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	complaint, err := h.complaints.Create(c.UserContext(), actor, services.ComplaintInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		AccusedFlat: req.AccusedFlat,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		return respondError(c, err)
	}
	h.stats.Invalidate(c.UserContext(), actor.SocietyID)

	return c.Status(fiber.StatusCreated).JSON(complaintView(actor, complaint, nil))
}

func (h *ComplaintHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	filter := services.ComplaintFilter{
		Status:    models.ComplaintStatus(c.Query("status")),
		Category:  models.Category(c.Query("category")),
		Priority:  models.Priority(c.Query("priority")),
		Mine:      c.QueryBool("mine"),
		AgainstMe: c.QueryBool("against_me"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by", "created_at"),
		Ascending: c.Query("order") == "asc",
	}
	page, err := h.complaints.List(c.UserContext(), actor, filter, pageOf(c))
	if err != nil {
		return respondError(c, err)
	}

	ids := make([]uuid.UUID, len(page.Items))
	for i := range page.Items {
		ids[i] = page.Items[i].ID
	}
	votes, err := h.votes.UserVotes(c.UserContext(), actor, ids)
	if err != nil {
		return respondError(c, err)
	}

	items := make([]dto.ComplaintResponse, len(page.Items))
	for i := range page.Items {
		var vt *models.VoteType
		if v, ok := votes[page.Items[i].ID]; ok {
			vt = &v
		}
		items[i] = complaintView(actor, &page.Items[i], vt)
	}
	return c.JSON(services.PageResult[dto.ComplaintResponse]{
		Items: items, Total: page.Total, Page: page.Page, PerPage: page.PerPage, Pages: page.Pages,
	})
}

func (h *ComplaintHandler) Get(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	complaint, err := h.complaints.Get(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	resp, err := h.view(c, actor, complaint)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *ComplaintHandler) Update(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req dto.UpdateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	complaint, err := h.complaints.Update(c.UserContext(), actor, id, services.ComplaintUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return respondError(c, err)
	}
	h.stats.Invalidate(c.UserContext(), actor.SocietyID)

	resp, err := h.view(c, actor, complaint)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *ComplaintHandler) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.complaints.Delete(c.UserContext(), actor, id); err != nil {
		return respondError(c, err)
	}
	h.stats.Invalidate(c.UserContext(), actor.SocietyID)

	return c.JSON(dto.MessageResponse{Message: "Complaint deleted"})
}

func (h *ComplaintHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	complaint, err := h.complaints.UpdateStatus(c.UserContext(), actor, id, req.Status, req.ResolutionNote)
	if err != nil {
		return respondError(c, err)
	}
	h.stats.Invalidate(c.UserContext(), actor.SocietyID)

	resp, err := h.view(c, actor, complaint)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
