package dto

import (
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/google/uuid"
)

type CreateComplaintRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    models.Category `json:"category"`
	Priority    models.Priority `json:"priority"`
	AccusedFlat string          `json:"accused_flat"`
	IsAnonymous bool            `json:"is_anonymous"`
}

type UpdateComplaintRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Category    *models.Category `json:"category"`
	Priority    *models.Priority `json:"priority"`
}

type UpdateStatusRequest struct {
	Status         models.ComplaintStatus `json:"status"`
	ResolutionNote string                 `json:"resolution_note"`
}

// ComplaintResponse hides the complainant of an anonymous complaint from
// viewers other than the complainant and secretaries.
type ComplaintResponse struct {
	models.Complaint
	ComplainantID *uuid.UUID       `json:"complainant_id,omitempty"`
	UserVote      *models.VoteType `json:"user_vote"`
	CanEdit       bool             `json:"can_edit"`
	CanDelete     bool             `json:"can_delete"`
}

type CastVoteRequest struct {
	VoteType    models.VoteType `json:"vote_type"`
	IsAnonymous *bool           `json:"is_anonymous"`
}

type CommentRequest struct {
	Text        string `json:"text"`
	IsAnonymous bool   `json:"is_anonymous"`
}
