package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Complaint is filed by a resident against a flat. SupportCount and
// OpposeCount mirror the complaint's Vote rows.
type Complaint struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SocietyID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"society_id"`
	Title          string          `gorm:"size:200;not null" json:"title"`
	Description    string          `gorm:"type:text;not null" json:"description"`
	Category       Category        `gorm:"size:30;not null;index" json:"category"`
	ComplainantID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"complainant_id"`
	AccusedFlat    string          `gorm:"size:20" json:"accused_flat,omitempty"`
	AccusedUserID  *uuid.UUID      `gorm:"type:uuid;index" json:"accused_user_id,omitempty"`
	Status         ComplaintStatus `gorm:"size:20;not null;index" json:"status"`
	Priority       Priority        `gorm:"size:10;not null" json:"priority"`
	IsAnonymous    bool            `gorm:"not null" json:"is_anonymous"`
	SupportCount   int             `gorm:"not null" json:"support_count"`
	OpposeCount    int             `gorm:"not null" json:"oppose_count"`
	ResolutionNote string          `gorm:"type:text" json:"resolution_note,omitempty"`
	ResolvedByID   *uuid.UUID      `gorm:"type:uuid" json:"resolved_by_id,omitempty"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = StatusOpen
	}
	if c.Priority == "" {
		c.Priority = PriorityMedium
	}
	return nil
}

// IsAccused reports whether userID is the complaint's resolved accused user.
func (c *Complaint) IsAccused(userID uuid.UUID) bool {
	return c.AccusedUserID != nil && *c.AccusedUserID == userID
}
