package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vote is a user's single stance on a complaint.
type Vote struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_complaint_user,priority:1" json:"complaint_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_complaint_user,priority:2;index" json:"user_id"`
	VoteType    VoteType  `gorm:"size:10;not null" json:"vote_type"`
	IsAnonymous bool      `gorm:"not null" json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
