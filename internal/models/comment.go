package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment on a complaint. IsOfficial is fixed from the author's role when the
// comment is written.
type Comment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID uuid.UUID `gorm:"type:uuid;not null;index" json:"complaint_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	IsAnonymous bool      `gorm:"not null" json:"is_anonymous"`
	IsOfficial  bool      `gorm:"not null" json:"is_official"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
