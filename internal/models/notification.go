package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notification struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID        `gorm:"type:uuid;not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	Title              string           `gorm:"size:200;not null" json:"title"`
	Message            string           `gorm:"type:text;not null" json:"message"`
	Type               NotificationType `gorm:"size:30;not null" json:"type"`
	RelatedComplaintID *uuid.UUID       `gorm:"type:uuid" json:"related_complaint_id,omitempty"`
	ActionURL          string           `gorm:"size:500" json:"action_url,omitempty"`
	IsRead             bool             `gorm:"not null;index:idx_notifications_user_read,priority:2" json:"is_read"`
	ReadAt             *time.Time       `json:"read_at,omitempty"`
	CreatedAt          time.Time        `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
