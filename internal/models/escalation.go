package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Escalation records a forced move of a complaint into ESCALATED. At most one
// auto-escalation exists per complaint, enforced by idx_escalations_auto_once.
type Escalation struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID      uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_escalations_auto_once,where:is_auto_escalated = true" json:"complaint_id"`
	EscalatedByID    uuid.UUID        `gorm:"type:uuid;not null" json:"escalated_by_id"`
	EscalatedTo      EscalationTarget `gorm:"size:20;not null" json:"escalated_to"`
	Reason           string           `gorm:"type:text;not null" json:"reason"`
	PreviousStatus   ComplaintStatus  `gorm:"size:20;not null" json:"previous_status"`
	IsAcknowledged   bool             `gorm:"not null;index" json:"is_acknowledged"`
	AcknowledgedAt   *time.Time       `json:"acknowledged_at,omitempty"`
	AcknowledgedByID *uuid.UUID       `gorm:"type:uuid" json:"acknowledged_by_id,omitempty"`
	ResponseNote     string           `gorm:"type:text" json:"response_note,omitempty"`
	IsAutoEscalated  bool             `gorm:"not null" json:"is_auto_escalated"`
	EscalatedAt      time.Time        `gorm:"not null;index" json:"escalated_at"`
}

func (e *Escalation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EscalatedAt.IsZero() {
		e.EscalatedAt = tx.NowFunc()
	}
	return nil
}
