package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KarmaLog is one append-only karma ledger entry.
type KarmaLog struct {
	ID                 uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Points             int         `gorm:"not null" json:"points"`
	Reason             KarmaReason `gorm:"size:40;not null;index" json:"reason"`
	Description        string      `gorm:"size:255" json:"description,omitempty"`
	RelatedComplaintID *uuid.UUID  `gorm:"type:uuid;index" json:"related_complaint_id,omitempty"`
	CreatedAt          time.Time   `gorm:"index" json:"created_at"`
}

func (k *KarmaLog) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

// KarmaLog rows are never updated.
func (k *KarmaLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableLedger
}
