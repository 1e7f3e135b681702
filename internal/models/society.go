package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultAutoEscalateDays = 7

// Society is the tenant boundary. Complaints, users and leaderboards are
// always scoped to one society.
type Society struct {
	ID                       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name                     string    `gorm:"size:200;not null" json:"name"`
	Address                  string    `gorm:"type:text" json:"address,omitempty"`
	City                     string    `gorm:"size:100" json:"city,omitempty"`
	AllowAnonymousComplaints bool      `gorm:"not null" json:"allow_anonymous_complaints"`
	AutoEscalateDays         int       `gorm:"not null;default:7" json:"auto_escalate_days"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

func (s *Society) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.AutoEscalateDays <= 0 {
		s.AutoEscalateDays = DefaultAutoEscalateDays
	}
	return nil
}

// EscalationDays is how many days a complaint may stay OPEN before the sweep
// escalates it. fallback applies to rows without a positive setting.
func (s *Society) EscalationDays(fallback int) int {
	if s.AutoEscalateDays > 0 {
		return s.AutoEscalateDays
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultAutoEscalateDays
}
