package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a resident of exactly one society. KarmaScore is a cache of the
// user's karma ledger and is only changed through ledger writes.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SocietyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_users_society_flat,priority:1" json:"society_id"`
	Email      string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	FullName   string    `gorm:"size:100;not null" json:"full_name"`
	FlatNumber string    `gorm:"size:20;not null;index:idx_users_society_flat,priority:2" json:"flat_number"`
	Wing       string    `gorm:"size:10" json:"wing,omitempty"`
	Role       Role      `gorm:"size:20;not null" json:"role"`
	KarmaScore int       `gorm:"not null" json:"karma_score"`
	Active     bool      `gorm:"not null;index" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleResident
	}
	return nil
}

func (u *User) IsCommitteeOrAbove() bool {
	return u.Role.IsCommitteeOrAbove()
}
