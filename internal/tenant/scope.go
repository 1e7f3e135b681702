package tenant

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForSociety returns a GORM scope that filters by society_id.
func ForSociety(societyID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("society_id = ?", societyID)
	}
}
