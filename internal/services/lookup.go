package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/23f2003700/padosi-politics/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func notFoundOr(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError(entity)
	}
	return fmt.Errorf("load %s: %w", entity, err)
}

func findSocietyUser(db *gorm.DB, societyID, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.Scopes(tenant.ForSociety(societyID)).First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &user, nil
}

// loadComplaint fetches a complaint inside the society. With lock set the
// row is held FOR UPDATE until the transaction ends.
func loadComplaint(db *gorm.DB, societyID, complaintID uuid.UUID, lock bool) (*models.Complaint, error) {
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var c models.Complaint
	if err := db.Scopes(tenant.ForSociety(societyID)).First(&c, "id = ?", complaintID).Error; err != nil {
		return nil, notFoundOr(err, "complaint")
	}
	return &c, nil
}

// findFlatOccupant returns the current active occupant of flat in the
// society, or nil when the flat has no registered user.
func findFlatOccupant(db *gorm.DB, societyID uuid.UUID, flat string) (*uuid.UUID, error) {
	flat = strings.TrimSpace(flat)
	if flat == "" {
		return nil, nil
	}
	var user models.User
	err := db.Scopes(tenant.ForSociety(societyID)).
		Where("UPPER(flat_number) = ? AND active = ?", strings.ToUpper(flat), true).
		Order("created_at DESC").
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup flat occupant: %w", err)
	}
	return &user.ID, nil
}

// usersWithRoles returns the ids of active society users holding any of roles.
func usersWithRoles(db *gorm.DB, societyID uuid.UUID, roles ...models.Role) ([]uuid.UUID, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := db.Model(&models.User{}).
		Scopes(tenant.ForSociety(societyID)).
		Where("active = ? AND role IN ?", true, roles).
		Order("created_at").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("lookup users by role: %w", err)
	}
	return ids, nil
}

// committeeOrAbove lists every active committee member, secretary and admin.
func committeeOrAbove(db *gorm.DB, societyID uuid.UUID) ([]uuid.UUID, error) {
	return usersWithRoles(db, societyID, models.RoleCommitteeMember, models.RoleSecretary, models.RoleAdmin)
}

func without(ids []uuid.UUID, skip ...uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
outer:
	for _, id := range ids {
		for _, s := range skip {
			if id == s {
				continue outer
			}
		}
		out = append(out, id)
	}
	return out
}
