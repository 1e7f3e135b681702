package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/23f2003700/padosi-politics/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TitleMinLen       = 5
	TitleMaxLen       = 200
	DescriptionMinLen = 20
	DescriptionMaxLen = 5000
	AccusedFlatMaxLen = 20
	ResolutionMaxLen  = 2000

	// RepeatOffenderThreshold is the number of resolved complaints against a
	// user from which each further resolution adds a REPEAT_OFFENDER penalty.
	RepeatOffenderThreshold = 3
)

// ComplaintService owns the complaint lifecycle and its karma side effects.
type ComplaintService struct {
	db       *gorm.DB
	notifier Notifier
	filter   *ContentFilter
}

func NewComplaintService(db *gorm.DB, notifier Notifier, filter *ContentFilter) *ComplaintService {
	return &ComplaintService{db: db, notifier: notifier, filter: filter}
}

type ComplaintInput struct {
	Title       string
	Description string
	Category    models.Category
	Priority    models.Priority
	AccusedFlat string
	IsAnonymous bool
}

type ComplaintUpdate struct {
	Title       *string
	Description *string
	Category    *models.Category
	Priority    *models.Priority
}

type ComplaintFilter struct {
	Status    models.ComplaintStatus
	Category  models.Category
	Priority  models.Priority
	Mine      bool
	AgainstMe bool
	Search    string
	// SortBy is created_at, support_count or priority.
	SortBy    string
	Ascending bool
}

// CanEdit: the owner while the complaint is OPEN, or any committee-or-above
// actor.
func CanEdit(actor Actor, c *models.Complaint) bool {
	if actor.SocietyID != c.SocietyID {
		return false
	}
	if actor.IsCommitteeOrAbove() {
		return true
	}
	return c.ComplainantID == actor.UserID && c.Status == models.StatusOpen
}

// CanDelete: the owner while the complaint is OPEN, or an admin.
func CanDelete(actor Actor, c *models.Complaint) bool {
	if actor.SocietyID != c.SocietyID {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return c.ComplainantID == actor.UserID && c.Status == models.StatusOpen
}

func checkLength(errs fieldErrors, field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n < min:
		errs.add(field, fmt.Sprintf("%s must be at least %d characters", field, min))
	case n > max:
		errs.add(field, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
}

func (s *ComplaintService) validate(in *ComplaintInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.AccusedFlat = strings.ToUpper(strings.TrimSpace(in.AccusedFlat))
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}

	errs := fieldErrors{}
	checkLength(errs, "title", in.Title, TitleMinLen, TitleMaxLen)
	checkLength(errs, "description", in.Description, DescriptionMinLen, DescriptionMaxLen)
	if !in.Category.Valid() {
		errs.add("category", "category is not a known complaint category")
	}
	if !in.Priority.Valid() {
		errs.add("priority", "priority must be low, medium, high or critical")
	}
	if utf8.RuneCountInString(in.AccusedFlat) > AccusedFlatMaxLen {
		errs.add("accused_flat", fmt.Sprintf("accused_flat must be at most %d characters", AccusedFlatMaxLen))
	}
	if err := errs.err(); err != nil {
		return err
	}
	if err := s.filter.Check("title", in.Title); err != nil {
		return err
	}
	return s.filter.Check("description", in.Description)
}

// Create files a new OPEN complaint for the actor.
func (s *ComplaintService) Create(ctx context.Context, actor Actor, in ComplaintInput) (*models.Complaint, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	var (
		complaint *models.Complaint
		box       outbox
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var society models.Society
		if err := tx.First(&society, "id = ?", actor.SocietyID).Error; err != nil {
			return notFoundOr(err, "society")
		}
		if in.IsAnonymous && !society.AllowAnonymousComplaints {
			return FieldError("is_anonymous", "anonymous complaints are not allowed in this society")
		}

		accusedID, err := findFlatOccupant(tx, society.ID, in.AccusedFlat)
		if err != nil {
			return err
		}
		if accusedID != nil && *accusedID == actor.UserID {
			accusedID = nil
		}

		complaint = &models.Complaint{
			SocietyID:     society.ID,
			Title:         in.Title,
			Description:   in.Description,
			Category:      in.Category,
			Priority:      in.Priority,
			ComplainantID: actor.UserID,
			AccusedFlat:   in.AccusedFlat,
			AccusedUserID: accusedID,
			Status:        models.StatusOpen,
			IsAnonymous:   in.IsAnonymous,
		}
		if err := tx.Create(complaint).Error; err != nil {
			return fmt.Errorf("insert complaint: %w", err)
		}

		if _, err := awardKarma(tx, actor.UserID, models.KarmaComplaintFiled, 0, "", &complaint.ID); err != nil {
			return err
		}

		if accusedID != nil {
			box.add(complaintNotice(complaint, *accusedID, models.NotifyComplaintAgainst,
				"Complaint filed against your flat",
				fmt.Sprintf("A %s complaint \"%s\" was filed against flat %s.", complaint.Category, complaint.Title, complaint.AccusedFlat)))
		}
		if complaint.Priority.Urgent() {
			officials, err := usersWithRoles(tx, society.ID, models.RoleSecretary, models.RoleAdmin)
			if err != nil {
				return err
			}
			box.addAll(without(officials, actor.UserID), complaintNotice(complaint, uuid.Nil, models.NotifyHighPriorityAlert,
				"High priority complaint",
				fmt.Sprintf("A %s priority complaint \"%s\" needs attention.", complaint.Priority, complaint.Title)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, box...)
	return complaint, nil
}

func (s *ComplaintService) Get(ctx context.Context, actor Actor, complaintID uuid.UUID) (*models.Complaint, error) {
	return loadComplaint(s.db.WithContext(ctx), actor.SocietyID, complaintID, false)
}

var priorityOrder = "CASE priority WHEN 'critical' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END"

// List returns one page of the society's complaints.
func (s *ComplaintService) List(ctx context.Context, actor Actor, f ComplaintFilter, p Page) (PageResult[models.Complaint], error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&models.Complaint{}).Scopes(tenant.ForSociety(actor.SocietyID))

	if f.Status != "" {
		if !f.Status.Valid() {
			return PageResult[models.Complaint]{}, FieldError("status", "unknown status")
		}
		query = query.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		if !f.Category.Valid() {
			return PageResult[models.Complaint]{}, FieldError("category", "unknown category")
		}
		query = query.Where("category = ?", f.Category)
	}
	if f.Priority != "" {
		if !f.Priority.Valid() {
			return PageResult[models.Complaint]{}, FieldError("priority", "unknown priority")
		}
		query = query.Where("priority = ?", f.Priority)
	}
	if f.Mine {
		query = query.Where("complainant_id = ?", actor.UserID)
	}
	if f.AgainstMe {
		me, err := findSocietyUser(db, actor.SocietyID, actor.UserID)
		if err != nil {
			return PageResult[models.Complaint]{}, err
		}
		query = query.Where("accused_user_id = ? OR UPPER(accused_flat) = ?", me.ID, strings.ToUpper(me.FlatNumber))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(accused_flat) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return PageResult[models.Complaint]{}, fmt.Errorf("count complaints: %w", err)
	}

	dir := " DESC"
	if f.Ascending {
		dir = " ASC"
	}
	switch f.SortBy {
	case "support_count":
		query = query.Order("support_count" + dir)
	case "priority":
		query = query.Order(priorityOrder + dir)
	case "", "created_at":
	default:
		return PageResult[models.Complaint]{}, FieldError("sort_by", "sort_by must be created_at, support_count or priority")
	}
	query = query.Order("created_at" + dir)

	var items []models.Complaint
	if err := query.Scopes(p.scope).Find(&items).Error; err != nil {
		return PageResult[models.Complaint]{}, fmt.Errorf("list complaints: %w", err)
	}
	return newPageResult(items, total, p), nil
}

// Update edits a complaint's descriptive fields.
func (s *ComplaintService) Update(ctx context.Context, actor Actor, complaintID uuid.UUID, upd ComplaintUpdate) (*models.Complaint, error) {
	var complaint *models.Complaint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		complaint, err = loadComplaint(tx, actor.SocietyID, complaintID, true)
		if err != nil {
			return err
		}
		if !CanEdit(actor, complaint) {
			return AuthorizationError("you cannot edit this complaint")
		}

		in := ComplaintInput{
			Title:       complaint.Title,
			Description: complaint.Description,
			Category:    complaint.Category,
			Priority:    complaint.Priority,
			AccusedFlat: complaint.AccusedFlat,
		}
		if upd.Title != nil {
			in.Title = *upd.Title
		}
		if upd.Description != nil {
			in.Description = *upd.Description
		}
		if upd.Category != nil {
			in.Category = *upd.Category
		}
		if upd.Priority != nil {
			in.Priority = *upd.Priority
		}
		if err := s.validate(&in); err != nil {
			return err
		}

		if err := tx.Model(complaint).Updates(map[string]interface{}{
			"title":       in.Title,
			"description": in.Description,
			"category":    in.Category,
			"priority":    in.Priority,
		}).Error; err != nil {
			return fmt.Errorf("update complaint: %w", err)
		}
		complaint.Title = in.Title
		complaint.Description = in.Description
		complaint.Category = in.Category
		complaint.Priority = in.Priority
		return nil
	})
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

// Delete removes a complaint with its votes, comments and escalations.
// Karma ledger entries referencing it are kept.
func (s *ComplaintService) Delete(ctx context.Context, actor Actor, complaintID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		complaint, err := loadComplaint(tx, actor.SocietyID, complaintID, true)
		if err != nil {
			return err
		}
		if !CanDelete(actor, complaint) {
			return AuthorizationError("you cannot delete this complaint")
		}
		for _, child := range []interface{}{&models.Vote{}, &models.Comment{}, &models.Escalation{}} {
			if err := tx.Where("complaint_id = ?", complaint.ID).Delete(child).Error; err != nil {
				return fmt.Errorf("delete %T: %w", child, err)
			}
		}
		if err := tx.Delete(complaint).Error; err != nil {
			return fmt.Errorf("delete complaint: %w", err)
		}
		return nil
	})
}

// UpdateStatus moves a complaint through its lifecycle and applies the karma
// consequences of the new status in the same transaction.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor Actor, complaintID uuid.UUID, next models.ComplaintStatus, note string) (*models.Complaint, error) {
	if !actor.IsCommitteeOrAbove() {
		return nil, AuthorizationError("only committee members can change complaint status")
	}
	if !next.Valid() {
		return nil, FieldError("status", "unknown status")
	}
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > ResolutionMaxLen {
		return nil, FieldError("resolution_note", fmt.Sprintf("resolution_note must be at most %d characters", ResolutionMaxLen))
	}

	var (
		complaint *models.Complaint
		box       outbox
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		complaint, err = loadComplaint(tx, actor.SocietyID, complaintID, true)
		if err != nil {
			return err
		}
		prev := complaint.Status
		if prev.IsTerminal() {
			return StateError("complaint is %s and can no longer change status", prev)
		}
		if !prev.CanTransitionTo(next) {
			return StateError("cannot move complaint from %s to %s", prev, next)
		}

		now := tx.NowFunc()
		resolvedBy := actor.UserID
		updates := map[string]interface{}{"status": next}
		if next == models.StatusResolved {
			updates["resolved_at"] = &now
			updates["resolved_by_id"] = &resolvedBy
			if note != "" {
				updates["resolution_note"] = note
				complaint.ResolutionNote = note
			}
		}
		if err := tx.Model(complaint).Updates(updates).Error; err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		complaint.Status = next
		if next == models.StatusResolved {
			complaint.ResolvedAt = &now
			complaint.ResolvedByID = &resolvedBy
		}

		switch next {
		case models.StatusResolved:
			if err := s.applyResolutionKarma(tx, complaint); err != nil {
				return err
			}
		case models.StatusRejected:
			if _, err := awardKarma(tx, complaint.ComplainantID, models.KarmaFalseComplaint, 0, "", &complaint.ID); err != nil {
				return err
			}
		case models.StatusOpen, models.StatusAcknowledged, models.StatusInProgress, models.StatusEscalated, models.StatusClosed:
		}

		msg := fmt.Sprintf("Complaint \"%s\" moved from %s to %s.", complaint.Title, prev, next)
		box.add(complaintNotice(complaint, complaint.ComplainantID, models.NotifyStatusChanged, "Complaint status updated", msg))
		if complaint.AccusedUserID != nil && *complaint.AccusedUserID != complaint.ComplainantID {
			box.add(complaintNotice(complaint, *complaint.AccusedUserID, models.NotifyStatusChanged, "Complaint status updated", msg))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, box...)
	return complaint, nil
}

func (s *ComplaintService) applyResolutionKarma(tx *gorm.DB, c *models.Complaint) error {
	if _, err := awardKarma(tx, c.ComplainantID, models.KarmaComplaintResolved, 0, "", &c.ID); err != nil {
		return err
	}
	if c.AccusedUserID == nil {
		return nil
	}
	accused := *c.AccusedUserID
	if _, err := awardKarma(tx, accused, models.KarmaComplaintAgainstResolved, 0, "", &c.ID); err != nil {
		return err
	}

	var resolved int64
	if err := tx.Model(&models.Complaint{}).
		Where("accused_user_id = ? AND status = ?", accused, models.StatusResolved).
		Count(&resolved).Error; err != nil {
		return fmt.Errorf("count resolved complaints against user: %w", err)
	}
	if resolved >= RepeatOffenderThreshold {
		desc := fmt.Sprintf("%d resolved complaints against you", resolved)
		if _, err := awardKarma(tx, accused, models.KarmaRepeatOffender, 0, desc, &c.ID); err != nil {
			return err
		}
	}
	return nil
}
