package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/23f2003700/padosi-politics/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	EscalationReasonMinLen = 10
	EscalationReasonMaxLen = 1000
	ResponseNoteMaxLen     = 1000
)

type EscalationService struct {
	db          *gorm.DB
	notifier    Notifier
	defaultDays int
}

func NewEscalationService(db *gorm.DB, notifier Notifier) *EscalationService {
	return &EscalationService{db: db, notifier: notifier, defaultDays: models.DefaultAutoEscalateDays}
}

// SetDefaultWindow sets the auto-escalation window used for societies
// without their own auto_escalate_days.
func (s *EscalationService) SetDefaultWindow(days int) {
	if days > 0 {
		s.defaultDays = days
	}
}

// Escalate files a manual escalation and forces the complaint into
// ESCALATED. The accused user, if any, is charged ESCALATION_PENALTY.
func (s *EscalationService) Escalate(ctx context.Context, actor Actor, complaintID uuid.UUID, target models.EscalationTarget, reason string) (*models.Escalation, error) {
	reason = strings.TrimSpace(reason)
	errs := fieldErrors{}
	if !target.Valid() {
		errs.add("escalate_to", "escalate_to must be secretary, committee or legal")
	}
	checkLength(errs, "reason", reason, EscalationReasonMinLen, EscalationReasonMaxLen)
	if err := errs.err(); err != nil {
		return nil, err
	}

	var (
		esc       *models.Escalation
		complaint *models.Complaint
		box       outbox
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		complaint, err = loadComplaint(tx, actor.SocietyID, complaintID, true)
		if err != nil {
			return err
		}
		if complaint.ComplainantID != actor.UserID && !actor.IsCommitteeOrAbove() {
			return AuthorizationError("only the complainant or committee members can escalate")
		}
		if !complaint.Status.Escalatable() {
			return ConflictError(fmt.Sprintf("cannot escalate a %s complaint", complaint.Status))
		}

		esc = &models.Escalation{
			ComplaintID:    complaint.ID,
			EscalatedByID:  actor.UserID,
			EscalatedTo:    target,
			Reason:         reason,
			PreviousStatus: complaint.Status,
		}
		if err := tx.Create(esc).Error; err != nil {
			return fmt.Errorf("insert escalation: %w", err)
		}
		if err := markEscalated(tx, complaint); err != nil {
			return err
		}

		if complaint.AccusedUserID != nil {
			if _, err := awardKarma(tx, *complaint.AccusedUserID, models.KarmaEscalationPenalty, 0, "", &complaint.ID); err != nil {
				return err
			}
		}

		recipients, err := usersWithRoles(tx, complaint.SocietyID, target.Recipients()...)
		if err != nil {
			return err
		}
		box.addAll(without(recipients, actor.UserID), complaintNotice(complaint, uuid.Nil, models.NotifyEscalation,
			"Complaint escalated",
			fmt.Sprintf("Complaint \"%s\" was escalated to the %s: %s", complaint.Title, target, reason)))
		if complaint.ComplainantID != actor.UserID {
			box.add(complaintNotice(complaint, complaint.ComplainantID, models.NotifyEscalation,
				"Your complaint was escalated",
				fmt.Sprintf("Your complaint \"%s\" was escalated to the %s.", complaint.Title, target)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, box...)
	return esc, nil
}

func markEscalated(tx *gorm.DB, c *models.Complaint) error {
	if err := tx.Model(c).Update("status", models.StatusEscalated).Error; err != nil {
		return fmt.Errorf("mark complaint escalated: %w", err)
	}
	c.Status = models.StatusEscalated
	return nil
}

// Acknowledge records a committee response to an escalation.
func (s *EscalationService) Acknowledge(ctx context.Context, actor Actor, escalationID uuid.UUID, note string) (*models.Escalation, error) {
	if !actor.IsCommitteeOrAbove() {
		return nil, AuthorizationError("only committee members can acknowledge escalations")
	}
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > ResponseNoteMaxLen {
		return nil, FieldError("response_note", fmt.Sprintf("response_note must be at most %d characters", ResponseNoteMaxLen))
	}

	var (
		esc models.Escalation
		box outbox
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&esc, "id = ?", escalationID).Error; err != nil {
			return notFoundOr(err, "escalation")
		}
		complaint, err := loadComplaint(tx, actor.SocietyID, esc.ComplaintID, false)
		if err != nil {
			if IsKind(err, KindNotFound) {
				return NotFoundError("escalation")
			}
			return err
		}
		if esc.IsAcknowledged {
			return ConflictError("escalation already acknowledged")
		}

		now := tx.NowFunc()
		ackBy := actor.UserID
		result := tx.Model(&models.Escalation{}).
			Where("id = ? AND is_acknowledged = ?", esc.ID, false).
			Updates(map[string]interface{}{
				"is_acknowledged":    true,
				"acknowledged_at":    &now,
				"acknowledged_by_id": &ackBy,
				"response_note":      note,
			})
		if result.Error != nil {
			return fmt.Errorf("acknowledge escalation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ConflictError("escalation already acknowledged")
		}
		esc.IsAcknowledged = true
		esc.AcknowledgedAt = &now
		esc.AcknowledgedByID = &ackBy
		esc.ResponseNote = note

		msg := fmt.Sprintf("The escalation of \"%s\" was acknowledged.", complaint.Title)
		if note != "" {
			msg += " Response: " + note
		}
		box.add(complaintNotice(complaint, complaint.ComplainantID, models.NotifyEscalationAck, "Escalation acknowledged", msg))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, box...)
	return &esc, nil
}

type EscalationFilter struct {
	Acknowledged *bool
	Target       models.EscalationTarget
	AutoOnly     bool
}

// List returns the society's escalations, newest first. Committee-or-above
// only.
func (s *EscalationService) List(ctx context.Context, actor Actor, f EscalationFilter, p Page) (PageResult[models.Escalation], error) {
	if !actor.IsCommitteeOrAbove() {
		return PageResult[models.Escalation]{}, AuthorizationError("only committee members can list escalations")
	}
	query := s.db.WithContext(ctx).Model(&models.Escalation{}).
		Joins("JOIN complaints ON complaints.id = escalations.complaint_id").
		Where("complaints.society_id = ?", actor.SocietyID)
	if f.Acknowledged != nil {
		query = query.Where("escalations.is_acknowledged = ?", *f.Acknowledged)
	}
	if f.Target != "" {
		if !f.Target.Valid() {
			return PageResult[models.Escalation]{}, FieldError("escalate_to", "unknown escalation target")
		}
		query = query.Where("escalations.escalated_to = ?", f.Target)
	}
	if f.AutoOnly {
		query = query.Where("escalations.is_auto_escalated = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return PageResult[models.Escalation]{}, fmt.Errorf("count escalations: %w", err)
	}
	var items []models.Escalation
	if err := query.Select("escalations.*").Order("escalations.escalated_at DESC").Scopes(p.scope).Find(&items).Error; err != nil {
		return PageResult[models.Escalation]{}, fmt.Errorf("list escalations: %w", err)
	}
	return newPageResult(items, total, p), nil
}

// ForComplaint returns a complaint's escalation history, oldest first.
func (s *EscalationService) ForComplaint(ctx context.Context, actor Actor, complaintID uuid.UUID) ([]models.Escalation, error) {
	db := s.db.WithContext(ctx)
	complaint, err := loadComplaint(db, actor.SocietyID, complaintID, false)
	if err != nil {
		return nil, err
	}
	if complaint.ComplainantID != actor.UserID && !complaint.IsAccused(actor.UserID) && !actor.IsCommitteeOrAbove() {
		return nil, AuthorizationError("cannot view escalations of this complaint")
	}
	var items []models.Escalation
	if err := db.Where("complaint_id = ?", complaintID).Order("escalated_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list complaint escalations: %w", err)
	}
	return items, nil
}

// SweepResult summarises one auto-escalation pass.
type SweepResult struct {
	Scanned   int `json:"scanned"`
	Escalated int `json:"escalated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// AutoEscalateSweep escalates every OPEN complaint older than its society's
// auto_escalate_days that has not been auto-escalated before. Each complaint
// is handled in its own transaction; idx_escalations_auto_once makes a
// concurrent sweep lose the insert instead of escalating twice.
func (s *EscalationService) AutoEscalateSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	now = now.UTC()
	db := s.db.WithContext(ctx)

	var societies []models.Society
	if err := db.Find(&societies).Error; err != nil {
		return res, fmt.Errorf("load societies: %w", err)
	}

	for i := range societies {
		society := &societies[i]
		days := society.EscalationDays(s.defaultDays)
		cutoff := now.AddDate(0, 0, -days)

		var candidates []models.Complaint
		err := db.Scopes(tenant.ForSociety(society.ID)).
			Where("status = ? AND created_at < ?", models.StatusOpen, cutoff).
			Where("NOT EXISTS (SELECT 1 FROM escalations e WHERE e.complaint_id = complaints.id AND e.is_auto_escalated = ?)", true).
			Order("created_at").
			Find(&candidates).Error
		if err != nil {
			return res, fmt.Errorf("find stale complaints: %w", err)
		}

		for j := range candidates {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			res.Scanned++
			escalated, err := s.autoEscalate(ctx, society, days, candidates[j].ID, now)
			switch {
			case err != nil:
				res.Failed++
				slog.Error("auto-escalation failed", "error", err,
					"society_id", society.ID.String(), "complaint_id", candidates[j].ID.String(), "action", "auto_escalate")
			case escalated:
				res.Escalated++
			default:
				res.Skipped++
			}
		}
	}

	slog.Info("auto-escalation sweep completed",
		"scanned", res.Scanned, "escalated", res.Escalated, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

// autoEscalate reports false when the complaint changed or was already
// auto-escalated since it was selected.
func (s *EscalationService) autoEscalate(ctx context.Context, society *models.Society, days int, complaintID uuid.UUID, now time.Time) (bool, error) {
	var (
		box       outbox
		escalated bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		complaint, err := loadComplaint(tx, society.ID, complaintID, true)
		if err != nil {
			return err
		}
		if complaint.Status != models.StatusOpen {
			return nil
		}

		esc := &models.Escalation{
			ComplaintID:     complaint.ID,
			EscalatedByID:   complaint.ComplainantID,
			EscalatedTo:     models.EscalateToSecretary,
			Reason:          fmt.Sprintf("Auto-escalated: complaint open for more than %d days without acknowledgment", days),
			PreviousStatus:  complaint.Status,
			IsAutoEscalated: true,
			EscalatedAt:     now,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(esc)
		if result.Error != nil {
			return fmt.Errorf("insert auto escalation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := markEscalated(tx, complaint); err != nil {
			return err
		}

		secretaries, err := usersWithRoles(tx, society.ID, models.EscalateToSecretary.Recipients()...)
		if err != nil {
			return err
		}
		box.addAll(without(secretaries, complaint.ComplainantID), complaintNotice(complaint, uuid.Nil, models.NotifyEscalation,
			"Auto-escalated complaint",
			fmt.Sprintf("Complaint \"%s\" was auto-escalated after %d days without a response.", complaint.Title, days)))
		box.add(complaintNotice(complaint, complaint.ComplainantID, models.NotifyEscalation,
			"Complaint auto-escalated",
			fmt.Sprintf("Your complaint \"%s\" was automatically escalated to the secretary.", complaint.Title)))
		escalated = true
		return nil
	})
	if err != nil {
		return false, err
	}

	s.notifier.Notify(ctx, box...)
	return escalated, nil
}
