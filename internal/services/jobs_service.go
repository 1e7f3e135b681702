package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/23f2003700/padosi-politics/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultReminderThresholdDays     = 3
	DefaultNotificationRetentionDays = 30
	MonthlyBonusMinResolved          = 3
)

// JobsService holds the periodic entry points invoked by the scheduler.
// Every job is safe to run at any time and any number of times.
type JobsService struct {
	db            *gorm.DB
	notifier      Notifier
	escalations   *EscalationService
	notifications *NotificationService
}

func NewJobsService(db *gorm.DB, notifier Notifier, escalations *EscalationService, notifications *NotificationService) *JobsService {
	return &JobsService{db: db, notifier: notifier, escalations: escalations, notifications: notifications}
}

func (s *JobsService) AutoEscalateSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	return s.escalations.AutoEscalateSweep(ctx, now)
}

// SendStaleInProgressReminders nudges the committee and the complainant about
// complaints that have sat IN_PROGRESS for more than thresholdDays.
func (s *JobsService) SendStaleInProgressReminders(ctx context.Context, now time.Time, thresholdDays int) (int, error) {
	if thresholdDays <= 0 {
		thresholdDays = DefaultReminderThresholdDays
	}
	cutoff := now.UTC().Add(-time.Duration(thresholdDays) * 24 * time.Hour)
	db := s.db.WithContext(ctx)

	var stale []models.Complaint
	if err := db.Where("status = ? AND updated_at < ?", models.StatusInProgress, cutoff).
		Order("society_id, updated_at").
		Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("find stale complaints: %w", err)
	}

	committees := map[uuid.UUID][]uuid.UUID{}
	var box outbox
	for i := range stale {
		c := &stale[i]
		members, ok := committees[c.SocietyID]
		if !ok {
			var err error
			members, err = committeeOrAbove(db, c.SocietyID)
			if err != nil {
				return 0, err
			}
			committees[c.SocietyID] = members
		}
		box.addAll(without(members, c.ComplainantID), complaintNotice(c, uuid.Nil, models.NotifyReminder,
			"Complaint pending reminder",
			fmt.Sprintf("Complaint \"%s\" has been in progress for over %d days.", c.Title, thresholdDays)))
		box.add(complaintNotice(c, c.ComplainantID, models.NotifyReminder,
			"Complaint update",
			fmt.Sprintf("Your complaint \"%s\" is still being processed. We apologize for the delay.", c.Title)))
	}

	s.notifier.Notify(ctx, box...)
	slog.Info("stale complaint reminders sent", "complaints", len(stale), "notifications", len(box))
	return len(stale), nil
}

// monthlyBonusDescription keys MONTHLY_BONUS entries to the month they
// reward so a rerun can detect them.
func monthlyBonusDescription(month time.Time) string {
	return "Monthly bonus " + month.Format("2006-01")
}

// ApplyMonthlyKarmaBonus awards MONTHLY_BONUS once per user for month to
// every active user with at least MonthlyBonusMinResolved of their
// complaints resolved during that month.
func (s *JobsService) ApplyMonthlyKarmaBonus(ctx context.Context, month time.Time) (int, error) {
	month = month.UTC()
	start, end := MonthRange(month.Year(), month.Month())
	desc := monthlyBonusDescription(start)
	db := s.db.WithContext(ctx)

	type candidate struct {
		UserID   uuid.UUID
		Resolved int
	}
	var candidates []candidate
	err := db.Table("complaints").
		Select("complaints.complainant_id AS user_id, COUNT(*) AS resolved").
		Joins("JOIN users ON users.id = complaints.complainant_id").
		Where("users.active = ? AND complaints.status = ?", true, models.StatusResolved).
		Where("complaints.resolved_at >= ? AND complaints.resolved_at < ?", start, end).
		Group("complaints.complainant_id").
		Having("COUNT(*) >= ?", MonthlyBonusMinResolved).
		Scan(&candidates).Error
	if err != nil {
		return 0, fmt.Errorf("find monthly bonus candidates: %w", err)
	}

	awarded := 0
	for _, c := range candidates {
		granted := false
		err := db.Transaction(func(tx *gorm.DB) error {
			// Lock the user so concurrent runs serialize on the existence check.
			var user models.User
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", c.UserID).Error; err != nil {
				return notFoundOr(err, "user")
			}
			var existing int64
			if err := tx.Model(&models.KarmaLog{}).
				Where("user_id = ? AND reason = ? AND description = ?", c.UserID, models.KarmaMonthlyBonus, desc).
				Count(&existing).Error; err != nil {
				return fmt.Errorf("check monthly bonus: %w", err)
			}
			if existing > 0 {
				return nil
			}
			if _, err := awardKarma(tx, c.UserID, models.KarmaMonthlyBonus, 0, desc, nil); err != nil {
				return err
			}
			granted = true
			return nil
		})
		if err != nil {
			slog.Error("monthly karma bonus failed", "error", err, "user_id", c.UserID.String(), "action", "monthly_bonus")
			continue
		}
		if !granted {
			continue
		}
		awarded++
		s.notifier.Notify(ctx, Notice{
			UserID:  c.UserID,
			Title:   "Monthly karma bonus",
			Message: fmt.Sprintf("You received +%d karma for %d resolved complaints in %s.", models.KarmaMonthlyBonus.Points(), c.Resolved, start.Format("January 2006")),
			Type:    models.NotifyKarma,
		})
	}

	slog.Info("monthly karma bonus applied", "month", start.Format("2006-01"), "candidates", len(candidates), "awarded", awarded)
	return awarded, nil
}

// CleanupOldNotifications deletes read notifications older than
// retentionDays.
func (s *JobsService) CleanupOldNotifications(ctx context.Context, now time.Time, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultNotificationRetentionDays
	}
	deleted, err := s.notifications.CleanupOld(ctx, now, retentionDays)
	if err != nil {
		return 0, err
	}
	slog.Info("notification cleanup completed", "deleted", deleted, "retention_days", retentionDays)
	return deleted, nil
}

// WeeklyReport is one society's activity over the seven days before now.
type WeeklyReport struct {
	SocietyID uuid.UUID `json:"society_id"`
	Society   string    `json:"society"`
	New       int64     `json:"new_complaints"`
	Resolved  int64     `json:"resolved_complaints"`
	Pending   int64     `json:"pending_complaints"`
}

// SendWeeklyReports sends each society's secretaries a summary of the past
// week.
func (s *JobsService) SendWeeklyReports(ctx context.Context, now time.Time) ([]WeeklyReport, error) {
	weekAgo := now.UTC().AddDate(0, 0, -7)
	db := s.db.WithContext(ctx)

	var societies []models.Society
	if err := db.Order("name").Find(&societies).Error; err != nil {
		return nil, fmt.Errorf("load societies: %w", err)
	}

	reports := make([]WeeklyReport, 0, len(societies))
	var box outbox
	for _, society := range societies {
		r := WeeklyReport{SocietyID: society.ID, Society: society.Name}
		scoped := func() *gorm.DB {
			return db.Model(&models.Complaint{}).Scopes(tenant.ForSociety(society.ID))
		}
		if err := scoped().Where("created_at >= ?", weekAgo).Count(&r.New).Error; err != nil {
			return nil, fmt.Errorf("count new complaints: %w", err)
		}
		if err := scoped().Where("resolved_at >= ?", weekAgo).Count(&r.Resolved).Error; err != nil {
			return nil, fmt.Errorf("count resolved complaints: %w", err)
		}
		if err := scoped().Where("status IN ?", []models.ComplaintStatus{
			models.StatusOpen, models.StatusAcknowledged, models.StatusInProgress, models.StatusEscalated,
		}).Count(&r.Pending).Error; err != nil {
			return nil, fmt.Errorf("count pending complaints: %w", err)
		}
		reports = append(reports, r)

		secretaries, err := usersWithRoles(db, society.ID, models.RoleSecretary)
		if err != nil {
			return nil, err
		}
		box.addAll(secretaries, Notice{
			Title: "Weekly report",
			Message: fmt.Sprintf("Weekly report for %s:\n- New complaints: %d\n- Resolved: %d\n- Pending: %d",
				society.Name, r.New, r.Resolved, r.Pending),
			Type:      models.NotifyWeeklyReport,
			ActionURL: "/dashboard",
		})
	}

	s.notifier.Notify(ctx, box...)
	return reports, nil
}
