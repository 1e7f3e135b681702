package scheduler

import (
	"context"
	"time"

	"github.com/23f2003700/padosi-politics/internal/config"
	"github.com/23f2003700/padosi-politics/internal/logging"
	"github.com/23f2003700/padosi-politics/internal/services"
	"gorm.io/gorm"
)

const (
	JobAutoEscalate    = "auto_escalate"
	JobReminders       = "reminders"
	JobMonthlyBonus    = "monthly_bonus"
	JobWeeklyReport    = "weekly_report"
	JobCleanup         = "cleanup_notifications"
	JobPruneSystemLogs = "prune_system_logs"
)

// DefaultJobs is the production job set.
func DefaultJobs(db *gorm.DB, jobs *services.JobsService, cfg *config.Config) []Job {
	return []Job{
		{
			Name:     JobAutoEscalate,
			Schedule: EveryTick(),
			Run: func(ctx context.Context, now time.Time) (any, error) {
				return jobs.AutoEscalateSweep(ctx, now)
			},
		},
		{
			Name:     JobReminders,
			Schedule: DailyAt(9),
			Run: func(ctx context.Context, now time.Time) (any, error) {
				n, err := jobs.SendStaleInProgressReminders(ctx, now, cfg.ReminderThresholdDays)
				return map[string]int{"complaints": n}, err
			},
		},
		{
			Name:     JobMonthlyBonus,
			Schedule: MonthlyAt(1, 0),
			Run: func(ctx context.Context, now time.Time) (any, error) {
				month := PreviousMonth(now)
				n, err := jobs.ApplyMonthlyKarmaBonus(ctx, month)
				return map[string]any{"month": month.Format("2006-01"), "awarded": n}, err
			},
		},
		{
			Name:     JobWeeklyReport,
			Schedule: WeeklyAt(time.Monday, 9),
			Run: func(ctx context.Context, now time.Time) (any, error) {
				return jobs.SendWeeklyReports(ctx, now)
			},
		},
		{
			Name:     JobCleanup,
			Schedule: WeeklyAt(time.Sunday, 0),
			Run: func(ctx context.Context, now time.Time) (any, error) {
				n, err := jobs.CleanupOldNotifications(ctx, now, cfg.NotificationRetentionDays)
				return map[string]int64{"deleted": n}, err
			},
		},
		{
			Name:     JobPruneSystemLogs,
			Schedule: DailyAt(3),
			Run: func(ctx context.Context, now time.Time) (any, error) {
				n, err := logging.PruneSystemLogs(ctx, db, now, cfg.LogRetentionDays)
				return map[string]int64{"deleted": n}, err
			},
		},
	}
}
