package bootstrap

import (
	"context"
	"log/slog"

	"github.com/23f2003700/padosi-politics/internal/cache"
	"github.com/23f2003700/padosi-politics/internal/config"
	"github.com/23f2003700/padosi-politics/internal/scheduler"
	"github.com/23f2003700/padosi-politics/internal/services"
	"gorm.io/gorm"
)

// Services is the wired service graph shared by the server and the CLI.
type Services struct {
	Notifications *services.NotificationService
	Karma         *services.KarmaService
	Complaints    *services.ComplaintService
	Votes         *services.VoteService
	Escalations   *services.EscalationService
	Comments      *services.CommentService
	Jobs          *services.JobsService
	Stats         *services.StatsService
	Scheduler     *scheduler.Runner
}

func NewServices(db *gorm.DB, redis *cache.Redis, cfg *config.Config) *Services {
	filter := services.NewContentFilter()
	notifications := services.NewNotificationService(db, redis)

	escalations := services.NewEscalationService(db, notifications)
	escalations.SetDefaultWindow(cfg.AutoEscalateDays)

	jobs := services.NewJobsService(db, notifications, escalations, notifications)
	return &Services{
		Notifications: notifications,
		Karma:         services.NewKarmaService(db, notifications),
		Complaints:    services.NewComplaintService(db, notifications, filter),
		Votes:         services.NewVoteService(db, notifications),
		Escalations:   escalations,
		Comments:      services.NewCommentService(db, notifications, filter),
		Jobs:          jobs,
		Stats:         services.NewStatsService(db, redis, cfg.StatsCacheTTL),
		Scheduler:     scheduler.New(cfg.SchedulerInterval, scheduler.DefaultJobs(db, jobs, cfg)...),
	}
}

// ConnectRedis returns nil when REDIS_URL is unset or unreachable; every
// Redis consumer treats nil as disabled.
func ConnectRedis(ctx context.Context, cfg *config.Config) *cache.Redis {
	if cfg.RedisURL == "" {
		slog.Info("redis disabled")
		return nil
	}
	redis, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		slog.Warn("redis unavailable, continuing without it", "error", err)
		return nil
	}
	slog.Info("redis connected")
	return redis
}
