package routes

import (
	"time"

	"github.com/23f2003700/padosi-politics/internal/config"
	"github.com/23f2003700/padosi-politics/internal/handlers"
	"github.com/23f2003700/padosi-politics/internal/middleware"
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

type Handlers struct {
	Health        *handlers.HealthHandler
	Complaints    *handlers.ComplaintHandler
	Votes         *handlers.VoteHandler
	Comments      *handlers.CommentHandler
	Escalations   *handlers.EscalationHandler
	Karma         *handlers.KarmaHandler
	Notifications *handlers.NotificationHandler
	Stats         *handlers.StatsHandler
	Tasks         *handlers.TaskHandler
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/api/notifications/stream"
		},
	}))

	api.Get("/health", h.Health.Check)

	// Task endpoints for external cron (X-Cron-Secret, no JWT)
	tasks := api.Group("/tasks/cron", middleware.CronSecret(cfg))
	tasks.Get("/", h.Tasks.Status)
	tasks.Post("/monthly-bonus", h.Tasks.MonthlyBonus)
	tasks.Post("/:job", h.Tasks.Run)

	// Everything below needs a valid JWT and an active user
	protected := api.Group("", middleware.JWTProtected(cfg), middleware.LoadActor(db))

	complaints := protected.Group("/complaints")
	complaints.Get("/", h.Complaints.List)
	complaints.Post("/", h.Complaints.Create)
	complaints.Get("/:id", h.Complaints.Get)
	complaints.Put("/:id", h.Complaints.Update)
	complaints.Delete("/:id", h.Complaints.Delete)
	complaints.Put("/:id/status", middleware.RoleRequired(models.RoleCommitteeMember), h.Complaints.UpdateStatus)

	complaints.Post("/:id/vote", h.Votes.Cast)
	complaints.Delete("/:id/vote", h.Votes.Remove)
	complaints.Get("/:id/votes", h.Votes.List)

	complaints.Get("/:id/comments", h.Comments.List)
	complaints.Post("/:id/comments", h.Comments.Add)
	protected.Put("/comments/:comment_id", h.Comments.Update)
	protected.Delete("/comments/:comment_id", h.Comments.Delete)

	complaints.Post("/:id/escalate", h.Escalations.Escalate)
	complaints.Get("/:id/escalations", h.Escalations.ForComplaint)
	committee := protected.Group("/escalations", middleware.RoleRequired(models.RoleCommitteeMember))
	committee.Get("/", h.Escalations.List)
	committee.Put("/:id/acknowledge", h.Escalations.Acknowledge)

	karma := protected.Group("/karma")
	karma.Get("/me", h.Karma.Me)
	karma.Get("/history", h.Karma.History)
	karma.Get("/leaderboard", h.Karma.Leaderboard)

	notifications := protected.Group("/notifications")
	notifications.Get("/", h.Notifications.List)
	notifications.Get("/unread-count", h.Notifications.UnreadCount)
	notifications.Get("/stream", h.Notifications.Stream)
	notifications.Put("/read-all", h.Notifications.MarkAllRead)
	notifications.Put("/:id/read", h.Notifications.MarkRead)
	notifications.Delete("/:id", h.Notifications.Delete)

	protected.Get("/dashboard", h.Stats.Dashboard)

	// Secretary panel
	secretary := protected.Group("/admin", middleware.RoleRequired(models.RoleSecretary))
	secretary.Get("/stats", h.Stats.Society)
	secretary.Get("/karma/verify", h.Karma.Verify)
	secretary.Post("/karma/adjust", middleware.RoleRequired(models.RoleAdmin), h.Karma.Adjust)
}
