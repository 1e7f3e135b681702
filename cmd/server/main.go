package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/23f2003700/padosi-politics/internal/bootstrap"
	"github.com/23f2003700/padosi-politics/internal/config"
	"github.com/23f2003700/padosi-politics/internal/database"
	"github.com/23f2003700/padosi-politics/internal/handlers"
	"github.com/23f2003700/padosi-politics/internal/logging"
	"github.com/23f2003700/padosi-politics/internal/middleware"
	"github.com/23f2003700/padosi-politics/internal/routes"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if !cfg.UsesSQLite() && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	logging.WithStore(pgLogHandler)

	// Redis is optional
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	redis := bootstrap.ConnectRedis(ctx, cfg)

	svc := bootstrap.NewServices(database.DB, redis, cfg)

	schedulerDone := make(chan struct{})
	if cfg.SchedulerEnabled {
		go func() {
			defer close(schedulerDone)
			svc.Scheduler.Run(ctx)
		}()
	} else {
		close(schedulerDone)
		slog.Info("in-process scheduler disabled; use /api/tasks/cron or padosictl")
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB, routes.Handlers{
		Health:        handlers.NewHealthHandler(database.DB, redis),
		Complaints:    handlers.NewComplaintHandler(svc.Complaints, svc.Votes, svc.Stats),
		Votes:         handlers.NewVoteHandler(svc.Votes),
		Comments:      handlers.NewCommentHandler(svc.Comments),
		Escalations:   handlers.NewEscalationHandler(svc.Escalations),
		Karma:         handlers.NewKarmaHandler(svc.Karma),
		Notifications: handlers.NewNotificationHandler(svc.Notifications, redis),
		Stats:         handlers.NewStatsHandler(svc.Stats),
		Tasks:         handlers.NewTaskHandler(svc.Scheduler, svc.Jobs),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	stop()
	<-schedulerDone
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := redis.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}
	if err := database.Close(database.DB); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
