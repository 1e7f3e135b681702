package handlers

import (
	"time"

	"github.com/23f2003700/padosi-politics/internal/cache"
	"github.com/23f2003700/padosi-politics/internal/dto"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	redis *cache.Redis
}

func NewHealthHandler(db *gorm.DB, redis *cache.Redis) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "ok",
		Redis:     "disabled",
	}

	if sqlDB, err := h.db.DB(); err != nil {
		resp.DB = "unhealthy: " + err.Error()
	} else if err := sqlDB.PingContext(c.UserContext()); err != nil {
		resp.DB = "unhealthy: " + err.Error()
	}
	if h.redis != nil {
		resp.Redis = "ok"
		if err := h.redis.Ping(c.UserContext()); err != nil {
			resp.Redis = "unhealthy: " + err.Error()
		}
	}

	status := fiber.StatusOK
	if resp.DB != "ok" {
		resp.Status = "degraded"
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}
