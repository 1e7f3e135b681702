package handlers

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/23f2003700/padosi-politics/internal/cache"
	"github.com/23f2003700/padosi-politics/internal/dto"
	"github.com/23f2003700/padosi-politics/internal/middleware"
	"github.com/23f2003700/padosi-politics/internal/services"
	"github.com/gofiber/fiber/v2"
)

const streamKeepAlive = 25 * time.Second

type NotificationHandler struct {
	notifications *services.NotificationService
	redis         *cache.Redis
}

func NewNotificationHandler(notifications *services.NotificationService, redis *cache.Redis) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, redis: redis}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	page, err := h.notifications.List(c.UserContext(), actor.UserID, c.QueryBool("unread"), pageOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	n, err := h.notifications.UnreadCount(c.UserContext(), actor.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unread_count": n})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.notifications.MarkRead(c.UserContext(), actor.UserID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	n, err := h.notifications.MarkAllRead(c.UserContext(), actor.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.notifications.Delete(c.UserContext(), actor.UserID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Notification deleted"})
}

// Stream relays the caller's notifications as server-sent events. It needs
// Redis; without it clients fall back to polling List.
func (h *NotificationHandler) Stream(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}
	if h.redis == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: "Live notifications are not available",
		})
	}

	// The stream outlives the request context, so it gets its own.
	ctx, cancel := context.WithCancel(context.Background())
	channel := services.NotificationChannel(actor.UserID)
	sub := h.redis.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		_ = sub.Close()
		return respondError(c, fmt.Errorf("subscribe %s: %w", channel, err))
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer sub.Close()

		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()
		messages := sub.Channel()
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: notification\ndata: %s\n\n", msg.Payload)
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
			}
			if err := w.Flush(); err != nil {
				slog.Debug("notification stream closed", "user_id", actor.UserID.String(), "error", err)
				return
			}
		}
	})
	return nil
}
