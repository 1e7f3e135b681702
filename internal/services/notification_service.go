package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/23f2003700/padosi-politics/internal/cache"
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notice is one in-app notification to deliver.
type Notice struct {
	UserID      uuid.UUID               `json:"user_id"`
	Title       string                  `json:"title"`
	Message     string                  `json:"message"`
	Type        models.NotificationType `json:"type"`
	ComplaintID *uuid.UUID              `json:"related_complaint_id,omitempty"`
	ActionURL   string                  `json:"action_url,omitempty"`
}

// Notifier delivers notices. Delivery is best-effort: implementations log
// failures instead of returning them.
type Notifier interface {
	Notify(ctx context.Context, notices ...Notice)
}

// outbox collects notices during a transaction so they are only sent after
// commit.
type outbox []Notice

func (o *outbox) add(n Notice) {
	*o = append(*o, n)
}

func (o *outbox) addAll(userIDs []uuid.UUID, n Notice) {
	for _, id := range userIDs {
		n.UserID = id
		o.add(n)
	}
}

func complaintNotice(c *models.Complaint, userID uuid.UUID, typ models.NotificationType, title, message string) Notice {
	id := c.ID
	return Notice{
		UserID:      userID,
		Title:       title,
		Message:     message,
		Type:        typ,
		ComplaintID: &id,
		ActionURL:   "/complaints/" + c.ID.String(),
	}
}

// NotificationService persists notices as Notification rows and publishes
// them on notifications:<user_id> when Redis is configured.
type NotificationService struct {
	db    *gorm.DB
	redis *cache.Redis
}

func NewNotificationService(db *gorm.DB, redis *cache.Redis) *NotificationService {
	return &NotificationService{db: db, redis: redis}
}

func NotificationChannel(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

func (s *NotificationService) Notify(ctx context.Context, notices ...Notice) {
	if len(notices) == 0 {
		return
	}

	rows := make([]models.Notification, 0, len(notices))
	for _, n := range notices {
		if n.UserID == uuid.Nil {
			continue
		}
		rows = append(rows, models.Notification{
			UserID:             n.UserID,
			Title:              n.Title,
			Message:            n.Message,
			Type:               n.Type,
			RelatedComplaintID: n.ComplaintID,
			ActionURL:          n.ActionURL,
		})
	}
	if len(rows) == 0 {
		return
	}

	if err := s.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		slog.Error("failed to persist notifications", "error", err, "count", len(rows), "action", "notify")
		return
	}

	for _, row := range rows {
		if err := s.redis.Publish(ctx, NotificationChannel(row.UserID), row); err != nil {
			slog.Warn("failed to publish notification", "error", err, "user_id", row.UserID.String())
		}
	}
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, p Page) (PageResult[models.Notification], error) {
	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return PageResult[models.Notification]{}, fmt.Errorf("count notifications: %w", err)
	}

	var items []models.Notification
	if err := query.Order("created_at DESC").Scopes(p.scope).Find(&items).Error; err != nil {
		return PageResult[models.Notification]{}, fmt.Errorf("list notifications: %w", err)
	}
	return newPageResult(items, total, p), nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return fmt.Errorf("mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NotFoundError("notification")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	return result.RowsAffected, result.Error
}

func (s *NotificationService) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NotFoundError("notification")
	}
	return nil
}

// CleanupOld deletes read notifications created before now minus
// retentionDays. Unread notifications are kept.
func (s *NotificationService) CleanupOld(ctx context.Context, now time.Time, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := now.UTC().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}
