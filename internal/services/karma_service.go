package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxLeaderboardSize = 50

// KarmaService owns the karma ledger. awardKarma is the only code path that
// changes users.karma_score.
type KarmaService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewKarmaService(db *gorm.DB, notifier Notifier) *KarmaService {
	return &KarmaService{db: db, notifier: notifier}
}

// awardKarma appends a ledger entry and applies its points to the user's
// cached score inside tx.
func awardKarma(tx *gorm.DB, userID uuid.UUID, reason models.KarmaReason, points int, description string, complaintID *uuid.UUID) (*models.KarmaLog, error) {
	if !reason.Valid() {
		return nil, fmt.Errorf("unknown karma reason %q", reason)
	}
	if reason != models.KarmaManualAdjustment {
		points = reason.Points()
	}

	entry := &models.KarmaLog{
		UserID:             userID,
		Points:             points,
		Reason:             reason,
		Description:        description,
		RelatedComplaintID: complaintID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("append karma log: %w", err)
	}

	result := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("karma_score", gorm.Expr("karma_score + ?", points))
	if result.Error != nil {
		return nil, fmt.Errorf("apply karma: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, NotFoundError("user")
	}
	return entry, nil
}

// Award applies a fixed-table karma award in its own transaction.
func (s *KarmaService) Award(ctx context.Context, userID uuid.UUID, reason models.KarmaReason, complaintID *uuid.UUID) (*models.KarmaLog, error) {
	if reason == models.KarmaManualAdjustment {
		return nil, ValidationError("manual adjustments require explicit points")
	}
	var entry *models.KarmaLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = awardKarma(tx, userID, reason, 0, "", complaintID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AdjustManual lets an admin add or remove an explicit number of points from
// a user of their own society.
func (s *KarmaService) AdjustManual(ctx context.Context, actor Actor, userID uuid.UUID, points int, description string) (*models.KarmaLog, error) {
	if !actor.IsAdmin() {
		return nil, AuthorizationError("only admins can adjust karma")
	}
	if points == 0 {
		return nil, FieldError("points", "points must be non-zero")
	}
	if len(description) > 255 {
		return nil, FieldError("description", "description must be at most 255 characters")
	}

	var entry *models.KarmaLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findSocietyUser(tx, actor.SocietyID, userID); err != nil {
			return err
		}
		var err error
		entry, err = awardKarma(tx, userID, models.KarmaManualAdjustment, points, description, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, Notice{
		UserID:  userID,
		Title:   "Karma adjusted",
		Message: fmt.Sprintf("An admin adjusted your karma by %+d points.", points),
		Type:    models.NotifyKarma,
	})
	return entry, nil
}

// History lists a user's ledger entries, newest first. Residents can only
// read their own history.
func (s *KarmaService) History(ctx context.Context, actor Actor, userID uuid.UUID, p Page) (PageResult[models.KarmaLog], error) {
	if userID != actor.UserID && !actor.IsCommitteeOrAbove() {
		return PageResult[models.KarmaLog]{}, AuthorizationError("cannot view another user's karma history")
	}
	db := s.db.WithContext(ctx)
	if _, err := findSocietyUser(db, actor.SocietyID, userID); err != nil {
		return PageResult[models.KarmaLog]{}, err
	}

	query := db.Model(&models.KarmaLog{}).Where("user_id = ?", userID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return PageResult[models.KarmaLog]{}, fmt.Errorf("count karma logs: %w", err)
	}
	var items []models.KarmaLog
	if err := query.Order("created_at DESC").Scopes(p.scope).Find(&items).Error; err != nil {
		return PageResult[models.KarmaLog]{}, fmt.Errorf("list karma logs: %w", err)
	}
	return newPageResult(items, total, p), nil
}

// MonthRange returns [first instant of month, first instant of next month)
// in UTC.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// MonthlyKarma sums a user's ledger entries within one UTC calendar month.
func (s *KarmaService) MonthlyKarma(ctx context.Context, userID uuid.UUID, year int, month time.Month) (int, error) {
	start, end := MonthRange(year, month)
	var sum int
	err := s.db.WithContext(ctx).Model(&models.KarmaLog{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start, end).
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum monthly karma: %w", err)
	}
	return sum, nil
}

type LeaderboardEntry struct {
	Rank       int       `json:"rank"`
	UserID     uuid.UUID `json:"user_id"`
	FullName   string    `json:"full_name"`
	FlatNumber string    `json:"flat_number"`
	Wing       string    `json:"wing,omitempty"`
	KarmaScore int       `json:"karma_score"`
}

// Leaderboard orders the society's active users by karma score. limit is
// capped at MaxLeaderboardSize.
func (s *KarmaService) Leaderboard(ctx context.Context, societyID uuid.UUID, limit int, ascending bool) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxLeaderboardSize {
		limit = MaxLeaderboardSize
	}
	order := "karma_score DESC"
	if ascending {
		order = "karma_score ASC"
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("society_id = ? AND active = ?", societyID, true).
		Order(order).Order("full_name ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = LeaderboardEntry{
			Rank:       i + 1,
			UserID:     u.ID,
			FullName:   u.FullName,
			FlatNumber: u.FlatNumber,
			Wing:       u.Wing,
			KarmaScore: u.KarmaScore,
		}
	}
	return entries, nil
}

// Rank is 1 plus the number of active users in the society with a strictly
// greater score.
func (s *KarmaService) Rank(ctx context.Context, user *models.User) (int, error) {
	var higher int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("society_id = ? AND active = ? AND karma_score > ?", user.SocietyID, true, user.KarmaScore).
		Count(&higher).Error
	if err != nil {
		return 0, fmt.Errorf("rank user: %w", err)
	}
	return int(higher) + 1, nil
}

type KarmaBreakdown struct {
	Reason      models.KarmaReason `json:"reason"`
	TotalPoints int                `json:"total_points"`
	Count       int                `json:"count"`
}

type KarmaStats struct {
	KarmaScore   int              `json:"karma_score"`
	MonthlyKarma int              `json:"monthly_karma"`
	Rank         int              `json:"rank"`
	TotalUsers   int64            `json:"total_users"`
	Percentile   float64          `json:"percentile"`
	Breakdown    []KarmaBreakdown `json:"breakdown"`
}

// Stats summarises a user's standing in their society as of now.
func (s *KarmaService) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*KarmaStats, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}

	rank, err := s.Rank(ctx, &user)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := db.Model(&models.User{}).
		Where("society_id = ? AND active = ?", user.SocietyID, true).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count society users: %w", err)
	}

	now = now.UTC()
	monthly, err := s.MonthlyKarma(ctx, userID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}

	var breakdown []KarmaBreakdown
	if err := db.Model(&models.KarmaLog{}).
		Select("reason, SUM(points) AS total_points, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("reason").
		Order("reason").
		Scan(&breakdown).Error; err != nil {
		return nil, fmt.Errorf("karma breakdown: %w", err)
	}

	percentile := 100.0
	if total > 0 {
		percentile = math.Round(float64(total-int64(rank)+1)/float64(total)*1000) / 10
	}

	return &KarmaStats{
		KarmaScore:   user.KarmaScore,
		MonthlyKarma: monthly,
		Rank:         rank,
		TotalUsers:   total,
		Percentile:   percentile,
		Breakdown:    breakdown,
	}, nil
}

// LedgerDrift is a user whose cached score differs from their ledger sum.
type LedgerDrift struct {
	UserID     uuid.UUID `json:"user_id"`
	KarmaScore int       `json:"karma_score"`
	LedgerSum  int       `json:"ledger_sum"`
}

// VerifyLedger returns every user in the society whose karma_score does not
// equal the sum of their ledger entries. An empty result means the cache is
// consistent.
func (s *KarmaService) VerifyLedger(ctx context.Context, societyID uuid.UUID) ([]LedgerDrift, error) {
	var drift []LedgerDrift
	err := s.db.WithContext(ctx).
		Table("users").
		Select("users.id AS user_id, users.karma_score, COALESCE(SUM(karma_logs.points), 0) AS ledger_sum").
		Joins("LEFT JOIN karma_logs ON karma_logs.user_id = users.id").
		Where("users.society_id = ?", societyID).
		Group("users.id, users.karma_score").
		Having("users.karma_score <> COALESCE(SUM(karma_logs.points), 0)").
		Scan(&drift).Error
	if err != nil {
		return nil, fmt.Errorf("verify karma ledger: %w", err)
	}
	return drift, nil
}
