package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/23f2003700/padosi-politics/internal/cache"
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/23f2003700/padosi-politics/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatsService computes dashboard figures. Society-wide stats are cached in
// Redis for ttl when a client is configured.
type StatsService struct {
	db    *gorm.DB
	cache *cache.Redis
	ttl   time.Duration
}

func NewStatsService(db *gorm.DB, c *cache.Redis, ttl time.Duration) *StatsService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &StatsService{db: db, cache: c, ttl: ttl}
}

type DashboardStats struct {
	OpenComplaints        int64   `json:"total_complaints_open"`
	ResolvedComplaints    int64   `json:"total_complaints_resolved"`
	MyComplaints          int64   `json:"my_complaints_count"`
	ComplaintsAgainstMe   int64   `json:"complaints_against_me"`
	MyKarma               int     `json:"my_karma"`
	MyKarmaChangeThisWeek int     `json:"my_karma_change_this_week"`
	SocietyKarmaAverage   float64 `json:"society_karma_average"`
	NewThisWeek           int64   `json:"new_complaints_this_week"`
	ResolvedThisWeek      int64   `json:"resolved_this_week"`
	UnreadNotifications   int64   `json:"unread_notifications"`
}

var activeStatuses = []models.ComplaintStatus{
	models.StatusOpen, models.StatusAcknowledged, models.StatusInProgress, models.StatusEscalated,
}

// Dashboard returns the caller's personal dashboard figures.
func (s *StatsService) Dashboard(ctx context.Context, actor Actor, now time.Time) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	me, err := findSocietyUser(db, actor.SocietyID, actor.UserID)
	if err != nil {
		return nil, err
	}
	weekAgo := now.UTC().AddDate(0, 0, -7)
	complaints := func() *gorm.DB {
		return db.Model(&models.Complaint{}).Scopes(tenant.ForSociety(actor.SocietyID))
	}

	st := &DashboardStats{MyKarma: me.KarmaScore}
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&st.OpenComplaints, complaints().Where("status IN ?", activeStatuses)},
		{&st.ResolvedComplaints, complaints().Where("status = ?", models.StatusResolved)},
		{&st.MyComplaints, complaints().Where("complainant_id = ?", me.ID)},
		{&st.ComplaintsAgainstMe, complaints().Where("accused_user_id = ? OR UPPER(accused_flat) = ?", me.ID, strings.ToUpper(me.FlatNumber))},
		{&st.NewThisWeek, complaints().Where("created_at >= ?", weekAgo)},
		{&st.ResolvedThisWeek, complaints().Where("resolved_at >= ?", weekAgo)},
		{&st.UnreadNotifications, db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", me.ID, false)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("dashboard count: %w", err)
		}
	}

	if err := db.Model(&models.KarmaLog{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ? AND created_at >= ?", me.ID, weekAgo).
		Scan(&st.MyKarmaChangeThisWeek).Error; err != nil {
		return nil, fmt.Errorf("weekly karma change: %w", err)
	}

	var avg float64
	if err := db.Model(&models.User{}).
		Select("COALESCE(AVG(karma_score), 0)").
		Where("society_id = ? AND active = ?", actor.SocietyID, true).
		Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("society karma average: %w", err)
	}
	st.SocietyKarmaAverage = math.Round(avg*100) / 100
	return st, nil
}

type UserCount struct {
	UserID     uuid.UUID `json:"user_id"`
	FullName   string    `json:"full_name"`
	FlatNumber string    `json:"flat_number"`
	KarmaScore int       `json:"karma_score,omitempty"`
	Count      int64     `json:"complaint_count"`
}

type SocietyStats struct {
	CategoryWise          map[models.Category]int64        `json:"category_wise"`
	StatusWise            map[models.ComplaintStatus]int64 `json:"status_wise"`
	PriorityWise          map[models.Priority]int64        `json:"priority_wise"`
	TotalComplaints       int64                            `json:"total_complaints"`
	ResolvedComplaints    int64                            `json:"resolved_complaints"`
	ResolutionRate        float64                          `json:"resolution_rate"`
	AverageResolutionDays float64                          `json:"average_resolution_days"`
	RepeatOffenders       []UserCount                      `json:"repeat_offenders"`
	ActiveComplainers     []UserCount                      `json:"active_complainers"`
	GeneratedAt           time.Time                        `json:"generated_at"`
}

func societyStatsKey(societyID uuid.UUID) string {
	return "stats:society:" + societyID.String()
}

// Society returns society-wide complaint statistics. Secretary-or-above only.
func (s *StatsService) Society(ctx context.Context, actor Actor) (*SocietyStats, error) {
	if !actor.IsSecretaryOrAbove() {
		return nil, AuthorizationError("only secretaries can view society statistics")
	}

	key := societyStatsKey(actor.SocietyID)
	var cached SocietyStats
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		slog.Warn("stats cache read failed", "error", err, "society_id", actor.SocietyID.String())
	} else if hit {
		return &cached, nil
	}

	st, err := s.computeSociety(ctx, actor.SocietyID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, st, s.ttl); err != nil {
		slog.Warn("stats cache write failed", "error", err, "society_id", actor.SocietyID.String())
	}
	return st, nil
}

// Invalidate drops the cached society stats.
func (s *StatsService) Invalidate(ctx context.Context, societyID uuid.UUID) {
	if err := s.cache.Delete(ctx, societyStatsKey(societyID)); err != nil {
		slog.Warn("stats cache invalidate failed", "error", err, "society_id", societyID.String())
	}
}

func (s *StatsService) computeSociety(ctx context.Context, societyID uuid.UUID) (*SocietyStats, error) {
	db := s.db.WithContext(ctx)
	complaints := func() *gorm.DB {
		return db.Model(&models.Complaint{}).Scopes(tenant.ForSociety(societyID))
	}
	st := &SocietyStats{
		CategoryWise: map[models.Category]int64{},
		StatusWise:   map[models.ComplaintStatus]int64{},
		PriorityWise: map[models.Priority]int64{},
		GeneratedAt:  time.Now().UTC(),
	}

	var groups []struct {
		Label string
		Total int64
	}
	if err := complaints().Select("category AS label, COUNT(*) AS total").Group("category").Scan(&groups).Error; err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	for _, g := range groups {
		st.CategoryWise[models.Category(g.Label)] = g.Total
		st.TotalComplaints += g.Total
	}

	groups = nil
	if err := complaints().Select("status AS label, COUNT(*) AS total").Group("status").Scan(&groups).Error; err != nil {
		return nil, fmt.Errorf("status stats: %w", err)
	}
	for _, g := range groups {
		st.StatusWise[models.ComplaintStatus(g.Label)] = g.Total
	}
	st.ResolvedComplaints = st.StatusWise[models.StatusResolved]

	groups = nil
	if err := complaints().Select("priority AS label, COUNT(*) AS total").
		Where("status NOT IN ?", []models.ComplaintStatus{models.StatusResolved, models.StatusClosed}).
		Group("priority").Scan(&groups).Error; err != nil {
		return nil, fmt.Errorf("priority stats: %w", err)
	}
	for _, g := range groups {
		st.PriorityWise[models.Priority(g.Label)] = g.Total
	}

	if st.TotalComplaints > 0 {
		st.ResolutionRate = math.Round(float64(st.ResolvedComplaints)/float64(st.TotalComplaints)*10000) / 100
	}

	var resolved []models.Complaint
	if err := complaints().Select("created_at", "resolved_at").Where("resolved_at IS NOT NULL").Find(&resolved).Error; err != nil {
		return nil, fmt.Errorf("resolution times: %w", err)
	}
	if len(resolved) > 0 {
		var total time.Duration
		for _, c := range resolved {
			total += c.ResolvedAt.Sub(c.CreatedAt)
		}
		days := total.Hours() / 24 / float64(len(resolved))
		st.AverageResolutionDays = math.Round(days*10) / 10
	}

	if err := db.Table("users").
		Select("users.id AS user_id, users.full_name, users.flat_number, users.karma_score, COUNT(complaints.id) AS count").
		Joins("JOIN complaints ON complaints.accused_user_id = users.id").
		Where("users.society_id = ? AND complaints.status = ?", societyID, models.StatusResolved).
		Group("users.id, users.full_name, users.flat_number, users.karma_score").
		Having("COUNT(complaints.id) >= ?", RepeatOffenderThreshold).
		Order("count DESC").
		Limit(10).
		Scan(&st.RepeatOffenders).Error; err != nil {
		return nil, fmt.Errorf("repeat offenders: %w", err)
	}

	if err := db.Table("users").
		Select("users.id AS user_id, users.full_name, users.flat_number, COUNT(complaints.id) AS count").
		Joins("JOIN complaints ON complaints.complainant_id = users.id").
		Where("users.society_id = ?", societyID).
		Group("users.id, users.full_name, users.flat_number").
		Order("count DESC").
		Limit(10).
		Scan(&st.ActiveComplainers).Error; err != nil {
		return nil, fmt.Errorf("active complainers: %w", err)
	}
	return st, nil
}
