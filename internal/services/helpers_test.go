package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/23f2003700/padosi-politics/internal/database"
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db            *gorm.DB
	ctx           context.Context
	notifications *NotificationService
	karma         *KarmaService
	complaints    *ComplaintService
	votes         *VoteService
	escalations   *EscalationService
	comments      *CommentService
	jobs          *JobsService
	stats         *StatsService
	society       *models.Society
	flats         int
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "padosi.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	filter := NewContentFilter()
	notifications := NewNotificationService(db, nil)
	escalations := NewEscalationService(db, notifications)
	f := &fixture{
		db:            db,
		ctx:           context.Background(),
		notifications: notifications,
		karma:         NewKarmaService(db, notifications),
		complaints:    NewComplaintService(db, notifications, filter),
		votes:         NewVoteService(db, notifications),
		escalations:   escalations,
		comments:      NewCommentService(db, notifications, filter),
		jobs:          NewJobsService(db, notifications, escalations, notifications),
		stats:         NewStatsService(db, nil, time.Hour),
	}
	f.society = f.newSociety(t, "Green Meadows", true, 7)
	return f
}

func (f *fixture) newSociety(t *testing.T, name string, allowAnonymous bool, autoEscalateDays int) *models.Society {
	t.Helper()
	s := &models.Society{Name: name, AllowAnonymousComplaints: allowAnonymous, AutoEscalateDays: autoEscalateDays}
	require.NoError(t, f.db.Create(s).Error)
	return s
}

// user registers an active user in the fixture's society with a fresh flat.
func (f *fixture) user(t *testing.T, role models.Role) Actor {
	t.Helper()
	f.flats++
	return f.userAt(t, f.society, role, fmt.Sprintf("A-%d", 100+f.flats))
}

func (f *fixture) userAt(t *testing.T, society *models.Society, role models.Role, flat string) Actor {
	t.Helper()
	u := &models.User{
		SocietyID:  society.ID,
		Email:      uuid.NewString() + "@example.com",
		FullName:   string(role) + " " + flat,
		FlatNumber: flat,
		Role:       role,
		Active:     true,
	}
	require.NoError(t, f.db.Create(u).Error)
	return ActorFromUser(u)
}

func (f *fixture) flatOf(t *testing.T, a Actor) string {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.First(&u, "id = ?", a.UserID).Error)
	return u.FlatNumber
}

func validInput() ComplaintInput {
	return ComplaintInput{
		Title:       "Loud music after 10 PM",
		Description: "The neighbours play loud music every night well past 11.",
		Category:    models.CategoryNoise,
		Priority:    models.PriorityMedium,
	}
}

func (f *fixture) complaint(t *testing.T, owner Actor, mutate ...func(*ComplaintInput)) *models.Complaint {
	t.Helper()
	in := validInput()
	for _, m := range mutate {
		m(&in)
	}
	c, err := f.complaints.Create(f.ctx, owner, in)
	require.NoError(t, err)
	return c
}

func against(flat string) func(*ComplaintInput) {
	return func(in *ComplaintInput) { in.AccusedFlat = flat }
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *models.Complaint {
	t.Helper()
	var c models.Complaint
	require.NoError(t, f.db.First(&c, "id = ?", id).Error)
	return &c
}

func (f *fixture) backdate(t *testing.T, id uuid.UUID, column string, age time.Duration) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.Complaint{}).Where("id = ?", id).
		UpdateColumn(column, time.Now().UTC().Add(-age)).Error)
}

func (f *fixture) karmaOf(t *testing.T, a Actor) int {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.First(&u, "id = ?", a.UserID).Error)
	return u.KarmaScore
}

func (f *fixture) ledger(t *testing.T, a Actor, reason models.KarmaReason) []models.KarmaLog {
	t.Helper()
	var logs []models.KarmaLog
	require.NoError(t, f.db.Where("user_id = ? AND reason = ?", a.UserID, reason).Find(&logs).Error)
	return logs
}

func (f *fixture) inbox(t *testing.T, a Actor) []models.Notification {
	t.Helper()
	var ns []models.Notification
	require.NoError(t, f.db.Where("user_id = ?", a.UserID).Order("created_at").Find(&ns).Error)
	return ns
}

func (f *fixture) inboxOfType(t *testing.T, a Actor, typ models.NotificationType) []models.Notification {
	t.Helper()
	var out []models.Notification
	for _, n := range f.inbox(t, a) {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// requireConsistent checks that every cached karma score matches its ledger
// and every complaint's counters match its vote rows.
func (f *fixture) requireConsistent(t *testing.T) {
	t.Helper()
	drift, err := f.karma.VerifyLedger(f.ctx, f.society.ID)
	require.NoError(t, err)
	require.Empty(t, drift, "karma_score differs from ledger")

	var complaints []models.Complaint
	require.NoError(t, f.db.Find(&complaints).Error)
	for _, c := range complaints {
		var support, oppose int64
		require.NoError(t, f.db.Model(&models.Vote{}).Where("complaint_id = ? AND vote_type = ?", c.ID, models.VoteSupport).Count(&support).Error)
		require.NoError(t, f.db.Model(&models.Vote{}).Where("complaint_id = ? AND vote_type = ?", c.ID, models.VoteOppose).Count(&oppose).Error)
		require.EqualValues(t, support, c.SupportCount, "support_count of %s", c.ID)
		require.EqualValues(t, oppose, c.OpposeCount, "oppose_count of %s", c.ID)
	}
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}

func ptr[T any](v T) *T { return &v }
