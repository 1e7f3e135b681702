package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/23f2003700/padosi-politics/internal/bootstrap"
	"github.com/23f2003700/padosi-politics/internal/config"
	"github.com/23f2003700/padosi-politics/internal/database"
	"github.com/23f2003700/padosi-politics/internal/handlers"
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/23f2003700/padosi-politics/internal/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testJWTSecret  = "test-jwt-secret"
	testCronSecret = "test-cron-secret"
)

type harness struct {
	t       *testing.T
	app     *fiber.App
	db      *gorm.DB
	svc     *bootstrap.Services
	society *models.Society
	flats   int
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	cfg := &config.Config{
		JWTSecret:                 testJWTSecret,
		CronSecret:                testCronSecret,
		AutoEscalateDays:          7,
		ReminderThresholdDays:     3,
		NotificationRetentionDays: 30,
		LogRetentionDays:          30,
		SchedulerInterval:         time.Hour,
		StatsCacheTTL:             time.Minute,
	}
	for _, m := range mutate {
		m(cfg)
	}

	svc := bootstrap.NewServices(db, nil, cfg)
	app := fiber.New()
	routes.Setup(app, cfg, db, routes.Handlers{
		Health:        handlers.NewHealthHandler(db, nil),
		Complaints:    handlers.NewComplaintHandler(svc.Complaints, svc.Votes, svc.Stats),
		Votes:         handlers.NewVoteHandler(svc.Votes),
		Comments:      handlers.NewCommentHandler(svc.Comments),
		Escalations:   handlers.NewEscalationHandler(svc.Escalations),
		Karma:         handlers.NewKarmaHandler(svc.Karma),
		Notifications: handlers.NewNotificationHandler(svc.Notifications, nil),
		Stats:         handlers.NewStatsHandler(svc.Stats),
		Tasks:         handlers.NewTaskHandler(svc.Scheduler, svc.Jobs),
	})

	society := &models.Society{Name: "Green Meadows", AllowAnonymousComplaints: true, AutoEscalateDays: 7}
	require.NoError(t, db.Create(society).Error)
	return &harness{t: t, app: app, db: db, svc: svc, society: society}
}

func (h *harness) user(role models.Role) *models.User {
	h.t.Helper()
	h.flats++
	flat := "A-" + string(rune('0'+h.flats/10)) + string(rune('0'+h.flats%10))
	u := &models.User{
		SocietyID:  h.society.ID,
		Email:      uuid.NewString() + "@example.com",
		FullName:   string(role) + " " + flat,
		FlatNumber: flat,
		Role:       role,
		Active:     true,
	}
	require.NoError(h.t, h.db.Create(u).Error)
	return u
}

func token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

type response struct {
	status int
	body   []byte
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), "body: %s", r.body)
}

func (r response) object(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	r.decode(t, &m)
	return m
}

// do sends a request as u, or anonymously when u is nil.
func (h *harness) do(method, path string, u *models.User, body any) response {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+token(h.t, u.ID))
	}
	return h.send(req)
}

func (h *harness) send(req *http.Request) response {
	h.t.Helper()
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return response{status: resp.StatusCode, body: b}
}

func complaintBody(mutate ...func(map[string]any)) map[string]any {
	body := map[string]any{
		"title":       "Loud music after 10 PM",
		"description": "The neighbours play loud music every night well past 11.",
		"category":    "noise",
		"priority":    "medium",
	}
	for _, m := range mutate {
		m(body)
	}
	return body
}

func (h *harness) fileComplaint(u *models.User, mutate ...func(map[string]any)) string {
	h.t.Helper()
	res := h.do(http.MethodPost, "/api/complaints", u, complaintBody(mutate...))
	require.Equal(h.t, http.StatusCreated, res.status, "body: %s", res.body)
	return res.object(h.t)["id"].(string)
}
