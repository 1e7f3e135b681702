package logging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/23f2003700/padosi-politics/internal/database"
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "logs.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestPGHandlerPersistsErrors(t *testing.T) {
	db := newTestDB(t)
	h := NewPGHandler(db)
	logger := slog.New(h).With("society_id", "soc-1")

	logger.Info("ignored")
	logger.Error("auto-escalation failed",
		"error", errors.New("boom"),
		"complaint_id", "c-1",
		"user_id", "u-1",
		"action", "auto_escalate",
		"attempt", 2,
	)
	h.Stop()
	h.Stop()

	var logs []models.SystemLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "auto-escalation failed", entry.Message)
	assert.Equal(t, "boom", entry.Error)
	assert.Equal(t, "auto_escalate", entry.Action)
	require.NotNil(t, entry.SocietyID)
	assert.Equal(t, "soc-1", *entry.SocietyID)
	require.NotNil(t, entry.ComplaintID)
	assert.Equal(t, "c-1", *entry.ComplaintID)

	var extra map[string]any
	require.NoError(t, json.Unmarshal(entry.Extra, &extra))
	assert.EqualValues(t, 2, extra["attempt"])
}

func TestMultiHandlerFansOut(t *testing.T) {
	db := newTestDB(t)
	pg := NewPGHandler(db)
	var seen []slog.Level
	spy := &recordingHandler{levels: &seen}

	logger := slog.New(NewMultiHandler(spy, pg))
	logger.Warn("slow query")
	logger.Error("insert failed")
	pg.Stop()

	assert.Equal(t, []slog.Level{slog.LevelWarn, slog.LevelError}, seen)
	var n int64
	require.NoError(t, db.Model(&models.SystemLog{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestPruneSystemLogs(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	for _, age := range []time.Duration{40 * 24 * time.Hour, 31 * 24 * time.Hour, time.Hour} {
		require.NoError(t, db.Create(&models.SystemLog{
			ID: uuid.New(), Timestamp: now.Add(-age), Level: "ERROR", Message: "m", Extra: []byte("{}"),
		}).Error)
	}

	deleted, err := PruneSystemLogs(context.Background(), db, now, 30)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}

type recordingHandler struct {
	levels *[]slog.Level
}

func (r *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (r *recordingHandler) Handle(_ context.Context, rec slog.Record) error {
	*r.levels = append(*r.levels, rec.Level)
	return nil
}

func (r *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *recordingHandler) WithGroup(string) slog.Handler      { return r }
