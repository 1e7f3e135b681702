package database

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/23f2003700/padosi-politics/internal/config"
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "test.db")}

	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))

	m := db.Migrator()
	for _, model := range []interface{}{
		&models.Society{}, &models.User{}, &models.Complaint{}, &models.Vote{},
		&models.Comment{}, &models.KarmaLog{}, &models.Escalation{}, &models.Notification{},
		&models.SystemLog{},
	} {
		assert.True(t, m.HasTable(model))
	}
	assert.True(t, m.HasIndex(&models.Vote{}, "idx_votes_complaint_user"))
	assert.True(t, m.HasIndex(&models.Escalation{}, "idx_escalations_auto_once"))

	// Migrating twice is a no-op.
	require.NoError(t, Migrate(db))
}

func TestConnectSetsGlobal(t *testing.T) {
	saved := DB
	t.Cleanup(func() { DB = saved })

	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "global.db")}
	require.NoError(t, Connect(cfg))
	t.Cleanup(func() { _ = Close(DB) })
	assert.NotNil(t, DB)
}

func TestLoggerSkipsRecordNotFound(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "quiet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, Migrate(db))

	var buf bytes.Buffer
	quiet := db.Session(&gorm.Session{Logger: gormLogger(&buf)})

	var vote models.Vote
	err = quiet.Where("user_id = ?", "nobody").First(&vote).Error
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.Empty(t, buf.String())

	err = quiet.Exec("SELECT * FROM no_such_table").Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), "no_such_table")
}
