package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("AUTO_ESCALATE_DAYS", "")
	t.Setenv("SCHEDULER_INTERVAL", "")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 7, cfg.AutoEscalateDays)
	assert.Equal(t, 3, cfg.ReminderThresholdDays)
	assert.Equal(t, 30, cfg.NotificationRetentionDays)
	assert.Equal(t, time.Hour, cfg.SchedulerInterval)
	assert.False(t, cfg.UsesSQLite())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("AUTO_ESCALATE_DAYS", "10")
	t.Setenv("REMINDER_THRESHOLD_DAYS", "-2")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("SCHEDULER_INTERVAL", "15m")
	t.Setenv("STATS_CACHE_TTL", "not-a-duration")

	cfg := Load()
	assert.True(t, cfg.UsesSQLite())
	assert.Equal(t, 10, cfg.AutoEscalateDays)
	assert.Equal(t, 3, cfg.ReminderThresholdDays)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, 15*time.Minute, cfg.SchedulerInterval)
	assert.Equal(t, time.Hour, cfg.StatsCacheTTL)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
