package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis (optional; notification fan-out and stats cache)
	RedisURL      string
	StatsCacheTTL time.Duration

	// Auth
	JWTSecret  string
	CronSecret string

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string

	// Policy and scheduling
	AutoEscalateDays          int
	ReminderThresholdDays     int
	NotificationRetentionDays int
	LogRetentionDays          int
	SchedulerEnabled          bool
	SchedulerInterval         time.Duration
}

// Load reads configuration from the environment, after merging a .env file
// if one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "padosi_politics"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "padosi_politics.db"),

		RedisURL:      getEnv("REDIS_URL", ""),
		StatsCacheTTL: parseDuration(getEnv("STATS_CACHE_TTL", "1h"), time.Hour),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		CronSecret: getEnv("CRON_SECRET", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		AutoEscalateDays:          getInt("AUTO_ESCALATE_DAYS", 7),
		ReminderThresholdDays:     getInt("REMINDER_THRESHOLD_DAYS", 3),
		NotificationRetentionDays: getInt("NOTIFICATION_RETENTION_DAYS", 30),
		LogRetentionDays:          getInt("LOG_RETENTION_DAYS", 30),
		SchedulerEnabled:          getBool("SCHEDULER_ENABLED", true),
		SchedulerInterval:         parseDuration(getEnv("SCHEDULER_INTERVAL", "1h"), time.Hour),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func (c *Config) UsesSQLite() bool {
	return c.DBDriver == "sqlite"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
