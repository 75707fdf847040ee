package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable or to a group of them.  Values are read once at
// start-up by Load; nothing re-reads the environment afterwards.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	JWTSecret string // secret used to verify HS256 access tokens

	DB       DBConfig
	Hold     HoldConfig
	Reminder ReminderConfig
	SMTP     SMTPConfig
	AMQP     AMQPConfig
}

// DBConfig selects the SQL driver and carries its connection settings.
// Driver is either "mysql" or "postgres".
type DBConfig struct {
	Driver       string
	User         string
	Pass         string
	Host         string
	Port         string
	Name         string
	SSLMode      string // postgres only
	MaxOpenConns int
	AutoMigrate  bool
}

// HoldConfig bounds lease durations and drives the expiry worker.
type HoldConfig struct {
	DefaultMinutes int
	MaxMinutes     int
	SweepInterval  time.Duration
}

// ReminderConfig configures the reminder sweep and the periodic archival
// of ended reservations.  Timezone is the lab's wall-clock zone used to
// turn a booking date and time slot into an instant.
type ReminderConfig struct {
	CronSecretHash string
	TemplatesFile  string
	Timezone       string
	ArchiveAfter   time.Duration
	BatchSize      int
	LockTTL        time.Duration
}

// SMTPConfig configures outgoing mail.  When Host is empty reminders are
// written to the log instead of being sent.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// AMQPConfig configures domain event publishing.  Publishing is skipped
// when URL is empty.
type AMQPConfig struct {
	URL             string
	Queue           string
	ConsumerEnabled bool
}

// Load reads an optional .env file and then the process environment and
// returns the resulting Config.  Variables already present in the
// environment win over the file.  The returned Config has been checked
// with Validate.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Config{
		Env:       envStr("APP_ENV", "dev"),
		Port:      envStr("APP_PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		DB: DBConfig{
			Driver:       strings.ToLower(envStr("DB_DRIVER", "mysql")),
			User:         os.Getenv("DB_USER"),
			Pass:         os.Getenv("DB_PASS"),
			Host:         envStr("DB_HOST", "localhost"),
			Port:         os.Getenv("DB_PORT"),
			Name:         os.Getenv("DB_NAME"),
			SSLMode:      envStr("DB_SSLMODE", "disable"),
			MaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 25),
			AutoMigrate:  envBool("DB_AUTO_MIGRATE", false),
		},
		Hold: HoldConfig{
			DefaultMinutes: envInt("HOLD_DEFAULT_MINUTES", 15),
			MaxMinutes:     envInt("HOLD_MAX_MINUTES", 120),
			SweepInterval:  envDur("HOLD_SWEEP_INTERVAL", time.Minute),
		},
		Reminder: ReminderConfig{
			CronSecretHash: os.Getenv("CRON_SECRET_HASH"),
			TemplatesFile:  os.Getenv("REMINDER_TEMPLATES_FILE"),
			Timezone:       envStr("LAB_TIMEZONE", "UTC"),
			ArchiveAfter:   envDur("ARCHIVE_AFTER", 24*time.Hour),
			BatchSize:      envInt("REMINDER_BATCH_SIZE", 200),
			LockTTL:        envDur("REMINDER_LOCK_TTL", 5*time.Minute),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envStr("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		AMQP: AMQPConfig{
			URL:             firstEnv("RABBITMQ_URL", "AMQP_URL"),
			Queue:           envStr("EVENTS_QUEUE", "equipment.events"),
			ConsumerEnabled: envBool("EVENTS_CONSUMER", false),
		},
	}
	if cfg.DB.Port == "" {
		cfg.DB.Port = defaultDBPort(cfg.DB.Driver)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every missing required variable and every value that
// is out of range in a single error.
func (c Config) Validate() error {
	var missing []string
	require := func(key, val string) {
		if val == "" {
			missing = append(missing, key)
		}
	}
	require("JWT_SECRET", c.JWTSecret)
	require("DB_USER", c.DB.User)
	require("DB_NAME", c.DB.Name)
	require("CRON_SECRET_HASH", c.Reminder.CronSecretHash)

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "missing required env vars: "+strings.Join(missing, ", "))
	}
	if c.DB.Driver != "mysql" && c.DB.Driver != "postgres" {
		problems = append(problems, fmt.Sprintf("DB_DRIVER must be mysql or postgres, got %q", c.DB.Driver))
	}
	if c.Hold.DefaultMinutes < 1 {
		problems = append(problems, "HOLD_DEFAULT_MINUTES must be at least 1")
	}
	if c.Hold.MaxMinutes < c.Hold.DefaultMinutes {
		problems = append(problems, "HOLD_MAX_MINUTES must not be below HOLD_DEFAULT_MINUTES")
	}
	if c.Hold.SweepInterval <= 0 {
		problems = append(problems, "HOLD_SWEEP_INTERVAL must be positive")
	}
	if _, err := time.LoadLocation(c.Reminder.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("LAB_TIMEZONE: %v", err))
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		problems = append(problems, "SMTP_FROM is required when SMTP_HOST is set")
	}
	if len(problems) > 0 {
		return errors.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the lab's time zone.  Validate guarantees it loads.
func (c ReminderConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func defaultDBPort(driver string) string {
	if driver == "postgres" {
		return "5432"
	}
	return "3306"
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

