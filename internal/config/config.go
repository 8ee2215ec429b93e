package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/segyhp/emi-ledger/internal/ledger"
)

// Config holds all configuration for our application
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Logging      LoggingConfig      `mapstructure:"log"`
	Business     BusinessConfig     `mapstructure:"business"`
	Notification NotificationConfig `mapstructure:"notify"`
	Health       HealthConfig       `mapstructure:"health"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	Env          string        `mapstructure:"env"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or sqlite3
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SchedulerConfig struct {
	Timezone     string `mapstructure:"timezone"`
	ReminderCron string `mapstructure:"reminder_cron"`
	OverdueCron  string `mapstructure:"overdue_cron"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type BusinessConfig struct {
	// DefaultInterestRate is an annual percentage used when a purchase does not set one
	DefaultInterestRate string        `mapstructure:"default_interest_rate"`
	LateFeePerDay       string        `mapstructure:"late_fee_per_day"`
	ScheduleRounding    string        `mapstructure:"schedule_rounding"`
	ReminderDaysAhead   int           `mapstructure:"reminder_days_ahead"`
	PaymentLockTTL      time.Duration `mapstructure:"payment_lock_ttl"`
	ScheduleCacheTTL    time.Duration `mapstructure:"schedule_cache_ttl"`
	ShopName            string        `mapstructure:"shop_name"`
}

type NotificationConfig struct {
	Driver       string `mapstructure:"driver"` // log or email
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     string `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	SenderEmail  string `mapstructure:"sender_email"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

var defaults = map[string]interface{}{
	"server.port":                    "8080",
	"server.host":                    "0.0.0.0",
	"server.env":                     "development",
	"server.read_timeout":            "15s",
	"server.write_timeout":           "15s",
	"database.driver":                "postgres",
	"database.url":                   "",
	"database.max_open_conns":        25,
	"database.max_idle_conns":        5,
	"database.conn_max_lifetime":     "5m",
	"redis.enabled":                  true,
	"redis.addr":                     "localhost:6379",
	"redis.password":                 "",
	"redis.db":                       0,
	"scheduler.timezone":             "Asia/Kolkata",
	"scheduler.reminder_cron":        "0 0 10 * * *",
	"scheduler.overdue_cron":         "0 0 18 * * *",
	"log.level":                      "info",
	"log.format":                     "json",
	"business.default_interest_rate": "24",
	"business.late_fee_per_day":      "50",
	"business.schedule_rounding":     string(ledger.RoundingFaithful),
	"business.reminder_days_ahead":   3,
	"business.payment_lock_ttl":      "30s",
	"business.schedule_cache_ttl":    "10m",
	"business.shop_name":             "EMI Store",
	"notify.driver":                  "log",
	"notify.smtp_host":               "",
	"notify.smtp_port":               "587",
	"notify.smtp_username":           "",
	"notify.smtp_password":           "",
	"notify.sender_email":            "",
	"health.timeout":                 "5s",
}

// Load reads configuration from environment variables and an optional .env file.
// Keys map to upper-case env names: business.late_fee_per_day <- BUSINESS_LATE_FEE_PER_DAY.
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist; real environment variables take precedence
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite3" {
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite3, got %q", c.Database.Driver)
	}

	rate, err := decimal.NewFromString(c.Business.DefaultInterestRate)
	if err != nil {
		return fmt.Errorf("BUSINESS_DEFAULT_INTEREST_RATE must be a valid decimal: %w", err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("BUSINESS_DEFAULT_INTEREST_RATE cannot be negative")
	}

	fee, err := decimal.NewFromString(c.Business.LateFeePerDay)
	if err != nil {
		return fmt.Errorf("BUSINESS_LATE_FEE_PER_DAY must be a valid decimal: %w", err)
	}
	if fee.IsNegative() {
		return fmt.Errorf("BUSINESS_LATE_FEE_PER_DAY cannot be negative")
	}

	if _, err := ledger.ParseRoundingMode(c.Business.ScheduleRounding); err != nil {
		return fmt.Errorf("BUSINESS_SCHEDULE_ROUNDING: %w", err)
	}

	if c.Business.ReminderDaysAhead < 0 {
		return fmt.Errorf("BUSINESS_REMINDER_DAYS_AHEAD cannot be negative")
	}

	if c.Business.PaymentLockTTL <= 0 {
		return fmt.Errorf("BUSINESS_PAYMENT_LOCK_TTL must be greater than 0")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}

	if c.Notification.Driver != "log" && c.Notification.Driver != "email" {
		return fmt.Errorf("NOTIFY_DRIVER must be log or email, got %q", c.Notification.Driver)
	}

	if c.Notification.Driver == "email" && (c.Notification.SMTPHost == "" || c.Notification.SenderEmail == "") {
		return fmt.Errorf("NOTIFY_SMTP_HOST and NOTIFY_SENDER_EMAIL are required for the email driver")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetDefaultInterestRate returns the default annual interest rate (percent) as decimal
func (c *Config) GetDefaultInterestRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.DefaultInterestRate)
	return rate
}

// GetLateFeePerDay returns the late fee charged per day past the grace period
func (c *Config) GetLateFeePerDay() decimal.Decimal {
	fee, _ := decimal.NewFromString(c.Business.LateFeePerDay)
	return fee
}

// GetScheduleRounding returns how rounding residuals are handled in new schedules
func (c *Config) GetScheduleRounding() ledger.RoundingMode {
	mode, _ := ledger.ParseRoundingMode(c.Business.ScheduleRounding)
	return mode
}

// GetLocation returns the scheduler timezone, falling back to UTC
func (c *Config) GetLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
