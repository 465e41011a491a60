package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Redis      RedisConfig      `yaml:"redis"`
	Attendance AttendanceConfig `yaml:"attendance"`
	Points     PointsConfig     `yaml:"points"`
	Worker     WorkerConfig     `yaml:"worker"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Log        LogConfig        `yaml:"log"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// RedisConfig is shared by the task queue and the rate limiter
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AttendanceConfig contains check-in policy settings
type AttendanceConfig struct {
	DefaultRadiusMeters int `yaml:"default_radius_meters"`
	WindowBeforeMinutes int `yaml:"window_before_minutes"`
	WindowAfterMinutes  int `yaml:"window_after_minutes"`
	QRTokenTTLMinutes   int `yaml:"qr_token_ttl_minutes"`
	NoShowGraceMinutes  int `yaml:"no_show_grace_minutes"`
}

// PointsConfig contains the point amounts debited for penalties
type PointsConfig struct {
	NoShowPenalty int `yaml:"no_show_penalty"`
	ReportPenalty int `yaml:"report_penalty"`
}

// WorkerConfig contains task queue worker settings
type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
	MaxRetry    int `yaml:"max_retry"`
}

// RateLimitConfig limits check-in attempts per user
type RateLimitConfig struct {
	CheckInPerMinute int  `yaml:"checkin_per_minute"`
	Disabled         bool `yaml:"disabled"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SettleEndedMeetups     string `yaml:"settle_ended_meetups"`
	ReconcileRefunds       string `yaml:"reconcile_refunds"`
	ReconcileReputation    string `yaml:"reconcile_reputation"`
	SettleBatchSize        int    `yaml:"settle_batch_size"`
	RefundLookbackDays     int    `yaml:"refund_lookback_days"`
	ReputationLookbackDays int    `yaml:"reputation_lookback_days"`
}

// Load reads configuration from a YAML file. A .env file next to the
// working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes, applies environment overrides and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 15
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}

	// Attendance defaults
	if c.Attendance.DefaultRadiusMeters == 0 {
		c.Attendance.DefaultRadiusMeters = 300
	}
	if c.Attendance.DefaultRadiusMeters < 0 {
		return fmt.Errorf("invalid default radius: %d", c.Attendance.DefaultRadiusMeters)
	}
	if c.Attendance.WindowBeforeMinutes == 0 {
		c.Attendance.WindowBeforeMinutes = 20
	}
	if c.Attendance.WindowAfterMinutes == 0 {
		c.Attendance.WindowAfterMinutes = 10
	}
	if c.Attendance.WindowBeforeMinutes < 0 || c.Attendance.WindowAfterMinutes < 0 {
		return fmt.Errorf("check-in window must not be negative")
	}
	if c.Attendance.QRTokenTTLMinutes == 0 {
		c.Attendance.QRTokenTTLMinutes = 10
	}
	if c.Attendance.NoShowGraceMinutes == 0 {
		c.Attendance.NoShowGraceMinutes = 1440
	}

	// Points defaults
	if c.Points.NoShowPenalty == 0 {
		c.Points.NoShowPenalty = 500
	}
	if c.Points.ReportPenalty == 0 {
		c.Points.ReportPenalty = 500
	}

	// Worker defaults
	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 10
	}
	if c.Worker.MaxRetry == 0 {
		c.Worker.MaxRetry = 10
	}

	if c.RateLimit.CheckInPerMinute == 0 {
		c.RateLimit.CheckInPerMinute = 10
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Scheduler defaults
	if c.Scheduler.SettleEndedMeetups == "" {
		c.Scheduler.SettleEndedMeetups = "0 */10 * * * *" // every 10 minutes
	}
	if c.Scheduler.ReconcileRefunds == "" {
		c.Scheduler.ReconcileRefunds = "0 0 * * * *" // hourly
	}
	if c.Scheduler.ReconcileReputation == "" {
		c.Scheduler.ReconcileReputation = "0 30 * * * *" // hourly, off the refund run
	}
	if c.Scheduler.SettleBatchSize == 0 {
		c.Scheduler.SettleBatchSize = 100
	}
	if c.Scheduler.RefundLookbackDays == 0 {
		c.Scheduler.RefundLookbackDays = 7
	}
	if c.Scheduler.ReputationLookbackDays == 0 {
		c.Scheduler.ReputationLookbackDays = 30
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (a AttendanceConfig) WindowBefore() time.Duration {
	return time.Duration(a.WindowBeforeMinutes) * time.Minute
}

func (a AttendanceConfig) WindowAfter() time.Duration {
	return time.Duration(a.WindowAfterMinutes) * time.Minute
}

func (a AttendanceConfig) QRTokenTTL() time.Duration {
	return time.Duration(a.QRTokenTTLMinutes) * time.Minute
}

func (a AttendanceConfig) NoShowGrace() time.Duration {
	return time.Duration(a.NoShowGraceMinutes) * time.Minute
}
