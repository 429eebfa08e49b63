// Package config loads and validates the page-service configuration.
package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	defaultServiceName  = "page-service"
	defaultServicePort  = 8094
	defaultVersion      = "0.1.0"
	defaultLoggingLevel = "info"

	defaultDBHost    = "localhost"
	defaultDBPort    = 5432
	defaultDBName    = "landing_pages"
	defaultDBUser    = "postgres"
	defaultDBSSLMode = "disable"

	defaultRedisAddr = "localhost:6379"

	defaultMaxTrackPerMinute = 60
	defaultTrackWindowS      = 60

	defaultFreeMaxPages     = 3
	defaultFreeMaxEvents    = 1000
	defaultProMaxPages      = 25
	defaultProMaxEvents     = 100000
	unlimitedCeiling        = 0
	defaultShutdownTimeoutS = 30
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig         `yaml:"service"`
	Database  DatabaseConfig        `yaml:"database"`
	Redis     RedisConfig           `yaml:"redis"`
	Auth      AuthConfig            `yaml:"auth"`
	Plans     map[string]PlanLimits `yaml:"plans"`
	RateLimit RateLimitConfig       `yaml:"rate_limit"`
	Logging   LoggingConfig         `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Port            int           `env:"PAGE_SERVICE_PORT" yaml:"port"`
	Debug           bool          `env:"APP_DEBUG"         yaml:"debug"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string `env:"POSTGRES_PAGES_HOST"     yaml:"host"`
	Port     int    `env:"POSTGRES_PAGES_PORT"     yaml:"port"`
	User     string `env:"POSTGRES_PAGES_USER"     yaml:"user"`
	Password string `env:"POSTGRES_PAGES_PASSWORD" yaml:"password"`
	Database string `env:"POSTGRES_PAGES_DB"       yaml:"database"`
	SSLMode  string `env:"POSTGRES_PAGES_SSLMODE"  yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// URL returns the postgres:// URL form used by golang-migrate.
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// RedisConfig holds Redis configuration for the event quota tracker.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"     yaml:"addr"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
}

// AuthConfig holds bearer-token verification configuration.
type AuthConfig struct {
	JWTSecret string `env:"PAGE_SERVICE_JWT_SECRET" yaml:"jwt_secret"`
}

// PlanLimits is the resource ceiling for one subscription tier.
// A ceiling of zero or below means unlimited.
type PlanLimits struct {
	MaxPages        int   `yaml:"max_pages"`
	MaxEventsPerDay int64 `yaml:"max_events_per_day"`
}

// RateLimitConfig limits public tracking requests per client IP.
type RateLimitConfig struct {
	MaxEventsPerMinute int `yaml:"max_events_per_minute"`
	WindowSeconds      int `yaml:"window_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" yaml:"level"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return load(path)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setPlanDefaults(cfg)
	setRateLimitDefaults(&cfg.RateLimit)

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLoggingLevel
	}
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
	if svc.ShutdownTimeout == 0 {
		svc.ShutdownTimeout = defaultShutdownTimeoutS * time.Second
	}
}

func setDatabaseDefaults(db *DatabaseConfig) {
	if db.Host == "" {
		db.Host = defaultDBHost
	}
	if db.Port == 0 {
		db.Port = defaultDBPort
	}
	if db.User == "" {
		db.User = defaultDBUser
	}
	if db.Database == "" {
		db.Database = defaultDBName
	}
	if db.SSLMode == "" {
		db.SSLMode = defaultDBSSLMode
	}
}

// setPlanDefaults fills the tier table for any plan the config omits.
// The table is loaded once and treated as read-only afterwards.
func setPlanDefaults(cfg *Config) {
	if cfg.Plans == nil {
		cfg.Plans = make(map[string]PlanLimits)
	}
	if _, ok := cfg.Plans["free"]; !ok {
		cfg.Plans["free"] = PlanLimits{
			MaxPages:        defaultFreeMaxPages,
			MaxEventsPerDay: defaultFreeMaxEvents,
		}
	}
	if _, ok := cfg.Plans["pro"]; !ok {
		cfg.Plans["pro"] = PlanLimits{
			MaxPages:        defaultProMaxPages,
			MaxEventsPerDay: defaultProMaxEvents,
		}
	}
	if _, ok := cfg.Plans["team"]; !ok {
		cfg.Plans["team"] = PlanLimits{
			MaxPages:        unlimitedCeiling,
			MaxEventsPerDay: unlimitedCeiling,
		}
	}
}

func setRateLimitDefaults(rl *RateLimitConfig) {
	if rl.MaxEventsPerMinute == 0 {
		rl.MaxEventsPerMinute = defaultMaxTrackPerMinute
	}
	if rl.WindowSeconds == 0 {
		rl.WindowSeconds = defaultTrackWindowS
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("service.port: must be between 1 and 65535, got %d", c.Service.Port)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret: is required")
	}
	for name := range c.Plans {
		switch name {
		case "free", "pro", "team":
		default:
			return fmt.Errorf("plans.%s: unknown plan tier", name)
		}
	}
	return nil
}
