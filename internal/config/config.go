// Package config provides configuration management for the webwatch
// application. It handles loading, validation, and hot reload of
// configuration values from a YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/webwatch/internal/logger"
)

// Scheduler defaults.
const (
	defaultTickInterval    = time.Minute
	defaultMaxConcurrent   = 4
	defaultJobTimeout      = 5 * time.Minute
	defaultShutdownTimeout = 30 * time.Second
)

// Fetcher defaults.
const (
	defaultRequestTimeout = 20 * time.Second
	defaultMaxRetries     = 2
	defaultRetryBackoff   = 2 * time.Second
	defaultUserAgent      = "webwatch/1.0"
)

// Scorer defaults.
const (
	defaultStrategy  = "semantic"
	defaultThreshold = 0.6
)

// Notify defaults.
const (
	defaultNotifyAttempts = 3
	defaultNotifyBackoff  = 5 * time.Second
)

// Server defaults.
const (
	defaultServerAddress      = ":8080"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
)

// Config represents the application configuration.
type Config struct {
	// App holds application-level settings
	App AppConfig `yaml:"app" mapstructure:"app"`
	// Log holds logger configuration
	Log logger.Config `yaml:"log" mapstructure:"log"`
	// Database holds PostgreSQL connection settings
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Scheduler holds the control loop settings
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
	// Fetcher holds HTTP fetch settings
	Fetcher FetcherConfig `yaml:"fetcher" mapstructure:"fetcher"`
	// Scorer holds relevance scoring settings
	Scorer ScorerConfig `yaml:"scorer" mapstructure:"scorer"`
	// Notify holds notification dispatch settings
	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`
	// Server holds the audit API server settings
	Server ServerConfig `yaml:"server" mapstructure:"server"`
}

// AppConfig represents application-specific configuration settings.
type AppConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     string `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`
}

// SchedulerConfig holds the resident control loop settings. All values are
// hot-reloadable; a running job keeps the values it started with.
type SchedulerConfig struct {
	// TickInterval is how often due tasks are evaluated
	TickInterval time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
	// MaxConcurrent is the global ceiling on simultaneous crawl jobs
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// JobTimeout is the overall deadline for a single crawl job
	JobTimeout time.Duration `yaml:"job_timeout" mapstructure:"job_timeout"`
	// ShutdownTimeout bounds the graceful drain of in-flight jobs
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// FetcherConfig holds HTTP fetch settings.
type FetcherConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	// MaxRetries is the retry budget after the first attempt. Unset
	// takes the default; -1 disables retries entirely.
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// ScorerConfig holds relevance scoring settings.
type ScorerConfig struct {
	// Strategy is the preferred scoring strategy (semantic or fuzzy)
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
	// EmbedderURL is the embedding service endpoint; empty disables semantic
	EmbedderURL string `yaml:"embedder_url" mapstructure:"embedder_url"`
	// Threshold is the global default relevance cutoff
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
	// FallbackOnError degrades a failed semantic score to the fuzzy scorer
	FallbackOnError bool `yaml:"fallback_on_error" mapstructure:"fallback_on_error"`
}

// NotifyConfig holds notification dispatch settings.
type NotifyConfig struct {
	// MaxAttempts is the per-hit delivery retry budget
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff" mapstructure:"backoff"`
	// SMTP settings for the email channel
	SMTPHost   string `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort   int    `yaml:"smtp_port" mapstructure:"smtp_port"`
	SMTPUser   string `yaml:"smtp_user" mapstructure:"smtp_user"`
	SMTPPass   string `yaml:"smtp_pass" mapstructure:"smtp_pass"`
	SMTPSender string `yaml:"smtp_sender" mapstructure:"smtp_sender"`
}

// ServerConfig holds the audit API server settings.
type ServerConfig struct {
	Address      string        `yaml:"address" mapstructure:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("app environment must be specified")
	}
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %s", c.App.Environment)
	}

	if c.Database.Host == "" {
		return errors.New("database host must be specified")
	}
	if c.Database.DBName == "" {
		return errors.New("database name must be specified")
	}

	if c.Scheduler.TickInterval <= 0 {
		return errors.New("scheduler tick interval must be positive")
	}
	if c.Scheduler.MaxConcurrent <= 0 {
		return errors.New("scheduler max concurrent must be positive")
	}

	switch c.Scorer.Strategy {
	case "semantic", "fuzzy":
	default:
		return fmt.Errorf("invalid scorer strategy: %s", c.Scorer.Strategy)
	}
	if c.Scorer.Threshold <= 0 || c.Scorer.Threshold > 1 {
		return fmt.Errorf("scorer threshold must be in (0,1]: %f", c.Scorer.Threshold)
	}

	if c.Notify.MaxAttempts <= 0 {
		return errors.New("notify max attempts must be positive")
	}

	return nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "webwatch"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Scheduler.TickInterval == 0 {
		cfg.Scheduler.TickInterval = defaultTickInterval
	}
	if cfg.Scheduler.MaxConcurrent == 0 {
		cfg.Scheduler.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = defaultJobTimeout
	}
	if cfg.Scheduler.ShutdownTimeout == 0 {
		cfg.Scheduler.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Fetcher.RequestTimeout == 0 {
		cfg.Fetcher.RequestTimeout = defaultRequestTimeout
	}
	switch {
	case cfg.Fetcher.MaxRetries == 0:
		cfg.Fetcher.MaxRetries = defaultMaxRetries
	case cfg.Fetcher.MaxRetries < 0:
		cfg.Fetcher.MaxRetries = 0
	}
	if cfg.Fetcher.RetryBackoff == 0 {
		cfg.Fetcher.RetryBackoff = defaultRetryBackoff
	}
	if cfg.Fetcher.UserAgent == "" {
		cfg.Fetcher.UserAgent = defaultUserAgent
	}
	if cfg.Scorer.Strategy == "" {
		cfg.Scorer.Strategy = defaultStrategy
	}
	if cfg.Scorer.Threshold == 0 {
		cfg.Scorer.Threshold = defaultThreshold
	}
	if cfg.Notify.MaxAttempts == 0 {
		cfg.Notify.MaxAttempts = defaultNotifyAttempts
	}
	if cfg.Notify.Backoff == 0 {
		cfg.Notify.Backoff = defaultNotifyBackoff
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultServerAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerWriteTimeout
	}
}
