package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Database.Host = "localhost"
	cfg.Database.DBName = "webwatch"
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "sandbox"

	assert.ErrorContains(t, cfg.Validate(), "invalid environment")
}

func TestValidateRejectsMissingDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = ""

	assert.ErrorContains(t, cfg.Validate(), "database host")
}

func TestValidateRejectsBadScorer(t *testing.T) {
	cfg := validConfig()
	cfg.Scorer.Strategy = "vibes"
	assert.ErrorContains(t, cfg.Validate(), "invalid scorer strategy")

	cfg = validConfig()
	cfg.Scorer.Threshold = 1.5
	assert.ErrorContains(t, cfg.Validate(), "threshold")
}

func TestValidateRejectsNonPositiveTick(t *testing.T) {
	cfg := validConfig()
	cfg.Scheduler.TickInterval = -time.Second

	assert.ErrorContains(t, cfg.Validate(), "tick interval")
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, time.Minute, cfg.Scheduler.TickInterval)
	assert.Equal(t, 4, cfg.Scheduler.MaxConcurrent)
	assert.Equal(t, "semantic", cfg.Scorer.Strategy)
	assert.Equal(t, 0.6, cfg.Scorer.Threshold)
	assert.Equal(t, 3, cfg.Notify.MaxAttempts)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "webwatch/1.0", cfg.Fetcher.UserAgent)
}

func TestSetDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Scheduler.MaxConcurrent = 16
	cfg.Scorer.Strategy = "fuzzy"
	setDefaults(cfg)

	assert.Equal(t, 16, cfg.Scheduler.MaxConcurrent)
	assert.Equal(t, "fuzzy", cfg.Scorer.Strategy)
}

func TestSetDefaultsMaxRetriesSentinel(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	assert.Equal(t, 2, cfg.Fetcher.MaxRetries, "unset takes the default")

	cfg = &Config{}
	cfg.Fetcher.MaxRetries = -1
	setDefaults(cfg)
	assert.Zero(t, cfg.Fetcher.MaxRetries, "-1 disables retries")

	cfg = &Config{}
	cfg.Fetcher.MaxRetries = 5
	setDefaults(cfg)
	assert.Equal(t, 5, cfg.Fetcher.MaxRetries)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  environment: production
database:
  host: db.internal
  dbname: webwatch
scheduler:
  tick_interval: 30s
  max_concurrent: 8
scorer:
  strategy: fuzzy
  threshold: 0.75
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.TickInterval)
	assert.Equal(t, 8, cfg.Scheduler.MaxConcurrent)
	assert.Equal(t, "fuzzy", cfg.Scorer.Strategy)
	assert.Equal(t, 0.75, cfg.Scorer.Threshold)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  environment: nonsense
database:
  host: db.internal
  dbname: webwatch
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	_, err := Load(path)

	assert.ErrorContains(t, err, "invalid config")
}

func TestWatchServesSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  environment: development
database:
  host: localhost
  dbname: webwatch
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	holder, err := Watch(path, nil)

	require.NoError(t, err)
	cfg := holder.Current()
	require.NotNil(t, cfg)
	assert.Equal(t, "development", cfg.App.Environment)
	// Same snapshot pointer until a reload happens.
	assert.Same(t, cfg, holder.Current())
}
