package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load reads configuration from the given path (or the default search
// paths when empty) plus environment variables, applies defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	if err := readInConfig(v, path); err != nil {
		return nil, err
	}
	return unmarshalConfig(v)
}

// Holder keeps the current configuration snapshot and replaces it
// atomically when the underlying file changes. Readers always observe a
// single consistent snapshot; a crawl job must capture the snapshot once at
// start and never re-read it mid-job.
type Holder struct {
	v       *viper.Viper
	current atomic.Pointer[Config]
	onError func(error)
}

// Watch loads the configuration and begins watching the file for changes.
// onError is invoked when a reload produces an invalid configuration; the
// previous snapshot stays active in that case.
func Watch(path string, onError func(error)) (*Holder, error) {
	v := viper.New()
	if err := readInConfig(v, path); err != nil {
		return nil, err
	}

	cfg, err := unmarshalConfig(v)
	if err != nil {
		return nil, err
	}

	h := &Holder{v: v, onError: onError}
	h.current.Store(cfg)

	v.OnConfigChange(func(_ fsnotify.Event) {
		next, reloadErr := unmarshalConfig(v)
		if reloadErr != nil {
			if h.onError != nil {
				h.onError(reloadErr)
			}
			return
		}
		h.current.Store(next)
	})
	v.WatchConfig()

	return h, nil
}

// Current returns the active configuration snapshot.
func (h *Holder) Current() *Config {
	return h.current.Load()
}

func readInConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("WEBWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func unmarshalConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	setDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
