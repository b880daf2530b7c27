// Package config loads planner settings from the workspace config file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
	yamlv3 "gopkg.in/yaml.v3"
)

const (
	// EnvPrefix starts every environment override.
	EnvPrefix = "TIMEPLANNER_"

	maxConfigFileSize = 1024 * 1024
)

// Config holds every tunable setting.
type Config struct {
	Storage       StorageConfig       `koanf:"storage" yaml:"storage"`
	Log           LogConfig           `koanf:"log" yaml:"log"`
	Notifications NotificationsConfig `koanf:"notifications" yaml:"notifications"`
	Schedule      ScheduleConfig      `koanf:"schedule" yaml:"schedule"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string `koanf:"backend" yaml:"backend"`
}

// LogConfig controls diagnostics logging.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// NotificationsConfig toggles desktop notifications.
type NotificationsConfig struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`
}

// ScheduleConfig sets the zone in which "today" is evaluated.
type ScheduleConfig struct {
	Timezone string `koanf:"timezone" yaml:"timezone"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Storage:  StorageConfig{Backend: "sqlite"},
		Log:      LogConfig{Level: "info", Format: "console"},
		Schedule: ScheduleConfig{Timezone: "Local"},
	}
}

// Load reads path when it exists, then applies TIMEPLANNER_* overrides.
//
// Precedence (highest first):
//  1. Environment variables (TIMEPLANNER_LOG_LEVEL -> log.level)
//  2. The YAML file at path
//  3. Default()
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	// Split on the first underscore only: TIMEPLANNER_SCHEDULE_TIMEZONE -> schedule.timezone.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = def.Storage.Backend
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = def.Schedule.Timezone
	}
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case "sqlite", "yaml", "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be console or json, got %q", c.Log.Format))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("schedule.timezone: %w", err))
	}
	return errors.Join(errs...)
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Schedule.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Schedule.Timezone)
	}
}

// WriteIfMissing writes cfg as YAML to path unless a file is already there.
// It reports whether a file was written.
func WriteIfMissing(path string, cfg Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return false, fmt.Errorf("invalid config: %w", err)
	}
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config file: %w", err)
	}
	return true, nil
}
