package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the jobrunner demo application's configuration.
type Config struct {
	Environment string          `toml:"environment" validate:"oneof=development production"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Storage     StorageConfig   `toml:"storage"`
	Fetch       FetchConfig     `toml:"fetch"`
	Logging     LoggingConfig   `toml:"logging"`
}

// SchedulerConfig controls the JobSystem worker pool and frame cadence.
type SchedulerConfig struct {
	Workers     int    `toml:"workers" validate:"gte=0"`
	CronExpr    string `toml:"cron"`     // e.g. "*/1 * * * * *" - drives one TaskSystem frame per tick in headless mode
	MaxFrames   int    `toml:"max_frames" validate:"gte=0"` // 0 = run until is_loop is cleared
}

// StorageConfig controls the badger-backed job store.
type StorageConfig struct {
	BadgerPath     string `toml:"badger_path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// FetchConfig controls the rate-limited page-fetch task.
type FetchConfig struct {
	RequestsPerSecond float64  `toml:"requests_per_second" validate:"gt=0"`
	Burst             int      `toml:"burst" validate:"gte=1"`
	URLs              []string `toml:"urls"`
}

// LoggingConfig controls arbor logger setup.
type LoggingConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=json text"`
}

// NewDefaultConfig returns baseline configuration applied before any file is read.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Scheduler: SchedulerConfig{
			Workers:   3,
			CronExpr:  "@every 1s",
			MaxFrames: 0,
		},
		Storage: StorageConfig{
			BadgerPath:     "./data/jobrunner",
			ResetOnStartup: false,
		},
		Fetch: FetchConfig{
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFiles loads configuration with priority default -> file1 -> file2 -> ... -> env.
// Later files override earlier ones, matching the teacher binary's merge order.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies JOBRUNNER_* environment variables after all files, so they take highest priority.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("JOBRUNNER_ENV"); v != "" {
		config.Environment = v
	}
	if v := os.Getenv("JOBRUNNER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scheduler.Workers = n
		}
	}
	if v := os.Getenv("JOBRUNNER_BADGER_PATH"); v != "" {
		config.Storage.BadgerPath = v
	}
	if v := os.Getenv("JOBRUNNER_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

var validate = validator.New()

// Validate runs struct-tag validation over the loaded configuration.
func Validate(config *Config) error {
	return validate.Struct(config)
}
