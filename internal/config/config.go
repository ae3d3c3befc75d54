// Package config provides configuration management for the market data cache
// core. Configuration is loaded from an optional JSON file, overridden by
// environment variables, validated, and exposed as typed structures. The only
// externally required setting is the cache root, which falls back to a
// platform-appropriate user cache directory when unset.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"log/slog"
)

// EnvRoot is the environment variable designating the cache/ledger root path.
const EnvRoot = "MKTCACHE_ROOT"

// Default values for optional configuration fields.
const (
	DefaultTrialThreshold   = 2
	DefaultTrialDBFile      = "mktcache_trials.db"
	DefaultCompletionGrace  = time.Hour
	DefaultRefCacheDays     = 10
	DefaultFetchMaxAttempts = 3
	DefaultFetchInitDelay   = "1s"
	DefaultFetchMaxDelay    = "30s"
)

// AppConfig represents the complete configuration for the cache core.
type AppConfig struct {
	// RootPath is the cache/ledger storage location; empty means "use the
	// platform default user cache directory"
	RootPath string `json:"root_path" env:"MKTCACHE_ROOT"`

	// Cache configures the bar and reference cache adapters
	Cache CacheConfig `json:"cache"`

	// Trials configures the trial ledger
	Trials TrialConfig `json:"trials"`

	// Fetch configures transient-retry behavior around the external fetch
	Fetch FetchConfig `json:"fetch"`

	// Logging configures structured logging
	Logging LoggingConfig `json:"logging"`
}

// CacheConfig configures the cache adapters.
type CacheConfig struct {
	// CompletionGrace is how long past a session's end the wall clock must be
	// before bar data for that session is persisted. Policy choice, not a
	// derived invariant; defaults to one hour.
	CompletionGrace string `json:"completion_grace" env:"CACHE_COMPLETION_GRACE"`

	// RefCacheDays is the backward-scan lookback for dated reference cache
	// entries; defaults to 10.
	RefCacheDays int `json:"ref_cache_days" env:"REF_CACHE_DAYS"`
}

// TrialConfig configures the trial ledger.
type TrialConfig struct {
	// Threshold is the consecutive empty-result count at which further
	// fetches are skipped. Policy choice; defaults to 2.
	Threshold int `json:"threshold" env:"TRIAL_THRESHOLD"`

	// DBFile is the ledger database filename under the root.
	DBFile string `json:"db_file" env:"TRIAL_DB_FILE"`
}

// FetchConfig configures retry behavior for the external fetch collaborator.
type FetchConfig struct {
	MaxAttempts  int    `json:"max_attempts" env:"FETCH_MAX_ATTEMPTS"`
	InitialDelay string `json:"initial_delay" env:"FETCH_INITIAL_DELAY"`
	MaxDelay     string `json:"max_delay" env:"FETCH_MAX_DELAY"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level      string `json:"level" env:"LOG_LEVEL"`         // Log level: debug, info, warn, error
	Format     string `json:"format" env:"LOG_FORMAT"`       // Log format: json, text
	Output     string `json:"output" env:"LOG_OUTPUT"`       // Output: stdout, stderr, file
	FilePath   string `json:"file_path" env:"LOG_FILE_PATH"` // Log file path when output is "file"
	MaxSize    int    `json:"max_size" env:"LOG_MAX_SIZE"`   // Maximum log file size in MB
	MaxBackups int    `json:"max_backups" env:"LOG_MAX_BACKUPS"`
	MaxAge     int    `json:"max_age" env:"LOG_MAX_AGE"` // Maximum log file age in days
	Compress   bool   `json:"compress" env:"LOG_COMPRESS"`
}

// Manager handles configuration loading and validation.
type Manager struct {
	config     *AppConfig
	configPath string
	logger     *slog.Logger
}

// NewManager creates a configuration manager. configPath may be empty, in
// which case only defaults and environment variables apply.
func NewManager(configPath string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{configPath: configPath, logger: logger}
}

// Load loads configuration with priority order:
// 1. Environment variables (highest)
// 2. Configuration file
// 3. Defaults (lowest)
func (m *Manager) Load() (*AppConfig, error) {
	config := DefaultConfig()

	if m.configPath != "" {
		if err := m.loadFromFile(config); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}
	m.loadFromEnv(config)

	if err := m.validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	m.logger.Info("configuration loaded",
		"config_path", m.configPath,
		"root_path", config.RootPath,
		"trial_threshold", config.Trials.Threshold,
		"log_level", config.Logging.Level)
	return config, nil
}

// Get returns the current configuration, or nil before Load.
func (m *Manager) Get() *AppConfig { return m.config }

// loadFromFile loads configuration from a JSON file.
func (m *Manager) loadFromFile(config *AppConfig) error {
	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		m.logger.Debug("config file does not exist, using defaults", "path", m.configPath)
		return nil
	}
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", m.configPath, err)
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", m.configPath, err)
	}
	return nil
}

// loadFromEnv applies environment variable overrides.
func (m *Manager) loadFromEnv(config *AppConfig) {
	if val := os.Getenv(EnvRoot); val != "" {
		config.RootPath = val
	}
	if val := os.Getenv("CACHE_COMPLETION_GRACE"); val != "" {
		config.Cache.CompletionGrace = val
	}
	if val := os.Getenv("REF_CACHE_DAYS"); val != "" {
		if days, err := strconv.Atoi(val); err == nil {
			config.Cache.RefCacheDays = days
		}
	}
	if val := os.Getenv("TRIAL_THRESHOLD"); val != "" {
		if threshold, err := strconv.Atoi(val); err == nil {
			config.Trials.Threshold = threshold
		}
	}
	if val := os.Getenv("TRIAL_DB_FILE"); val != "" {
		config.Trials.DBFile = val
	}
	if val := os.Getenv("FETCH_MAX_ATTEMPTS"); val != "" {
		if attempts, err := strconv.Atoi(val); err == nil {
			config.Fetch.MaxAttempts = attempts
		}
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		config.Logging.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		config.Logging.Format = val
	}
	if val := os.Getenv("LOG_OUTPUT"); val != "" {
		config.Logging.Output = val
	}
	if val := os.Getenv("LOG_FILE_PATH"); val != "" {
		config.Logging.FilePath = val
	}
}

// validate checks the configuration for consistency.
func (m *Manager) validate(config *AppConfig) error {
	var errs []string

	if config.Trials.Threshold <= 0 {
		errs = append(errs, "trials.threshold must be greater than 0")
	}
	if config.Trials.DBFile == "" {
		errs = append(errs, "trials.db_file is required")
	}
	if config.Cache.RefCacheDays <= 0 {
		errs = append(errs, "cache.ref_cache_days must be greater than 0")
	}
	if _, err := time.ParseDuration(config.Cache.CompletionGrace); err != nil {
		errs = append(errs, fmt.Sprintf("cache.completion_grace is not a valid duration: %v", err))
	}
	if config.Fetch.MaxAttempts <= 0 {
		errs = append(errs, "fetch.max_attempts must be greater than 0")
	}
	if _, err := time.ParseDuration(config.Fetch.InitialDelay); err != nil {
		errs = append(errs, fmt.Sprintf("fetch.initial_delay is not a valid duration: %v", err))
	}
	if _, err := time.ParseDuration(config.Fetch.MaxDelay); err != nil {
		errs = append(errs, fmt.Sprintf("fetch.max_delay is not a valid duration: %v", err))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[config.Logging.Level] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[config.Logging.Format] {
		errs = append(errs, "logging.format must be one of: json, text")
	}
	if config.Logging.Output == "file" && config.Logging.FilePath == "" {
		errs = append(errs, "logging.file_path is required when output is 'file'")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		RootPath: "",
		Cache: CacheConfig{
			CompletionGrace: DefaultCompletionGrace.String(),
			RefCacheDays:    DefaultRefCacheDays,
		},
		Trials: TrialConfig{
			Threshold: DefaultTrialThreshold,
			DBFile:    DefaultTrialDBFile,
		},
		Fetch: FetchConfig{
			MaxAttempts:  DefaultFetchMaxAttempts,
			InitialDelay: DefaultFetchInitDelay,
			MaxDelay:     DefaultFetchMaxDelay,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// CompletionGraceDuration parses the completion grace margin. The guard
// needs at least one hour to absorb late prints and clock skew, so parse
// failures and shorter configured margins are raised to the default.
func (c *AppConfig) CompletionGraceDuration() time.Duration {
	d, err := time.ParseDuration(c.Cache.CompletionGrace)
	if err != nil || d < DefaultCompletionGrace {
		return DefaultCompletionGrace
	}
	return d
}

// LedgerPath returns the full path of the trial ledger database under the
// resolved root, or empty when root is empty.
func (c *AppConfig) LedgerPath(root string) string {
	if root == "" {
		return ""
	}
	return filepath.Join(root, c.Trials.DBFile)
}
