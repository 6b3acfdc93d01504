package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"minply.click/internal/audio"
)

// FileLoggingConfig represents file-based logging configuration
type FileLoggingConfig struct {
	Enabled    bool   `json:"enabled"`      // Whether file logging is enabled
	Filename   string `json:"filename"`     // Log file path (empty = XDG cache path)
	MaxSizeMB  int    `json:"max_size_mb"`  // Max file size in MB before rotation
	MaxBackups int    `json:"max_backups"`  // Max number of backup files to keep
	MaxAgeDays int    `json:"max_age_days"` // Max age in days before deletion
	Compress   bool   `json:"compress"`     // Whether to compress rotated files
}

// HistoryConfig represents play history configuration
type HistoryConfig struct {
	Enabled      bool   `json:"enabled"`
	DatabasePath string `json:"database_path"` // empty = XDG cache path
}

// Config represents minply configuration
type Config struct {
	LogLevel      string             `json:"log_level"`     // debug, info, warn, error
	AudioBackend  string             `json:"audio_backend"` // auto, malgo, oto
	LeadInMs      int                `json:"lead_in_ms"`
	FadeMs        int                `json:"fade_ms"`
	WaitTimeoutMs int                `json:"wait_timeout_ms"`
	DrainPollMs   int                `json:"drain_poll_ms"`
	SettleMs      int                `json:"settle_ms"`
	BufferMs      int                `json:"buffer_ms"`
	OtoSampleRate int                `json:"oto_sample_rate"`
	OtoChannels   int                `json:"oto_channels"`
	FileLogging   *FileLoggingConfig `json:"file_logging,omitempty"`
	History       *HistoryConfig     `json:"history,omitempty"`
}

// XDGInterface defines the interface for XDG directory operations
type XDGInterface interface {
	GetConfigPaths(filename string) []string
	GetCachePath(purpose string) string
	CreateCacheDir(purpose string) error
}

// ConfigManager handles loading and validating configuration
type ConfigManager struct {
	fs  afero.Fs
	xdg XDGInterface
}

// NewConfigManager creates a configuration manager on the OS filesystem
func NewConfigManager() *ConfigManager {
	return NewConfigManagerWithFilesystem(afero.NewOsFs())
}

// NewConfigManagerWithFilesystem creates a configuration manager on filesystem
func NewConfigManagerWithFilesystem(filesystem afero.Fs) *ConfigManager {
	slog.Debug("creating new config manager")
	return &ConfigManager{
		fs:  filesystem,
		xdg: NewXDGDirsWithFilesystem(filesystem),
	}
}

// GetDefaultConfig returns the default configuration
func (cm *ConfigManager) GetDefaultConfig() *Config {
	timing := audio.DefaultRenderTiming()

	defaultConfig := &Config{
		LogLevel:      "warn",
		AudioBackend:  audio.BackendAuto,
		LeadInMs:      int(audio.DefaultLeadInDuration / time.Millisecond),
		FadeMs:        int(audio.DefaultFadeDuration / time.Millisecond),
		WaitTimeoutMs: int(timing.WaitTimeout / time.Millisecond),
		DrainPollMs:   int(timing.DrainPoll / time.Millisecond),
		SettleMs:      int(timing.Settle / time.Millisecond),
		BufferMs:      int(timing.BufferDuration / time.Millisecond),
		OtoSampleRate: 48000,
		OtoChannels:   2,
		FileLogging: &FileLoggingConfig{
			Enabled:    true,
			Filename:   "",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		History: &HistoryConfig{
			Enabled:      false,
			DatabasePath: "",
		},
	}

	slog.Debug("generated default config",
		"log_level", defaultConfig.LogLevel,
		"audio_backend", defaultConfig.AudioBackend,
		"lead_in_ms", defaultConfig.LeadInMs,
		"settle_ms", defaultConfig.SettleMs)

	return defaultConfig
}

// LoadFromFile loads configuration from a specific file. Keys missing from
// the file keep their default values.
func (cm *ConfigManager) LoadFromFile(filePath string) (*Config, error) {
	slog.Debug("loading config from file", "file_path", filePath)

	data, err := afero.ReadFile(cm.fs, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := cm.GetDefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cm.ValidateConfig(config); err != nil {
		return nil, err
	}

	slog.Debug("config loaded successfully",
		"file_path", filePath,
		"log_level", config.LogLevel,
		"audio_backend", config.AudioBackend)

	return config, nil
}

// LoadConfig loads explicitPath when set, otherwise the first config.json
// found on the XDG search path, otherwise the defaults
func (cm *ConfigManager) LoadConfig(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return cm.LoadFromFile(explicitPath)
	}

	configPaths := cm.xdg.GetConfigPaths("config.json")

	for i, configPath := range configPaths {
		if _, err := cm.fs.Stat(configPath); err == nil {
			slog.Debug("found config file", "path_index", i, "path", configPath)
			return cm.LoadFromFile(configPath)
		}
	}

	slog.Debug("no config file found, using defaults", "searched", len(configPaths))
	return cm.GetDefaultConfig(), nil
}

// ValidateConfig validates configuration values
func (cm *ConfigManager) ValidateConfig(config *Config) error {
	var errors []string

	if config.LogLevel != "" {
		if _, err := ParseLogLevel(config.LogLevel); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if !audio.IsValidBackendType(config.AudioBackend) {
		errors = append(errors, fmt.Sprintf("invalid audio backend '%s', must be one of: %s",
			config.AudioBackend, strings.Join(audio.SupportedBackends(), ", ")))
	}

	nonNegative := []struct {
		key   string
		value int
	}{
		{"lead_in_ms", config.LeadInMs},
		{"fade_ms", config.FadeMs},
		{"settle_ms", config.SettleMs},
	}
	for _, field := range nonNegative {
		if field.value < 0 {
			errors = append(errors, fmt.Sprintf("%s must be >= 0, got %d", field.key, field.value))
		}
	}

	positive := []struct {
		key   string
		value int
	}{
		{"wait_timeout_ms", config.WaitTimeoutMs},
		{"drain_poll_ms", config.DrainPollMs},
		{"buffer_ms", config.BufferMs},
		{"oto_sample_rate", config.OtoSampleRate},
		{"oto_channels", config.OtoChannels},
	}
	for _, field := range positive {
		if field.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be > 0, got %d", field.key, field.value))
		}
	}

	if fileLogging := config.FileLogging; fileLogging != nil {
		if fileLogging.MaxSizeMB < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_size_mb must be >= 0, got %d", fileLogging.MaxSizeMB))
		}
		if fileLogging.MaxBackups < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_backups must be >= 0, got %d", fileLogging.MaxBackups))
		}
		if fileLogging.MaxAgeDays < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_age_days must be >= 0, got %d", fileLogging.MaxAgeDays))
		}
	}

	if len(errors) > 0 {
		errMsg := strings.Join(errors, "; ")
		slog.Debug("config validation failed", "errors", errMsg)
		return fmt.Errorf("config validation failed: %s", errMsg)
	}

	return nil
}

// ApplyEnvironmentOverrides applies environment variable overrides to config
func (cm *ConfigManager) ApplyEnvironmentOverrides(config *Config) *Config {
	result := *config

	if logLevel := os.Getenv("MINPLY_LOG_LEVEL"); logLevel != "" {
		result.LogLevel = logLevel
		slog.Debug("applied log level override from environment", "value", logLevel)
	}

	if audioBackend := os.Getenv("MINPLY_AUDIO_BACKEND"); audioBackend != "" {
		if audio.IsValidBackendType(audioBackend) {
			result.AudioBackend = audioBackend
			slog.Debug("applied audio backend override from environment", "value", audioBackend)
		} else {
			slog.Warn("invalid MINPLY_AUDIO_BACKEND environment variable", "value", audioBackend)
		}
	}

	applyMillis := func(name string, dst *int) {
		raw := os.Getenv(name)
		if raw == "" {
			return
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			slog.Warn("invalid duration environment variable", "name", name, "value", raw)
			return
		}
		*dst = value
		slog.Debug("applied duration override from environment", "name", name, "value", value)
	}
	applyMillis("MINPLY_LEAD_IN_MS", &result.LeadInMs)
	applyMillis("MINPLY_SETTLE_MS", &result.SettleMs)

	return &result
}

// ParseLogLevel converts a configured level name to a slog.Level
func ParseLogLevel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", logLevel)
	}
}

// ResolveLogFilePath resolves the log file path using the XDG cache directory when filename is empty
func (cm *ConfigManager) ResolveLogFilePath(filename string) string {
	if filename != "" {
		return filename
	}
	return filepath.Join(cm.xdg.GetCachePath("logs"), "minply.log")
}

// ResolveHistoryPath resolves the history database path, creating the cache
// directory when the default location is used
func (cm *ConfigManager) ResolveHistoryPath(databasePath string) (string, error) {
	if databasePath != "" {
		return databasePath, nil
	}
	if err := cm.xdg.CreateCacheDir(""); err != nil {
		return "", fmt.Errorf("failed to create history directory: %w", err)
	}
	return filepath.Join(cm.xdg.GetCachePath(""), "history.db"), nil
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// LeadIn returns the configured lead-in silence
func (c *Config) LeadIn() time.Duration { return millis(c.LeadInMs) }

// Fade returns the configured fade window
func (c *Config) Fade() time.Duration { return millis(c.FadeMs) }

// RenderTiming returns the renderer intervals described by the config
func (c *Config) RenderTiming() audio.RenderTiming {
	timing := audio.DefaultRenderTiming()
	timing.WaitTimeout = millis(c.WaitTimeoutMs)
	timing.DrainPoll = millis(c.DrainPollMs)
	timing.Settle = millis(c.SettleMs)
	timing.BufferDuration = millis(c.BufferMs)
	return timing
}

// EndpointOptions returns the options for endpoints that cannot query hardware
func (c *Config) EndpointOptions() audio.EndpointOptions {
	return audio.EndpointOptions{
		OtoSampleRate: c.OtoSampleRate,
		OtoChannels:   c.OtoChannels,
	}
}
