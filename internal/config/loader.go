package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.scansight.yaml",               // Project-specific config (highest priority)
	"~/.config/scansight/config.yaml", // User config
	"/etc/scansight/config.yaml",      // System config (lowest priority)
}

// EnvPrefix prefixes every environment override
const EnvPrefix = "SCANSIGHT_"

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
	warn        func(format string, args ...interface{})
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		warn: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
		},
	}
}

// NewLoaderWithPaths creates a loader searching paths instead of ConfigPaths
func NewLoaderWithPaths(paths []string) *Loader {
	l := NewLoader()
	l.configPaths = paths
	return l
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.scansight.yaml
// 4. ~/.config/scansight/config.yaml
// 5. /etc/scansight/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// Lowest priority first so later files win
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := ExpandPath(l.configPaths[i])
			if !fileExists(expandedPath) {
				continue
			}
			if err := l.loadFromFile(config, expandedPath); err != nil {
				l.warn("Failed to load config from %s: %v", expandedPath, err)
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile decodes a YAML file over config. Keys absent from the file keep their current values.
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() or comes from ConfigPaths
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	// Decode into a copy so a parse error leaves config untouched
	merged := *config
	merged.Upload.AcceptedTypes = append([]string(nil), config.Upload.AcceptedTypes...)
	if err := yaml.Unmarshal(data, &merged); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	*config = merged
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Service Config
		"SERVICE_ENDPOINT":        func(v string) error { config.Service.Endpoint = v; return nil },
		"SERVICE_REQUEST_TIMEOUT": func(v string) error { return parseDuration(v, &config.Service.RequestTimeout) },
		"SERVICE_PREDICT_PATH":    func(v string) error { config.Service.PredictPath = v; return nil },
		"SERVICE_HEALTH_PATH":     func(v string) error { config.Service.HealthPath = v; return nil },

		// Upload Config
		"UPLOAD_MAX_BYTES":        func(v string) error { return parseInt64(v, &config.Upload.MaxBytes) },
		"UPLOAD_REASSURING_LABEL": func(v string) error { config.Upload.ReassuringLabel = v; return nil },

		// Display Config
		"DISPLAY_DEFAULT_FORMAT": func(v string) error { config.Display.DefaultFormat = v; return nil },
		"DISPLAY_THEME":          func(v string) error { config.Display.Theme = v; return nil },
		"DISPLAY_COLOR_MODE":     func(v string) error { config.Display.ColorMode = v; return nil },
		"DISPLAY_EMOJI":          func(v string) error { return parseBool(v, &config.Display.Emoji) },
		"DISPLAY_ERROR_DISPLAY":  func(v string) error { return parseDuration(v, &config.Display.ErrorDisplay) },

		// Preview Config
		"PREVIEW_ENABLED":    func(v string) error { return parseBool(v, &config.Preview.Enabled) },
		"PREVIEW_WIDTH":      func(v string) error { return parseInt(v, &config.Preview.Width) },
		"PREVIEW_CACHE_SIZE": func(v string) error { return parseInt(v, &config.Preview.CacheSize) },
		"PREVIEW_MAX_PIXELS": func(v string) error { return parseInt(v, &config.Preview.MaxPixels) },

		// Watch Config
		"WATCH_DROP_DIR":     func(v string) error { config.Watch.DropDir = v; return nil },
		"WATCH_SETTLE_DELAY": func(v string) error { return parseDuration(v, &config.Watch.SettleDelay) },

		// Logging Config
		"LOGGING_VERBOSE":      func(v string) error { return parseBool(v, &config.Logging.Verbose) },
		"LOGGING_AUDIT_FILE":   func(v string) error { config.Logging.AuditFile = v; return nil },
		"LOGGING_MAX_SIZE_MB":  func(v string) error { return parseInt(v, &config.Logging.MaxSizeMB) },
		"LOGGING_MAX_BACKUPS":  func(v string) error { return parseInt(v, &config.Logging.MaxBackups) },
		"LOGGING_MAX_AGE_DAYS": func(v string) error { return parseInt(v, &config.Logging.MaxAgeDays) },
		"LOGGING_COMPRESS":     func(v string) error { return parseBool(v, &config.Logging.Compress) },
	}

	for suffix, setter := range envMappings {
		envVar := EnvPrefix + suffix
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// Comma-separated list
	if types := os.Getenv(EnvPrefix + "UPLOAD_ACCEPTED_TYPES"); types != "" {
		var accepted []string
		for _, t := range strings.Split(types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				accepted = append(accepted, t)
			}
		}
		config.Upload.AcceptedTypes = accepted
	}

	return nil
}

// Save writes config as YAML to path, creating parent directories
func Save(config *Config, path string) error {
	if err := validateConfigPath(path); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, ExpandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := ExpandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/etc/passwd") ||
		strings.HasPrefix(absPath, "/etc/shadow") ||
		strings.HasPrefix(absPath, "/proc/") ||
		strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseInt64(s string, dst *int64) error {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
