package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/yildizm/ScanSight/internal/logger"
	"github.com/yildizm/ScanSight/internal/predict"
	"github.com/yildizm/ScanSight/internal/preview"
	"github.com/yildizm/ScanSight/internal/scan"
)

// Config holds the complete application configuration
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Service ServiceConfig `yaml:"service" json:"service"`
	Upload  UploadConfig  `yaml:"upload" json:"upload"`
	Display DisplayConfig `yaml:"display" json:"display"`
	Preview PreviewConfig `yaml:"preview" json:"preview"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServiceConfig configures the prediction service client
type ServiceConfig struct {
	Endpoint       string        `yaml:"endpoint" json:"endpoint"`               // base URL of the service
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"` // 0 disables the client timeout
	PredictPath    string        `yaml:"predict_path" json:"predict_path"`
	HealthPath     string        `yaml:"health_path" json:"health_path"`
}

// UploadConfig configures client-side validation
type UploadConfig struct {
	MaxBytes        int64    `yaml:"max_bytes" json:"max_bytes"`
	AcceptedTypes   []string `yaml:"accepted_types" json:"accepted_types"`
	ReassuringLabel string   `yaml:"reassuring_label" json:"reassuring_label"` // label shown with the positive icon
}

// DisplayConfig configures output formatting and display
type DisplayConfig struct {
	DefaultFormat string        `yaml:"default_format" json:"default_format"` // text|json|markdown|csv
	Theme         string        `yaml:"theme" json:"theme"`                   // default|high-contrast|minimal
	ColorMode     string        `yaml:"color_mode" json:"color_mode"`         // auto|always|never
	Emoji         bool          `yaml:"emoji" json:"emoji"`
	ErrorDisplay  time.Duration `yaml:"error_display" json:"error_display"` // how long error banners stay visible
}

// PreviewConfig configures thumbnail rendering
type PreviewConfig struct {
	Enabled   bool `yaml:"enabled" json:"enabled"`
	Width     int  `yaml:"width" json:"width"`
	CacheSize int  `yaml:"cache_size" json:"cache_size"`
	MaxPixels int  `yaml:"max_pixels" json:"max_pixels"` // larger images are rejected before decoding
}

// WatchConfig configures the drop folder
type WatchConfig struct {
	DropDir     string        `yaml:"drop_dir" json:"drop_dir"`
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"` // quiet period before a file counts as dropped
}

// LoggingConfig configures diagnostics and the audit log
type LoggingConfig struct {
	Verbose    bool   `yaml:"verbose" json:"verbose"`
	AuditFile  string `yaml:"audit_file" json:"audit_file"` // empty disables auditing
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Service: ServiceConfig{
			Endpoint:       predict.DefaultEndpoint,
			RequestTimeout: predict.DefaultTimeout,
			PredictPath:    predict.DefaultPredictPath,
			HealthPath:     predict.DefaultHealthPath,
		},
		Upload: UploadConfig{
			MaxBytes:        scan.MaxUploadBytes,
			AcceptedTypes:   append([]string(nil), scan.AcceptedTypes...),
			ReassuringLabel: scan.ReassuringLabel,
		},
		Display: DisplayConfig{
			DefaultFormat: "text",
			Theme:         "default",
			ColorMode:     "auto",
			Emoji:         true,
			ErrorDisplay:  scan.DefaultErrorDisplay,
		},
		Preview: PreviewConfig{
			Enabled:   true,
			Width:     preview.DefaultWidth,
			CacheSize: preview.DefaultCacheSize,
			MaxPixels: preview.DefaultMaxPixels,
		},
		Watch: WatchConfig{
			DropDir:     "",
			SettleDelay: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Verbose:    false,
			AuditFile:  "~/.local/state/scansight/audit.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateServiceConfig(); err != nil {
		return err
	}
	if err := c.validateUploadConfig(); err != nil {
		return err
	}
	if err := c.validateDisplayConfig(); err != nil {
		return err
	}
	if err := c.validatePreviewConfig(); err != nil {
		return err
	}
	if err := c.validateWatchConfig(); err != nil {
		return err
	}
	if err := c.validateLoggingConfig(); err != nil {
		return err
	}
	return nil
}

// validateServiceConfig validates service-related configuration
func (c *Config) validateServiceConfig() error {
	return c.ToPredict().Validate()
}

// validateUploadConfig validates upload-related configuration
func (c *Config) validateUploadConfig() error {
	if c.Upload.MaxBytes < 1 {
		return fmt.Errorf("max_bytes must be greater than 0")
	}
	if len(c.Upload.AcceptedTypes) == 0 {
		return fmt.Errorf("accepted_types must not be empty")
	}
	for _, t := range c.Upload.AcceptedTypes {
		if !strings.HasPrefix(t, "image/") {
			return fmt.Errorf("invalid accepted type: %s (must be an image/* MIME type)", t)
		}
	}
	return nil
}

// validateDisplayConfig validates display-related configuration
func (c *Config) validateDisplayConfig() error {
	if c.Display.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
			"csv":      true,
		}
		if !validFormats[c.Display.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown, csv)", c.Display.DefaultFormat)
		}
	}
	if c.Display.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Display.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Display.ColorMode)
		}
	}
	if c.Display.Theme != "" {
		validThemes := map[string]bool{
			"default":       true,
			"high-contrast": true,
			"minimal":       true,
		}
		if !validThemes[c.Display.Theme] {
			return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast, minimal)", c.Display.Theme)
		}
	}
	if c.Display.ErrorDisplay < 0 {
		return fmt.Errorf("error_display must be non-negative")
	}
	return nil
}

// validatePreviewConfig validates preview-related configuration
func (c *Config) validatePreviewConfig() error {
	return c.ToPreview().Validate()
}

// validateWatchConfig validates watch-related configuration
func (c *Config) validateWatchConfig() error {
	if c.Watch.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must be non-negative")
	}
	return nil
}

// validateLoggingConfig validates logging-related configuration
func (c *Config) validateLoggingConfig() error {
	if c.Logging.MaxSizeMB < 0 {
		return fmt.Errorf("max_size_mb must be non-negative")
	}
	if c.Logging.MaxBackups < 0 {
		return fmt.Errorf("max_backups must be non-negative")
	}
	if c.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("max_age_days must be non-negative")
	}
	return nil
}

// ToPredict builds the prediction client configuration
func (c *Config) ToPredict() *predict.Config {
	return &predict.Config{
		Endpoint:    c.Service.Endpoint,
		PredictPath: c.Service.PredictPath,
		HealthPath:  c.Service.HealthPath,
		Timeout:     c.Service.RequestTimeout,
	}
}

// ToPreview builds the preview decoder configuration
func (c *Config) ToPreview() *preview.Config {
	return &preview.Config{
		Enabled:   c.Preview.Enabled,
		Width:     c.Preview.Width,
		CacheSize: c.Preview.CacheSize,
		MaxPixels: c.Preview.MaxPixels,
	}
}

// ToController builds the controller configuration; collaborators are set by the caller
func (c *Config) ToController() *scan.Config {
	return &scan.Config{
		MaxBytes:        c.Upload.MaxBytes,
		AcceptedTypes:   append([]string(nil), c.Upload.AcceptedTypes...),
		ReassuringLabel: c.Upload.ReassuringLabel,
		ErrorDisplay:    c.Display.ErrorDisplay,
	}
}

// ToAudit builds the audit log configuration with the path expanded
func (c *Config) ToAudit() logger.AuditConfig {
	return logger.AuditConfig{
		Filename:   ExpandPath(c.Logging.AuditFile),
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
		Compress:   c.Logging.Compress,
	}
}
