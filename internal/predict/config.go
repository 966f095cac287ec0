package predict

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultEndpoint    = "http://localhost:5000"
	DefaultPredictPath = "/api/predict"
	DefaultHealthPath  = "/api/health"
	// DefaultTimeout of zero leaves the request unbounded
	DefaultTimeout = 0
)

// Config configures the prediction service client
type Config struct {
	Endpoint    string        `json:"endpoint"`
	PredictPath string        `json:"predict_path"`
	HealthPath  string        `json:"health_path"`
	Timeout     time.Duration `json:"timeout"`
	UserAgent   string        `json:"user_agent,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint:    DefaultEndpoint,
		PredictPath: DefaultPredictPath,
		HealthPath:  DefaultHealthPath,
		Timeout:     DefaultTimeout,
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint scheme: %s (must be one of: http, https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint: missing host")
	}

	if !strings.HasPrefix(c.PredictPath, "/") {
		return fmt.Errorf("invalid predict path: %q (must start with /)", c.PredictPath)
	}
	if !strings.HasPrefix(c.HealthPath, "/") {
		return fmt.Errorf("invalid health path: %q (must start with /)", c.HealthPath)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	return nil
}
