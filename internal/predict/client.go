package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/yildizm/ScanSight/internal/logger"
	"github.com/yildizm/ScanSight/internal/scan"
)

// maxResponseBytes bounds how much of a response body is read
const maxResponseBytes = 1 << 20

// Client talks to the prediction service
type Client struct {
	config     *Config
	client     *http.Client
	predictURL string
	healthURL  string
	log        *logger.Logger
}

// New creates a client. A nil config uses DefaultConfig.
func New(config *Config, log *logger.Logger) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	base, err := url.Parse(config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	return &Client{
		config:     config,
		client:     &http.Client{Timeout: config.Timeout},
		predictURL: base.JoinPath(config.PredictPath).String(),
		healthURL:  base.JoinPath(config.HealthPath).String(),
		log:        log.WithComponent("predict"),
	}, nil
}

// Endpoint returns the configured base URL
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// Predict submits file as a single multipart part named "file"
func (c *Client) Predict(ctx context.Context, file *scan.SelectedFile) (*scan.PredictionResult, error) {
	if file == nil {
		return nil, scan.NewError(scan.KindRequestFailed, "")
	}

	body, contentType, err := encodeUpload(file)
	if err != nil {
		return nil, scan.NewErrorWithCause(scan.KindRequestFailed, "", err)
	}

	requestID, ok := scan.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL, body)
	if err != nil {
		return nil, scan.NewErrorWithCause(scan.KindRequestFailed, "", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	c.log.DebugWithFields("Sending prediction request", []logger.Field{
		logger.F("request_id", requestID),
		logger.F("url", c.predictURL),
		logger.F("bytes", file.Size),
	})

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("Prediction request failed: %v", err)
		return nil, scan.NewErrorWithCause(scan.KindRequestFailed, "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		c.log.Warn("Undecodable prediction response (status %d): %v", resp.StatusCode, err)
		return nil, scan.NewErrorWithCause(scan.KindRequestFailed, "", fmt.Errorf("decode response: %w", err))
	}

	c.log.DebugWithFields("Prediction response received", []logger.Field{
		logger.F("request_id", requestID),
		logger.F("status", resp.StatusCode),
		logger.Duration(time.Since(start)),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, scan.NewServerRejected(resp.StatusCode, messageOr(decoded.Error, scan.MsgPredictFailed))
	}

	if !decoded.Success {
		return nil, scan.NewServerRejected(resp.StatusCode, messageOr(decoded.Error, scan.MsgUnknownError))
	}

	result := decoded.PredictionResult
	return &result, nil
}

// Health queries the service health endpoint
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create health check request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}

	var status HealthStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &status, nil
}

// encodeUpload builds the multipart body with the part Content-Type taken from the file
func encodeUpload(file *scan.SelectedFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	if file.MIME != "" {
		header.Set("Content-Type", file.MIME)
	} else {
		header.Set("Content-Type", "application/octet-stream")
	}

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
