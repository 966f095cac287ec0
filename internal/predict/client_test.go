package predict

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yildizm/ScanSight/internal/scan"
)

func testFile() *scan.SelectedFile {
	return &scan.SelectedFile{
		Name: "brain.png",
		MIME: "image/png",
		Size: 4,
		Data: []byte{0x89, 'P', 'N', 'G'},
	}
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	config := DefaultConfig()
	config.Endpoint = url
	client, err := New(config, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestPredict_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/predict" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(RequestIDHeader) != "req-123" {
			t.Errorf("request id = %q", r.Header.Get(RequestIDHeader))
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			http.Error(w, `{"error":"no file"}`, http.StatusBadRequest)
			return
		}
		defer func() { _ = file.Close() }()

		if header.Filename != "brain.png" {
			t.Errorf("filename = %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("part content type = %q", ct)
		}
		data, _ := io.ReadAll(file)
		if len(data) != 4 {
			t.Errorf("uploaded %d bytes, want 4", len(data))
		}
		if r.MultipartForm != nil && len(r.MultipartForm.File) != 1 {
			t.Errorf("expected exactly one file part")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"prediction":"Glioma","confidence":0.7,
			"all_probabilities":{"Glioma":0.7,"No Tumor Detected":0.2,"Meningioma":0.1}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := scan.ContextWithRequestID(context.Background(), "req-123")

	result, err := client.Predict(ctx, testFile())
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if result.Prediction != "Glioma" || result.Confidence != 0.7 {
		t.Errorf("result = %+v", result)
	}
	want := []string{"Glioma", "No Tumor Detected", "Meningioma"}
	for i, label := range want {
		if result.AllProbabilities[i].Label != label {
			t.Errorf("entry %d = %q, want %q", i, result.AllProbabilities[i].Label, label)
		}
	}
}

func TestPredict_GeneratesRequestID(t *testing.T) {
	ids := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get(RequestIDHeader)
		_, _ = io.WriteString(w, `{"success":true,"prediction":"x","confidence":1,"all_probabilities":{}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.Predict(context.Background(), testFile()); err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got := <-ids; len(got) != 36 {
		t.Errorf("request id = %q, want a UUID", got)
	}
}

func TestPredict_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind scan.ErrorKind
		wantMsg  string
	}{
		{
			name:     "success false with error",
			status:   http.StatusOK,
			body:     `{"success":false,"error":"model unavailable"}`,
			wantKind: scan.KindServerRejected,
			wantMsg:  "model unavailable",
		},
		{
			name:     "success false without error",
			status:   http.StatusOK,
			body:     `{"success":false}`,
			wantKind: scan.KindServerRejected,
			wantMsg:  scan.MsgUnknownError,
		},
		{
			name:     "missing success flag",
			status:   http.StatusOK,
			body:     `{"prediction":"Glioma"}`,
			wantKind: scan.KindServerRejected,
			wantMsg:  scan.MsgUnknownError,
		},
		{
			name:     "server error with message",
			status:   http.StatusInternalServerError,
			body:     `{"error":"Model not loaded. Please train the model first."}`,
			wantKind: scan.KindServerRejected,
			wantMsg:  "Model not loaded. Please train the model first.",
		},
		{
			name:     "bad request without message",
			status:   http.StatusBadRequest,
			body:     `{}`,
			wantKind: scan.KindServerRejected,
			wantMsg:  scan.MsgPredictFailed,
		},
		{
			name:     "html body",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			wantKind: scan.KindRequestFailed,
			wantMsg:  scan.MsgAnalyzeFailed,
		},
		{
			name:     "empty body",
			status:   http.StatusOK,
			body:     ``,
			wantKind: scan.KindRequestFailed,
			wantMsg:  scan.MsgAnalyzeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			result, err := client.Predict(context.Background(), testFile())
			if err == nil {
				t.Fatalf("Predict() = %+v, want error", result)
			}
			if kind := scan.KindOf(err); kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", kind, tt.wantKind)
			}
			if msg := scan.UserMessage(err); msg != tt.wantMsg {
				t.Errorf("message = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestPredict_StatusCodeCarried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"busy"}`)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Predict(context.Background(), testFile())

	var se *scan.Error
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("error = %v, want status 503", err)
	}
}

func TestPredict_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url).Predict(context.Background(), testFile())
	if !errors.Is(err, scan.ErrRequestFailed) {
		t.Fatalf("error = %v, want RequestFailed", err)
	}
	if scan.UserMessage(err) != scan.MsgAnalyzeFailed {
		t.Errorf("transport failures should use the default message")
	}
}

func TestPredict_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, server.URL).Predict(ctx, testFile())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in chain", err)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     bool
		wantHealthy bool
	}{
		{"healthy", http.StatusOK, `{"status":"healthy","model_loaded":true}`, false, true},
		{"model missing", http.StatusOK, `{"status":"healthy","model_loaded":false}`, false, false},
		{"server error", http.StatusInternalServerError, `{}`, true, false},
		{"garbage", http.StatusOK, `nope`, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/health" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			status, err := newTestClient(t, server.URL).Health(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Health() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && status.Healthy() != tt.wantHealthy {
				t.Errorf("Healthy() = %v, want %v", status.Healthy(), tt.wantHealthy)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"empty endpoint", func(c *Config) { c.Endpoint = "" }, true},
		{"bad scheme", func(c *Config) { c.Endpoint = "ftp://host" }, true},
		{"missing host", func(c *Config) { c.Endpoint = "http://" }, true},
		{"relative path", func(c *Config) { c.PredictPath = "api/predict" }, true},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
