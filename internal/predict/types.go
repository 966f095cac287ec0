package predict

import "github.com/yildizm/ScanSight/internal/scan"

// RequestIDHeader carries the analysis request ID to the service
const RequestIDHeader = "X-Request-ID"

// predictResponse covers both the success and the failure bodies
type predictResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	scan.PredictionResult
}

// HealthStatus is the body of the health endpoint
type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Healthy reports whether the service is up with a model loaded
func (h *HealthStatus) Healthy() bool {
	return h.Status == "healthy" && h.ModelLoaded
}
