package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/smartflow/voice-core/pkg/logger"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusSleeping  Status = "sleeping"
	StatusWaking    Status = "waking"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// Health is one observation of the GPU inference backend. Snapshots are
// immutable; a fresh check supersedes the previous one.
type Health struct {
	Status         Status    `json:"status"`
	ModelLoaded    bool      `json:"model_loaded"`
	ActiveSessions int       `json:"active_sessions"`
	MaxSessions    int       `json:"max_sessions"`
	GPUName        string    `json:"gpu_name,omitempty"`
	LatencyMs      int64     `json:"latency_ms"`
	Cached         bool      `json:"cached"`
	ObservedAt     time.Time `json:"observed_at"`
}

func (h Health) Ready() bool {
	return h.Status == StatusHealthy && h.ModelLoaded
}

// Checker produces a Health observation. It is total: network failures
// are folded into the Status, never returned as errors, so callers can't
// crash on a cold backend.
type Checker interface {
	Check(ctx context.Context) Health
}

type healthResponse struct {
	Status         string `json:"status"`
	ModelLoaded    bool   `json:"model_loaded"`
	ActiveSessions int    `json:"active_sessions"`
	MaxSessions    int    `json:"max_sessions"`
	GPUName        string `json:"gpu_name"`
}

// HTTPChecker polls the backend's /health endpoint.
type HTTPChecker struct {
	url        string
	httpClient *http.Client
}

func NewHTTPChecker(url string, timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPChecker{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPChecker) Check(ctx context.Context) Health {
	start := time.Now()

	observation := Health{Status: StatusUnknown, ObservedAt: start}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		observation.Status = StatusUnhealthy
		return observation
	}

	resp, err := c.httpClient.Do(req)
	observation.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		// A timeout means the backend is cold-starting or scaled to
		// zero, which is distinct from an error response.
		if isTimeout(err) {
			observation.Status = StatusSleeping
		} else {
			observation.Status = StatusUnhealthy
		}
		logger.Debug("Health check failed",
			zap.String("status", string(observation.Status)),
			zap.Error(err),
		)
		return observation
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observation.Status = StatusUnhealthy
		return observation
	}

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		observation.Status = StatusUnhealthy
		return observation
	}

	observation.Status = mapStatus(body.Status)
	observation.ModelLoaded = body.ModelLoaded
	observation.ActiveSessions = body.ActiveSessions
	observation.MaxSessions = body.MaxSessions
	observation.GPUName = body.GPUName

	return observation
}

func mapStatus(raw string) Status {
	switch raw {
	case "healthy":
		return StatusHealthy
	case "loading", "waking":
		return StatusWaking
	case "sleeping":
		return StatusSleeping
	case "":
		return StatusUnknown
	default:
		return StatusUnhealthy
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
