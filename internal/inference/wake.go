package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/smartflow/voice-core/pkg/logger"
	"github.com/smartflow/voice-core/pkg/retry"
)

var errNotReady = errors.New("backend not ready")

// WakeStrategy brings a sleeping backend up. Returning false means the
// backend stayed unavailable after the strategy gave up; callers treat
// that as "service unavailable", not as a fatal error.
type WakeStrategy interface {
	Wake(ctx context.Context) bool
}

// PollWaker re-checks health at a fixed interval until the model is
// loaded or the attempt budget runs out. Suits backends that wake on
// their own once traffic resumes.
type PollWaker struct {
	checker     Checker
	maxAttempts int
	interval    time.Duration
}

func NewPollWaker(checker Checker, maxAttempts int, interval time.Duration) *PollWaker {
	if maxAttempts <= 0 {
		maxAttempts = 12
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &PollWaker{checker: checker, maxAttempts: maxAttempts, interval: interval}
}

func (w *PollWaker) Wake(ctx context.Context) bool {
	err := retry.Do(ctx, retry.Fixed(w.maxAttempts, w.interval), func() error {
		health := w.checker.Check(ctx)
		if health.Ready() {
			return nil
		}
		return fmt.Errorf("%w: status=%s model_loaded=%t", errNotReady, health.Status, health.ModelLoaded)
	})

	if err != nil {
		logger.Warn("Wake polling exhausted", zap.Error(err))
		return false
	}
	return true
}

// JobWaker submits an asynchronous wake job to an external orchestrator
// and polls the job status until it completes, then confirms with a
// health check.
type JobWaker struct {
	submitURL   string
	checker     Checker
	httpClient  *http.Client
	maxAttempts int
	interval    time.Duration
}

func NewJobWaker(submitURL string, checker Checker, timeout time.Duration, maxAttempts int, interval time.Duration) *JobWaker {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 12
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &JobWaker{
		submitURL:   submitURL,
		checker:     checker,
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		interval:    interval,
	}
}

type wakeJob struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (w *JobWaker) Wake(ctx context.Context) bool {
	job, err := w.submit(ctx)
	if err != nil {
		logger.Warn("Wake job submission failed", zap.Error(err))
		return false
	}

	logger.Info("Wake job submitted", zap.String("job_id", job.ID))

	cfg := retry.Fixed(w.maxAttempts, w.interval)
	cfg.RetryableErrors = []error{errNotReady}

	err = retry.Do(ctx, cfg, func() error {
		status, err := w.jobStatus(ctx, job.ID)
		if err != nil {
			// Transient poll failures keep retrying inside the budget.
			return fmt.Errorf("%w: status fetch: %v", errNotReady, err)
		}
		switch status {
		case "completed":
			return nil
		case "failed":
			// Terminal; retrying the same job cannot succeed.
			return fmt.Errorf("wake job %s failed", job.ID)
		default:
			return fmt.Errorf("%w: job status %s", errNotReady, status)
		}
	})
	if err != nil {
		logger.Warn("Wake job did not complete", zap.Error(err))
		return false
	}

	return w.checker.Check(ctx).Ready()
}

func (w *JobWaker) submit(ctx context.Context) (*wakeJob, error) {
	payload, _ := json.Marshal(map[string]string{"action": "wake"})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.submitURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("wake job submit returned status %d", resp.StatusCode)
	}

	var job wakeJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode wake job: %w", err)
	}
	return &job, nil
}

func (w *JobWaker) jobStatus(ctx context.Context, jobID string) (string, error) {
	url := fmt.Sprintf("%s/%s", w.submitURL, jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var job wakeJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return "", fmt.Errorf("failed to decode job status: %w", err)
	}
	return job.Status, nil
}
