package inference

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/smartflow/voice-core/internal/metrics"
	"github.com/smartflow/voice-core/pkg/logger"
)

// Manager tracks the health of the GPU inference backend and orchestrates
// wake-up. The health snapshot is cached for a TTL, and at most one wake
// attempt is in flight at any time; concurrent callers share its outcome
// instead of triggering duplicate cold starts.
type Manager struct {
	checker Checker
	waker   WakeStrategy
	ttl     time.Duration

	mu       sync.Mutex
	last     *Health
	inflight *wakeAttempt

	totalChecks   atomic.Int64
	cacheHits     atomic.Int64
	wakeAttempts  atomic.Int64
	wakeSuccesses atomic.Int64
}

type wakeAttempt struct {
	done chan struct{}
	ok   bool
}

// Stats are running counters exposed for the status endpoint.
type Stats struct {
	TotalChecks   int64 `json:"total_checks"`
	CacheHits     int64 `json:"cache_hits"`
	WakeAttempts  int64 `json:"wake_attempts"`
	WakeSuccesses int64 `json:"wake_successes"`
}

func NewManager(checker Checker, waker WakeStrategy, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Manager{
		checker: checker,
		waker:   waker,
		ttl:     ttl,
	}
}

// CheckHealth returns the cached snapshot when it is fresh, marked
// Cached=true; forceRefresh bypasses the cache.
func (m *Manager) CheckHealth(ctx context.Context, forceRefresh bool) Health {
	m.totalChecks.Add(1)

	m.mu.Lock()
	if !forceRefresh && m.last != nil && time.Since(m.last.ObservedAt) < m.ttl {
		cached := *m.last
		cached.Cached = true
		m.mu.Unlock()
		m.cacheHits.Add(1)
		metrics.HealthChecks.WithLabelValues("true").Inc()
		return cached
	}
	m.mu.Unlock()

	metrics.HealthChecks.WithLabelValues("false").Inc()
	observation := m.checker.Check(ctx)

	m.mu.Lock()
	m.last = &observation
	m.mu.Unlock()

	return observation
}

// EnsureReady reports whether the backend can take a request, waking it
// if necessary. A false return means "backend unavailable", which the
// caller surfaces as a 503, never as a crash.
func (m *Manager) EnsureReady(ctx context.Context) bool {
	if m.CheckHealth(ctx, false).Ready() {
		return true
	}
	return m.WakeUp(ctx)
}

// WakeUp starts a wake attempt, or joins the attempt already in flight.
// Every concurrent caller observes the outcome of the same single
// attempt.
func (m *Manager) WakeUp(ctx context.Context) bool {
	m.mu.Lock()
	if att := m.inflight; att != nil {
		m.mu.Unlock()
		return m.await(ctx, att)
	}

	att := &wakeAttempt{done: make(chan struct{})}
	m.inflight = att
	m.mu.Unlock()

	m.wakeAttempts.Add(1)
	logger.Info("Wake attempt started")

	// The attempt runs detached from any single caller's context so an
	// early cancellation cannot strand the other waiters.
	go func() {
		att.ok = m.waker.Wake(context.Background())

		m.mu.Lock()
		m.inflight = nil
		if att.ok {
			// Next CheckHealth must observe the woken backend.
			m.last = nil
		}
		m.mu.Unlock()

		outcome := "failure"
		if att.ok {
			m.wakeSuccesses.Add(1)
			outcome = "success"
		}
		metrics.WakeAttempts.WithLabelValues(outcome).Inc()
		logger.Info("Wake attempt finished", zap.Bool("success", att.ok))

		close(att.done)
	}()

	return m.await(ctx, att)
}

func (m *Manager) await(ctx context.Context, att *wakeAttempt) bool {
	select {
	case <-att.done:
		return att.ok
	case <-ctx.Done():
		return false
	}
}

func (m *Manager) Stats() Stats {
	return Stats{
		TotalChecks:   m.totalChecks.Load(),
		CacheHits:     m.cacheHits.Load(),
		WakeAttempts:  m.wakeAttempts.Load(),
		WakeSuccesses: m.wakeSuccesses.Load(),
	}
}
