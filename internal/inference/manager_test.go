package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	mu     sync.Mutex
	calls  int
	health Health
}

func (f *fakeChecker) Check(ctx context.Context) Health {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	h := f.health
	h.ObservedAt = time.Now()
	return h
}

func (f *fakeChecker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeWaker struct {
	calls atomic.Int64
	delay time.Duration
	ok    bool
}

func (f *fakeWaker) Wake(ctx context.Context) bool {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.ok
}

func TestManagerCachesHealthWithinTTL(t *testing.T) {
	checker := &fakeChecker{health: Health{Status: StatusHealthy, ModelLoaded: true}}
	mgr := NewManager(checker, &fakeWaker{ok: true}, 10*time.Second)

	first := mgr.CheckHealth(context.Background(), false)
	assert.False(t, first.Cached)
	require.Equal(t, 1, checker.callCount())

	second := mgr.CheckHealth(context.Background(), false)
	assert.True(t, second.Cached)
	assert.Equal(t, StatusHealthy, second.Status)
	assert.Equal(t, 1, checker.callCount(), "cached read must not hit the backend")

	stats := mgr.Stats()
	assert.Equal(t, int64(2), stats.TotalChecks)
	assert.Equal(t, int64(1), stats.CacheHits)
}

func TestManagerForceRefreshBypassesCache(t *testing.T) {
	checker := &fakeChecker{health: Health{Status: StatusHealthy, ModelLoaded: true}}
	mgr := NewManager(checker, &fakeWaker{ok: true}, 10*time.Second)

	mgr.CheckHealth(context.Background(), false)
	refreshed := mgr.CheckHealth(context.Background(), true)

	assert.False(t, refreshed.Cached)
	assert.Equal(t, 2, checker.callCount())
}

func TestManagerDeduplicatesConcurrentWakes(t *testing.T) {
	checker := &fakeChecker{health: Health{Status: StatusSleeping}}
	waker := &fakeWaker{delay: 50 * time.Millisecond, ok: true}
	mgr := NewManager(checker, waker, 10*time.Second)

	const callers = 8
	results := make([]bool, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = mgr.WakeUp(context.Background())
		}(i)
	}
	wg.Wait()

	for i, ok := range results {
		assert.True(t, ok, "caller %d", i)
	}
	assert.Equal(t, int64(1), waker.calls.Load(), "concurrent callers must share one attempt")
	assert.Equal(t, int64(1), mgr.Stats().WakeSuccesses)
}

func TestManagerWakeFailurePropagatesToAllWaiters(t *testing.T) {
	waker := &fakeWaker{delay: 20 * time.Millisecond, ok: false}
	mgr := NewManager(&fakeChecker{health: Health{Status: StatusSleeping}}, waker, 10*time.Second)

	var wg sync.WaitGroup
	outcomes := make([]bool, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = mgr.WakeUp(context.Background())
		}(i)
	}
	wg.Wait()

	for _, ok := range outcomes {
		assert.False(t, ok)
	}
	assert.Equal(t, int64(1), waker.calls.Load())
	assert.Equal(t, int64(0), mgr.Stats().WakeSuccesses)
}

func TestManagerEnsureReadySkipsWakeWhenHealthy(t *testing.T) {
	checker := &fakeChecker{health: Health{Status: StatusHealthy, ModelLoaded: true}}
	waker := &fakeWaker{ok: true}
	mgr := NewManager(checker, waker, 10*time.Second)

	assert.True(t, mgr.EnsureReady(context.Background()))
	assert.Equal(t, int64(0), waker.calls.Load())
}

func TestHTTPCheckerMapsBackendStates(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus Status
		wantReady  bool
	}{
		{
			name: "healthy with model loaded",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(healthResponse{
					Status:      "healthy",
					ModelLoaded: true,
					MaxSessions: 8,
					GPUName:     "NVIDIA A10G",
				})
			},
			wantStatus: StatusHealthy,
			wantReady:  true,
		},
		{
			name: "still loading",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(healthResponse{Status: "loading"})
			},
			wantStatus: StatusWaking,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			checker := NewHTTPChecker(srv.URL, 2*time.Second)
			h := checker.Check(context.Background())

			assert.Equal(t, tt.wantStatus, h.Status)
			assert.Equal(t, tt.wantReady, h.Ready())
		})
	}
}

func TestHTTPCheckerTimeoutMeansSleeping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	checker := NewHTTPChecker(srv.URL, 30*time.Millisecond)
	h := checker.Check(context.Background())

	assert.Equal(t, StatusSleeping, h.Status)
	assert.False(t, h.Ready())
}

func TestPollWakerSucceedsOnceBackendReady(t *testing.T) {
	checker := &fakeChecker{health: Health{Status: StatusSleeping}}
	waker := NewPollWaker(checker, 5, 10*time.Millisecond)

	go func() {
		time.Sleep(25 * time.Millisecond)
		checker.mu.Lock()
		checker.health = Health{Status: StatusHealthy, ModelLoaded: true}
		checker.mu.Unlock()
	}()

	assert.True(t, waker.Wake(context.Background()))
}

func TestPollWakerGivesUpAfterBudget(t *testing.T) {
	checker := &fakeChecker{health: Health{Status: StatusSleeping}}
	waker := NewPollWaker(checker, 3, 5*time.Millisecond)

	assert.False(t, waker.Wake(context.Background()))
	assert.GreaterOrEqual(t, checker.callCount(), 3)
}
