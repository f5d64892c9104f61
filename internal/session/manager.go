package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartflow/voice-core/internal/intent"
	"github.com/smartflow/voice-core/internal/metrics"
	"github.com/smartflow/voice-core/pkg/logger"
)

var ErrCapacityReached = errors.New("session capacity reached")

// Turn is one utterance/response exchange kept in the session transcript.
type Turn struct {
	Utterance string        `json:"utterance"`
	Intent    intent.Intent `json:"intent"`
	Response  string        `json:"response"`
	Approved  bool          `json:"approved"`
	At        time.Time     `json:"at"`
}

// Session is one active caller dialogue. All mutation goes through the
// Manager so the transcript stays consistent under concurrent reads.
type Session struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	StartedAt  time.Time `json:"started_at"`
	LastActive time.Time `json:"last_active"`
	Turns      []Turn    `json:"turns"`
}

// Manager bounds the number of concurrent sessions and evicts the ones
// that have gone idle.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	maxSessions int
	idleTimeout time.Duration
	stop        chan struct{}
}

func NewManager(maxSessions int, idleTimeout time.Duration) *Manager {
	if maxSessions <= 0 {
		maxSessions = 100
	}
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}

	m := &Manager{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		idleTimeout: idleTimeout,
		stop:        make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

// Create opens a session for tenantID, evicting stale sessions first if
// the table is full.
func (m *Manager) Create(tenantID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxSessions {
		m.evictStaleLocked(time.Now())
	}
	if len(m.sessions) >= m.maxSessions {
		return nil, ErrCapacityReached
	}

	now := time.Now()
	s := &Session{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		StartedAt:  now,
		LastActive: now,
	}
	m.sessions[s.ID] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))

	logger.Info("Session created",
		zap.String("session_id", s.ID),
		zap.String("tenant_id", tenantID),
	)

	snapshot := *s
	return &snapshot, nil
}

// Get returns a copy of the session, or nil when it is unknown.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil
	}

	snapshot := *s
	snapshot.Turns = append([]Turn(nil), s.Turns...)
	return &snapshot
}

// RecordTurn appends one exchange to the transcript and refreshes the
// idle clock. Unknown session ids are ignored so a late websocket write
// after eviction cannot fail the request.
func (m *Manager) RecordTurn(id string, turn Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return
	}

	if turn.At.IsZero() {
		turn.At = time.Now()
	}
	s.Turns = append(s.Turns, turn)
	s.LastActive = turn.At
}

// Close removes the session.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		metrics.ActiveSessions.Set(float64(len(m.sessions)))
	}
}

// List returns snapshots of every live session for a tenant, newest
// first. An empty tenant id lists all tenants.
func (m *Manager) List(tenantID string) []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if tenantID != "" && s.TenantID != tenantID {
			continue
		}
		snapshot := *s
		snapshot.Turns = append([]Turn(nil), s.Turns...)
		out = append(out, &snapshot)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			m.evictStaleLocked(time.Now())
			m.mu.Unlock()
		}
	}
}

func (m *Manager) evictStaleLocked(now time.Time) {
	for id, s := range m.sessions {
		if now.Sub(s.LastActive) > m.idleTimeout {
			delete(m.sessions, id)
			logger.Info("Session evicted as idle", zap.String("session_id", id))
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
}

func (m *Manager) Shutdown() {
	close(m.stop)
}
