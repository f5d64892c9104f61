package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartflow/voice-core/internal/intent"
)

func newTestManager(max int, idle time.Duration) *Manager {
	m := NewManager(max, idle)
	m.Shutdown()
	return m
}

func TestManagerCreateAndGet(t *testing.T) {
	m := newTestManager(4, time.Minute)

	s, err := m.Create("clinic-a")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)
	assert.Equal(t, "clinic-a", s.TenantID)
	assert.Equal(t, 1, m.ActiveCount())

	got := m.Get(s.ID)
	require.NotNil(t, got)
	assert.Equal(t, s.ID, got.ID)

	assert.Nil(t, m.Get("missing"))
}

func TestManagerCapacityEvictsStaleFirst(t *testing.T) {
	m := newTestManager(2, 20*time.Millisecond)

	first, err := m.Create("clinic-a")
	require.NoError(t, err)
	_, err = m.Create("clinic-a")
	require.NoError(t, err)

	_, err = m.Create("clinic-a")
	assert.ErrorIs(t, err, ErrCapacityReached)

	time.Sleep(30 * time.Millisecond)

	s, err := m.Create("clinic-b")
	require.NoError(t, err, "stale sessions must be evicted to make room")
	assert.Nil(t, m.Get(first.ID))
	assert.NotNil(t, m.Get(s.ID))
}

func TestManagerRecordTurn(t *testing.T) {
	m := newTestManager(4, time.Minute)

	s, err := m.Create("clinic-a")
	require.NoError(t, err)

	m.RecordTurn(s.ID, Turn{
		Utterance: "yarın randevu almak istiyorum",
		Intent:    intent.Appointment,
		Response:  "Tabii, yarın için uygun saatlerimize bakıyorum.",
		Approved:  true,
	})
	m.RecordTurn("missing", Turn{Utterance: "ignored"})

	got := m.Get(s.ID)
	require.NotNil(t, got)
	require.Len(t, got.Turns, 1)
	assert.Equal(t, intent.Appointment, got.Turns[0].Intent)
	assert.False(t, got.Turns[0].At.IsZero())
}

func TestManagerListFiltersByTenant(t *testing.T) {
	m := newTestManager(8, time.Minute)

	a1, err := m.Create("clinic-a")
	require.NoError(t, err)
	_, err = m.Create("clinic-b")
	require.NoError(t, err)
	a2, err := m.Create("clinic-a")
	require.NoError(t, err)

	listed := m.List("clinic-a")
	require.Len(t, listed, 2)
	ids := map[string]bool{listed[0].ID: true, listed[1].ID: true}
	assert.True(t, ids[a1.ID])
	assert.True(t, ids[a2.ID])
	for _, s := range listed {
		assert.Equal(t, "clinic-a", s.TenantID)
	}

	assert.Len(t, m.List(""), 3)
	assert.Empty(t, m.List("clinic-c"))
}

func TestManagerListReturnsSnapshots(t *testing.T) {
	m := newTestManager(4, time.Minute)

	s, err := m.Create("clinic-a")
	require.NoError(t, err)
	m.RecordTurn(s.ID, Turn{Utterance: "merhaba", Intent: intent.Greeting, Approved: true})

	listed := m.List("clinic-a")
	require.Len(t, listed, 1)
	listed[0].Turns[0].Utterance = "mutated"

	got := m.Get(s.ID)
	require.NotNil(t, got)
	assert.Equal(t, "merhaba", got.Turns[0].Utterance)
}

func TestManagerClose(t *testing.T) {
	m := newTestManager(4, time.Minute)

	s, err := m.Create("clinic-a")
	require.NoError(t, err)

	m.Close(s.ID)
	assert.Nil(t, m.Get(s.ID))
	assert.Equal(t, 0, m.ActiveCount())
}
