package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartflow/voice-core/internal/session"
	"github.com/smartflow/voice-core/internal/tenant"
)

func newSessionTestApp(t *testing.T) (*fiber.App, *session.Manager) {
	t.Helper()

	sessions := session.NewManager(8, time.Minute)
	t.Cleanup(sessions.Shutdown)

	tenants := tenant.NewStaticStore(
		tenant.Profile{ID: "clinic-a", AgentName: "Ayşe", Greeting: "Merhaba"},
		tenant.Profile{ID: "clinic-b", AgentName: "Mert", Greeting: "Hoş geldiniz"},
	)
	handler := NewSessionHandler(nil, sessions, tenants, time.Second)

	app := fiber.New()
	app.Get("/api/v1/sessions", handler.HandleList)
	app.Get("/api/v1/sessions/:id", handler.HandleGet)
	app.Delete("/api/v1/sessions/:id", handler.HandleEnd)
	return app, sessions
}

func TestSessionHandler_List(t *testing.T) {
	app, sessions := newSessionTestApp(t)

	_, err := sessions.Create("clinic-a")
	require.NoError(t, err)
	_, err = sessions.Create("clinic-b")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	req.Header.Set("X-Tenant-ID", "clinic-a")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)

	// Missing tenant header is rejected, not treated as "all tenants".
	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/sessions", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSessionHandler_GetScopedToTenant(t *testing.T) {
	app, sessions := newSessionTestApp(t)

	s, err := sessions.Create("clinic-a")
	require.NoError(t, err)
	sessions.RecordTurn(s.ID, session.Turn{Utterance: "merhaba", Approved: true})

	req := httptest.NewRequest("GET", "/api/v1/sessions/"+s.ID, nil)
	req.Header.Set("X-Tenant-ID", "clinic-a")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		SessionID string         `json:"session_id"`
		Turns     []session.Turn `json:"turns"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, s.ID, body.SessionID)
	require.Len(t, body.Turns, 1)
	assert.Equal(t, "merhaba", body.Turns[0].Utterance)

	// Another tenant's session id reads as missing.
	req = httptest.NewRequest("GET", "/api/v1/sessions/"+s.ID, nil)
	req.Header.Set("X-Tenant-ID", "clinic-b")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSessionHandler_End(t *testing.T) {
	app, sessions := newSessionTestApp(t)

	s, err := sessions.Create("clinic-a")
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", "/api/v1/sessions/"+s.ID, nil)
	req.Header.Set("X-Tenant-ID", "clinic-a")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, sessions.Get(s.ID))

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
