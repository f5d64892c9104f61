package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartflow/voice-core/internal/inference"
	"github.com/smartflow/voice-core/internal/session"
)

type StatusHandler struct {
	lifecycle *inference.Manager
	sessions  *session.Manager
}

func NewStatusHandler(lifecycle *inference.Manager, sessions *session.Manager) *StatusHandler {
	return &StatusHandler{lifecycle: lifecycle, sessions: sessions}
}

// HandleStatus reports the inference backend health snapshot along with
// lifecycle counters and session load. Pass refresh=true to bypass the
// health cache.
func (h *StatusHandler) HandleStatus(c *fiber.Ctx) error {
	force := c.QueryBool("refresh", false)
	health := h.lifecycle.CheckHealth(c.Context(), force)
	stats := h.lifecycle.Stats()

	return c.JSON(fiber.Map{
		"inference":       health,
		"lifecycle":       stats,
		"active_sessions": h.sessions.ActiveCount(),
	})
}

// HandleWake explicitly requests a backend wake-up; concurrent requests
// share the in-flight attempt.
func (h *StatusHandler) HandleWake(c *fiber.Ctx) error {
	ok := h.lifecycle.WakeUp(c.Context())
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"woken": false,
		})
	}
	return c.JSON(fiber.Map{"woken": true})
}
