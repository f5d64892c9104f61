package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/smartflow/voice-core/internal/intent"
	"github.com/smartflow/voice-core/internal/pipeline"
	"github.com/smartflow/voice-core/internal/session"
	"github.com/smartflow/voice-core/internal/tenant"
	"github.com/smartflow/voice-core/pkg/logger"
)

// SessionHandler runs live dialogues over a websocket: one connection
// is one session, each text frame is one caller utterance.
type SessionHandler struct {
	engine      *pipeline.Engine
	sessions    *session.Manager
	tenants     *tenant.Store
	turnTimeout time.Duration
}

func NewSessionHandler(engine *pipeline.Engine, sessions *session.Manager, tenants *tenant.Store, turnTimeout time.Duration) *SessionHandler {
	if turnTimeout <= 0 {
		turnTimeout = 30 * time.Second
	}
	return &SessionHandler{engine: engine, sessions: sessions, tenants: tenants, turnTimeout: turnTimeout}
}

// Upgrade gates the websocket upgrade and stashes the tenant id for the
// connection handler.
func (h *SessionHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tenantID := c.Get("X-Tenant-ID")
	if tenantID == "" {
		tenantID = c.Query("tenant")
	}
	if _, ok := h.tenants.Get(tenantID); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown tenant",
		})
	}

	c.Locals("tenant_id", tenantID)
	return c.Next()
}

// HandleList returns the live sessions for the calling tenant, without
// transcripts.
func (h *SessionHandler) HandleList(c *fiber.Ctx) error {
	tenantID := c.Get("X-Tenant-ID")
	if tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "X-Tenant-ID header is required",
		})
	}

	sessions := h.sessions.List(tenantID)
	items := make([]fiber.Map, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, fiber.Map{
			"session_id":  s.ID,
			"started_at":  s.StartedAt,
			"last_active": s.LastActive,
			"turns":       len(s.Turns),
		})
	}

	return c.JSON(fiber.Map{
		"sessions": items,
		"count":    len(items),
	})
}

// HandleGet returns one session with its full transcript.
func (h *SessionHandler) HandleGet(c *fiber.Ctx) error {
	sess := h.lookup(c)
	if sess == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown session",
		})
	}

	return c.JSON(fiber.Map{
		"session_id":  sess.ID,
		"tenant_id":   sess.TenantID,
		"started_at":  sess.StartedAt,
		"last_active": sess.LastActive,
		"turns":       sess.Turns,
	})
}

// HandleEnd closes a session server-side. The websocket, if still open,
// finds out on its next write.
func (h *SessionHandler) HandleEnd(c *fiber.Ctx) error {
	sess := h.lookup(c)
	if sess == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown session",
		})
	}

	h.sessions.Close(sess.ID)
	logger.Info("Session ended via API", zap.String("session_id", sess.ID))

	return c.JSON(fiber.Map{
		"session_id": sess.ID,
		"status":     "ended",
	})
}

// lookup resolves the :id path param to a session owned by the calling
// tenant. Sessions of other tenants are indistinguishable from missing.
func (h *SessionHandler) lookup(c *fiber.Ctx) *session.Session {
	sess := h.sessions.Get(c.Params("id"))
	if sess == nil || sess.TenantID != c.Get("X-Tenant-ID") {
		return nil
	}
	return sess
}

func (h *SessionHandler) HandleConnection(c *websocket.Conn) {
	tenantID, _ := c.Locals("tenant_id").(string)

	sess, err := h.sessions.Create(tenantID)
	if err != nil {
		logger.Warn("Session rejected", zap.String("tenant_id", tenantID), zap.Error(err))
		h.send(c, fiber.Map{"type": "error", "error": "Session capacity reached"})
		c.Close()
		return
	}

	logger.Info("Session connected",
		zap.String("session_id", sess.ID),
		zap.String("tenant_id", tenantID),
	)

	defer func() {
		h.sessions.Close(sess.ID)
		c.Close()
		logger.Info("Session disconnected", zap.String("session_id", sess.ID))
	}()

	profile, _ := h.tenants.Get(tenantID)
	h.send(c, fiber.Map{
		"type":       "session",
		"session_id": sess.ID,
		"greeting":   profile.Greeting,
	})

	for {
		var msg struct {
			Type      string `json:"type"`
			Utterance string `json:"utterance"`
			Language  string `json:"language"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("Session read ended", zap.Error(err))
			return
		}

		if msg.Type != "utterance" || msg.Utterance == "" {
			continue
		}

		h.processTurn(c, sess.ID, tenantID, msg.Utterance, intent.Language(msg.Language))
	}
}

func (h *SessionHandler) processTurn(c *websocket.Conn, sessionID, tenantID, utterance string, lang intent.Language) {
	ctx, cancel := context.WithTimeout(context.Background(), h.turnTimeout)
	defer cancel()

	turn, err := h.engine.Respond(ctx, tenantID, sessionID, utterance, lang)
	if err != nil {
		if errors.Is(err, pipeline.ErrBackendUnavailable) {
			h.send(c, fiber.Map{"type": "error", "error": "Backend unavailable, please retry"})
			return
		}
		logger.Error("Turn failed", zap.String("session_id", sessionID), zap.Error(err))
		h.send(c, fiber.Map{"type": "error", "error": "Failed to process utterance"})
		return
	}

	h.sessions.RecordTurn(sessionID, session.Turn{
		Utterance: utterance,
		Intent:    turn.Intent.Intent,
		Response:  turn.Response,
		Approved:  turn.Validation.Approved,
	})

	h.send(c, fiber.Map{
		"type":       "response",
		"response":   turn.Response,
		"intent":     turn.Intent,
		"fallback":   turn.Fallback,
		"latency_ms": turn.LatencyMS,
	})
}

func (h *SessionHandler) send(c *websocket.Conn, payload fiber.Map) {
	if err := c.WriteJSON(payload); err != nil {
		logger.Warn("Failed to write session message", zap.Error(err))
	}
}
