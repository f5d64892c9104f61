package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smartflow/voice-core/internal/intent"
	"github.com/smartflow/voice-core/internal/pipeline"
	"github.com/smartflow/voice-core/pkg/logger"
)

type RespondHandler struct {
	engine *pipeline.Engine
}

func NewRespondHandler(engine *pipeline.Engine) *RespondHandler {
	return &RespondHandler{engine: engine}
}

// HandleRespond processes one utterance and returns the approved (or
// safe fallback) reply.
func (h *RespondHandler) HandleRespond(c *fiber.Ctx) error {
	var req struct {
		Utterance string `json:"utterance"`
		SessionID string `json:"session_id"`
		Language  string `json:"language"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	tenantID := c.Get("X-Tenant-ID")
	if tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "X-Tenant-ID header is required",
		})
	}

	if req.Utterance == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Utterance is required",
		})
	}

	turn, err := h.engine.Respond(c.Context(), tenantID, req.SessionID, req.Utterance, intent.Language(req.Language))
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrUnknownTenant):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unknown tenant",
			})
		case errors.Is(err, pipeline.ErrBackendUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Inference backend is unavailable, please retry shortly",
			})
		default:
			logger.Error("Failed to process utterance", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to process utterance",
			})
		}
	}

	return c.JSON(fiber.Map{
		"response":   turn.Response,
		"intent":     turn.Intent,
		"approved":   turn.Validation.Approved,
		"fallback":   turn.Fallback,
		"latency_ms": turn.LatencyMS,
	})
}
