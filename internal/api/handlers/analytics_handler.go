package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	cache "github.com/smartflow/voice-core/internal/cache/redis"
	"github.com/smartflow/voice-core/internal/storage/sqlite"
	"github.com/smartflow/voice-core/pkg/logger"
)

// AnalyticsHandler serves the persisted turn log and guardrail
// violation aggregates, plus the embedding cache flush used after a
// provider or model change. Cache may be nil when Redis is disabled.
type AnalyticsHandler struct {
	db    *sqlite.Client
	cache *cache.Client
}

func NewAnalyticsHandler(db *sqlite.Client, cache *cache.Client) *AnalyticsHandler {
	return &AnalyticsHandler{db: db, cache: cache}
}

func (h *AnalyticsHandler) HandleRecentTurns(c *fiber.Ctx) error {
	tenantID := c.Get("X-Tenant-ID")
	if tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "X-Tenant-ID header is required",
		})
	}

	limit := c.QueryInt("limit", 50)
	turns, err := h.db.RecentTurns(tenantID, limit)
	if err != nil {
		logger.Error("Failed to load turns", zap.String("tenant_id", tenantID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load turns",
		})
	}

	return c.JSON(fiber.Map{
		"turns": turns,
		"count": len(turns),
	})
}

func (h *AnalyticsHandler) HandleViolationStats(c *fiber.Ctx) error {
	tenantID := c.Get("X-Tenant-ID")
	if tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "X-Tenant-ID header is required",
		})
	}

	days := c.QueryInt("days", 7)
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	stats, err := h.db.ViolationStats(tenantID, since)
	if err != nil {
		logger.Error("Failed to load violation stats", zap.String("tenant_id", tenantID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load violation stats",
		})
	}

	return c.JSON(fiber.Map{
		"since":      since,
		"violations": stats,
	})
}

func (h *AnalyticsHandler) HandleFlushCache(c *fiber.Ctx) error {
	if h.cache == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Embedding cache is not enabled",
		})
	}

	if err := h.cache.FlushEmbeddings(c.Context()); err != nil {
		logger.Error("Failed to flush embedding cache", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to flush embedding cache",
		})
	}

	return c.JSON(fiber.Map{"status": "flushed"})
}
