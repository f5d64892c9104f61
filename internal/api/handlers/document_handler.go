package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smartflow/voice-core/internal/ingestion"
	"github.com/smartflow/voice-core/internal/storage/sqlite"
	"github.com/smartflow/voice-core/pkg/logger"
)

type DocumentHandler struct {
	processor *ingestion.Processor
	db        *sqlite.Client
}

func NewDocumentHandler(processor *ingestion.Processor, db *sqlite.Client) *DocumentHandler {
	return &DocumentHandler{processor: processor, db: db}
}

func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	var req struct {
		Title     string `json:"title"`
		SourceURL string `json:"source_url"`
		Content   string `json:"content"`
	}

	if err := c.BodyParser(&req); err != nil {
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

	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Content is required",
		})
	}

	result, err := h.processor.Ingest(c.Context(), tenantID, req.Title, req.SourceURL, req.Content)
	if err != nil {
		logger.Error("Failed to ingest document",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to ingest document",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"document_id": result.DocumentID,
		"chunk_count": result.ChunkCount,
	})
}

func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	tenantID := c.Get("X-Tenant-ID")
	if tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "X-Tenant-ID header is required",
		})
	}

	docs, err := h.db.ListDocuments(tenantID)
	if err != nil {
		logger.Error("Failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	items := make([]fiber.Map, 0, len(docs))
	for _, doc := range docs {
		items = append(items, fiber.Map{
			"id":          doc.ID,
			"title":       doc.Title,
			"source_url":  doc.SourceURL,
			"chunk_count": doc.ChunkCount,
			"updated_at":  doc.UpdatedAt,
		})
	}

	return c.JSON(fiber.Map{"documents": items})
}

func (h *DocumentHandler) HandleDelete(c *fiber.Ctx) error {
	tenantID := c.Get("X-Tenant-ID")
	if tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "X-Tenant-ID header is required",
		})
	}

	documentID := c.Params("id")
	if documentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Document id is required",
		})
	}

	if err := h.processor.Delete(c.Context(), tenantID, documentID); err != nil {
		logger.Error("Failed to delete document",
			zap.String("document_id", documentID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete document",
		})
	}

	return c.JSON(fiber.Map{"deleted": documentID})
}
