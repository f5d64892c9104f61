package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	scriptPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)
)

type Config struct {
	MaxUtteranceLength int
	MaxDocumentSize    int
	Logger             *zap.Logger
}

// Middleware rejects malformed turn and ingestion payloads before they
// reach the pipeline. Utterances are plain speech transcripts, so any
// markup is treated as hostile.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxUtteranceLength == 0 {
		cfg.MaxUtteranceLength = 2000
	}
	if cfg.MaxDocumentSize == 0 {
		cfg.MaxDocumentSize = 5 * 1024 * 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		contentType := c.Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "application/json") {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		path := c.Path()

		if strings.Contains(path, "/api/v1/respond") {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			utterance, ok := req["utterance"].(string)
			if !ok || strings.TrimSpace(utterance) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Utterance is required and must be a string",
				})
			}

			if len(utterance) > cfg.MaxUtteranceLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Utterance exceeds maximum length",
				})
			}

			if scriptPattern.MatchString(utterance) {
				cfg.Logger.Warn("Markup in utterance rejected",
					zap.String("ip", c.IP()),
					zap.String("tenant", c.Get("X-Tenant-ID")),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid utterance content",
				})
			}
		}

		if strings.Contains(path, "/api/v1/documents") {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			content, ok := req["content"].(string)
			if !ok || strings.TrimSpace(content) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Content is required and must be a string",
				})
			}

			if len(content) > cfg.MaxDocumentSize {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Document content exceeds maximum size",
				})
			}
		}

		return c.Next()
	}
}
