package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/smartflow/voice-core/internal/metrics"
	"github.com/smartflow/voice-core/internal/semantic"
	"github.com/smartflow/voice-core/internal/storage/models"
	"github.com/smartflow/voice-core/internal/storage/sqlite"
	"github.com/smartflow/voice-core/pkg/logger"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Processor turns uploaded knowledge documents into indexed chunks.
// HTML payloads are stripped to text first; plain text passes through.
type Processor struct {
	db    *sqlite.Client
	store semantic.Store
}

func NewProcessor(db *sqlite.Client, store semantic.Store) *Processor {
	return &Processor{db: db, store: store}
}

// Ingest indexes one document for a tenant and registers it, returning
// the generated document id and the number of chunks written.
func (p *Processor) Ingest(ctx context.Context, tenantID, title, sourceURL, content string) (*semantic.IngestResult, error) {
	logger.Info("Ingesting document",
		zap.String("tenant_id", tenantID),
		zap.String("title", title),
	)

	text := content
	if looksLikeHTML(content) {
		text = p.cleanHTML(content)
		if title == "" {
			title = p.extractTitle(content)
		}
	}
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if text == "" {
		return nil, fmt.Errorf("no content extracted from document")
	}
	if title == "" {
		title = "Untitled document"
	}

	result, err := p.store.AddDocument(ctx, tenantID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to index document: %w", err)
	}

	doc := &models.Document{
		ID:         result.DocumentID,
		TenantID:   tenantID,
		Title:      title,
		SourceURL:  sourceURL,
		ChunkCount: result.ChunkCount,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if p.db != nil {
		if err := p.db.UpsertDocument(doc); err != nil {
			// The vectors are already committed; registry lag is
			// recoverable, losing the upload is not.
			logger.Error("Failed to register document", zap.Error(err),
				zap.String("document_id", result.DocumentID))
		}
	}

	metrics.DocumentsIngested.WithLabelValues(tenantID).Inc()
	metrics.ChunksIndexed.WithLabelValues(tenantID).Add(float64(result.ChunkCount))

	logger.Info("Document ingested",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", result.DocumentID),
		zap.Int("chunks", result.ChunkCount),
	)

	return result, nil
}

// Delete removes a document from the index and the registry.
func (p *Processor) Delete(ctx context.Context, tenantID, documentID string) error {
	if err := p.store.DeleteDocument(ctx, tenantID, documentID); err != nil {
		return fmt.Errorf("failed to delete document chunks: %w", err)
	}

	if p.db != nil {
		if err := p.db.DeleteDocument(tenantID, documentID); err != nil {
			logger.Warn("Document missing from registry",
				zap.String("document_id", documentID), zap.Error(err))
		}
	}

	logger.Info("Document deleted",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", documentID),
	)
	return nil
}

func looksLikeHTML(content string) bool {
	head := strings.ToLower(content)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "<html") || strings.Contains(head, "<body") ||
		strings.Contains(head, "<p>") || strings.Contains(head, "<div")
}

func (p *Processor) cleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warn("Failed to parse HTML, using raw content", zap.Error(err))
		return html
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text()
}

func (p *Processor) extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
