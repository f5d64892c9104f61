package semantic

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartflow/voice-core/pkg/logger"
)

// Chunk is one embedded segment of a tenant document. Chunks live inside a
// single tenant partition and are deleted with their parent document.
type Chunk struct {
	ID         string
	TenantID   string
	DocumentID string
	Text       string
	Embedding  []float32
	TokenCount int
}

// SearchResult is a grounding passage ranked by cosine similarity against
// the query embedding. Score is in [-1, 1].
type SearchResult struct {
	ChunkID    string
	DocumentID string
	Text       string
	Score      float64
}

type IngestResult struct {
	DocumentID string
	ChunkCount int
}

// Embedder produces fixed-dimension vectors for chunks and queries. The
// production implementation lives in internal/llm.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the tenant-partitioned knowledge store. No operation may read
// or return another tenant's chunks.
type Store interface {
	AddDocument(ctx context.Context, tenantID, content string) (*IngestResult, error)
	Search(ctx context.Context, tenantID, query string, topK int) ([]SearchResult, error)
	DeleteDocument(ctx context.Context, tenantID, documentID string) error
}

type partition struct {
	chunks map[string]Chunk
	docs   map[string][]string
}

// MemoryStore keeps embeddings in process memory behind a RWMutex. Suits a
// single-instance deployment; multi-instance setups use the Milvus backend.
type MemoryStore struct {
	mu       sync.RWMutex
	tenants  map[string]*partition
	chunker  *Chunker
	embedder Embedder
}

func NewMemoryStore(chunker *Chunker, embedder Embedder) *MemoryStore {
	return &MemoryStore{
		tenants:  make(map[string]*partition),
		chunker:  chunker,
		embedder: embedder,
	}
}

func (s *MemoryStore) AddDocument(ctx context.Context, tenantID, content string) (*IngestResult, error) {
	docID := uuid.New().String()

	pieces := s.chunker.Split(content)
	if len(pieces) == 0 {
		return &IngestResult{DocumentID: docID, ChunkCount: 0}, nil
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(pieces) {
		return nil, &DimensionMismatchError{Want: len(pieces), Got: len(embeddings)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	part := s.tenants[tenantID]
	if part == nil {
		part = &partition{
			chunks: make(map[string]Chunk),
			docs:   make(map[string][]string),
		}
		s.tenants[tenantID] = part
	}

	for i, text := range pieces {
		chunk := Chunk{
			ID:         uuid.New().String(),
			TenantID:   tenantID,
			DocumentID: docID,
			Text:       text,
			Embedding:  embeddings[i],
			TokenCount: len(strings.Fields(text)),
		}
		part.chunks[chunk.ID] = chunk
		part.docs[docID] = append(part.docs[docID], chunk.ID)
	}

	logger.Info("Document ingested",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", docID),
		zap.Int("chunks", len(pieces)),
	)

	return &IngestResult{DocumentID: docID, ChunkCount: len(pieces)}, nil
}

func (s *MemoryStore) Search(ctx context.Context, tenantID, query string, topK int) ([]SearchResult, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	part := s.tenants[tenantID]
	if part == nil {
		return nil, nil
	}

	results := make([]SearchResult, 0, len(part.chunks))
	for _, chunk := range part.chunks {
		score, err := CosineSimilarity(queryVec, chunk.Embedding)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Text:       chunk.Text,
			Score:      score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	part := s.tenants[tenantID]
	if part == nil {
		return nil
	}

	for _, chunkID := range part.docs[documentID] {
		delete(part.chunks, chunkID)
	}
	delete(part.docs, documentID)

	logger.Info("Document deleted",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", documentID),
	)

	return nil
}
