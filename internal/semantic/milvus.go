package semantic

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/smartflow/voice-core/pkg/logger"
)

// MilvusStore backs the knowledge store with a Milvus collection so
// multiple instances can share one index. Vectors are normalized before
// insert and search, making inner-product scores equal to cosine
// similarity. Tenant isolation is enforced with a filter expression on
// every search and delete.
type MilvusStore struct {
	client         client.Client
	collectionName string
	dim            int
	chunker        *Chunker
	embedder       Embedder
}

func NewMilvusStore(endpoint, collectionName string, dim int, chunker *Chunker, embedder Embedder) (*MilvusStore, error) {
	c, err := client.NewGrpcClient(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &MilvusStore{
		client:         c,
		collectionName: collectionName,
		dim:            dim,
		chunker:        chunker,
		embedder:       embedder,
	}, nil
}

func (s *MilvusStore) Close() error {
	return s.client.Close()
}

func (s *MilvusStore) EnsureCollection(ctx context.Context) error {
	has, err := s.client.HasCollection(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: s.collectionName,
		Description:    "Tenant knowledge base embeddings",
		Fields: []*entity.Field{
			{
				Name:       "chunk_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "tenant_id",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "document_id",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "text",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "4096"},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", s.dim),
				},
			},
		},
	}

	err = s.client.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.IP, 1024)
	if err != nil {
		return fmt.Errorf("failed to build index params: %w", err)
	}
	err = s.client.CreateIndex(ctx, s.collectionName, "embedding", idx, false)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = s.client.LoadCollection(ctx, s.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", s.collectionName))

	return nil
}

func (s *MilvusStore) AddDocument(ctx context.Context, tenantID, content string) (*IngestResult, error) {
	docID := uuid.New().String()

	pieces := s.chunker.Split(content)
	if len(pieces) == 0 {
		return &IngestResult{DocumentID: docID, ChunkCount: 0}, nil
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return nil, err
	}

	chunkIDs := make([]string, len(pieces))
	tenantIDs := make([]string, len(pieces))
	docIDs := make([]string, len(pieces))
	texts := make([]string, len(pieces))
	vectors := make([][]float32, len(pieces))

	for i, text := range pieces {
		if len(embeddings[i]) != s.dim {
			return nil, &DimensionMismatchError{Want: s.dim, Got: len(embeddings[i])}
		}
		chunkIDs[i] = uuid.New().String()
		tenantIDs[i] = tenantID
		docIDs[i] = docID
		texts[i] = text
		vectors[i] = normalizeVector(embeddings[i])
	}

	_, err = s.client.Insert(
		ctx,
		s.collectionName,
		"",
		entity.NewColumnVarChar("chunk_id", chunkIDs),
		entity.NewColumnVarChar("tenant_id", tenantIDs),
		entity.NewColumnVarChar("document_id", docIDs),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnFloatVector("embedding", s.dim, vectors),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert chunks: %w", err)
	}

	err = s.client.Flush(ctx, s.collectionName, false)
	if err != nil {
		return nil, fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Document ingested",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", docID),
		zap.Int("chunks", len(pieces)),
	)

	return &IngestResult{DocumentID: docID, ChunkCount: len(pieces)}, nil
}

func (s *MilvusStore) Search(ctx context.Context, tenantID, query string, topK int) ([]SearchResult, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(queryVec) != s.dim {
		return nil, &DimensionMismatchError{Want: s.dim, Got: len(queryVec)}
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(16)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	searchResult, err := s.client.Search(
		ctx,
		s.collectionName,
		[]string{},
		tenantFilter(tenantID),
		[]string{"chunk_id", "document_id", "text"},
		[]entity.Vector{entity.FloatVector(normalizeVector(queryVec))},
		"embedding",
		entity.IP,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0)
	for _, sr := range searchResult {
		chunkIDCol := sr.Fields.GetColumn("chunk_id")
		docIDCol := sr.Fields.GetColumn("document_id")
		textCol := sr.Fields.GetColumn("text")

		for i := 0; i < sr.ResultCount; i++ {
			chunkID, _ := chunkIDCol.Get(i)
			documentID, _ := docIDCol.Get(i)
			text, _ := textCol.Get(i)

			results = append(results, SearchResult{
				ChunkID:    chunkID.(string),
				DocumentID: documentID.(string),
				Text:       text.(string),
				Score:      float64(sr.Scores[i]),
			})
		}
	}

	logger.Debug("Vector search completed",
		zap.String("tenant_id", tenantID),
		zap.Int("topK", topK),
		zap.Int("results", len(results)),
	)

	return results, nil
}

func (s *MilvusStore) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	expr := fmt.Sprintf(`%s && document_id == "%s"`, tenantFilter(tenantID), sanitizeID(documentID))

	err := s.client.Delete(ctx, s.collectionName, "", expr)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	logger.Info("Document deleted",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", documentID),
	)

	return nil
}

func tenantFilter(tenantID string) string {
	return fmt.Sprintf(`tenant_id == "%s"`, sanitizeID(tenantID))
}

// sanitizeID strips quote characters so identifiers cannot break out of
// the filter expression.
func sanitizeID(id string) string {
	return strings.NewReplacer(`"`, "", `\`, "").Replace(id)
}
