package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder maps known phrases to fixed vectors so similarity ordering
// is deterministic without a network call.
type stubEmbedder struct {
	vectors map[string][]float32
	fallback []float32
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{
		vectors:  make(map[string][]float32),
		fallback: []float32{0, 0, 1},
	}
}

func (s *stubEmbedder) set(text string, vec []float32) {
	s.vectors[text] = vec
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return s.fallback, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func TestMemoryStore_AddDocument_EmptyContent(t *testing.T) {
	store := NewMemoryStore(NewChunker(800, 200), newStubEmbedder())

	result, err := store.AddDocument(context.Background(), "tenant-a", "")

	require.NoError(t, err)
	assert.Equal(t, 0, result.ChunkCount)
}

func TestMemoryStore_SearchRanksByScore(t *testing.T) {
	emb := newStubEmbedder()
	emb.set("randevu saatleri", []float32{1, 0, 0})
	emb.set("Randevular hafta içi alınabilir.", []float32{0.9, 0.1, 0})
	emb.set("Otopark ücretsizdir.", []float32{0, 1, 0})

	store := NewMemoryStore(NewChunker(800, 200), emb)
	ctx := context.Background()

	_, err := store.AddDocument(ctx, "tenant-a", "Randevular hafta içi alınabilir.")
	require.NoError(t, err)
	_, err = store.AddDocument(ctx, "tenant-a", "Otopark ücretsizdir.")
	require.NoError(t, err)

	results, err := store.Search(ctx, "tenant-a", "randevu saatleri", 5)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Randevular hafta içi alınabilir.", results[0].Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryStore_TenantIsolation(t *testing.T) {
	store := NewMemoryStore(NewChunker(800, 200), newStubEmbedder())
	ctx := context.Background()

	_, err := store.AddDocument(ctx, "tenant-a", "Tenant A private knowledge.")
	require.NoError(t, err)
	_, err = store.AddDocument(ctx, "tenant-b", "Tenant B private knowledge.")
	require.NoError(t, err)

	results, err := store.Search(ctx, "tenant-a", "knowledge", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Tenant A private knowledge.", results[0].Text)

	results, err = store.Search(ctx, "tenant-c", "knowledge", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStore_DeleteDocumentRemovesChunks(t *testing.T) {
	store := NewMemoryStore(NewChunker(800, 200), newStubEmbedder())
	ctx := context.Background()

	ingest, err := store.AddDocument(ctx, "tenant-a", "Some document content.")
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocument(ctx, "tenant-a", ingest.DocumentID))

	results, err := store.Search(ctx, "tenant-a", "content", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStore_TopKLimitsResults(t *testing.T) {
	store := NewMemoryStore(NewChunker(800, 200), newStubEmbedder())
	ctx := context.Background()

	for _, doc := range []string{"Doc one.", "Doc two.", "Doc three."} {
		_, err := store.AddDocument(ctx, "tenant-a", doc)
		require.NoError(t, err)
	}

	results, err := store.Search(ctx, "tenant-a", "doc", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
