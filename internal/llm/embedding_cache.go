package llm

import (
	"context"

	"go.uber.org/zap"

	cache "github.com/smartflow/voice-core/internal/cache/redis"
	"github.com/smartflow/voice-core/internal/metrics"
	"github.com/smartflow/voice-core/internal/semantic"
	"github.com/smartflow/voice-core/pkg/logger"
)

// CachedEmbedder decorates an Embedder with a redis cache. Cache failures
// degrade to the underlying provider; they are logged, never surfaced.
type CachedEmbedder struct {
	inner semantic.Embedder
	cache *cache.Client
}

func NewCachedEmbedder(inner semantic.Embedder, cacheClient *cache.Client) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cacheClient}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vector, ok, err := e.cache.GetEmbedding(ctx, text); err != nil {
		logger.Warn("Embedding cache read failed", zap.Error(err))
	} else if ok {
		metrics.CacheHits.WithLabelValues("embedding").Inc()
		return vector, nil
	}
	metrics.CacheMisses.WithLabelValues("embedding").Inc()

	vector, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.cache.SetEmbedding(ctx, text, vector); err != nil {
		logger.Warn("Embedding cache write failed", zap.Error(err))
	}

	return vector, nil
}

func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	missing := make([]string, 0, len(texts))
	missingIdx := make([]int, 0, len(texts))

	for i, text := range texts {
		if vector, ok, err := e.cache.GetEmbedding(ctx, text); err == nil && ok {
			metrics.CacheHits.WithLabelValues("embedding").Inc()
			vectors[i] = vector
			continue
		}
		metrics.CacheMisses.WithLabelValues("embedding").Inc()
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		fresh, err := e.inner.EmbedBatch(ctx, missing)
		if err != nil {
			return nil, err
		}
		for j, vector := range fresh {
			vectors[missingIdx[j]] = vector
			if err := e.cache.SetEmbedding(ctx, missing[j], vector); err != nil {
				logger.Warn("Embedding cache write failed", zap.Error(err))
			}
		}
	}

	return vectors, nil
}
