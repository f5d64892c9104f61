package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return NewClientFromRedis(client, time.Hour), mr
}

func TestEmbedding_SetGet(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	vector := []float32{0.1, 0.2, 0.3}
	require.NoError(t, client.SetEmbedding(ctx, "merhaba", vector))

	got, found, err := client.GetEmbedding(ctx, "merhaba")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, vector, got)

	_, found, err = client.GetEmbedding(ctx, "never cached")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFlushEmbeddings(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SetEmbedding(ctx, "first text", []float32{1}))
	require.NoError(t, client.SetEmbedding(ctx, "second text", []float32{2}))
	mr.Set("session:unrelated", "keep")

	require.NoError(t, client.FlushEmbeddings(ctx))

	_, found, err := client.GetEmbedding(ctx, "first text")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = client.GetEmbedding(ctx, "second text")
	require.NoError(t, err)
	assert.False(t, found)

	// Only embedding keys are swept.
	assert.True(t, mr.Exists("session:unrelated"))
}
