package sqlite

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartflow/voice-core/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema())
	return client
}

func TestSaveTurn_RecentTurns(t *testing.T) {
	client := newTestClient(t)

	for i := 0; i < 5; i++ {
		err := client.SaveTurn(&models.TurnRecord{
			ID:         fmt.Sprintf("turn-%d", i),
			SessionID:  "sess-1",
			TenantID:   "clinic-a",
			Utterance:  "randevu almak istiyorum",
			Intent:     "appointment",
			Confidence: "high",
			Language:   "tr",
			Response:   "Tabii, hangi gün uygun?",
			Approved:   true,
			LatencyMS:  120,
		})
		require.NoError(t, err)
	}

	err := client.SaveTurn(&models.TurnRecord{
		ID:         "turn-other",
		TenantID:   "clinic-b",
		Utterance:  "what are your prices",
		Intent:     "pricing",
		Confidence: "medium",
		Language:   "en",
		Approved:   false,
		Violations: []string{"pricing"},
	})
	require.NoError(t, err)

	turns, err := client.RecentTurns("clinic-a", 0)
	require.NoError(t, err)
	assert.Len(t, turns, 5)
	for _, turn := range turns {
		assert.Equal(t, "clinic-a", turn.TenantID)
		assert.True(t, turn.Approved)
		assert.Empty(t, turn.Violations)
	}

	limited, err := client.RecentTurns("clinic-a", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRecentTurns_ViolationsRoundTrip(t *testing.T) {
	client := newTestClient(t)

	err := client.SaveTurn(&models.TurnRecord{
		ID:         "turn-1",
		TenantID:   "clinic-a",
		Utterance:  "how much is a filling",
		Intent:     "pricing",
		Confidence: "high",
		Language:   "en",
		Response:   "",
		Approved:   false,
		Violations: []string{"pricing", "identity"},
	})
	require.NoError(t, err)

	turns, err := client.RecentTurns("clinic-a", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.False(t, turns[0].Approved)
	assert.Equal(t, []string{"pricing", "identity"}, turns[0].Violations)
}

func TestViolationStats(t *testing.T) {
	client := newTestClient(t)

	rejected := [][]string{
		{"pricing"},
		{"pricing", "medical_advice"},
		{"identity"},
	}
	for i, categories := range rejected {
		err := client.SaveTurn(&models.TurnRecord{
			ID:         fmt.Sprintf("turn-%d", i),
			TenantID:   "clinic-a",
			Utterance:  "utterance",
			Intent:     "pricing",
			Confidence: "high",
			Language:   "en",
			Approved:   false,
			Violations: categories,
		})
		require.NoError(t, err)
	}

	// Approved turns never count, whatever their violations field says.
	err := client.SaveTurn(&models.TurnRecord{
		ID:         "turn-ok",
		TenantID:   "clinic-a",
		Utterance:  "utterance",
		Intent:     "general",
		Confidence: "high",
		Language:   "en",
		Approved:   true,
	})
	require.NoError(t, err)

	stats, err := client.ViolationStats("clinic-a", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	counts := make(map[string]int)
	for _, stat := range stats {
		counts[stat.Category] = stat.Count
	}
	assert.Equal(t, 2, counts["pricing"])
	assert.Equal(t, 1, counts["medical_advice"])
	assert.Equal(t, 1, counts["identity"])

	future, err := client.ViolationStats("clinic-a", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, future)

	other, err := client.ViolationStats("clinic-b", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestDocuments_UpsertListDelete(t *testing.T) {
	client := newTestClient(t)

	doc := &models.Document{
		ID:         "doc-1",
		TenantID:   "clinic-a",
		Title:      "Services",
		SourceURL:  "https://clinic-a.example/services",
		ChunkCount: 3,
	}
	require.NoError(t, client.UpsertDocument(doc))

	doc.ChunkCount = 7
	require.NoError(t, client.UpsertDocument(doc))

	docs, err := client.ListDocuments("clinic-a")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 7, docs[0].ChunkCount)

	// Deletes are tenant-scoped.
	err = client.DeleteDocument("clinic-b", "doc-1")
	assert.Error(t, err)

	require.NoError(t, client.DeleteDocument("clinic-a", "doc-1"))

	docs, err = client.ListDocuments("clinic-a")
	require.NoError(t, err)
	assert.Empty(t, docs)
}
