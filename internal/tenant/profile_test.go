package tenant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartflow/voice-core/internal/intent"
)

func TestStoreLoadsProfilesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	data := `tenants:
  - id: clinic-a
    agentName: Ayşe
    greeting: "Merhaba, size nasıl yardımcı olabilirim?"
    businessHours: "Hafta içi 09:00-18:00"
    guardrail:
      allowPriceQuotes: true
      competitorNames: ["RakipKlinik"]
  - id: shop-b
    agentName: Emma
    language: en
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	store, err := NewStore(path)
	require.NoError(t, err)

	clinic, ok := store.Get("clinic-a")
	require.True(t, ok)
	assert.Equal(t, "Ayşe", clinic.AgentName)
	assert.Equal(t, intent.LanguageTR, clinic.Language, "language defaults to tr")
	assert.True(t, clinic.Guardrail.AllowPriceQuotes)
	assert.Equal(t, []string{"RakipKlinik"}, clinic.Guardrail.CompetitorNames)

	shop, ok := store.Get("shop-b")
	require.True(t, ok)
	assert.Equal(t, intent.LanguageEN, shop.Language)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestStoreReloadReplacesProfiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tenants:\n  - id: clinic-a\n    agentName: Ayşe\n"), 0o644))

	store, err := NewStore(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("tenants:\n  - id: clinic-b\n    agentName: Zeynep\n"), 0o644))
	require.NoError(t, store.Reload())

	_, ok := store.Get("clinic-a")
	assert.False(t, ok)
	_, ok = store.Get("clinic-b")
	assert.True(t, ok)
}

func TestStoreRejectsMissingFile(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
