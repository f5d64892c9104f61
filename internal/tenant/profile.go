package tenant

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/smartflow/voice-core/internal/guardrail"
	"github.com/smartflow/voice-core/internal/intent"
	"github.com/smartflow/voice-core/pkg/logger"
)

// Profile is one tenant's voice persona and business facts. The core
// never writes profiles; they come from the platform's configuration
// store.
type Profile struct {
	ID            string           `mapstructure:"id"`
	AgentName     string           `mapstructure:"agentName"`
	Greeting      string           `mapstructure:"greeting"`
	Personality   string           `mapstructure:"personality"`
	BusinessHours string           `mapstructure:"businessHours"`
	ContactInfo   string           `mapstructure:"contactInfo"`
	Language      intent.Language  `mapstructure:"language"`
	Guardrail     guardrail.Policy `mapstructure:"guardrail"`
}

// Store holds tenant profiles loaded from a YAML file. Reload replaces
// the whole map atomically.
type Store struct {
	mu       sync.RWMutex
	path     string
	profiles map[string]Profile
}

func NewStore(path string) (*Store, error) {
	s := &Store{path: path, profiles: make(map[string]Profile)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore builds a store from in-memory profiles. Reload is a
// no-op for static stores.
func NewStaticStore(profiles ...Profile) *Store {
	s := &Store{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if p.Language == "" {
			p.Language = intent.LanguageTR
		}
		s.profiles[p.ID] = p
	}
	return s
}

func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(s.path)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read tenants file: %w", err)
	}

	var file struct {
		Tenants []Profile `mapstructure:"tenants"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return fmt.Errorf("failed to unmarshal tenants file: %w", err)
	}

	profiles := make(map[string]Profile, len(file.Tenants))
	for _, p := range file.Tenants {
		if p.Language == "" {
			p.Language = intent.LanguageTR
		}
		profiles[p.ID] = p
	}

	s.mu.Lock()
	s.profiles = profiles
	s.mu.Unlock()

	logger.Info("Tenant profiles loaded", zap.Int("count", len(profiles)))

	return nil
}

func (s *Store) Get(tenantID string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[tenantID]
	return p, ok
}
