package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartflow/voice-core/internal/guardrail"
	"github.com/smartflow/voice-core/internal/inference"
	"github.com/smartflow/voice-core/internal/intent"
	"github.com/smartflow/voice-core/internal/metrics"
	"github.com/smartflow/voice-core/internal/prompt"
	"github.com/smartflow/voice-core/internal/semantic"
	"github.com/smartflow/voice-core/internal/storage/models"
	"github.com/smartflow/voice-core/internal/storage/sqlite"
	"github.com/smartflow/voice-core/internal/tenant"
	"github.com/smartflow/voice-core/pkg/logger"
)

// Generator produces a candidate reply from an assembled system prompt
// and the caller's utterance.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, utterance string) (string, error)
}

// Turn is one fully processed utterance.
type Turn struct {
	Response   string                     `json:"response"`
	Intent     intent.Result              `json:"intent"`
	Grounding  []semantic.SearchResult    `json:"grounding,omitempty"`
	Validation guardrail.ValidationResult `json:"validation"`
	Fallback   bool                       `json:"fallback"`
	LatencyMS  int64                      `json:"latency_ms"`
}

// Engine runs the full decision path for one utterance: classify,
// retrieve grounding, assemble the prompt, generate, validate. A
// rejected candidate is replaced with the canned safe reply, never
// surfaced to the caller.
type Engine struct {
	tenants    *tenant.Store
	classifier *intent.Classifier
	store      semantic.Store
	generator  Generator
	validator  *guardrail.Validator
	lifecycle  *inference.Manager
	db         *sqlite.Client
	topK       int
}

type Config struct {
	Tenants    *tenant.Store
	Classifier *intent.Classifier
	Store      semantic.Store
	Generator  Generator
	Validator  *guardrail.Validator
	Lifecycle  *inference.Manager
	DB         *sqlite.Client
	TopK       int
}

func NewEngine(cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &Engine{
		tenants:    cfg.Tenants,
		classifier: cfg.Classifier,
		store:      cfg.Store,
		generator:  cfg.Generator,
		validator:  cfg.Validator,
		lifecycle:  cfg.Lifecycle,
		db:         cfg.DB,
		topK:       cfg.TopK,
	}
}

// Respond processes one utterance for a tenant. sessionID may be empty
// for stateless callers.
func (e *Engine) Respond(ctx context.Context, tenantID, sessionID, utterance string, langHint intent.Language) (*Turn, error) {
	start := time.Now()

	profile, ok := e.tenants.Get(tenantID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTenant, tenantID)
	}

	result := e.classifier.Classify(utterance, langHint)
	metrics.IntentDetected.WithLabelValues(
		string(result.Intent), string(result.Confidence), string(result.Language)).Inc()

	if e.lifecycle != nil && !e.lifecycle.EnsureReady(ctx) {
		metrics.TurnTotal.WithLabelValues(tenantID, "backend_unavailable").Inc()
		return nil, ErrBackendUnavailable
	}

	grounding := e.retrieve(ctx, tenantID, utterance)

	systemPrompt := prompt.Build(profile, grounding, result.Intent, result.Language)

	candidate, err := e.generator.Generate(ctx, systemPrompt, utterance)
	if err != nil {
		logger.Error("Generation failed, using safe response",
			zap.String("tenant_id", tenantID), zap.Error(err))
		candidate = ""
	}

	turn := e.validate(tenantID, candidate, grounding, result, profile.Guardrail)
	turn.LatencyMS = time.Since(start).Milliseconds()

	e.record(tenantID, sessionID, utterance, result, turn)

	status := "ok"
	if turn.Fallback {
		status = "fallback"
	}
	metrics.TurnTotal.WithLabelValues(tenantID, status).Inc()
	metrics.TurnDuration.WithLabelValues(tenantID).Observe(time.Since(start).Seconds())

	return turn, nil
}

func (e *Engine) retrieve(ctx context.Context, tenantID, utterance string) []semantic.SearchResult {
	searchStart := time.Now()

	grounding, err := e.store.Search(ctx, tenantID, utterance, e.topK)
	if err != nil {
		// Missing grounding degrades to the guardrail's grounding gate,
		// which falls back to a canned reply.
		logger.Warn("Semantic search failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return nil
	}

	metrics.SearchDuration.WithLabelValues("semantic").Observe(time.Since(searchStart).Seconds())
	metrics.SearchResultsCount.Observe(float64(len(grounding)))
	if len(grounding) > 0 {
		metrics.GroundingScore.Observe(grounding[0].Score)
	}

	return grounding
}

func (e *Engine) validate(tenantID, candidate string, grounding []semantic.SearchResult, result intent.Result, policy guardrail.Policy) *Turn {
	validation := e.validator.Validate(candidate, grounding, policy)

	turn := &Turn{
		Response:   candidate,
		Intent:     result,
		Grounding:  grounding,
		Validation: validation,
	}

	if candidate == "" || !validation.Approved {
		for _, v := range validation.Violations {
			metrics.GuardrailViolations.WithLabelValues(tenantID, string(v.Category)).Inc()
		}
		metrics.GuardrailFallbacks.WithLabelValues(tenantID).Inc()

		turn.Response = intent.SafeResponse(result.Intent, result.Language)
		turn.Fallback = true

		logger.Info("Candidate rejected, safe response substituted",
			zap.String("tenant_id", tenantID),
			zap.String("intent", string(result.Intent)),
			zap.Int("violations", len(validation.Violations)),
		)
	}

	return turn
}

func (e *Engine) record(tenantID, sessionID, utterance string, result intent.Result, turn *Turn) {
	if e.db == nil {
		return
	}

	categories := make([]string, 0, len(turn.Validation.Violations))
	for _, v := range turn.Validation.Violations {
		categories = append(categories, string(v.Category))
	}

	err := e.db.SaveTurn(&models.TurnRecord{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		TenantID:   tenantID,
		Utterance:  utterance,
		Intent:     string(result.Intent),
		Confidence: string(result.Confidence),
		Language:   string(result.Language),
		Response:   turn.Response,
		Approved:   !turn.Fallback,
		Violations: categories,
		LatencyMS:  int(turn.LatencyMS),
	})
	if err != nil {
		logger.Warn("Failed to persist turn", zap.Error(err))
	}
}
