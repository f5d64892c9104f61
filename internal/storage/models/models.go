package models

import "time"

// Document is the registry entry for an ingested knowledge document.
// The chunk vectors themselves live in the semantic store; this table
// is the source of truth for what each tenant has uploaded.
type Document struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Title      string    `json:"title"`
	SourceURL  string    `json:"source_url"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TurnRecord is one processed utterance, kept for tenant analytics and
// guardrail audits.
type TurnRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	TenantID   string    `json:"tenant_id"`
	Utterance  string    `json:"utterance"`
	Intent     string    `json:"intent"`
	Confidence string    `json:"confidence"`
	Language   string    `json:"language"`
	Response   string    `json:"response"`
	Approved   bool      `json:"approved"`
	Violations []string  `json:"violations,omitempty"`
	LatencyMS  int       `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// ViolationStat aggregates guardrail rejections per category for the
// status endpoint.
type ViolationStat struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
