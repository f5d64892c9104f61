package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/smartflow/voice-core/internal/storage/models"
	"github.com/smartflow/voice-core/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		title TEXT NOT NULL,
		source_url TEXT,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_tenant ON documents(tenant_id);

	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		tenant_id TEXT NOT NULL,
		utterance TEXT NOT NULL,
		intent TEXT NOT NULL,
		confidence TEXT NOT NULL,
		language TEXT NOT NULL,
		response TEXT,
		approved INTEGER NOT NULL DEFAULT 1,
		violations TEXT,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_tenant ON turns(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id);
	CREATE INDEX IF NOT EXISTS idx_turns_created ON turns(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("Database schema initialized")
	return nil
}

func (c *Client) UpsertDocument(doc *models.Document) error {
	now := time.Now().Unix()

	_, err := c.db.Exec(`
		INSERT INTO documents (id, tenant_id, title, source_url, chunk_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			source_url = excluded.source_url,
			chunk_count = excluded.chunk_count,
			updated_at = excluded.updated_at
	`, doc.ID, doc.TenantID, doc.Title, doc.SourceURL, doc.ChunkCount, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func (c *Client) DeleteDocument(tenantID, documentID string) error {
	res, err := c.db.Exec(`DELETE FROM documents WHERE id = ? AND tenant_id = ?`, documentID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (c *Client) ListDocuments(tenantID string) ([]*models.Document, error) {
	rows, err := c.db.Query(`
		SELECT id, tenant_id, title, source_url, chunk_count, created_at, updated_at
		FROM documents
		WHERE tenant_id = ?
		ORDER BY updated_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		var createdAt, updatedAt int64

		if err := rows.Scan(&doc.ID, &doc.TenantID, &doc.Title, &doc.SourceURL, &doc.ChunkCount, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		doc.CreatedAt = time.Unix(createdAt, 0)
		doc.UpdatedAt = time.Unix(updatedAt, 0)
		docs = append(docs, &doc)
	}

	return docs, rows.Err()
}

func (c *Client) SaveTurn(turn *models.TurnRecord) error {
	violations, err := json.Marshal(turn.Violations)
	if err != nil {
		return fmt.Errorf("failed to marshal violations: %w", err)
	}

	approved := 0
	if turn.Approved {
		approved = 1
	}

	_, err = c.db.Exec(`
		INSERT INTO turns (id, session_id, tenant_id, utterance, intent, confidence, language, response, approved, violations, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, turn.ID, turn.SessionID, turn.TenantID, turn.Utterance, turn.Intent, turn.Confidence,
		turn.Language, turn.Response, approved, string(violations), turn.LatencyMS, time.Now().Unix())

	if err != nil {
		return fmt.Errorf("failed to save turn: %w", err)
	}
	return nil
}

func (c *Client) RecentTurns(tenantID string, limit int) ([]*models.TurnRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := c.db.Query(`
		SELECT id, session_id, tenant_id, utterance, intent, confidence, language, response, approved, violations, latency_ms, created_at
		FROM turns
		WHERE tenant_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []*models.TurnRecord
	for rows.Next() {
		var turn models.TurnRecord
		var approved int
		var violations string
		var createdAt int64

		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.TenantID, &turn.Utterance, &turn.Intent,
			&turn.Confidence, &turn.Language, &turn.Response, &approved, &violations, &turn.LatencyMS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}

		turn.Approved = approved == 1
		turn.CreatedAt = time.Unix(createdAt, 0)
		if violations != "" {
			if err := json.Unmarshal([]byte(violations), &turn.Violations); err != nil {
				return nil, fmt.Errorf("failed to unmarshal violations: %w", err)
			}
		}

		turns = append(turns, &turn)
	}

	return turns, rows.Err()
}

func (c *Client) ViolationStats(tenantID string, since time.Time) ([]*models.ViolationStat, error) {
	rows, err := c.db.Query(`
		SELECT violations FROM turns
		WHERE tenant_id = ? AND approved = 0 AND created_at >= ?
	`, tenantID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan violations: %w", err)
		}
		if raw == "" {
			continue
		}

		var categories []string
		if err := json.Unmarshal([]byte(raw), &categories); err != nil {
			continue
		}
		for _, category := range categories {
			counts[category]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := make([]*models.ViolationStat, 0, len(counts))
	for category, count := range counts {
		stats = append(stats, &models.ViolationStat{Category: category, Count: count})
	}
	return stats, nil
}
