// Package archive persists indexed documents to Postgres so the in-memory
// index can be rebuilt on startup. The index itself stays the source of
// truth for serving; the archive is a durable log of what was indexed.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/minerva-search/minerva/internal/index"
	"github.com/minerva-search/minerva/pkg/metrics"
	"github.com/minerva-search/minerva/pkg/postgres"
	"github.com/minerva-search/minerva/pkg/resilience"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id          BIGINT PRIMARY KEY,
    text        TEXT NOT NULL,
    token_count INTEGER NOT NULL DEFAULT 0,
    indexed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Archive writes documents to Postgres and replays them on startup.
type Archive struct {
	client  *postgres.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Archive. metrics may be nil.
func New(client *postgres.Client, m *metrics.Metrics) *Archive {
	return &Archive{
		client:  client,
		metrics: m,
		logger:  slog.Default().With("component", "archive"),
	}
}

// EnsureSchema creates the documents table if it does not exist.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

// Save persists one document, retrying transient failures. Saving the same
// id twice is a no-op so replayed ingest events stay idempotent.
func (a *Archive) Save(ctx context.Context, id index.DocID, text string, tokenCount int) error {
	err := resilience.Retry(ctx, "archive-save", resilience.RetryConfig{}, func() error {
		_, execErr := a.client.DB.ExecContext(ctx,
			`INSERT INTO documents (id, text, token_count, indexed_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO NOTHING`,
			int64(id), text, tokenCount, time.Now().UTC(),
		)
		return execErr
	})
	if err != nil {
		a.recordWrite("error")
		return fmt.Errorf("archiving document %d: %w", id, err)
	}
	a.recordWrite("success")
	return nil
}

// Replay streams archived document texts in id order, calling fn for each.
// Used at startup to rebuild the in-memory index; because ids are assigned
// densely in insertion order, replaying in id order reproduces them.
func (a *Archive) Replay(ctx context.Context, fn func(text string) error) (int, error) {
	rows, err := a.client.DB.QueryContext(ctx,
		`SELECT text FROM documents ORDER BY id ASC`)
	if err != nil {
		return 0, fmt.Errorf("querying archived documents: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return count, fmt.Errorf("scanning archived document: %w", err)
		}
		if err := fn(text); err != nil {
			return count, fmt.Errorf("replaying document %d: %w", count, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("iterating archived documents: %w", err)
	}
	a.logger.Info("archive replay complete", "documents", count)
	return count, nil
}

// Count returns the number of archived documents.
func (a *Archive) Count(ctx context.Context) (int64, error) {
	var n int64
	err := a.client.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents`).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("counting archived documents: %w", err)
	}
	return n, nil
}

func (a *Archive) recordWrite(status string) {
	if a.metrics != nil {
		a.metrics.ArchiveWritesTotal.WithLabelValues(status).Inc()
	}
}
