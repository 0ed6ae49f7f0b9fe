package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minerva-search/minerva/internal/archive"
	"github.com/minerva-search/minerva/internal/engine"
	"github.com/minerva-search/minerva/internal/tokenizer"
	"github.com/minerva-search/minerva/pkg/kafka"
	"github.com/minerva-search/minerva/pkg/metrics"
)

// Indexer consumes ingest events and applies them to the engine, archiving
// each document when an archive is configured.
type Indexer struct {
	engine  *engine.Engine
	archive *archive.Archive
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewIndexer creates an Indexer. archive and metrics may be nil.
func NewIndexer(e *engine.Engine, a *archive.Archive, m *metrics.Metrics) *Indexer {
	return &Indexer{
		engine:  e,
		archive: a,
		metrics: m,
		logger:  slog.Default().With("component", "ingest-indexer"),
	}
}

// Handler returns the kafka.MessageHandler that decodes and indexes events.
// Archive failures are logged but do not fail the message: the document is
// already live in the index, and re-delivering would double-index it.
func (ix *Indexer) Handler() kafka.MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		event, err := kafka.DecodeJSON[Event](value)
		if err != nil {
			ix.recordEvent("error")
			return fmt.Errorf("decoding ingest event: %w", err)
		}
		id := ix.engine.IndexDocument(event.Text)
		ix.recordEvent("consumed")

		if ix.archive != nil {
			tokenCount := len(tokenizer.Split(event.Text))
			if err := ix.archive.Save(ctx, id, event.Text, tokenCount); err != nil {
				ix.logger.Error("failed to archive ingested document",
					"doc_id", id,
					"content_hash", event.ContentHash,
					"error", err,
				)
			}
		}
		ix.logger.Debug("ingest event indexed",
			"doc_id", id,
			"content_hash", event.ContentHash,
		)
		return nil
	}
}

func (ix *Indexer) recordEvent(status string) {
	if ix.metrics != nil {
		ix.metrics.IngestEventsTotal.WithLabelValues(status).Inc()
	}
}
