package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/minerva-search/minerva/pkg/errors"
	"github.com/minerva-search/minerva/pkg/kafka"
	"github.com/minerva-search/minerva/pkg/metrics"
	"github.com/minerva-search/minerva/pkg/resilience"
)

// Publisher submits documents to the ingest topic.
type Publisher struct {
	producer *kafka.Producer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewPublisher creates a Publisher. metrics may be nil.
func NewPublisher(producer *kafka.Producer, m *metrics.Metrics) *Publisher {
	return &Publisher{
		producer: producer,
		metrics:  m,
		logger:   slog.Default().With("component", "ingest-publisher"),
	}
}

// Publish wraps text in an Event and writes it to Kafka, retrying transient
// broker failures. The content hash keys the message so identical documents
// land on the same partition.
func (p *Publisher) Publish(ctx context.Context, text string) (string, error) {
	sum := sha256.Sum256([]byte(text))
	hash := hex.EncodeToString(sum[:16])
	event := Event{
		ContentHash: hash,
		Text:        text,
		SubmittedAt: time.Now().UTC(),
	}
	err := resilience.Retry(ctx, "ingest-publish", resilience.RetryConfig{}, func() error {
		return p.producer.Publish(ctx, kafka.Event{Key: hash, Value: event})
	})
	if err != nil {
		p.recordEvent("error")
		p.logger.Error("failed to publish ingest event", "content_hash", hash, "error", err)
		return "", apperrors.Newf(apperrors.ErrUnavailable, http.StatusServiceUnavailable,
			"publishing ingest event: %v", err)
	}
	p.recordEvent("published")
	p.logger.Debug("ingest event published", "content_hash", hash, "text_len", len(text))
	return hash, nil
}

func (p *Publisher) recordEvent(status string) {
	if p.metrics != nil {
		p.metrics.IngestEventsTotal.WithLabelValues(status).Inc()
	}
}
