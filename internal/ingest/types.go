// Package ingest moves documents through Kafka: the publisher turns an HTTP
// ingest request into an event, and the consumer indexes and archives events
// as they arrive. The topic decouples write bursts from index mutation rate.
package ingest

import "time"

// Request is the payload accepted on the async ingest endpoint.
type Request struct {
	Text string `json:"text"`
}

// Event is the wire format published to the ingest topic.
type Event struct {
	ContentHash string    `json:"content_hash"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}
