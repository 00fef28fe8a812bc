// Package ingest provides device sample capture and rollup processing.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitalink/vitalink/internal/metrics"
)

const (
	// StreamKey is the Redis stream for device sample batches.
	StreamKey = "stream:health_samples"

	// DeadLetterStreamKey is the Redis stream for poison batches.
	DeadLetterStreamKey = "stream:health_samples:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 2 * time.Second
)

// Publisher enqueues sample batches to the Redis stream. One stream message
// carries one uploaded batch of a single metric family.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new sample batch publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "ingest.publisher"),
		metrics: recorder,
	}
}

// Publish adds one batch to the stream. The payload is the JSON array of
// items exactly as validated at the ingest endpoint; the family field tells
// the worker how to decode it.
func (p *Publisher) Publish(ctx context.Context, family string, count int, payload []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"family":  family,
			"count":   count,
			"payload": string(payload),
		},
	}).Result()

	if err != nil {
		p.metrics.IncSamplePublished(family, "dropped")
		return "", fmt.Errorf("xadd: %w", err)
	}

	p.logger.Debug("sample batch published",
		"family", family,
		"count", count,
		"stream_id", result,
	)
	p.metrics.IncSamplePublished(family, "success")
	return result, nil
}
