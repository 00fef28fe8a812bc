// Package ingest provides device sample capture and rollup processing.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitalink/vitalink/internal/metrics"
	"github.com/vitalink/vitalink/internal/model"
)

const (
	// ConsumerGroup is the Redis consumer group name.
	ConsumerGroup = "ingest_workers"

	// DefaultReadCount is the max stream messages claimed per read.
	DefaultReadCount = 50

	// DefaultBlockTimeout is how long to block waiting for messages.
	DefaultBlockTimeout = 5 * time.Second

	// DefaultMaxRetries is the max retries for batch processing.
	DefaultMaxRetries = 3

	// DefaultClaimInterval is how often to scan pending messages.
	DefaultClaimInterval = 10 * time.Second

	// DefaultClaimIdle is the idle time before reclaiming pending messages.
	DefaultClaimIdle = 30 * time.Second
)

// Store is the persistence contract for the ingest worker. Raw inserts
// deduplicate on record UID; rollup refreshes recompute the touched hour and
// day buckets from the raw tier, so replaying a batch is harmless.
type Store interface {
	EnsureIngestRefs(ctx context.Context, patients, origins []string, devices []*model.Device) error
	InsertHeartRateSamples(ctx context.Context, samples []*model.HeartRateSample) error
	InsertSpO2Samples(ctx context.Context, samples []*model.SpO2Sample) error
	InsertStepsEvents(ctx context.Context, events []*model.StepsEvent) error
	RefreshHeartRateRollups(ctx context.Context, patients []string, hours []time.Time, days []string) error
	RefreshSpO2Rollups(ctx context.Context, patients []string, hours []time.Time, days []string) error
	RefreshStepsRollups(ctx context.Context, patients []string, hours []time.Time, days []string) error
}

// Worker consumes sample batches from the Redis stream and maintains the
// raw, hourly and daily tiers.
type Worker struct {
	redis         *redis.Client
	store         Store
	logger        *slog.Logger
	metrics       metrics.Recorder
	consumerID    string
	readCount     int
	blockTimeout  time.Duration
	maxRetries    int
	claimInterval time.Duration
	claimIdle     time.Duration
	claimStartID  string
	lastClaim     time.Time

	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewWorker creates a new ingest worker.
func NewWorker(client *redis.Client, store Store, logger *slog.Logger, consumerID string, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		redis:         client,
		store:         store,
		logger:        logger.With("component", "ingest.worker", "consumer_id", consumerID),
		metrics:       recorder,
		consumerID:    consumerID,
		readCount:     DefaultReadCount,
		blockTimeout:  DefaultBlockTimeout,
		maxRetries:    DefaultMaxRetries,
		claimInterval: DefaultClaimInterval,
		claimIdle:     DefaultClaimIdle,
		claimStartID:  "0-0",
	}
}

// Run starts the worker loop. Blocks until context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	if err := w.ensureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	w.logger.Info("ingest worker started")

	for {
		w.mu.Lock()
		draining := w.draining
		w.mu.Unlock()

		if draining {
			w.logger.Info("ingest worker draining, stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			w.logger.Info("ingest worker stopping")
			return ctx.Err()
		default:
			if err := w.processOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.Error("process error", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Shutdown gracefully stops the worker, completing any in-flight batch.
// It implements server.ShutdownFunc for integration with graceful shutdown.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.draining = true
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	w.logger.Info("ingest worker shutdown initiated")

	if cancel != nil {
		cancel()
	}

	if done != nil {
		select {
		case <-done:
			w.logger.Info("ingest worker shutdown complete")
			return nil
		case <-ctx.Done():
			w.logger.Warn("ingest worker shutdown timed out")
			return ctx.Err()
		}
	}
	return nil
}

// SetBlockTimeout overrides the default blocking timeout.
func (w *Worker) SetBlockTimeout(timeout time.Duration) {
	if timeout > 0 {
		w.blockTimeout = timeout
	}
}

// SetClaimInterval overrides the default pending-claim interval.
func (w *Worker) SetClaimInterval(interval time.Duration) {
	if interval > 0 {
		w.claimInterval = interval
	}
}

// SetClaimIdle overrides the default pending idle threshold.
func (w *Worker) SetClaimIdle(idle time.Duration) {
	if idle > 0 {
		w.claimIdle = idle
	}
}

// ensureConsumerGroup creates the consumer group if it doesn't exist.
func (w *Worker) ensureConsumerGroup(ctx context.Context) error {
	err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isConsumerGroupExistsError(err) {
		return err
	}
	return nil
}

// processOnce reads a chunk of stream messages and handles each batch
// individually: one uploaded batch succeeds or dead-letters on its own.
func (w *Worker) processOnce(ctx context.Context) error {
	claimed, err := w.maybeClaimPending(ctx)
	if err != nil {
		w.logger.Warn("failed to claim pending messages", "error", err)
	}

	messages := claimed
	if len(messages) == 0 {
		messages, err = w.readMessages(ctx)
		if err != nil {
			return err
		}
	}

	for _, msg := range messages {
		if err := w.handleMessage(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// handleMessage parses and persists one batch, then acknowledges it.
// Malformed batches move to the dead-letter stream; persistence failures
// leave the message pending for retry by a later claim.
func (w *Worker) handleMessage(ctx context.Context, msg redis.XMessage) error {
	b, err := parseBatch(msg)
	if err != nil {
		w.deadLetterMessage(ctx, msg, err.Error())
		return w.ackMessage(ctx, msg.ID)
	}

	if err := w.persistWithRetry(ctx, b); err != nil {
		w.logger.Error("batch persistence failed after retries",
			"message_id", msg.ID,
			"family", b.family,
			"batch_size", b.size(),
			"error", err,
		)
		for i := 0; i < b.size(); i++ {
			w.metrics.IncSampleProcessed(b.family, "failed")
		}
		// Not acked: a later pending-claim pass retries the message.
		return err
	}

	return w.ackMessage(ctx, msg.ID)
}

// maybeClaimPending checks for stuck pending messages and reclaims them.
func (w *Worker) maybeClaimPending(ctx context.Context) ([]redis.XMessage, error) {
	if w.claimInterval <= 0 || w.claimIdle <= 0 {
		return nil, nil
	}
	if !w.lastClaim.IsZero() && time.Since(w.lastClaim) < w.claimInterval {
		return nil, nil
	}

	w.lastClaim = time.Now()
	messages, start, err := w.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		MinIdle:  w.claimIdle,
		Start:    w.claimStartID,
		Count:    int64(w.readCount),
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if start != "" {
		w.claimStartID = start
	}
	return messages, nil
}

// readMessages reads new messages from the stream using XREADGROUP.
func (w *Worker) readMessages(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.readCount),
		Block:    w.blockTimeout,
	}).Result()

	if err == redis.Nil || len(streams) == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	return streams[0].Messages, nil
}

// batch is one decoded stream message: a single family's items plus the
// reference and bucket sets derived from them.
type batch struct {
	family string
	hr     []*model.HeartRateSample
	spo2   []*model.SpO2Sample
	steps  []*model.StepsEvent
}

func (b *batch) size() int {
	return len(b.hr) + len(b.spo2) + len(b.steps)
}

// parseBatch converts a stream message into typed raw rows. Any invalid
// item poisons the whole message; the endpoint validated items before
// publishing, so a failure here means a corrupted or foreign message.
func parseBatch(msg redis.XMessage) (*batch, error) {
	family, ok := msg.Values["family"].(string)
	if !ok {
		return nil, fmt.Errorf("family field missing or not a string")
	}
	payload, ok := msg.Values["payload"].(string)
	if !ok {
		return nil, fmt.Errorf("payload field missing or not a string")
	}

	b := &batch{family: family}
	switch family {
	case FamilyHeartRate:
		var items []HeartRatePayload
		if err := json.Unmarshal([]byte(payload), &items); err != nil {
			return nil, fmt.Errorf("unmarshal hr batch: %w", err)
		}
		for _, item := range items {
			sample, err := ParseHeartRateSample(item)
			if err != nil {
				return nil, fmt.Errorf("hr item %q: %w", item.RecordUID, err)
			}
			b.hr = append(b.hr, sample)
		}
	case FamilySpO2:
		var items []SpO2Payload
		if err := json.Unmarshal([]byte(payload), &items); err != nil {
			return nil, fmt.Errorf("unmarshal spo2 batch: %w", err)
		}
		for _, item := range items {
			sample, err := ParseSpO2Sample(item)
			if err != nil {
				return nil, fmt.Errorf("spo2 item %q: %w", item.RecordUID, err)
			}
			b.spo2 = append(b.spo2, sample)
		}
	case FamilySteps:
		var items []StepsEventPayload
		if err := json.Unmarshal([]byte(payload), &items); err != nil {
			return nil, fmt.Errorf("unmarshal steps batch: %w", err)
		}
		for _, item := range items {
			event, err := ParseStepsEvent(item)
			if err != nil {
				return nil, fmt.Errorf("steps item %q: %w", item.RecordUID, err)
			}
			b.steps = append(b.steps, event)
		}
	default:
		return nil, fmt.Errorf("unknown family %q", family)
	}

	if b.size() == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	return b, nil
}

// refs collects the distinct patient, origin and device references the
// batch touches, so missing rows can be provisioned before raw inserts.
func (b *batch) refs() (patients, origins []string, devices []*model.Device) {
	patientSet := make(map[string]struct{})
	originSet := make(map[string]struct{})
	deviceSet := make(map[string]string)

	collect := func(patientID, originID, deviceID string) {
		patientSet[patientID] = struct{}{}
		if originID != "" {
			originSet[originID] = struct{}{}
		}
		if deviceID != "" {
			deviceSet[deviceID] = patientID
		}
	}
	for _, s := range b.hr {
		collect(s.PatientID, s.OriginID, s.DeviceID)
	}
	for _, s := range b.spo2 {
		collect(s.PatientID, s.OriginID, s.DeviceID)
	}
	for _, s := range b.steps {
		collect(s.PatientID, s.OriginID, s.DeviceID)
	}

	for id := range patientSet {
		patients = append(patients, id)
	}
	for id := range originSet {
		origins = append(origins, id)
	}
	for id, patientID := range deviceSet {
		devices = append(devices, &model.Device{DeviceID: id, PatientID: patientID})
	}
	return patients, origins, devices
}

// buckets collects the distinct hour and day buckets the batch touches.
func (b *batch) buckets() (hours []time.Time, days []string) {
	hourSet := make(map[time.Time]struct{})
	daySet := make(map[string]struct{})

	collect := func(hour time.Time, day string) {
		hourSet[hour] = struct{}{}
		daySet[day] = struct{}{}
	}
	for _, s := range b.hr {
		collect(s.HourTs, s.DayDate)
	}
	for _, s := range b.spo2 {
		collect(s.HourTs, s.DayDate)
	}
	for _, s := range b.steps {
		collect(s.HourTs, s.DayDate)
	}

	for hour := range hourSet {
		hours = append(hours, hour)
	}
	for day := range daySet {
		days = append(days, day)
	}
	return hours, days
}

// persistWithRetry attempts to persist a batch with exponential backoff.
func (w *Worker) persistWithRetry(ctx context.Context, b *batch) error {
	var lastErr error

	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		if err := w.persistBatch(ctx, b); err != nil {
			lastErr = err
			backoff := time.Duration(1<<attempt) * time.Second
			w.logger.Warn("batch persistence failed, retrying",
				"attempt", attempt,
				"backoff_seconds", backoff.Seconds(),
				"error", err,
			)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			continue
		}
		return nil
	}
	return lastErr
}

// persistBatch provisions references, inserts raw rows and refreshes the
// rollup tiers the batch touches.
func (w *Worker) persistBatch(ctx context.Context, b *batch) error {
	start := time.Now()

	patients, origins, devices := b.refs()
	if err := w.store.EnsureIngestRefs(ctx, patients, origins, devices); err != nil {
		return fmt.Errorf("ensure refs: %w", err)
	}

	hours, days := b.buckets()
	switch b.family {
	case FamilyHeartRate:
		if err := w.store.InsertHeartRateSamples(ctx, b.hr); err != nil {
			return fmt.Errorf("insert hr samples: %w", err)
		}
		if err := w.store.RefreshHeartRateRollups(ctx, patients, hours, days); err != nil {
			return fmt.Errorf("refresh hr rollups: %w", err)
		}
	case FamilySpO2:
		if err := w.store.InsertSpO2Samples(ctx, b.spo2); err != nil {
			return fmt.Errorf("insert spo2 samples: %w", err)
		}
		if err := w.store.RefreshSpO2Rollups(ctx, patients, hours, days); err != nil {
			return fmt.Errorf("refresh spo2 rollups: %w", err)
		}
	case FamilySteps:
		if err := w.store.InsertStepsEvents(ctx, b.steps); err != nil {
			return fmt.Errorf("insert steps events: %w", err)
		}
		if err := w.store.RefreshStepsRollups(ctx, patients, hours, days); err != nil {
			return fmt.Errorf("refresh steps rollups: %w", err)
		}
	}

	w.logger.Info("batch persisted",
		"family", b.family,
		"items", b.size(),
		"hours", len(hours),
		"days", len(days),
		"duration_ms", float64(time.Since(start).Microseconds())/1000,
	)

	w.metrics.ObserveIngestBatchSize(b.size())
	w.metrics.ObserveIngestBatchDuration(time.Since(start))
	for i := 0; i < b.size(); i++ {
		w.metrics.IncSampleProcessed(b.family, "success")
	}
	return nil
}

// deadLetterMessage moves a poison message to the dead-letter stream.
func (w *Worker) deadLetterMessage(ctx context.Context, msg redis.XMessage, detail string) {
	w.logger.Warn("dead-lettering poison batch",
		"message_id", msg.ID,
		"detail", detail,
	)

	family, _ := msg.Values["family"].(string)
	_, err := w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: 10000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"original_id":      msg.ID,
			"original_stream":  StreamKey,
			"detail":           detail,
			"family":           family,
			"payload":          msg.Values["payload"],
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Result()

	if err != nil {
		w.logger.Error("failed to write to dead-letter stream",
			"message_id", msg.ID,
			"error", err,
		)
	}

	w.metrics.IncSampleProcessed(family, "dead_lettered")
}

// ackMessage acknowledges a processed message.
func (w *Worker) ackMessage(ctx context.Context, messageID string) error {
	if _, err := w.redis.XAck(ctx, StreamKey, ConsumerGroup, messageID).Result(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

// isConsumerGroupExistsError checks if the error is "BUSYGROUP" (group exists).
func isConsumerGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
