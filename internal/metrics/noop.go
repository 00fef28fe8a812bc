package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncLoginSuccess is a no-op.
func (n *NoopRecorder) IncLoginSuccess() {}

// IncLoginFailure is a no-op.
func (n *NoopRecorder) IncLoginFailure(reason string) {}

// IncSummaryRequest is a no-op.
func (n *NoopRecorder) IncSummaryRequest(status string) {}

// ObserveSummaryDuration is a no-op.
func (n *NoopRecorder) ObserveSummaryDuration(duration time.Duration) {}

// ObserveSummaryDays is a no-op.
func (n *NoopRecorder) ObserveSummaryDays(days int) {}

// IncHealthEventCreated is a no-op.
func (n *NoopRecorder) IncHealthEventCreated(eventType string) {}

// IncSamplePublished is a no-op.
func (n *NoopRecorder) IncSamplePublished(family, status string) {}

// IncSampleProcessed is a no-op.
func (n *NoopRecorder) IncSampleProcessed(family, status string) {}

// ObserveIngestBatchSize is a no-op.
func (n *NoopRecorder) ObserveIngestBatchSize(size int) {}

// ObserveIngestBatchDuration is a no-op.
func (n *NoopRecorder) ObserveIngestBatchDuration(duration time.Duration) {}
