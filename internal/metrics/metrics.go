// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
type Recorder interface {
	// Admin auth metrics
	IncLoginSuccess()
	IncLoginFailure(reason string) // reason: "invalid_request", "invalid_credentials", "error"

	// Aggregation metrics
	IncSummaryRequest(status string) // status: "success", "not_found", "error"
	ObserveSummaryDuration(duration time.Duration)
	ObserveSummaryDays(days int)

	// Health event metrics
	IncHealthEventCreated(eventType string)

	// Ingest pipeline metrics
	IncSamplePublished(family, status string) // status: "success", "dropped"
	IncSampleProcessed(family, status string) // status: "success", "failed", "dead_lettered"
	ObserveIngestBatchSize(size int)
	ObserveIngestBatchDuration(duration time.Duration)
}
