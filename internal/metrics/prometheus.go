package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder backed by a Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	loginSuccess        prometheus.Counter
	loginFailure        *prometheus.CounterVec
	summaryRequests     *prometheus.CounterVec
	summaryDuration     prometheus.Histogram
	summaryDays         prometheus.Histogram
	healthEventsCreated *prometheus.CounterVec
	samplesPublished    *prometheus.CounterVec
	samplesProcessed    *prometheus.CounterVec
	ingestBatchSize     prometheus.Histogram
	ingestBatchDuration prometheus.Histogram
}

// NewPrometheus returns a Recorder exposing metrics via its own registry.
func NewPrometheus() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	r := &PrometheusRecorder{
		registry: registry,
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vitalink_admin_logins_total",
			Help: "Successful admin logins.",
		}),
		loginFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitalink_admin_login_failures_total",
			Help: "Failed admin login attempts by reason.",
		}, []string{"reason"}),
		summaryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitalink_summary_requests_total",
			Help: "Daily summary aggregations by outcome.",
		}, []string{"status"}),
		summaryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitalink_summary_duration_seconds",
			Help:    "Wall time of a full daily summary aggregation.",
			Buckets: prometheus.DefBuckets,
		}),
		summaryDays: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitalink_summary_days",
			Help:    "Number of dates emitted per summary response.",
			Buckets: []float64{1, 7, 14, 30, 90, 365},
		}),
		healthEventsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitalink_health_events_created_total",
			Help: "Health events recorded by type.",
		}, []string{"type"}),
		samplesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitalink_ingest_samples_published_total",
			Help: "Sample batches enqueued to the ingest stream by family and outcome.",
		}, []string{"family", "status"}),
		samplesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitalink_ingest_samples_processed_total",
			Help: "Samples persisted by the ingest worker by family and outcome.",
		}, []string{"family", "status"}),
		ingestBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitalink_ingest_batch_size",
			Help:    "Items per persisted ingest batch.",
			Buckets: []float64{1, 10, 50, 100, 500, 1000},
		}),
		ingestBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitalink_ingest_batch_duration_seconds",
			Help:    "Wall time of one ingest batch persistence.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		r.loginSuccess,
		r.loginFailure,
		r.summaryRequests,
		r.summaryDuration,
		r.summaryDays,
		r.healthEventsCreated,
		r.samplesPublished,
		r.samplesProcessed,
		r.ingestBatchSize,
		r.ingestBatchDuration,
	)

	return r
}

// Handler returns the Prometheus exposition endpoint for this registry.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// IncLoginSuccess increments the successful login counter.
func (r *PrometheusRecorder) IncLoginSuccess() {
	r.loginSuccess.Inc()
}

// IncLoginFailure increments the login failure counter for a reason.
func (r *PrometheusRecorder) IncLoginFailure(reason string) {
	r.loginFailure.WithLabelValues(reason).Inc()
}

// IncSummaryRequest increments the summary request counter for an outcome.
func (r *PrometheusRecorder) IncSummaryRequest(status string) {
	r.summaryRequests.WithLabelValues(status).Inc()
}

// ObserveSummaryDuration records the duration of an aggregation.
func (r *PrometheusRecorder) ObserveSummaryDuration(duration time.Duration) {
	r.summaryDuration.Observe(duration.Seconds())
}

// ObserveSummaryDays records how many dates a summary response contained.
func (r *PrometheusRecorder) ObserveSummaryDays(days int) {
	r.summaryDays.Observe(float64(days))
}

// IncHealthEventCreated increments the health event counter for a type.
func (r *PrometheusRecorder) IncHealthEventCreated(eventType string) {
	r.healthEventsCreated.WithLabelValues(eventType).Inc()
}

// IncSamplePublished increments the publish counter for a family and outcome.
func (r *PrometheusRecorder) IncSamplePublished(family, status string) {
	r.samplesPublished.WithLabelValues(family, status).Inc()
}

// IncSampleProcessed increments the worker counter for a family and outcome.
func (r *PrometheusRecorder) IncSampleProcessed(family, status string) {
	r.samplesProcessed.WithLabelValues(family, status).Inc()
}

// ObserveIngestBatchSize records the item count of a persisted batch.
func (r *PrometheusRecorder) ObserveIngestBatchSize(size int) {
	r.ingestBatchSize.Observe(float64(size))
}

// ObserveIngestBatchDuration records the persistence time of a batch.
func (r *PrometheusRecorder) ObserveIngestBatchDuration(duration time.Duration) {
	r.ingestBatchDuration.Observe(duration.Seconds())
}
