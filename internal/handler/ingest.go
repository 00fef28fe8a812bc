package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/vitalink/vitalink/internal/ingest"
)

// SamplePublisher is the contract for enqueueing validated sample batches.
type SamplePublisher interface {
	Publish(ctx context.Context, family string, count int, payload []byte) (string, error)
}

// IngestHandler serves the device sample upload endpoints. Capture agents
// post a JSON array of items (a bare object counts as a one-item array);
// accepted batches go onto the ingest stream and persist asynchronously.
type IngestHandler struct {
	publisher SamplePublisher
	logger    *slog.Logger
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(publisher SamplePublisher, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{
		publisher: publisher,
		logger:    logger,
	}
}

// IngestResponse acknowledges an accepted batch.
type IngestResponse struct {
	Accepted int `json:"accepted"`
}

// StepsEvents handles POST /ingest/steps-events.
func (h *IngestHandler) StepsEvents(w http.ResponseWriter, r *http.Request) {
	var items []ingest.StepsEventPayload
	if !decodeItems(w, r, &items) {
		return
	}
	for _, item := range items {
		if _, err := ingest.ParseStepsEvent(item); err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "INVALID_SAMPLE", err.Error())
			return
		}
	}
	h.accept(w, r, ingest.FamilySteps, len(items), items)
}

// HeartRateSamples handles POST /ingest/hr-samples.
func (h *IngestHandler) HeartRateSamples(w http.ResponseWriter, r *http.Request) {
	var items []ingest.HeartRatePayload
	if !decodeItems(w, r, &items) {
		return
	}
	for _, item := range items {
		if _, err := ingest.ParseHeartRateSample(item); err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "INVALID_SAMPLE", err.Error())
			return
		}
	}
	h.accept(w, r, ingest.FamilyHeartRate, len(items), items)
}

// SpO2Samples handles POST /ingest/spo2-samples.
func (h *IngestHandler) SpO2Samples(w http.ResponseWriter, r *http.Request) {
	var items []ingest.SpO2Payload
	if !decodeItems(w, r, &items) {
		return
	}
	for _, item := range items {
		if _, err := ingest.ParseSpO2Sample(item); err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "INVALID_SAMPLE", err.Error())
			return
		}
	}
	h.accept(w, r, ingest.FamilySpO2, len(items), items)
}

// accept publishes a validated batch and acknowledges with 202. Empty
// batches are acknowledged without touching the stream.
func (h *IngestHandler) accept(w http.ResponseWriter, r *http.Request, family string, count int, items interface{}) {
	if count == 0 {
		writeJSON(w, http.StatusOK, IngestResponse{Accepted: 0})
		return
	}

	payload, err := json.Marshal(items)
	if err != nil {
		h.logger.Error("failed to marshal sample batch", "family", family, "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to accept samples")
		return
	}

	streamID, err := h.publisher.Publish(r.Context(), family, count, payload)
	if err != nil {
		h.logger.Error("failed to publish sample batch",
			"family", family,
			"count", count,
			"error", err,
		)
		writeErrorJSON(w, http.StatusServiceUnavailable, "INGEST_UNAVAILABLE", "sample intake is temporarily unavailable")
		return
	}

	h.logger.Debug("sample batch accepted",
		"family", family,
		"count", count,
		"stream_id", streamID,
	)
	writeJSON(w, http.StatusAccepted, IngestResponse{Accepted: count})
}

// decodeItems reads the body as a JSON array, accepting a bare object as a
// one-item array. Returns false after writing the error response.
func decodeItems(w http.ResponseWriter, r *http.Request, items interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to read request body")
		return false
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		trimmed = append(append([]byte{'['}, trimmed...), ']')
	}

	if err := json.Unmarshal(trimmed, items); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "INVALID_REQUEST", "body must be a JSON array of samples")
		return false
	}
	return true
}
