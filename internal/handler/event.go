package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vitalink/vitalink/internal/metrics"
	"github.com/vitalink/vitalink/internal/model"
)

// HealthEventStore defines the interface for health event persistence.
type HealthEventStore interface {
	CreateHealthEvent(ctx context.Context, event *model.HealthEvent) error
	ListHealthEvents(ctx context.Context, userID string) ([]*model.HealthEvent, error)
}

// EventHandler serves the health-event capture endpoints used by the BP
// pipeline and the manual entry form.
type EventHandler struct {
	store   HealthEventStore
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(store HealthEventStore, logger *slog.Logger, recorder metrics.Recorder) *EventHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &EventHandler{
		store:   store,
		logger:  logger,
		metrics: recorder,
	}
}

// ManualEventRequest represents the manual event request body.
type ManualEventRequest struct {
	UserID    string  `json:"user_id"`
	Type      string  `json:"type"`
	Value1    *int    `json:"value1"`
	Value2    *int    `json:"value2"`
	Value3    *int    `json:"value3"`
	ValueBool *bool   `json:"valueBool"`
	ValueText *string `json:"valueText"`
}

type eventEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AddManualEvent handles POST /api/add-manual-event.
func (h *EventHandler) AddManualEvent(w http.ResponseWriter, r *http.Request) {
	var req ManualEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEventError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Type) == "" {
		writeEventError(w, http.StatusBadRequest, "event type is required")
		return
	}

	event := &model.HealthEvent{
		ID:        ulid.Make().String(),
		UserID:    req.UserID,
		Type:      req.Type,
		Value1:    req.Value1,
		Value2:    req.Value2,
		Value3:    req.Value3,
		ValueBool: req.ValueBool,
		ValueText: req.ValueText,
		CreatedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.store.CreateHealthEvent(ctx, event); err != nil {
		h.logger.Error("failed to create health event",
			"error", err,
			"type", event.Type,
		)
		writeEventError(w, http.StatusInternalServerError, "failed to save event")
		return
	}

	h.metrics.IncHealthEventCreated(event.Type)
	writeJSON(w, http.StatusOK, eventEnvelope{Success: true, Data: event})
}

// ListHealthEvents handles GET /api/health-events?user_id=.
// A missing user_id returns every recorded event, newest first.
func (h *EventHandler) ListHealthEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	events, err := h.store.ListHealthEvents(ctx, r.URL.Query().Get("user_id"))
	if err != nil {
		h.logger.Error("failed to list health events", "error", err)
		writeEventError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	if events == nil {
		events = []*model.HealthEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// writeEventError writes the envelope shape the capture clients expect.
func writeEventError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(eventEnvelope{Success: false, Error: message})
}
