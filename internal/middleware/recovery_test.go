package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestRecoverer_JSONErrorEnvelope verifies a panicking handler produces the
// standard error envelope instead of a plain-text 500.
func TestRecoverer_JSONErrorEnvelope(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil aggregate row")
	}))

	req := httptest.NewRequest("GET", "/api/chart-data/hr", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not JSON: %v (body: %s)", err, rec.Body.String())
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body.Code)
	}
	if body.Error != "internal server error" {
		t.Errorf("error = %q, want %q", body.Error, "internal server error")
	}

	// Panic detail belongs in the log, never in the response.
	if strings.Contains(rec.Body.String(), "nil aggregate row") {
		t.Error("panic message leaked into response body")
	}
	if !strings.Contains(buf.String(), "nil aggregate row") {
		t.Error("panic message missing from log output")
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("expected 'panic recovered' log entry")
	}
}

// TestRecoverer_PassthroughWithoutPanic verifies normal responses are untouched.
func TestRecoverer_PassthroughWithoutPanic(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"accepted":3}`))
	}))

	req := httptest.NewRequest("POST", "/ingest/steps-events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if rec.Body.String() != `{"accepted":3}` {
		t.Errorf("body = %q, want untouched handler body", rec.Body.String())
	}
	if strings.Contains(buf.String(), "panic recovered") {
		t.Error("unexpected panic log for normal request")
	}
}
