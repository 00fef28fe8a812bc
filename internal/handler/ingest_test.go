package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vitalink/vitalink/internal/ingest"
)

type mockPublisher struct {
	err error

	gotFamily  string
	gotCount   int
	gotPayload []byte
	calls      int
}

func (m *mockPublisher) Publish(ctx context.Context, family string, count int, payload []byte) (string, error) {
	m.calls++
	m.gotFamily = family
	m.gotCount = count
	m.gotPayload = payload
	if m.err != nil {
		return "", m.err
	}
	return "1-0", nil
}

func TestIngestHandler_HeartRateSamples(t *testing.T) {
	publisher := &mockPublisher{}
	h := NewIngestHandler(publisher, discardLogger())

	body := `[
		{"patientId":"P1","timeTs":"2024-03-10T08:00:00Z","bpm":60,"recordUid":"hr-1"},
		{"patientId":"P1","timeTs":"2024-03-10T08:05:00Z","bpm":62,"recordUid":"hr-2"}
	]`
	req := httptest.NewRequest(http.MethodPost, "/ingest/hr-samples", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HeartRateSamples(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	var resp IngestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Accepted != 2 {
		t.Errorf("accepted = %d, want 2", resp.Accepted)
	}
	if publisher.gotFamily != ingest.FamilyHeartRate || publisher.gotCount != 2 {
		t.Errorf("published family=%q count=%d, want hr/2", publisher.gotFamily, publisher.gotCount)
	}

	// Published payload must round-trip back into the same items.
	var items []ingest.HeartRatePayload
	if err := json.Unmarshal(publisher.gotPayload, &items); err != nil {
		t.Fatalf("published payload not decodable: %v", err)
	}
	if len(items) != 2 || items[0].RecordUID != "hr-1" {
		t.Errorf("published items = %+v", items)
	}
}

func TestIngestHandler_BareObjectBecomesBatchOfOne(t *testing.T) {
	publisher := &mockPublisher{}
	h := NewIngestHandler(publisher, discardLogger())

	body := `{"patientId":"P1","startTs":"2024-03-10T08:00:00Z","endTs":"2024-03-10T08:15:00Z","count":840,"recordUid":"steps-1"}`
	req := httptest.NewRequest(http.MethodPost, "/ingest/steps-events", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.StepsEvents(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	if publisher.gotFamily != ingest.FamilySteps || publisher.gotCount != 1 {
		t.Errorf("published family=%q count=%d, want steps/1", publisher.gotFamily, publisher.gotCount)
	}
}

func TestIngestHandler_Validation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"patientId":`, "INVALID_REQUEST"},
		{"not an array", `"just a string"`, "INVALID_REQUEST"},
		{"invalid item", `[{"patientId":"","timeTs":"2024-03-10T08:00:00Z","spo2Pct":95,"recordUid":"s-1"}]`, "INVALID_SAMPLE"},
		{"bad timestamp", `[{"patientId":"P1","timeTs":"not-a-time","spo2Pct":95,"recordUid":"s-1"}]`, "INVALID_SAMPLE"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			publisher := &mockPublisher{}
			h := NewIngestHandler(publisher, discardLogger())

			req := httptest.NewRequest(http.MethodPost, "/ingest/spo2-samples", strings.NewReader(test.body))
			rec := httptest.NewRecorder()

			h.SpO2Samples(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			var resp map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp["code"] != test.wantCode {
				t.Errorf("code = %q, want %q", resp["code"], test.wantCode)
			}
			if publisher.calls != 0 {
				t.Error("invalid batch must not reach the stream")
			}
		})
	}
}

func TestIngestHandler_EmptyBatchSkipsPublish(t *testing.T) {
	publisher := &mockPublisher{}
	h := NewIngestHandler(publisher, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/ingest/hr-samples", strings.NewReader(`[]`))
	rec := httptest.NewRecorder()

	h.HeartRateSamples(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp IngestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Accepted != 0 {
		t.Errorf("accepted = %d, want 0", resp.Accepted)
	}
	if publisher.calls != 0 {
		t.Error("empty batch must not reach the stream")
	}
}

func TestIngestHandler_PublisherFailure(t *testing.T) {
	publisher := &mockPublisher{err: errors.New("redis down")}
	h := NewIngestHandler(publisher, discardLogger())

	body := `[{"patientId":"P1","timeTs":"2024-03-10T08:00:00Z","bpm":60,"recordUid":"hr-1"}]`
	req := httptest.NewRequest(http.MethodPost, "/ingest/hr-samples", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HeartRateSamples(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["code"] != "INGEST_UNAVAILABLE" {
		t.Errorf("code = %q, want INGEST_UNAVAILABLE", resp["code"])
	}
}
