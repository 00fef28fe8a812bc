// Package ingest provides device sample capture and rollup processing.
package ingest

import (
	"fmt"
	"time"

	"github.com/vitalink/vitalink/internal/model"
)

// Metric families carried on the sample stream.
const (
	FamilySteps     = "steps"
	FamilyHeartRate = "hr"
	FamilySpO2      = "spo2"
)

const (
	maxRecordUIDLength = 128
	maxRefLength       = 64

	minBPM = 20
	maxBPM = 300
)

// StepsEventPayload is one step-count interval as sent by a capture agent.
type StepsEventPayload struct {
	PatientID   string  `json:"patientId"`
	OriginID    string  `json:"originId,omitempty"`
	DeviceID    string  `json:"deviceId,omitempty"`
	StartTs     string  `json:"startTs"`
	EndTs       string  `json:"endTs"`
	Count       float64 `json:"count"`
	RecordUID   string  `json:"recordUid"`
	TzOffsetMin int     `json:"tzOffsetMin,omitempty"`
}

// HeartRatePayload is one heart-rate sample as sent by a capture agent.
type HeartRatePayload struct {
	PatientID   string  `json:"patientId"`
	OriginID    string  `json:"originId,omitempty"`
	DeviceID    string  `json:"deviceId,omitempty"`
	TimeTs      string  `json:"timeTs"`
	BPM         float64 `json:"bpm"`
	RecordUID   string  `json:"recordUid"`
	TzOffsetMin int     `json:"tzOffsetMin,omitempty"`
}

// SpO2Payload is one blood-oxygen sample as sent by a capture agent.
type SpO2Payload struct {
	PatientID   string  `json:"patientId"`
	OriginID    string  `json:"originId,omitempty"`
	DeviceID    string  `json:"deviceId,omitempty"`
	TimeTs      string  `json:"timeTs"`
	Percent     float64 `json:"spo2Pct"`
	RecordUID   string  `json:"recordUid"`
	TzOffsetMin int     `json:"tzOffsetMin,omitempty"`
}

// BucketHour shifts a timestamp by the device timezone offset and truncates
// to the hour. The result is the local-time hourly rollup bucket.
func BucketHour(ts time.Time, tzOffsetMin int) time.Time {
	return ts.UTC().Add(time.Duration(tzOffsetMin) * time.Minute).Truncate(time.Hour)
}

// BucketDay shifts a timestamp by the device timezone offset and formats the
// local calendar date. The result is the daily rollup bucket key.
func BucketDay(ts time.Time, tzOffsetMin int) string {
	return ts.UTC().Add(time.Duration(tzOffsetMin) * time.Minute).Format(model.DateLayout)
}

// ParseStepsEvent validates a payload item and converts it to a raw row.
func ParseStepsEvent(p StepsEventPayload) (*model.StepsEvent, error) {
	if err := validateRefs(p.PatientID, p.OriginID, p.DeviceID, p.RecordUID); err != nil {
		return nil, err
	}
	start, err := time.Parse(time.RFC3339, p.StartTs)
	if err != nil {
		return nil, fmt.Errorf("startTs must be RFC 3339")
	}
	end, err := time.Parse(time.RFC3339, p.EndTs)
	if err != nil {
		return nil, fmt.Errorf("endTs must be RFC 3339")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("endTs before startTs")
	}
	if p.Count < 0 {
		return nil, fmt.Errorf("count must not be negative")
	}

	return &model.StepsEvent{
		RecordUID: p.RecordUID,
		PatientID: p.PatientID,
		OriginID:  p.OriginID,
		DeviceID:  p.DeviceID,
		StartTs:   start.UTC(),
		EndTs:     end.UTC(),
		Count:     p.Count,
		HourTs:    BucketHour(end, p.TzOffsetMin),
		DayDate:   BucketDay(end, p.TzOffsetMin),
	}, nil
}

// ParseHeartRateSample validates a payload item and converts it to a raw row.
func ParseHeartRateSample(p HeartRatePayload) (*model.HeartRateSample, error) {
	if err := validateRefs(p.PatientID, p.OriginID, p.DeviceID, p.RecordUID); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339, p.TimeTs)
	if err != nil {
		return nil, fmt.Errorf("timeTs must be RFC 3339")
	}
	if p.BPM < minBPM || p.BPM > maxBPM {
		return nil, fmt.Errorf("bpm out of range")
	}

	return &model.HeartRateSample{
		RecordUID: p.RecordUID,
		PatientID: p.PatientID,
		OriginID:  p.OriginID,
		DeviceID:  p.DeviceID,
		TimeTs:    ts.UTC(),
		BPM:       p.BPM,
		HourTs:    BucketHour(ts, p.TzOffsetMin),
		DayDate:   BucketDay(ts, p.TzOffsetMin),
	}, nil
}

// ParseSpO2Sample validates a payload item and converts it to a raw row.
func ParseSpO2Sample(p SpO2Payload) (*model.SpO2Sample, error) {
	if err := validateRefs(p.PatientID, p.OriginID, p.DeviceID, p.RecordUID); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339, p.TimeTs)
	if err != nil {
		return nil, fmt.Errorf("timeTs must be RFC 3339")
	}
	if p.Percent <= 0 || p.Percent > 100 {
		return nil, fmt.Errorf("spo2Pct out of range")
	}

	return &model.SpO2Sample{
		RecordUID: p.RecordUID,
		PatientID: p.PatientID,
		OriginID:  p.OriginID,
		DeviceID:  p.DeviceID,
		TimeTs:    ts.UTC(),
		Percent:   p.Percent,
		HourTs:    BucketHour(ts, p.TzOffsetMin),
		DayDate:   BucketDay(ts, p.TzOffsetMin),
	}, nil
}

func validateRefs(patientID, originID, deviceID, recordUID string) error {
	if patientID == "" {
		return fmt.Errorf("patientId is required")
	}
	if len(patientID) > maxRefLength {
		return fmt.Errorf("patientId too long")
	}
	if recordUID == "" {
		return fmt.Errorf("recordUid is required")
	}
	if len(recordUID) > maxRecordUIDLength {
		return fmt.Errorf("recordUid too long")
	}
	if len(originID) > maxRefLength {
		return fmt.Errorf("originId too long")
	}
	if len(deviceID) > maxRefLength {
		return fmt.Errorf("deviceId too long")
	}
	return nil
}
