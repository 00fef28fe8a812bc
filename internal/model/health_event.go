package model

import "time"

// EventTypeBloodPressure is the event type written by the BP image pipeline
// and the manual entry form.
const EventTypeBloodPressure = "blood_pressure"

// HealthEvent is a free-form health event as recorded by the BP backend:
// OCR'd blood-pressure readings, manual entries, symptoms. The value slots
// are interpreted per type (blood_pressure: systolic/diastolic/pulse).
type HealthEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Type      string    `json:"type"`
	Value1    *int      `json:"value_1"`
	Value2    *int      `json:"value_2"`
	Value3    *int      `json:"value_3"`
	ValueBool *bool     `json:"value_bool"`
	ValueText *string   `json:"value_text"`
	CreatedAt time.Time `json:"created_at"`
}
