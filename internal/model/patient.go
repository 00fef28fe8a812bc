package model

import "time"

// Patient represents a monitored patient.
type Patient struct {
	PatientID string    `json:"patient_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	DOB       time.Time `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Device is a wearable or app installation linked to a patient.
// Devices are the source of ingested samples; the dashboard surfaces them
// as auth metadata on the patient list.
type Device struct {
	DeviceID  string `json:"device_id"`
	PatientID string `json:"patient_id"`
}
