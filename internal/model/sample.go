package model

import "time"

// Raw-sample rows as persisted by the ingest worker. HourTs and DayDate are
// the local-time buckets computed at ingest from the device timezone offset,
// so the rollup tiers can always be recomputed from the raw tier alone.

// HeartRateSample is one raw heart-rate measurement from a device sync.
type HeartRateSample struct {
	RecordUID string
	PatientID string
	OriginID  string
	DeviceID  string
	TimeTs    time.Time
	BPM       float64
	HourTs    time.Time
	DayDate   string
}

// SpO2Sample is one raw blood-oxygen measurement from a device sync.
type SpO2Sample struct {
	RecordUID string
	PatientID string
	OriginID  string
	DeviceID  string
	TimeTs    time.Time
	Percent   float64
	HourTs    time.Time
	DayDate   string
}

// StepsEvent is one raw step-count interval from a device sync. Intervals
// bucket by their end timestamp.
type StepsEvent struct {
	RecordUID string
	PatientID string
	OriginID  string
	DeviceID  string
	StartTs   time.Time
	EndTs     time.Time
	Count     float64
	HourTs    time.Time
	DayDate   string
}
