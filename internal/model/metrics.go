package model

// DateLayout is the calendar-date format used throughout the metrics tables.
const DateLayout = "2006-01-02"

// HeartRateDay is one aggregated heart-rate row per patient per calendar date.
// Nil aggregate values mean the day had no samples; the resting value is an
// optional overlay populated by the nightly sleep pipeline.
type HeartRateDay struct {
	Date    string
	Min     *float64
	Avg     *float64
	Max     *float64
	Resting *float64
}

// SpO2Day is one aggregated SpO2 row per patient per calendar date.
type SpO2Day struct {
	Date string
	Min  *float64
	Avg  *float64
	Max  *float64
}

// StepsDay carries a single daily step total instead of min/avg/max.
type StepsDay struct {
	Date  string
	Total *float64
}

// BloodPressureReading is event-grained: multiple readings per day are
// allowed and each is surfaced individually, never aggregated.
type BloodPressureReading struct {
	ReadingDate string
	ReadingTime string
	Systolic    int
	Diastolic   int
	Pulse       int
}

// Timestamp returns the composite display timestamp, e.g. "2024-01-01T08:30".
func (r *BloodPressureReading) Timestamp() string {
	return r.ReadingDate + "T" + r.ReadingTime
}
