package model

// PatientOverview is one row of the admin dashboard overview: the most
// recent rollup day of each metric family for a patient, or null when the
// family has no data yet.
type PatientOverview struct {
	PatientID string               `json:"patientId"`
	Steps     *StepsDayStat        `json:"steps"`
	HR        *HeartRateDayStat    `json:"hr"`
	SpO2      *SpO2DayStat         `json:"spo2"`
}

// HeartRateDayStat mirrors an hr_day rollup row for display.
type HeartRateDayStat struct {
	Date  string   `json:"date"`
	Min   *float64 `json:"hr_min"`
	Max   *float64 `json:"hr_max"`
	Avg   *float64 `json:"hr_avg"`
	Count int      `json:"hr_count"`
}

// SpO2DayStat mirrors a spo2_day rollup row for display.
type SpO2DayStat struct {
	Date  string   `json:"date"`
	Min   *float64 `json:"spo2_min"`
	Max   *float64 `json:"spo2_max"`
	Avg   *float64 `json:"spo2_avg"`
	Count int      `json:"spo2_count"`
}

// StepsDayStat mirrors a steps_day rollup row for display.
type StepsDayStat struct {
	Date  string   `json:"date"`
	Total *float64 `json:"steps_total"`
}
