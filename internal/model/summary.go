package model

// DaySummary is the aggregation engine's output for one calendar date.
// Constructed fresh per request and never mutated after construction.
type DaySummary struct {
	HR     HRSummary     `json:"hr"`
	SpO2   SpO2Summary   `json:"spo2"`
	Steps  StepsSummary  `json:"steps"`
	BP     []BPEntry     `json:"bp"`
	Weight []WeightEntry `json:"weight"`
}

// HRSummary holds the rounded heart-rate aggregates for a date.
// Resting is present only when an exact-date overlay value exists.
type HRSummary struct {
	Min     int  `json:"min"`
	Avg     int  `json:"avg"`
	Max     int  `json:"max"`
	Resting *int `json:"resting,omitempty"`
}

// SpO2Summary holds the rounded SpO2 aggregates for a date.
type SpO2Summary struct {
	Min int `json:"min"`
	Avg int `json:"avg"`
	Max int `json:"max"`
}

// StepsSummary holds the rounded daily step total.
type StepsSummary struct {
	Count int `json:"count"`
}

// BPEntry is one blood-pressure reading as displayed, carrying its own
// composite timestamp. Values are integers at the source; no rounding.
type BPEntry struct {
	Time      string `json:"time"`
	Systolic  int    `json:"systolic"`
	Diastolic int    `json:"diastolic"`
	Pulse     int    `json:"pulse"`
}

// WeightEntry is a placeholder for a metric family not yet backed by data.
// The weight sequence is always present in a summary and currently always
// empty.
type WeightEntry struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}
