package repository

import (
	"context"
	"fmt"

	"github.com/vitalink/vitalink/internal/model"
)

// HeartRateRange returns daily heart-rate rows for a patient within the
// inclusive date range, in ascending date order. One batched read; nullable
// aggregates scan to nil when the day had no samples.
func (r *Repository) HeartRateRange(ctx context.Context, patientID, start, end string) ([]*model.HeartRateDay, error) {
	query := `
		SELECT to_char(date, 'YYYY-MM-DD'), hr_min, hr_avg, hr_max, hr_resting
		FROM hr_day
		WHERE patient_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, patientID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query heart rate range: %w", err)
	}
	defer rows.Close()

	var days []*model.HeartRateDay
	for rows.Next() {
		var day model.HeartRateDay
		if err := rows.Scan(&day.Date, &day.Min, &day.Avg, &day.Max, &day.Resting); err != nil {
			return nil, fmt.Errorf("failed to scan heart rate row: %w", err)
		}
		days = append(days, &day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate heart rate rows: %w", err)
	}

	return days, nil
}

// SpO2Range returns daily SpO2 rows for a patient within the inclusive date
// range, in ascending date order.
func (r *Repository) SpO2Range(ctx context.Context, patientID, start, end string) ([]*model.SpO2Day, error) {
	query := `
		SELECT to_char(date, 'YYYY-MM-DD'), spo2_min, spo2_avg, spo2_max
		FROM spo2_day
		WHERE patient_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, patientID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query spo2 range: %w", err)
	}
	defer rows.Close()

	var days []*model.SpO2Day
	for rows.Next() {
		var day model.SpO2Day
		if err := rows.Scan(&day.Date, &day.Min, &day.Avg, &day.Max); err != nil {
			return nil, fmt.Errorf("failed to scan spo2 row: %w", err)
		}
		days = append(days, &day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate spo2 rows: %w", err)
	}

	return days, nil
}

// StepsRange returns daily step totals for a patient within the inclusive
// date range, in ascending date order.
func (r *Repository) StepsRange(ctx context.Context, patientID, start, end string) ([]*model.StepsDay, error) {
	query := `
		SELECT to_char(date, 'YYYY-MM-DD'), steps_total
		FROM steps_day
		WHERE patient_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, patientID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps range: %w", err)
	}
	defer rows.Close()

	var days []*model.StepsDay
	for rows.Next() {
		var day model.StepsDay
		if err := rows.Scan(&day.Date, &day.Total); err != nil {
			return nil, fmt.Errorf("failed to scan steps row: %w", err)
		}
		days = append(days, &day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps rows: %w", err)
	}

	return days, nil
}

// BloodPressureRange returns individual blood-pressure readings for a patient
// within the inclusive date range. Readings keep the source ordering
// (ascending date, then time); they are never aggregated.
func (r *Repository) BloodPressureRange(ctx context.Context, patientID, start, end string) ([]*model.BloodPressureReading, error) {
	query := `
		SELECT to_char(reading_date, 'YYYY-MM-DD'), to_char(reading_time, 'HH24:MI'),
		       systolic, diastolic, pulse
		FROM bp_reading
		WHERE patient_id = $1 AND reading_date BETWEEN $2 AND $3
		ORDER BY reading_date, reading_time
	`

	rows, err := r.pool.Query(ctx, query, patientID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query blood pressure range: %w", err)
	}
	defer rows.Close()

	var readings []*model.BloodPressureReading
	for rows.Next() {
		var reading model.BloodPressureReading
		if err := rows.Scan(
			&reading.ReadingDate,
			&reading.ReadingTime,
			&reading.Systolic,
			&reading.Diastolic,
			&reading.Pulse,
		); err != nil {
			return nil, fmt.Errorf("failed to scan blood pressure row: %w", err)
		}
		readings = append(readings, &reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blood pressure rows: %w", err)
	}

	return readings, nil
}
