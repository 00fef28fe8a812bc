package repository

import (
	"context"
	"fmt"

	"github.com/vitalink/vitalink/internal/model"
)

// LatestHeartRateDays returns the most recent hr_day rollup per patient,
// keyed by patient ID. Patients with no rows are simply absent.
func (r *Repository) LatestHeartRateDays(ctx context.Context) (map[string]*model.HeartRateDayStat, error) {
	query := `
		SELECT DISTINCT ON (patient_id)
			patient_id, to_char(date, 'YYYY-MM-DD'), hr_min, hr_max, hr_avg, hr_count
		FROM hr_day
		ORDER BY patient_id, date DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest hr days: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*model.HeartRateDayStat)
	for rows.Next() {
		var patientID string
		var stat model.HeartRateDayStat
		if err := rows.Scan(&patientID, &stat.Date, &stat.Min, &stat.Max, &stat.Avg, &stat.Count); err != nil {
			return nil, fmt.Errorf("failed to scan latest hr day: %w", err)
		}
		stats[patientID] = &stat
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate latest hr days: %w", err)
	}

	return stats, nil
}

// LatestSpO2Days returns the most recent spo2_day rollup per patient.
func (r *Repository) LatestSpO2Days(ctx context.Context) (map[string]*model.SpO2DayStat, error) {
	query := `
		SELECT DISTINCT ON (patient_id)
			patient_id, to_char(date, 'YYYY-MM-DD'), spo2_min, spo2_max, spo2_avg, spo2_count
		FROM spo2_day
		ORDER BY patient_id, date DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest spo2 days: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*model.SpO2DayStat)
	for rows.Next() {
		var patientID string
		var stat model.SpO2DayStat
		if err := rows.Scan(&patientID, &stat.Date, &stat.Min, &stat.Max, &stat.Avg, &stat.Count); err != nil {
			return nil, fmt.Errorf("failed to scan latest spo2 day: %w", err)
		}
		stats[patientID] = &stat
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate latest spo2 days: %w", err)
	}

	return stats, nil
}

// LatestStepsDays returns the most recent steps_day rollup per patient.
func (r *Repository) LatestStepsDays(ctx context.Context) (map[string]*model.StepsDayStat, error) {
	query := `
		SELECT DISTINCT ON (patient_id)
			patient_id, to_char(date, 'YYYY-MM-DD'), steps_total
		FROM steps_day
		ORDER BY patient_id, date DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest steps days: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*model.StepsDayStat)
	for rows.Next() {
		var patientID string
		var stat model.StepsDayStat
		if err := rows.Scan(&patientID, &stat.Date, &stat.Total); err != nil {
			return nil, fmt.Errorf("failed to scan latest steps day: %w", err)
		}
		stats[patientID] = &stat
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate latest steps days: %w", err)
	}

	return stats, nil
}
