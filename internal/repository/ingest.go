package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vitalink/vitalink/internal/model"
)

// EnsureIngestRefs provisions any patient, origin and device rows a sample
// batch references. Devices can sync before an admin registers the patient,
// so missing patients get a stub row that the roster later fills in.
func (r *Repository) EnsureIngestRefs(ctx context.Context, patients, origins []string, devices []*model.Device) error {
	batch := &pgx.Batch{}

	patientQuery := `
		INSERT INTO patients (patient_id, first_name, last_name, dob)
		VALUES ($1, '', '', '1970-01-01')
		ON CONFLICT (patient_id) DO NOTHING
	`
	for _, patientID := range patients {
		batch.Queue(patientQuery, patientID)
	}

	originQuery := `
		INSERT INTO data_origin (origin_id)
		VALUES ($1)
		ON CONFLICT (origin_id) DO NOTHING
	`
	for _, originID := range origins {
		batch.Queue(originQuery, originID)
	}

	deviceQuery := `
		INSERT INTO devices (device_id, patient_id)
		VALUES ($1, $2)
		ON CONFLICT (device_id) DO NOTHING
	`
	for _, device := range devices {
		batch.Queue(deviceQuery, device.DeviceID, device.PatientID)
	}

	if batch.Len() == 0 {
		return nil
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("ensure ingest refs %d: %w", i, err)
		}
	}
	return nil
}

// InsertHeartRateSamples inserts raw heart-rate rows with idempotency via
// ON CONFLICT DO NOTHING on the record UID.
func (r *Repository) InsertHeartRateSamples(ctx context.Context, samples []*model.HeartRateSample) error {
	if len(samples) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO hr_sample (
			record_uid, patient_id, origin_id, device_id,
			time_ts, bpm, hour_ts, day_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (record_uid) DO NOTHING
	`
	for _, s := range samples {
		batch.Queue(query,
			s.RecordUID,
			s.PatientID,
			nullableString(s.OriginID),
			nullableString(s.DeviceID),
			s.TimeTs,
			s.BPM,
			s.HourTs,
			s.DayDate,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(samples); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert hr sample %d: %w", i, err)
		}
	}
	return nil
}

// InsertSpO2Samples inserts raw SpO2 rows with record-UID idempotency.
func (r *Repository) InsertSpO2Samples(ctx context.Context, samples []*model.SpO2Sample) error {
	if len(samples) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO spo2_sample (
			record_uid, patient_id, origin_id, device_id,
			time_ts, spo2_pct, hour_ts, day_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (record_uid) DO NOTHING
	`
	for _, s := range samples {
		batch.Queue(query,
			s.RecordUID,
			s.PatientID,
			nullableString(s.OriginID),
			nullableString(s.DeviceID),
			s.TimeTs,
			s.Percent,
			s.HourTs,
			s.DayDate,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(samples); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert spo2 sample %d: %w", i, err)
		}
	}
	return nil
}

// InsertStepsEvents inserts raw step intervals with record-UID idempotency.
func (r *Repository) InsertStepsEvents(ctx context.Context, events []*model.StepsEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO steps_event (
			record_uid, patient_id, origin_id, device_id,
			start_ts, end_ts, step_count, hour_ts, day_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (record_uid) DO NOTHING
	`
	for _, e := range events {
		batch.Queue(query,
			e.RecordUID,
			e.PatientID,
			nullableString(e.OriginID),
			nullableString(e.DeviceID),
			e.StartTs,
			e.EndTs,
			e.Count,
			e.HourTs,
			e.DayDate,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(events); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert steps event %d: %w", i, err)
		}
	}
	return nil
}

// RefreshHeartRateRollups recomputes the touched hour and day buckets from
// the raw tier. Recomputing from raw keeps the rollups correct under batch
// replay and overlapping device syncs. The resting overlay column is not
// touched; it belongs to the sleep pipeline.
func (r *Repository) RefreshHeartRateRollups(ctx context.Context, patients []string, hours []time.Time, days []string) error {
	hourQuery := `
		INSERT INTO hr_hour (patient_id, hour_ts, hr_min, hr_avg, hr_max, hr_count)
		SELECT patient_id, hour_ts, MIN(bpm), AVG(bpm), MAX(bpm), COUNT(*)
		FROM hr_sample
		WHERE patient_id = ANY($1) AND hour_ts = ANY($2)
		GROUP BY patient_id, hour_ts
		ON CONFLICT (patient_id, hour_ts) DO UPDATE SET
			hr_min = EXCLUDED.hr_min,
			hr_avg = EXCLUDED.hr_avg,
			hr_max = EXCLUDED.hr_max,
			hr_count = EXCLUDED.hr_count
	`
	if _, err := r.pool.Exec(ctx, hourQuery, patients, hours); err != nil {
		return fmt.Errorf("refresh hr_hour: %w", err)
	}

	dayQuery := `
		INSERT INTO hr_day (patient_id, date, hr_min, hr_avg, hr_max, hr_count)
		SELECT patient_id, day_date, MIN(bpm), AVG(bpm), MAX(bpm), COUNT(*)
		FROM hr_sample
		WHERE patient_id = ANY($1) AND day_date = ANY($2)
		GROUP BY patient_id, day_date
		ON CONFLICT (patient_id, date) DO UPDATE SET
			hr_min = EXCLUDED.hr_min,
			hr_avg = EXCLUDED.hr_avg,
			hr_max = EXCLUDED.hr_max,
			hr_count = EXCLUDED.hr_count
	`
	if _, err := r.pool.Exec(ctx, dayQuery, patients, days); err != nil {
		return fmt.Errorf("refresh hr_day: %w", err)
	}
	return nil
}

// RefreshSpO2Rollups recomputes the touched hour and day buckets from raw.
func (r *Repository) RefreshSpO2Rollups(ctx context.Context, patients []string, hours []time.Time, days []string) error {
	hourQuery := `
		INSERT INTO spo2_hour (patient_id, hour_ts, spo2_min, spo2_avg, spo2_max, spo2_count)
		SELECT patient_id, hour_ts, MIN(spo2_pct), AVG(spo2_pct), MAX(spo2_pct), COUNT(*)
		FROM spo2_sample
		WHERE patient_id = ANY($1) AND hour_ts = ANY($2)
		GROUP BY patient_id, hour_ts
		ON CONFLICT (patient_id, hour_ts) DO UPDATE SET
			spo2_min = EXCLUDED.spo2_min,
			spo2_avg = EXCLUDED.spo2_avg,
			spo2_max = EXCLUDED.spo2_max,
			spo2_count = EXCLUDED.spo2_count
	`
	if _, err := r.pool.Exec(ctx, hourQuery, patients, hours); err != nil {
		return fmt.Errorf("refresh spo2_hour: %w", err)
	}

	dayQuery := `
		INSERT INTO spo2_day (patient_id, date, spo2_min, spo2_avg, spo2_max, spo2_count)
		SELECT patient_id, day_date, MIN(spo2_pct), AVG(spo2_pct), MAX(spo2_pct), COUNT(*)
		FROM spo2_sample
		WHERE patient_id = ANY($1) AND day_date = ANY($2)
		GROUP BY patient_id, day_date
		ON CONFLICT (patient_id, date) DO UPDATE SET
			spo2_min = EXCLUDED.spo2_min,
			spo2_avg = EXCLUDED.spo2_avg,
			spo2_max = EXCLUDED.spo2_max,
			spo2_count = EXCLUDED.spo2_count
	`
	if _, err := r.pool.Exec(ctx, dayQuery, patients, days); err != nil {
		return fmt.Errorf("refresh spo2_day: %w", err)
	}
	return nil
}

// RefreshStepsRollups recomputes the touched hour and day buckets from raw.
func (r *Repository) RefreshStepsRollups(ctx context.Context, patients []string, hours []time.Time, days []string) error {
	hourQuery := `
		INSERT INTO steps_hour (patient_id, hour_ts, steps_total)
		SELECT patient_id, hour_ts, SUM(step_count)
		FROM steps_event
		WHERE patient_id = ANY($1) AND hour_ts = ANY($2)
		GROUP BY patient_id, hour_ts
		ON CONFLICT (patient_id, hour_ts) DO UPDATE SET
			steps_total = EXCLUDED.steps_total
	`
	if _, err := r.pool.Exec(ctx, hourQuery, patients, hours); err != nil {
		return fmt.Errorf("refresh steps_hour: %w", err)
	}

	dayQuery := `
		INSERT INTO steps_day (patient_id, date, steps_total)
		SELECT patient_id, day_date, SUM(step_count)
		FROM steps_event
		WHERE patient_id = ANY($1) AND day_date = ANY($2)
		GROUP BY patient_id, day_date
		ON CONFLICT (patient_id, date) DO UPDATE SET
			steps_total = EXCLUDED.steps_total
	`
	if _, err := r.pool.Exec(ctx, dayQuery, patients, days); err != nil {
		return fmt.Errorf("refresh steps_day: %w", err)
	}
	return nil
}
