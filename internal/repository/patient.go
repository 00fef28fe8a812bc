package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vitalink/vitalink/internal/model"
)

// ErrPatientNotFound indicates the referenced patient has no data at all.
var ErrPatientNotFound = errors.New("patient not found")

// GetPatient retrieves a patient by ID.
func (r *Repository) GetPatient(ctx context.Context, patientID string) (*model.Patient, error) {
	query := `
		SELECT patient_id, first_name, last_name, dob, created_at
		FROM patients
		WHERE patient_id = $1
	`

	var patient model.Patient
	err := r.pool.QueryRow(ctx, query, patientID).Scan(
		&patient.PatientID,
		&patient.FirstName,
		&patient.LastName,
		&patient.DOB,
		&patient.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return &patient, nil
}

// ListPatients returns all patients in stable ID order.
func (r *Repository) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	query := `
		SELECT patient_id, first_name, last_name, dob, created_at
		FROM patients
		ORDER BY patient_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var patients []*model.Patient
	for rows.Next() {
		var patient model.Patient
		if err := rows.Scan(
			&patient.PatientID,
			&patient.FirstName,
			&patient.LastName,
			&patient.DOB,
			&patient.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, &patient)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patients: %w", err)
	}

	return patients, nil
}

// ListDevices returns all linked devices, grouped by caller as needed.
func (r *Repository) ListDevices(ctx context.Context) ([]*model.Device, error) {
	query := `
		SELECT device_id, patient_id
		FROM devices
		ORDER BY patient_id, device_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*model.Device
	for rows.Next() {
		var device model.Device
		if err := rows.Scan(&device.DeviceID, &device.PatientID); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, &device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}

	return devices, nil
}
