//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vitalink/vitalink/internal/model"
	"github.com/vitalink/vitalink/internal/testutil"
)

func newTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}

func seedAdmin(t *testing.T, ctx context.Context, repo *Repository, id, email, passwordHash string, active bool) {
	t.Helper()
	_, err := repo.Pool().Exec(ctx, `
		INSERT INTO admins (id, email, password_hash, is_active, first_name, last_name)
		VALUES ($1, $2, $3, $4, 'Dana', 'Wells')
	`, id, email, passwordHash, active)
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
}

func seedPatient(t *testing.T, ctx context.Context, repo *Repository, patientID string) {
	t.Helper()
	patient := testutil.NewTestPatient(t, patientID)
	_, err := repo.Pool().Exec(ctx, `
		INSERT INTO patients (patient_id, first_name, last_name, dob, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, patient.PatientID, patient.FirstName, patient.LastName, patient.DOB, patient.CreatedAt)
	if err != nil {
		t.Fatalf("seed patient: %v", err)
	}
}

// ============================================================================
// Admin Repository Integration Tests
// ============================================================================

func TestIntegrationAdminRepository_GetActiveAdminByEmail(t *testing.T) {
	ctx, repo := newTestEnv(t)

	id := testutil.UniqueID("admin")
	seedAdmin(t, ctx, repo, id, "clinic@example.com", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA", true)

	admin, err := repo.GetActiveAdminByEmail(ctx, "CLINIC@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("GetActiveAdminByEmail failed: %v", err)
	}

	if admin.ID != id {
		t.Errorf("ID mismatch: got %q, want %q", admin.ID, id)
	}
	if admin.FirstName != "Dana" || admin.LastName != "Wells" {
		t.Errorf("unexpected name: %s %s", admin.FirstName, admin.LastName)
	}
	if admin.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if admin.LastLoginAt != nil {
		t.Errorf("expected nil LastLoginAt on fresh account, got %v", admin.LastLoginAt)
	}
}

func TestIntegrationAdminRepository_GetActiveAdminByEmail_NotFound(t *testing.T) {
	ctx, repo := newTestEnv(t)

	_, err := repo.GetActiveAdminByEmail(ctx, "nobody@example.com")
	if !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("expected ErrAdminNotFound, got: %v", err)
	}
}

func TestIntegrationAdminRepository_GetActiveAdminByEmail_InactiveHidden(t *testing.T) {
	ctx, repo := newTestEnv(t)

	seedAdmin(t, ctx, repo, testutil.UniqueID("admin"), "gone@example.com", "hash", false)

	_, err := repo.GetActiveAdminByEmail(ctx, "gone@example.com")
	if !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("expected ErrAdminNotFound for inactive account, got: %v", err)
	}
}

func TestIntegrationAdminRepository_TouchAdminLastLogin(t *testing.T) {
	ctx, repo := newTestEnv(t)

	id := testutil.UniqueID("admin")
	seedAdmin(t, ctx, repo, id, "clinic@example.com", "hash", true)

	at := time.Now().UTC().Truncate(time.Microsecond)
	if err := repo.TouchAdminLastLogin(ctx, id, at); err != nil {
		t.Fatalf("TouchAdminLastLogin failed: %v", err)
	}

	admin, err := repo.GetActiveAdminByEmail(ctx, "clinic@example.com")
	if err != nil {
		t.Fatalf("GetActiveAdminByEmail failed: %v", err)
	}
	if admin.LastLoginAt == nil || !admin.LastLoginAt.Equal(at) {
		t.Errorf("LastLoginAt mismatch: got %v, want %v", admin.LastLoginAt, at)
	}
}

func TestIntegrationAdminRepository_ProvisionAdminPassword(t *testing.T) {
	ctx, repo := newTestEnv(t)

	id := testutil.UniqueID("admin")
	seedAdmin(t, ctx, repo, id, "fresh@example.com", model.PlaceholderHash, true)

	hash := "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA"
	if err := repo.ProvisionAdminPassword(ctx, "fresh@example.com", hash); err != nil {
		t.Fatalf("ProvisionAdminPassword failed: %v", err)
	}

	admin, err := repo.GetActiveAdminByEmail(ctx, "fresh@example.com")
	if err != nil {
		t.Fatalf("GetActiveAdminByEmail failed: %v", err)
	}
	if admin.PasswordHash != hash {
		t.Errorf("hash not stored: got %q", admin.PasswordHash)
	}

	// Second provision attempt must not overwrite the stored credential.
	err = repo.ProvisionAdminPassword(ctx, "fresh@example.com", "another-hash")
	if !errors.Is(err, ErrAdminProvisioned) {
		t.Errorf("expected ErrAdminProvisioned, got: %v", err)
	}

	err = repo.ProvisionAdminPassword(ctx, "missing@example.com", hash)
	if !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("expected ErrAdminNotFound, got: %v", err)
	}
}

// ============================================================================
// Patient Repository Integration Tests
// ============================================================================

func TestIntegrationPatientRepository_GetPatient(t *testing.T) {
	ctx, repo := newTestEnv(t)

	seedPatient(t, ctx, repo, "P100")

	patient, err := repo.GetPatient(ctx, "P100")
	if err != nil {
		t.Fatalf("GetPatient failed: %v", err)
	}
	if patient.PatientID != "P100" {
		t.Errorf("PatientID mismatch: got %q", patient.PatientID)
	}

	_, err = repo.GetPatient(ctx, "P999")
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got: %v", err)
	}
}

func TestIntegrationPatientRepository_ListPatientsAndDevices(t *testing.T) {
	ctx, repo := newTestEnv(t)

	seedPatient(t, ctx, repo, "P2")
	seedPatient(t, ctx, repo, "P1")

	for _, row := range [][2]string{{"D1", "P1"}, {"D2", "P1"}, {"D3", "P2"}} {
		if _, err := repo.Pool().Exec(ctx,
			`INSERT INTO devices (device_id, patient_id) VALUES ($1, $2)`, row[0], row[1]); err != nil {
			t.Fatalf("seed device: %v", err)
		}
	}

	patients, err := repo.ListPatients(ctx)
	if err != nil {
		t.Fatalf("ListPatients failed: %v", err)
	}
	if len(patients) != 2 {
		t.Fatalf("expected 2 patients, got %d", len(patients))
	}
	if patients[0].PatientID != "P1" || patients[1].PatientID != "P2" {
		t.Errorf("expected stable ID order, got %s, %s", patients[0].PatientID, patients[1].PatientID)
	}

	devices, err := repo.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}
	if len(devices) != 3 {
		t.Errorf("expected 3 devices, got %d", len(devices))
	}
}

// ============================================================================
// Metrics Repository Integration Tests
// ============================================================================

func TestIntegrationMetricsRepository_Ranges(t *testing.T) {
	ctx, repo := newTestEnv(t)

	seedPatient(t, ctx, repo, "P1")

	if _, err := repo.Pool().Exec(ctx, `
		INSERT INTO hr_day (patient_id, date, hr_min, hr_avg, hr_max, hr_resting) VALUES
			('P1', '2024-01-02', 58.4, 70.1, 120.9, 61.0),
			('P1', '2024-01-01', 55.0, 68.0, 110.0, NULL),
			('P1', '2024-02-01', 60.0, 72.0, 130.0, 62.0)
	`); err != nil {
		t.Fatalf("seed hr_day: %v", err)
	}

	days, err := repo.HeartRateRange(ctx, "P1", "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("HeartRateRange failed: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 rows inside range, got %d", len(days))
	}
	if days[0].Date != "2024-01-01" || days[1].Date != "2024-01-02" {
		t.Errorf("expected ascending date order, got %s, %s", days[0].Date, days[1].Date)
	}
	if days[0].Resting != nil {
		t.Errorf("expected nil resting on 2024-01-01, got %v", *days[0].Resting)
	}
	if days[1].Resting == nil || *days[1].Resting != 61.0 {
		t.Errorf("expected resting 61.0 on 2024-01-02, got %v", days[1].Resting)
	}
	if days[1].Avg == nil || *days[1].Avg != 70.1 {
		t.Errorf("unexpected avg: %v", days[1].Avg)
	}
}

func TestIntegrationMetricsRepository_BloodPressureRange(t *testing.T) {
	ctx, repo := newTestEnv(t)

	seedPatient(t, ctx, repo, "P1")

	if _, err := repo.Pool().Exec(ctx, `
		INSERT INTO bp_reading (patient_id, reading_date, reading_time, systolic, diastolic, pulse) VALUES
			('P1', '2024-01-01', '12:40', 122, 81, 66),
			('P1', '2024-01-01', '08:30', 120, 80, 65),
			('P1', '2024-01-05', '09:00', 118, 76, 60)
	`); err != nil {
		t.Fatalf("seed bp_reading: %v", err)
	}

	readings, err := repo.BloodPressureRange(ctx, "P1", "2024-01-01", "2024-01-01")
	if err != nil {
		t.Fatalf("BloodPressureRange failed: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings on the day, got %d", len(readings))
	}
	if readings[0].ReadingTime != "08:30" || readings[1].ReadingTime != "12:40" {
		t.Errorf("expected time-ordered readings, got %s, %s",
			readings[0].ReadingTime, readings[1].ReadingTime)
	}
	if readings[0].Timestamp() != "2024-01-01T08:30" {
		t.Errorf("unexpected composite timestamp: %s", readings[0].Timestamp())
	}
}

// ============================================================================
// Health Event Repository Integration Tests
// ============================================================================

func TestIntegrationHealthEventRepository_CreateAndList(t *testing.T) {
	ctx, repo := newTestEnv(t)

	first := testutil.NewTestHealthEvent(t, "U1", 120, 80, 65)
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	second := testutil.NewTestHealthEvent(t, "U1", 130, 85, 70)
	unowned := testutil.NewTestHealthEvent(t, "", 118, 76, 58)
	other := testutil.NewTestHealthEvent(t, "U2", 140, 90, 80)

	for _, event := range []*model.HealthEvent{first, second, unowned, other} {
		if err := repo.CreateHealthEvent(ctx, event); err != nil {
			t.Fatalf("CreateHealthEvent failed: %v", err)
		}
	}

	events, err := repo.ListHealthEvents(ctx, "U1")
	if err != nil {
		t.Fatalf("ListHealthEvents failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected U1's events plus unowned, got %d", len(events))
	}
	if !events[0].CreatedAt.After(events[len(events)-1].CreatedAt) {
		t.Error("expected newest-first ordering")
	}
	for _, event := range events {
		if event.UserID == "U2" {
			t.Errorf("event for another user leaked: %s", event.ID)
		}
	}

	all, err := repo.ListHealthEvents(ctx, "")
	if err != nil {
		t.Fatalf("ListHealthEvents (all) failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected all 4 events, got %d", len(all))
	}
}
