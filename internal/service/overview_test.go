package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vitalink/vitalink/internal/model"
)

type fakeOverviewStore struct {
	patients []*model.Patient
	hr       map[string]*model.HeartRateDayStat
	spo2     map[string]*model.SpO2DayStat
	steps    map[string]*model.StepsDayStat

	patientsErr error
	hrErr       error
}

func (f *fakeOverviewStore) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	if f.patientsErr != nil {
		return nil, f.patientsErr
	}
	return f.patients, nil
}

func (f *fakeOverviewStore) LatestHeartRateDays(ctx context.Context) (map[string]*model.HeartRateDayStat, error) {
	if f.hrErr != nil {
		return nil, f.hrErr
	}
	return f.hr, nil
}

func (f *fakeOverviewStore) LatestSpO2Days(ctx context.Context) (map[string]*model.SpO2DayStat, error) {
	return f.spo2, nil
}

func (f *fakeOverviewStore) LatestStepsDays(ctx context.Context) (map[string]*model.StepsDayStat, error) {
	return f.steps, nil
}

func overviewPatients(ids ...string) []*model.Patient {
	patients := make([]*model.Patient, 0, len(ids))
	for _, id := range ids {
		patients = append(patients, &model.Patient{
			PatientID: id,
			DOB:       time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return patients
}

func TestOverview_JoinsLatestDaysInRosterOrder(t *testing.T) {
	avg := 71.4
	total := 10233.0

	store := &fakeOverviewStore{
		patients: overviewPatients("Fitbit-User-01", "Mi-User-01"),
		hr: map[string]*model.HeartRateDayStat{
			"Mi-User-01": {Date: "2024-03-11", Avg: &avg, Count: 1440},
		},
		steps: map[string]*model.StepsDayStat{
			"Mi-User-01":     {Date: "2024-03-11", Total: &total},
			"Fitbit-User-01": {Date: "2024-03-09", Total: &total},
		},
	}
	svc := NewOverviewService(store)

	rows, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].PatientID != "Fitbit-User-01" || rows[1].PatientID != "Mi-User-01" {
		t.Errorf("rows out of roster order: %q, %q", rows[0].PatientID, rows[1].PatientID)
	}

	// Families without data stay nil; present families carry their own date.
	if rows[0].HR != nil || rows[0].SpO2 != nil {
		t.Error("Fitbit-User-01 should have nil hr and spo2")
	}
	if rows[0].Steps == nil || rows[0].Steps.Date != "2024-03-09" {
		t.Errorf("Fitbit-User-01 steps = %+v, want date 2024-03-09", rows[0].Steps)
	}
	if rows[1].HR == nil || rows[1].HR.Count != 1440 {
		t.Errorf("Mi-User-01 hr = %+v, want count 1440", rows[1].HR)
	}
}

func TestOverview_EmptyRoster(t *testing.T) {
	svc := NewOverviewService(&fakeOverviewStore{})

	rows, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestOverview_FetchFailureAborts(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewOverviewService(&fakeOverviewStore{
		patients: overviewPatients("P1"),
		hrErr:    boom,
	})

	if _, err := svc.Overview(context.Background()); !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
}
