// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vitalink/vitalink/internal/metrics"
	"github.com/vitalink/vitalink/internal/model"
	"github.com/vitalink/vitalink/internal/repository"
)

// ErrPatientNotFound indicates the requested patient has no data at all.
var ErrPatientNotFound = errors.New("patient not found")

// MetricsStore is the data-store contract the aggregation engine reads from.
// Each range read is one batched query in ascending source date order.
type MetricsStore interface {
	GetPatient(ctx context.Context, patientID string) (*model.Patient, error)
	HeartRateRange(ctx context.Context, patientID, start, end string) ([]*model.HeartRateDay, error)
	SpO2Range(ctx context.Context, patientID, start, end string) ([]*model.SpO2Day, error)
	StepsRange(ctx context.Context, patientID, start, end string) ([]*model.StepsDay, error)
	BloodPressureRange(ctx context.Context, patientID, start, end string) ([]*model.BloodPressureReading, error)
}

// SummaryService merges the per-family metric tables into daily summaries.
// Pure read/shape: no caching, no writes.
type SummaryService struct {
	store   MetricsStore
	metrics metrics.Recorder
}

// NewSummaryService creates a new SummaryService.
func NewSummaryService(store MetricsStore, recorder metrics.Recorder) *SummaryService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SummaryService{
		store:   store,
		metrics: recorder,
	}
}

// DailySummaries aggregates all metric families for a patient over an
// inclusive date range into one summary per date. Dates appear in the output
// when any of the heart-rate, SpO2 or steps families has a row for them;
// blood-pressure readings attach to already-included dates. A start after
// end yields an empty result. Any family fetch failure aborts the whole
// aggregation; partial summaries are never returned.
//
// The result is keyed by ISO date, so JSON encoding emits ascending date
// order via map-key sorting.
func (s *SummaryService) DailySummaries(ctx context.Context, patientID string, start, end time.Time) (map[string]*model.DaySummary, error) {
	started := time.Now()

	if _, err := s.store.GetPatient(ctx, patientID); err != nil {
		if errors.Is(err, repository.ErrPatientNotFound) {
			s.metrics.IncSummaryRequest("not_found")
			return nil, ErrPatientNotFound
		}
		s.metrics.IncSummaryRequest("error")
		return nil, fmt.Errorf("validate patient: %w", err)
	}

	summaries := make(map[string]*model.DaySummary)
	if end.Before(start) {
		s.metrics.IncSummaryRequest("success")
		return summaries, nil
	}

	from := start.Format(model.DateLayout)
	to := end.Format(model.DateLayout)

	var (
		hrDays   []*model.HeartRateDay
		spo2Days []*model.SpO2Day
		stepDays []*model.StepsDay
		readings []*model.BloodPressureReading
	)

	// Gather pattern: the four family fetches are independent; wait for all
	// before shaping, fail as one.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hrDays, err = s.store.HeartRateRange(gctx, patientID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		spo2Days, err = s.store.SpO2Range(gctx, patientID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		stepDays, err = s.store.StepsRange(gctx, patientID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		readings, err = s.store.BloodPressureRange(gctx, patientID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncSummaryRequest("error")
		return nil, fmt.Errorf("fetch metric families: %w", err)
	}

	// Resting overlay is built in the same pass over the heart-rate rows.
	resting := make(map[string]float64, len(hrDays))
	hrByDate := make(map[string]*model.HeartRateDay, len(hrDays))
	for _, day := range hrDays {
		hrByDate[day.Date] = day
		if day.Resting != nil {
			resting[day.Date] = *day.Resting
		}
	}

	spo2ByDate := make(map[string]*model.SpO2Day, len(spo2Days))
	for _, day := range spo2Days {
		spo2ByDate[day.Date] = day
	}

	stepsByDate := make(map[string]*model.StepsDay, len(stepDays))
	for _, day := range stepDays {
		stepsByDate[day.Date] = day
	}

	for date := range hrByDate {
		summaries[date] = s.buildDay(date, hrByDate, spo2ByDate, stepsByDate, resting)
	}
	for date := range spo2ByDate {
		if _, ok := summaries[date]; !ok {
			summaries[date] = s.buildDay(date, hrByDate, spo2ByDate, stepsByDate, resting)
		}
	}
	for date := range stepsByDate {
		if _, ok := summaries[date]; !ok {
			summaries[date] = s.buildDay(date, hrByDate, spo2ByDate, stepsByDate, resting)
		}
	}

	// Readings attach to their date's summary in fetch order. Dates with a
	// reading but no daily rows stay out of the output; inclusion is keyed
	// off the non-BP families.
	for _, reading := range readings {
		summary, ok := summaries[reading.ReadingDate]
		if !ok {
			continue
		}
		summary.BP = append(summary.BP, model.BPEntry{
			Time:      reading.Timestamp(),
			Systolic:  reading.Systolic,
			Diastolic: reading.Diastolic,
			Pulse:     reading.Pulse,
		})
	}

	s.metrics.IncSummaryRequest("success")
	s.metrics.ObserveSummaryDuration(time.Since(started))
	s.metrics.ObserveSummaryDays(len(summaries))

	return summaries, nil
}

// buildDay shapes one date's summary from whichever families have rows.
func (s *SummaryService) buildDay(
	date string,
	hrByDate map[string]*model.HeartRateDay,
	spo2ByDate map[string]*model.SpO2Day,
	stepsByDate map[string]*model.StepsDay,
	resting map[string]float64,
) *model.DaySummary {
	summary := &model.DaySummary{
		BP:     []model.BPEntry{},
		Weight: []model.WeightEntry{},
	}

	if hr, ok := hrByDate[date]; ok {
		summary.HR = model.HRSummary{
			Min: roundValue(hr.Min),
			Avg: roundValue(hr.Avg),
			Max: roundValue(hr.Max),
		}
	}
	if value, ok := resting[date]; ok {
		rounded := int(math.Round(value))
		summary.HR.Resting = &rounded
	}

	if spo2, ok := spo2ByDate[date]; ok {
		summary.SpO2 = model.SpO2Summary{
			Min: roundValue(spo2.Min),
			Avg: roundValue(spo2.Avg),
			Max: roundValue(spo2.Max),
		}
	}

	if steps, ok := stepsByDate[date]; ok {
		summary.Steps = model.StepsSummary{Count: roundValue(steps.Total)}
	}

	return summary
}

// roundValue rounds half away from zero, defaulting missing inputs to 0 so
// a day with no samples reports 0 rather than an absent field.
func roundValue(value *float64) int {
	if value == nil {
		return 0
	}
	return int(math.Round(*value))
}
