package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vitalink/vitalink/internal/model"
)

// OverviewStore is the data-store contract for the admin dashboard overview.
type OverviewStore interface {
	ListPatients(ctx context.Context) ([]*model.Patient, error)
	LatestHeartRateDays(ctx context.Context) (map[string]*model.HeartRateDayStat, error)
	LatestSpO2Days(ctx context.Context) (map[string]*model.SpO2DayStat, error)
	LatestStepsDays(ctx context.Context) (map[string]*model.StepsDayStat, error)
}

// OverviewService shapes the per-patient latest-day overview for the admin
// dashboard.
type OverviewService struct {
	store OverviewStore
}

// NewOverviewService creates a new OverviewService.
func NewOverviewService(store OverviewStore) *OverviewService {
	return &OverviewService{store: store}
}

// Overview returns one row per patient in roster order, each carrying the
// most recent rollup day of every metric family. Families with no data yet
// stay nil so the dashboard can render them as missing. Any fetch failure
// aborts the whole overview.
func (s *OverviewService) Overview(ctx context.Context) ([]*model.PatientOverview, error) {
	var (
		patients []*model.Patient
		hrStats  map[string]*model.HeartRateDayStat
		o2Stats  map[string]*model.SpO2DayStat
		stepStat map[string]*model.StepsDayStat
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		patients, err = s.store.ListPatients(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		hrStats, err = s.store.LatestHeartRateDays(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		o2Stats, err = s.store.LatestSpO2Days(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stepStat, err = s.store.LatestStepsDays(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load overview: %w", err)
	}

	rows := make([]*model.PatientOverview, 0, len(patients))
	for _, patient := range patients {
		rows = append(rows, &model.PatientOverview{
			PatientID: patient.PatientID,
			Steps:     stepStat[patient.PatientID],
			HR:        hrStats[patient.PatientID],
			SpO2:      o2Stats[patient.PatientID],
		})
	}
	return rows, nil
}
