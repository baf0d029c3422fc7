package service

import (
	"context"
	"sync"
	"time"

	"oeecore/pkg/logger"
	"oeecore/pkg/oee"
	"oeecore/pkg/store/mysql"
)

// coverageComplete is the coverage fraction above which a rollup counts as
// final. Slightly under 1 to absorb sub-second rounding in stored durations.
const coverageComplete = 0.999

// RollupService produces the multi-resolution rollups: realtime and hourly
// windows are computed from raw events, daily windows from the stored hourly
// totals. Ratios are always recomputed from summed durations and counts,
// never from averaged sub-period ratios. Equipment are processed
// independently: one failure never blocks the others.
type RollupService struct {
	repo *mysql.Repository
	calc *CalculationService
}

// NewRollupService creates a new rollup service
func NewRollupService(repo *mysql.Repository, calc *CalculationService) *RollupService {
	return &RollupService{repo: repo, calc: calc}
}

// RunRealtime computes the most recent completed realtime window for every
// equipment that reported events in it.
func (s *RollupService) RunRealtime(ctx context.Context, interval time.Duration) error {
	end := time.Now().UTC().Truncate(interval)
	window := oee.Window{Start: end.Add(-interval), End: end}
	return s.computeForActiveEquipment(ctx, window, oee.ResolutionRealtime)
}

// RunHourly computes the previous full hour for every active equipment.
func (s *RollupService) RunHourly(ctx context.Context) error {
	end := time.Now().UTC().Truncate(time.Hour)
	window := oee.Window{Start: end.Add(-time.Hour), End: end}
	return s.computeForActiveEquipment(ctx, window, oee.ResolutionHourly)
}

// RunDaily aggregates hourly results into daily windows: the finished
// previous day, and the running current day. A day aggregated before all of
// its hours exist is preliminary and is re-aggregated on the next run.
func (s *RollupService) RunDaily(ctx context.Context) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	for _, dayStart := range []time.Time{today.Add(-24 * time.Hour), today} {
		window := oee.Window{Start: dayStart, End: dayStart.Add(24 * time.Hour)}
		ids, err := s.repo.Event.DistinctEquipmentIDs(ctx, window)
		if err != nil {
			return err
		}
		s.fanOut(ctx, ids, func(equipmentID string) error {
			return s.RollupFromHourly(ctx, equipmentID, window)
		})
	}
	return nil
}

// RunShiftClose computes per-shift results for every shift instance whose
// effective end fell inside the lookback period.
func (s *RollupService) RunShiftClose(ctx context.Context, lookback time.Duration) error {
	now := time.Now().UTC()
	instances, err := s.repo.Shift.ListEndedBetween(ctx, now.Add(-lookback), now)
	if err != nil {
		return err
	}

	for _, inst := range instances {
		window := mysql.InstanceWindow(inst)
		if _, err := s.calc.ComputeWindow(ctx, inst.EquipmentID, window, inst.ID, oee.ResolutionShift, false); err != nil {
			logger.WarnCtx(ctx, "shift rollup failed for %s shift %s: %v", inst.EquipmentID, inst.ID, err)
		}
	}
	return nil
}

// RollupFromHourly combines one equipment's stored hourly totals into a daily
// result. Missing hours make the day preliminary, not wrong: the combined
// totals cover what exists and the flag marks it re-computable.
func (s *RollupService) RollupFromHourly(ctx context.Context, equipmentID string, window oee.Window) error {
	rows, err := s.repo.Result.ListRange(ctx, equipmentID, oee.ResolutionHourly, window.Start, window.End)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	parts := make([]*oee.Result, len(rows))
	for i, row := range rows {
		part, err := mysql.RowToResult(row)
		if err != nil {
			return err
		}
		parts[i] = part
	}

	idealCycleTime, err := s.repo.Equipment.IdealCycleTime(ctx, equipmentID)
	if err != nil {
		return err
	}

	combined, anomalies, err := oee.Combine(equipmentID, window, parts, idealCycleTime, time.Now().UTC())
	if err != nil {
		return err
	}

	preliminary := oee.Coverage(window, parts) < coverageComplete
	if preliminary {
		combined.Flags = append(combined.Flags, oee.FlagPreliminary)
	}

	return s.calc.persist(ctx, combined, oee.ResolutionDaily, preliminary, anomalies)
}

// computeForActiveEquipment fans the window out to every equipment with
// events in it, one goroutine per equipment.
func (s *RollupService) computeForActiveEquipment(ctx context.Context, window oee.Window, resolution oee.Resolution) error {
	ids, err := s.repo.Event.DistinctEquipmentIDs(ctx, window)
	if err != nil {
		return err
	}
	s.fanOut(ctx, ids, func(equipmentID string) error {
		_, err := s.calc.ComputeWindow(ctx, equipmentID, window, "", resolution, false)
		return err
	})
	return nil
}

// fanOut runs fn once per equipment in parallel. Failures are logged per
// equipment and never abort the batch.
func (s *RollupService) fanOut(ctx context.Context, equipmentIDs []string, fn func(equipmentID string) error) {
	var wg sync.WaitGroup
	for _, id := range equipmentIDs {
		wg.Add(1)
		go func(equipmentID string) {
			defer wg.Done()
			if err := fn(equipmentID); err != nil {
				logger.WarnCtx(ctx, "rollup failed for %s: %v", equipmentID, err)
			}
		}(id)
	}
	wg.Wait()
}
