package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"oeecore/pkg/logger"
	"oeecore/pkg/oee"
	queueasynq "oeecore/pkg/queue/asynq"
	"oeecore/pkg/store/mysql"
	redisstore "oeecore/pkg/store/redis"

	"github.com/hibiken/asynq"
)

// CalculationService runs the full pipeline for one (equipment, window) key:
// load events, segment, classify losses, apply the OEE formulas, persist.
// Recomputation is idempotent up to the computed_at stamp; concurrent
// recomputations of the same window resolve by last-writer-wins in the
// result store.
type CalculationService struct {
	repo  *mysql.Repository
	cache *redisstore.ResultCache
}

// NewCalculationService creates a new calculation service
func NewCalculationService(repo *mysql.Repository, cache *redisstore.ResultCache) *CalculationService {
	return &CalculationService{repo: repo, cache: cache}
}

// ComputeWindow computes and persists the result for one window. A window
// with no telemetry at all yields a NO_DATA result with undefined ratios,
// never zeros. Failures are scoped to this equipment and window only.
func (s *CalculationService) ComputeWindow(ctx context.Context, equipmentID string, window oee.Window, shiftInstanceID string, resolution oee.Resolution, preliminary bool) (*oee.Result, error) {
	idealCycleTime, err := s.repo.Equipment.IdealCycleTime(ctx, equipmentID)
	if err != nil {
		return nil, err
	}

	breaks, err := s.plannedBreaks(ctx, equipmentID, window, shiftInstanceID)
	if err != nil {
		return nil, err
	}

	events, err := s.repo.Event.ListStateEvents(ctx, equipmentID, window)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.Event.SumProductionCounts(ctx, equipmentID, window)
	if err != nil {
		return nil, err
	}
	quality, err := s.repo.Event.SumQualityTotals(ctx, equipmentID, window)
	if err != nil {
		return nil, err
	}

	in := oee.Input{
		EquipmentID:     equipmentID,
		Window:          window,
		ShiftInstanceID: shiftInstanceID,
		IdealCycleTime:  idealCycleTime,
		Counts:          counts,
		Quality:         quality,
		ComputedAt:      time.Now().UTC(),
	}

	var anomalies []oee.Anomaly
	if len(events) == 0 {
		// No telemetry at all: zero durations make every ratio undefined and
		// the result carries NO_DATA instead of fabricated zeros.
		in.LossBreakdown = oee.LossBreakdown{}
	} else {
		seg := oee.BuildSegments(equipmentID, window, events, breaks)
		anomalies = append(anomalies, seg.Anomalies...)

		breakdown, classifyAnomalies := oee.ClassifyLosses(seg, counts, quality, idealCycleTime)
		anomalies = append(anomalies, classifyAnomalies...)

		in.Durations = seg.Totals
		in.LossBreakdown = breakdown
	}

	res, calcAnomalies, err := oee.Calculate(in)
	if err != nil {
		return nil, err
	}
	anomalies = append(anomalies, calcAnomalies...)

	if preliminary {
		res.Flags = append(res.Flags, oee.FlagPreliminary)
	}

	if err := s.persist(ctx, res, resolution, preliminary, anomalies); err != nil {
		return nil, err
	}
	return res, nil
}

// plannedBreaks collects the planned break windows overlapping the window.
// For a shift-keyed computation the breaks come from that instance alone;
// otherwise every overlapping instance contributes.
func (s *CalculationService) plannedBreaks(ctx context.Context, equipmentID string, window oee.Window, shiftInstanceID string) ([]oee.Window, error) {
	if shiftInstanceID != "" {
		inst, err := s.repo.Shift.GetInstance(ctx, shiftInstanceID)
		if err != nil {
			return nil, err
		}
		return mysql.InstanceBreaks(inst)
	}

	instances, err := s.repo.Shift.ListInstances(ctx, equipmentID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	var breaks []oee.Window
	for _, inst := range instances {
		instBreaks, err := mysql.InstanceBreaks(inst)
		if err != nil {
			return nil, err
		}
		breaks = append(breaks, instBreaks...)
	}
	return breaks, nil
}

func (s *CalculationService) persist(ctx context.Context, res *oee.Result, resolution oee.Resolution, preliminary bool, anomalies []oee.Anomaly) error {
	row, err := mysql.ResultToRow(res, resolution, preliminary)
	if err != nil {
		return err
	}
	if err := s.repo.Result.Upsert(ctx, row); err != nil {
		return err
	}

	if err := s.repo.Anomaly.InsertBatch(ctx, anomalies); err != nil {
		logger.WarnCtx(ctx, "failed to persist %d anomalies for %s: %v", len(anomalies), res.EquipmentID, err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, res); err != nil {
			logger.WarnCtx(ctx, "failed to cache result for %s: %v", res.EquipmentID, err)
		}
	}
	return nil
}

// RecomputeHandler processes queued recompute tasks.
type RecomputeHandler struct {
	calc *CalculationService
}

// NewRecomputeHandler creates a new recompute handler
func NewRecomputeHandler(calc *CalculationService) *RecomputeHandler {
	return &RecomputeHandler{calc: calc}
}

// ProcessTask implements asynq.Handler.
func (h *RecomputeHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queueasynq.RecomputePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to decode recompute payload: %w", err)
	}

	resolution := payload.Resolution
	if !resolution.Valid() {
		resolution = oee.ResolutionHourly
	}
	window := oee.Window{Start: payload.WindowStart, End: payload.WindowEnd}

	_, err := h.calc.ComputeWindow(ctx, payload.EquipmentID, window, payload.ShiftInstanceID, resolution, false)
	if err != nil {
		var cfgErr *oee.ConfigurationError
		if errors.As(err, &cfgErr) {
			// Misconfiguration is not transient; retrying cannot fix it.
			logger.WarnCtx(ctx, "recompute skipped for %s: %v", payload.EquipmentID, cfgErr)
			return nil
		}
		return err
	}
	return nil
}
