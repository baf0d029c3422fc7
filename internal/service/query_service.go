package service

import (
	"context"
	"errors"
	"time"

	"oeecore/internal/model"
	"oeecore/pkg/config"
	"oeecore/pkg/logger"
	"oeecore/pkg/oee"
	"oeecore/pkg/store/mysql"
	redisstore "oeecore/pkg/store/redis"
)

// QueryService is the read contract consumed by dashboards and reports:
// point lookups, trend sequences, loss paretos, shift summaries.
type QueryService struct {
	repo  *mysql.Repository
	cache *redisstore.ResultCache
	calc  *CalculationService
	cfg   *config.Config
}

// NewQueryService creates a new query service
func NewQueryService(repo *mysql.Repository, cache *redisstore.ResultCache, calc *CalculationService, cfg *config.Config) *QueryService {
	return &QueryService{repo: repo, cache: cache, calc: calc, cfg: cfg}
}

// GetOEE returns the result for one window, recomputing when no cached value
// exists. Recomputation is bounded by the configured budget; on timeout the
// last stored result is returned with the STALE flag instead of blocking the
// caller. Unknown equipment is a NotFoundError.
func (s *QueryService) GetOEE(ctx context.Context, equipmentID string, window oee.Window, shiftInstanceID string) (*model.OEEResultResponse, error) {
	if _, err := s.repo.Equipment.GetByID(ctx, equipmentID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, equipmentID, window, shiftInstanceID)
		if err != nil {
			logger.WarnCtx(ctx, "result cache read failed for %s: %v", equipmentID, err)
		}
		if cached != nil {
			resp := model.ResultToResponse(cached)
			return &resp, nil
		}
	}

	rctx, cancel := context.WithTimeout(ctx, s.cfg.Calculation.RecomputeTimeout)
	defer cancel()

	res, err := s.calc.ComputeWindow(rctx, equipmentID, window, shiftInstanceID, resolutionForWindow(window, shiftInstanceID), false)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return s.staleFallback(ctx, equipmentID, window, shiftInstanceID, err)
		}
		return nil, err
	}

	resp := model.ResultToResponse(res)
	return &resp, nil
}

// staleFallback serves the stored result, flagged STALE, when recomputation
// ran out of budget.
func (s *QueryService) staleFallback(ctx context.Context, equipmentID string, window oee.Window, shiftInstanceID string, cause error) (*model.OEEResultResponse, error) {
	row, err := s.repo.Result.Get(ctx, equipmentID, window, shiftInstanceID)
	if err != nil || row == nil {
		return nil, cause
	}
	res, err := mysql.RowToResult(row)
	if err != nil {
		return nil, cause
	}
	if !res.HasFlag(oee.FlagStale) {
		res.Flags = append(res.Flags, oee.FlagStale)
	}
	logger.WarnCtx(ctx, "recompute budget exceeded for %s, serving stale result computed at %s",
		equipmentID, res.ComputedAt.Format(time.RFC3339))

	resp := model.ResultToResponse(res)
	return &resp, nil
}

// GetTrend returns the ordered stored results of one resolution inside
// [start, end). The window count is bounded by configuration; a longer range
// is truncated, and the caller restarts from the last returned window to
// page further.
func (s *QueryService) GetTrend(ctx context.Context, equipmentID string, start, end time.Time, resolution oee.Resolution) (*model.TrendResponse, error) {
	if !resolution.Valid() {
		return nil, &oee.ValidationError{Field: "resolution", Reason: "unknown resolution"}
	}
	if !end.After(start) {
		return nil, &oee.ValidationError{Field: "end", Reason: "must be after start"}
	}
	if _, err := s.repo.Equipment.GetByID(ctx, equipmentID); err != nil {
		return nil, err
	}

	step := resolution.Step()
	if max := time.Duration(s.cfg.Calculation.TrendMaxWindows) * step; step > 0 && end.Sub(start) > max {
		end = start.Add(max)
	}

	rows, err := s.repo.Result.ListRange(ctx, equipmentID, resolution, start, end)
	if err != nil {
		return nil, err
	}

	resp := &model.TrendResponse{
		EquipmentID: equipmentID,
		Resolution:  string(resolution),
		Results:     make([]model.OEEResultResponse, 0, len(rows)),
	}
	for _, row := range rows {
		res, err := mysql.RowToResult(row)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, model.ResultToResponse(res))
	}
	return resp, nil
}

// GetLossPareto ranks one equipment's loss categories over [start, end) from
// the stored hourly breakdowns.
func (s *QueryService) GetLossPareto(ctx context.Context, equipmentID string, start, end time.Time) (*model.LossParetoResponse, error) {
	if _, err := s.repo.Equipment.GetByID(ctx, equipmentID); err != nil {
		return nil, err
	}

	total, err := s.sumBreakdowns(ctx, equipmentID, start, end)
	if err != nil {
		return nil, err
	}

	resp := s.paretoResponse(total, start, end)
	resp.EquipmentID = equipmentID
	return resp, nil
}

// GetWorkCenterLossPareto ranks loss categories across every equipment of a
// work center. A failure on one equipment is logged and skipped, never
// aborting the whole query.
func (s *QueryService) GetWorkCenterLossPareto(ctx context.Context, workCenterID string, start, end time.Time) (*model.LossParetoResponse, error) {
	equipment, err := s.repo.Equipment.ListByWorkCenter(ctx, workCenterID)
	if err != nil {
		return nil, err
	}
	if len(equipment) == 0 {
		return nil, &oee.NotFoundError{Resource: "work center", ID: workCenterID}
	}

	combined := oee.LossBreakdown{}
	for _, eq := range equipment {
		breakdown, err := s.sumBreakdowns(ctx, eq.ID, start, end)
		if err != nil {
			logger.WarnCtx(ctx, "loss pareto skipped equipment %s: %v", eq.ID, err)
			continue
		}
		combined = combined.Add(breakdown)
	}

	resp := s.paretoResponse(combined, start, end)
	resp.WorkCenterID = workCenterID
	return resp, nil
}

func (s *QueryService) sumBreakdowns(ctx context.Context, equipmentID string, start, end time.Time) (oee.LossBreakdown, error) {
	rows, err := s.repo.Result.ListRange(ctx, equipmentID, oee.ResolutionHourly, start, end)
	if err != nil {
		return nil, err
	}
	total := oee.LossBreakdown{}
	for _, row := range rows {
		res, err := mysql.RowToResult(row)
		if err != nil {
			return nil, err
		}
		total = total.Add(res.LossBreakdown)
	}
	return total, nil
}

func (s *QueryService) paretoResponse(breakdown oee.LossBreakdown, start, end time.Time) *model.LossParetoResponse {
	totalLoss := breakdown.TotalDuration()
	resp := &model.LossParetoResponse{
		WindowStart:  start,
		WindowEnd:    end,
		TotalLossSec: totalLoss.Seconds(),
		Entries:      make([]model.LossEntry, 0, len(breakdown)),
	}
	for _, cat := range breakdown.Categories() {
		amount := breakdown[cat]
		entry := model.LossEntry{
			Category:    string(cat),
			DurationSec: amount.Duration.Seconds(),
			Units:       amount.Units,
		}
		if totalLoss > 0 {
			entry.Percentage = amount.Duration.Seconds() / totalLoss.Seconds() * 100
		}
		resp.Entries = append(resp.Entries, entry)
	}
	return resp
}

// GetShiftSummary reports the shifts overlapping [start, end) with both the
// duration-weighted OEE of the combined shifts and the naive per-shift
// average. The naive average is an approximation: with unequal shift lengths
// it diverges from the true value, so the two are labeled separately.
func (s *QueryService) GetShiftSummary(ctx context.Context, equipmentID string, start, end time.Time) (*model.ShiftSummaryResponse, error) {
	if _, err := s.repo.Equipment.GetByID(ctx, equipmentID); err != nil {
		return nil, err
	}

	rows, err := s.repo.Result.ListShiftResults(ctx, equipmentID, start, end)
	if err != nil {
		return nil, err
	}

	resp := &model.ShiftSummaryResponse{
		EquipmentID: equipmentID,
		WindowStart: start,
		WindowEnd:   end,
		ShiftCount:  len(rows),
	}
	if len(rows) == 0 {
		return resp, nil
	}

	parts := make([]*oee.Result, len(rows))
	for i, row := range rows {
		part, err := mysql.RowToResult(row)
		if err != nil {
			return nil, err
		}
		parts[i] = part
		resp.Shifts = append(resp.Shifts, model.ResultToResponse(part))
	}

	idealCycleTime, err := s.repo.Equipment.IdealCycleTime(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	combined, _, err := oee.Combine(equipmentID, oee.Window{Start: start, End: end}, parts, idealCycleTime, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if combined.OEE.Defined {
		v := combined.OEE.Value
		resp.TrueOEE = &v
	}
	if naive := oee.NaiveAverageOEE(parts); naive.Defined {
		v := naive.Value
		resp.NaiveAverageOEE = &v
	}
	return resp, nil
}

// ListAnomalies returns one equipment's recent anomaly warnings along with
// per-kind counts over the whole window. Counts cover every warning in the
// window even when the item list is truncated by the limit.
func (s *QueryService) ListAnomalies(ctx context.Context, equipmentID string, start, end time.Time, limit int) (*model.AnomalyListResponse, error) {
	if _, err := s.repo.Equipment.GetByID(ctx, equipmentID); err != nil {
		return nil, err
	}
	rows, err := s.repo.Anomaly.ListByEquipment(ctx, equipmentID, start, end, limit)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.Anomaly.CountByKind(ctx, equipmentID, start, end)
	if err != nil {
		return nil, err
	}

	resp := &model.AnomalyListResponse{
		EquipmentID: equipmentID,
		WindowStart: start,
		WindowEnd:   end,
		Counts:      counts,
		Items:       make([]model.AnomalyResponse, len(rows)),
	}
	for i, row := range rows {
		resp.Items[i] = model.AnomalyResponse{
			ID:          row.ID,
			Kind:        row.Kind,
			EquipmentID: row.EquipmentID,
			WindowStart: row.WindowStart,
			WindowEnd:   row.WindowEnd,
			Detail:      row.Detail,
			ObservedAt:  row.ObservedAt,
		}
	}
	return resp, nil
}

// ListShiftInstances mirrors the shift calendar for one equipment over
// [start, end).
func (s *QueryService) ListShiftInstances(ctx context.Context, equipmentID string, start, end time.Time) ([]model.ShiftInstanceResponse, error) {
	if _, err := s.repo.Equipment.GetByID(ctx, equipmentID); err != nil {
		return nil, err
	}
	instances, err := s.repo.Shift.ListInstances(ctx, equipmentID, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]model.ShiftInstanceResponse, len(instances))
	for i, inst := range instances {
		out[i] = model.ShiftInstanceResponse{
			ID:           inst.ID,
			DefinitionID: inst.DefinitionID,
			EquipmentID:  inst.EquipmentID,
			Start:        inst.StartTime,
			End:          inst.EffectiveEnd(),
			ClosedEarly:  inst.EarlyCloseAt != nil && inst.EarlyCloseAt.Before(inst.EndTime),
		}
	}
	return out, nil
}

// ListEquipment mirrors the read-only equipment registry.
func (s *QueryService) ListEquipment(ctx context.Context) ([]model.EquipmentResponse, error) {
	rows, err := s.repo.Equipment.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.EquipmentResponse, len(rows))
	for i, eq := range rows {
		out[i] = model.EquipmentResponse{
			ID:               eq.ID,
			Name:             eq.Name,
			WorkCenterID:     eq.WorkCenterID,
			IdealCycleTimeMs: eq.IdealCycleTimeMs,
			NominalSpeed:     eq.NominalSpeed,
		}
	}
	return out, nil
}

// resolutionForWindow picks the stored resolution a window key belongs to.
func resolutionForWindow(window oee.Window, shiftInstanceID string) oee.Resolution {
	if shiftInstanceID != "" {
		return oee.ResolutionShift
	}
	switch window.Duration() {
	case time.Hour:
		return oee.ResolutionHourly
	case 24 * time.Hour:
		return oee.ResolutionDaily
	default:
		return oee.ResolutionRealtime
	}
}
