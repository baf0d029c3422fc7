package mysql

import (
	"context"
	"fmt"
	"strings"

	"oeecore/pkg/oee"
	"oeecore/pkg/store/mysql/model"

	"gorm.io/gorm/clause"
)

// EventRepository persists the append-only telemetry event log, indexed by
// (equipment_id, timestamp). Rows are never updated or deleted by this core;
// duplicate submissions are absorbed by the unique keys.
type EventRepository struct {
	ds *Datastore
}

// NewEventRepository creates a new event repository
func NewEventRepository(ds *Datastore) *EventRepository {
	return &EventRepository{ds: ds}
}

// InsertStateEvents appends state events, skipping already-seen ones.
// Returns the number of newly inserted rows.
func (r *EventRepository) InsertStateEvents(ctx context.Context, rows []*model.StateEventRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.ds.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to insert state events: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// InsertProductionCountEvents appends count events, skipping already-seen ones.
func (r *EventRepository) InsertProductionCountEvents(ctx context.Context, rows []*model.ProductionCountEventRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.ds.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to insert production count events: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// InsertQualityEvents appends quality events, skipping already-seen ones.
func (r *EventRepository) InsertQualityEvents(ctx context.Context, rows []*model.QualityEventRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.ds.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to insert quality events: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListStateEvents returns the state events relevant to one equipment and
// window: every event starting inside the window plus the last event at or
// before the window start, so the segmenter knows the leading state.
func (r *EventRepository) ListStateEvents(ctx context.Context, equipmentID string, window oee.Window) ([]oee.StateEvent, error) {
	var rows []*model.StateEventRow

	var leading model.StateEventRow
	err := r.ds.DB(ctx).
		Where("equipment_id = ? AND start_time <= ?", equipmentID, window.Start).
		Order("start_time DESC, ingested_at DESC").
		Limit(1).
		Find(&leading).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get leading state event: %w", err)
	}
	if leading.ID != 0 {
		rows = append(rows, &leading)
	}

	var inWindow []*model.StateEventRow
	err = r.ds.DB(ctx).
		Where("equipment_id = ? AND start_time > ? AND start_time < ?", equipmentID, window.Start, window.End).
		Order("start_time ASC, ingested_at ASC").
		Find(&inWindow).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list state events: %w", err)
	}
	rows = append(rows, inWindow...)

	events := make([]oee.StateEvent, len(rows))
	for i, row := range rows {
		events[i] = oee.StateEvent{
			EquipmentID: row.EquipmentID,
			State:       oee.MachineState(row.State),
			Category:    oee.SegmentCategory(row.Category),
			ReasonCode:  row.ReasonCode,
			StartTime:   row.StartTime,
			EndTime:     row.EndTime,
			IngestedAt:  row.IngestedAt,
		}
	}
	return events, nil
}

// SumProductionCounts sums the count events of one equipment over a window.
func (r *EventRepository) SumProductionCounts(ctx context.Context, equipmentID string, window oee.Window) (oee.ProductionCounts, error) {
	var counts oee.ProductionCounts
	err := r.ds.DB(ctx).Raw(`
		SELECT
			COALESCE(SUM(total_count), 0)  AS total,
			COALESCE(SUM(good_count), 0)   AS good,
			COALESCE(SUM(reject_count), 0) AS reject
		FROM production_count_events
		WHERE equipment_id = ? AND timestamp >= ? AND timestamp < ?
	`, equipmentID, window.Start, window.End).Scan(&counts).Error
	if err != nil {
		return oee.ProductionCounts{}, fmt.Errorf("failed to sum production counts: %w", err)
	}
	return counts, nil
}

// reducedYieldEventTypes are the quality event types attributed to reduced
// yield (startup losses) rather than process defects.
var reducedYieldEventTypes = map[string]bool{
	"STARTUP_LOSS":  true,
	"WARMUP":        true,
	"YIELD":         true,
	"REDUCED_YIELD": true,
}

// SumQualityTotals sums quality events over a window, split into process
// defect and reduced-yield units by event type.
func (r *EventRepository) SumQualityTotals(ctx context.Context, equipmentID string, window oee.Window) (oee.QualityTotals, error) {
	type typeSum struct {
		EventType string
		Units     int64
	}
	var sums []typeSum
	err := r.ds.DB(ctx).
		Model(&model.QualityEventRow{}).
		Select("event_type, COALESCE(SUM(quantity), 0) AS units").
		Where("equipment_id = ? AND timestamp >= ? AND timestamp < ?", equipmentID, window.Start, window.End).
		Group("event_type").
		Scan(&sums).Error
	if err != nil {
		return oee.QualityTotals{}, fmt.Errorf("failed to sum quality events: %w", err)
	}

	var totals oee.QualityTotals
	for _, s := range sums {
		if reducedYieldEventTypes[strings.ToUpper(s.EventType)] {
			totals.ReducedYieldUnits += s.Units
		} else {
			totals.ProcessDefectUnits += s.Units
		}
	}
	return totals, nil
}

// DistinctEquipmentIDs returns every equipment that reported any event inside
// the window. Used by the rollup jobs to fan out per-equipment work.
func (r *EventRepository) DistinctEquipmentIDs(ctx context.Context, window oee.Window) ([]string, error) {
	var ids []string
	err := r.ds.DB(ctx).Raw(`
		SELECT equipment_id FROM equipment_state_events
			WHERE timestamp >= ? AND timestamp < ?
		UNION
		SELECT equipment_id FROM production_count_events
			WHERE timestamp >= ? AND timestamp < ?
		UNION
		SELECT equipment_id FROM quality_events
			WHERE timestamp >= ? AND timestamp < ?
	`, window.Start, window.End, window.Start, window.End, window.Start, window.End).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct equipment: %w", err)
	}
	return ids, nil
}
