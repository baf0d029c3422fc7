package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oeecore/pkg/oee"
	"oeecore/pkg/store/mysql/model"

	"gorm.io/gorm"
)

// ResultRepository persists calculation results. The upsert is keyed by
// (equipment_id, window_start, window_end, shift_instance_id) and guarded by
// computed_at so concurrent recomputations resolve to the last writer without
// any locking: the upsert is commutative under computed_at ordering.
type ResultRepository struct {
	ds *Datastore
}

// NewResultRepository creates a new result repository
func NewResultRepository(ds *Datastore) *ResultRepository {
	return &ResultRepository{ds: ds}
}

// Upsert writes one result, keeping the row with the newest computed_at.
// An incoming row older than the stored one leaves the store untouched.
func (r *ResultRepository) Upsert(ctx context.Context, row *model.OEEResultRow) error {
	// computed_at is assigned last so every IF() above it compares against
	// the previously stored timestamp.
	err := r.ds.DB(ctx).Exec(`
		INSERT INTO oee_results
			(equipment_id, window_start, window_end, shift_instance_id, resolution,
			 availability, performance, quality, oee, utilization, teep,
			 scheduled_sec, operating_sec, planned_sec, availability_loss_sec,
			 total_count, good_count, reject_count,
			 loss_breakdown_json, missing_components_json, flags_json,
			 preliminary, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			resolution              = IF(VALUES(computed_at) >= computed_at, VALUES(resolution), resolution),
			availability            = IF(VALUES(computed_at) >= computed_at, VALUES(availability), availability),
			performance             = IF(VALUES(computed_at) >= computed_at, VALUES(performance), performance),
			quality                 = IF(VALUES(computed_at) >= computed_at, VALUES(quality), quality),
			oee                     = IF(VALUES(computed_at) >= computed_at, VALUES(oee), oee),
			utilization             = IF(VALUES(computed_at) >= computed_at, VALUES(utilization), utilization),
			teep                    = IF(VALUES(computed_at) >= computed_at, VALUES(teep), teep),
			scheduled_sec           = IF(VALUES(computed_at) >= computed_at, VALUES(scheduled_sec), scheduled_sec),
			operating_sec           = IF(VALUES(computed_at) >= computed_at, VALUES(operating_sec), operating_sec),
			planned_sec             = IF(VALUES(computed_at) >= computed_at, VALUES(planned_sec), planned_sec),
			availability_loss_sec   = IF(VALUES(computed_at) >= computed_at, VALUES(availability_loss_sec), availability_loss_sec),
			total_count             = IF(VALUES(computed_at) >= computed_at, VALUES(total_count), total_count),
			good_count              = IF(VALUES(computed_at) >= computed_at, VALUES(good_count), good_count),
			reject_count            = IF(VALUES(computed_at) >= computed_at, VALUES(reject_count), reject_count),
			loss_breakdown_json     = IF(VALUES(computed_at) >= computed_at, VALUES(loss_breakdown_json), loss_breakdown_json),
			missing_components_json = IF(VALUES(computed_at) >= computed_at, VALUES(missing_components_json), missing_components_json),
			flags_json              = IF(VALUES(computed_at) >= computed_at, VALUES(flags_json), flags_json),
			preliminary             = IF(VALUES(computed_at) >= computed_at, VALUES(preliminary), preliminary),
			computed_at             = IF(VALUES(computed_at) >= computed_at, VALUES(computed_at), computed_at)
	`, row.EquipmentID, row.WindowStart, row.WindowEnd, row.ShiftInstanceID, row.Resolution,
		row.Availability, row.Performance, row.Quality, row.OEE, row.Utilization, row.TEEP,
		row.ScheduledSec, row.OperatingSec, row.PlannedSec, row.AvailabilityLossSec,
		row.TotalCount, row.GoodCount, row.RejectCount,
		row.LossBreakdownJSON, row.MissingComponentsJSON, row.FlagsJSON,
		row.Preliminary, row.ComputedAt).Error
	if err != nil {
		return fmt.Errorf("failed to upsert result: %w", err)
	}
	return nil
}

// Get retrieves the result for one exact window key, or nil when absent.
func (r *ResultRepository) Get(ctx context.Context, equipmentID string, window oee.Window, shiftInstanceID string) (*model.OEEResultRow, error) {
	var row model.OEEResultRow
	err := r.ds.DB(ctx).
		Where("equipment_id = ? AND window_start = ? AND window_end = ? AND shift_instance_id = ?",
			equipmentID, window.Start, window.End, shiftInstanceID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &row, nil
}

// ListRange retrieves the results of one resolution whose windows fall inside
// [start, end), ordered by window start.
func (r *ResultRepository) ListRange(ctx context.Context, equipmentID string, resolution oee.Resolution, start, end time.Time) ([]*model.OEEResultRow, error) {
	var rows []*model.OEEResultRow
	err := r.ds.DB(ctx).
		Where("equipment_id = ? AND resolution = ? AND window_start >= ? AND window_end <= ?",
			equipmentID, string(resolution), start, end).
		Order("window_start ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return rows, nil
}

// ListShiftResults retrieves per-shift results overlapping [start, end).
func (r *ResultRepository) ListShiftResults(ctx context.Context, equipmentID string, start, end time.Time) ([]*model.OEEResultRow, error) {
	var rows []*model.OEEResultRow
	err := r.ds.DB(ctx).
		Where("equipment_id = ? AND resolution = ? AND shift_instance_id <> '' AND window_start < ? AND window_end > ?",
			equipmentID, string(oee.ResolutionShift), end, start).
		Order("window_start ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shift results: %w", err)
	}
	return rows, nil
}

// CleanupOldRealtime removes realtime-resolution rows older than the cutoff.
// Hourly, daily and shift rows are kept.
func (r *ResultRepository) CleanupOldRealtime(ctx context.Context, before time.Time) (int64, error) {
	res := r.ds.DB(ctx).
		Where("resolution = ? AND window_end < ?", string(oee.ResolutionRealtime), before).
		Delete(&model.OEEResultRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clean up realtime results: %w", res.Error)
	}
	return res.RowsAffected, nil
}
