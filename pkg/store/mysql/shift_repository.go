package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"oeecore/pkg/oee"
	"oeecore/pkg/store/mysql/model"

	"gorm.io/gorm"
)

// ShiftRepository reads shift reference data supplied by the external
// scheduling collaborator.
type ShiftRepository struct {
	ds *Datastore
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(ds *Datastore) *ShiftRepository {
	return &ShiftRepository{ds: ds}
}

// GetInstance retrieves one shift instance.
func (r *ShiftRepository) GetInstance(ctx context.Context, id string) (*model.ShiftInstance, error) {
	var inst model.ShiftInstance
	err := r.ds.DB(ctx).Where("id = ?", id).First(&inst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &oee.NotFoundError{Resource: "shift instance", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shift instance %s: %w", id, err)
	}
	return &inst, nil
}

// ListInstances retrieves the shift instances of one equipment overlapping
// [start, end), ordered by start time.
func (r *ShiftRepository) ListInstances(ctx context.Context, equipmentID string, start, end time.Time) ([]*model.ShiftInstance, error) {
	var instances []*model.ShiftInstance
	err := r.ds.DB(ctx).
		Where("equipment_id = ? AND start_time < ? AND end_time > ?", equipmentID, end, start).
		Order("start_time ASC").
		Find(&instances).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shift instances: %w", err)
	}
	return instances, nil
}

// ListEndedBetween retrieves shift instances whose effective end (early close
// wins over the scheduled end) falls in [start, end). Drives shift-close
// rollups.
func (r *ShiftRepository) ListEndedBetween(ctx context.Context, start, end time.Time) ([]*model.ShiftInstance, error) {
	var instances []*model.ShiftInstance
	err := r.ds.DB(ctx).
		Where("COALESCE(early_close_at, end_time) >= ? AND COALESCE(early_close_at, end_time) < ?", start, end).
		Order("start_time ASC").
		Find(&instances).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ended shift instances: %w", err)
	}
	return instances, nil
}

// InstanceBreaks decodes the instance's planned break windows.
func InstanceBreaks(inst *model.ShiftInstance) ([]oee.Window, error) {
	if inst.BreaksJSON == "" {
		return nil, nil
	}
	var decoded []struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}
	if err := json.Unmarshal([]byte(inst.BreaksJSON), &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode breaks for shift instance %s: %w", inst.ID, err)
	}
	breaks := make([]oee.Window, len(decoded))
	for i, b := range decoded {
		breaks[i] = oee.Window{Start: b.Start, End: b.End}
	}
	return breaks, nil
}

// InstanceWindow returns the calculation window of a shift instance,
// honoring early close.
func InstanceWindow(inst *model.ShiftInstance) oee.Window {
	return oee.Window{Start: inst.StartTime, End: inst.EffectiveEnd()}
}
