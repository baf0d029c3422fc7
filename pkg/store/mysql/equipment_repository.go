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

// EquipmentRepository reads equipment reference data. The external equipment
// registry owns writes; this core only consumes.
type EquipmentRepository struct {
	ds *Datastore
}

// NewEquipmentRepository creates a new equipment repository
func NewEquipmentRepository(ds *Datastore) *EquipmentRepository {
	return &EquipmentRepository{ds: ds}
}

// GetByID retrieves one equipment record.
func (r *EquipmentRepository) GetByID(ctx context.Context, id string) (*model.Equipment, error) {
	var eq model.Equipment
	err := r.ds.DB(ctx).Where("id = ?", id).First(&eq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &oee.NotFoundError{Resource: "equipment", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get equipment %s: %w", id, err)
	}
	return &eq, nil
}

// List retrieves all registered equipment, ordered by id.
func (r *EquipmentRepository) List(ctx context.Context) ([]*model.Equipment, error) {
	var all []*model.Equipment
	if err := r.ds.DB(ctx).Order("id").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	return all, nil
}

// ListByWorkCenter retrieves the equipment of one work center.
func (r *EquipmentRepository) ListByWorkCenter(ctx context.Context, workCenterID string) ([]*model.Equipment, error) {
	var all []*model.Equipment
	err := r.ds.DB(ctx).Where("work_center_id = ?", workCenterID).Order("id").Find(&all).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment for work center %s: %w", workCenterID, err)
	}
	return all, nil
}

// IdealCycleTime returns the equipment's ideal cycle time, or a
// ConfigurationError when it is missing or non-positive.
func (r *EquipmentRepository) IdealCycleTime(ctx context.Context, id string) (time.Duration, error) {
	eq, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if eq.IdealCycleTimeMs <= 0 {
		return 0, &oee.ConfigurationError{
			EquipmentID: id,
			Reason:      fmt.Sprintf("ideal cycle time %dms must be positive", eq.IdealCycleTimeMs),
		}
	}
	return time.Duration(eq.IdealCycleTimeMs) * time.Millisecond, nil
}
