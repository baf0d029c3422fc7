package mysql

import (
	"context"
	"fmt"
	"time"

	"oeecore/pkg/oee"
	"oeecore/pkg/store/mysql/model"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// AnomalyRepository persists anomaly warnings for operator review.
type AnomalyRepository struct {
	ds *Datastore
}

// NewAnomalyRepository creates a new anomaly repository
func NewAnomalyRepository(ds *Datastore) *AnomalyRepository {
	return &AnomalyRepository{ds: ds}
}

// InsertBatch stores a batch of anomalies.
func (r *AnomalyRepository) InsertBatch(ctx context.Context, anomalies []oee.Anomaly) error {
	if len(anomalies) == 0 {
		return nil
	}
	rows := make([]*model.AnomalyRow, len(anomalies))
	for i, a := range anomalies {
		rows[i] = AnomalyToRow(uuid.NewString(), a)
	}
	err := r.ds.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to insert anomalies: %w", err)
	}
	return nil
}

// ListByEquipment retrieves the anomalies of one equipment in [start, end),
// newest first.
func (r *AnomalyRepository) ListByEquipment(ctx context.Context, equipmentID string, start, end time.Time, limit int) ([]*model.AnomalyRow, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []*model.AnomalyRow
	err := r.ds.DB(ctx).
		Where("equipment_id = ? AND observed_at >= ? AND observed_at < ?", equipmentID, start, end).
		Order("observed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies: %w", err)
	}
	return rows, nil
}

// CountByKind counts anomalies per kind for one equipment in [start, end).
func (r *AnomalyRepository) CountByKind(ctx context.Context, equipmentID string, start, end time.Time) (map[string]int64, error) {
	type kindCount struct {
		Kind  string
		Total int64
	}
	var counts []kindCount
	err := r.ds.DB(ctx).
		Model(&model.AnomalyRow{}).
		Select("kind, COUNT(*) AS total").
		Where("equipment_id = ? AND observed_at >= ? AND observed_at < ?", equipmentID, start, end).
		Group("kind").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count anomalies: %w", err)
	}
	result := make(map[string]int64, len(counts))
	for _, c := range counts {
		result[c.Kind] = c.Total
	}
	return result, nil
}

// CleanupOld removes anomalies observed before the cutoff.
func (r *AnomalyRepository) CleanupOld(ctx context.Context, before time.Time) (int64, error) {
	res := r.ds.DB(ctx).Where("observed_at < ?", before).Delete(&model.AnomalyRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clean up anomalies: %w", res.Error)
	}
	return res.RowsAffected, nil
}
