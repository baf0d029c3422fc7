package model

import "time"

// AnomalyRow is one persisted anomaly warning: non-fatal conditions raised
// during segmentation, classification or calculation, kept for operator
// review and calibration audits.
type AnomalyRow struct {
	ID          string    `gorm:"primaryKey;size:36"` // uuid
	Kind        string    `gorm:"size:64;not null;index:idx_anomaly_kind"`
	EquipmentID string    `gorm:"size:64;not null;index:idx_anomaly_equipment_time,priority:1"`
	WindowStart time.Time `gorm:"not null;index:idx_anomaly_equipment_time,priority:2"`
	WindowEnd   time.Time `gorm:"not null"`
	Detail      string    `gorm:"size:1024"`
	ObservedAt  time.Time `gorm:"not null;index:idx_anomaly_observed"`
}

func (AnomalyRow) TableName() string { return "anomaly_warnings" }
