package model

import "time"

// Equipment is reference data owned by the external equipment registry.
// Read-only from this service's perspective.
type Equipment struct {
	ID               string    `gorm:"primaryKey;size:64"`
	Name             string    `gorm:"size:255;not null"`
	WorkCenterID     string    `gorm:"size:64;index:idx_work_center"`
	IdealCycleTimeMs int64     `gorm:"not null"` // ideal time per unit, milliseconds
	NominalSpeed     float64   `gorm:"type:decimal(12,4);default:0"` // units per hour
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (Equipment) TableName() string { return "equipment" }
