package model

import "time"

// OEEResultRow is one persisted calculation result. Upserts are keyed by
// (equipment_id, window_start, window_end, shift_instance_id); concurrent
// recomputations are resolved by computed_at, last writer wins.
//
// Undefined ratios are stored as NULL, never as 0. The summed raw totals are
// stored alongside the ratios so rollups recompute from sums.
type OEEResultRow struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	EquipmentID     string    `gorm:"size:64;not null;uniqueIndex:uk_result_window,priority:1;index:idx_result_equipment_time,priority:1"`
	WindowStart     time.Time `gorm:"not null;uniqueIndex:uk_result_window,priority:2;index:idx_result_equipment_time,priority:2"`
	WindowEnd       time.Time `gorm:"not null;uniqueIndex:uk_result_window,priority:3"`
	ShiftInstanceID string    `gorm:"size:64;not null;default:'';uniqueIndex:uk_result_window,priority:4"` // empty for non-shift windows
	Resolution      string    `gorm:"size:16;not null;index:idx_result_resolution"`

	Availability *float64 `gorm:"type:decimal(7,6)"`
	Performance  *float64 `gorm:"type:decimal(7,6)"`
	Quality      *float64 `gorm:"type:decimal(7,6)"`
	OEE          *float64 `gorm:"column:oee;type:decimal(7,6)"`
	Utilization  *float64 `gorm:"type:decimal(7,6)"`
	TEEP         *float64 `gorm:"column:teep;type:decimal(7,6)"`

	ScheduledSec        float64 `gorm:"not null;default:0"`
	OperatingSec        float64 `gorm:"not null;default:0"`
	PlannedSec          float64 `gorm:"not null;default:0"`
	AvailabilityLossSec float64 `gorm:"not null;default:0"`

	TotalCount  int64 `gorm:"not null;default:0"`
	GoodCount   int64 `gorm:"not null;default:0"`
	RejectCount int64 `gorm:"not null;default:0"`

	LossBreakdownJSON     string `gorm:"type:json"`
	MissingComponentsJSON string `gorm:"type:json"`
	FlagsJSON             string `gorm:"type:json"`

	Preliminary bool      `gorm:"not null;default:false"`
	ComputedAt  time.Time `gorm:"not null"`
}

func (OEEResultRow) TableName() string { return "oee_results" }
