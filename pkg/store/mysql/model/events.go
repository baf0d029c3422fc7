package model

import "time"

// StateEventRow is one appended state-change event. The log is append-only:
// rows are never mutated after ingestion, and the unique key makes
// re-submission of an already-seen event a no-op.
type StateEventRow struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	EquipmentID string     `gorm:"size:64;not null;uniqueIndex:uk_state_event,priority:1;index:idx_state_equipment_time,priority:1"`
	Timestamp   time.Time  `gorm:"not null;uniqueIndex:uk_state_event,priority:2;index:idx_state_equipment_time,priority:2"`
	State       string     `gorm:"size:32;not null"`
	Category    string     `gorm:"size:32"`
	ReasonCode  string     `gorm:"size:128"`
	StartTime   time.Time  `gorm:"not null"`
	EndTime     *time.Time `gorm:""`
	IngestedAt  time.Time  `gorm:"not null"`
}

func (StateEventRow) TableName() string { return "equipment_state_events" }

// ProductionCountEventRow is one appended production-count report.
type ProductionCountEventRow struct {
	ID                int64     `gorm:"primaryKey;autoIncrement"`
	EquipmentID       string    `gorm:"size:64;not null;uniqueIndex:uk_count_event,priority:1;index:idx_count_equipment_time,priority:1"`
	Timestamp         time.Time `gorm:"not null;uniqueIndex:uk_count_event,priority:2;index:idx_count_equipment_time,priority:2"`
	TotalCount        int64     `gorm:"not null"`
	GoodCount         int64     `gorm:"not null"`
	RejectCount       int64     `gorm:"not null"`
	ActualCycleTimeMs int64     `gorm:"default:0"`
	IngestedAt        time.Time `gorm:"not null"`
}

func (ProductionCountEventRow) TableName() string { return "production_count_events" }

// QualityEventRow is one appended quality observation.
type QualityEventRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	EquipmentID string    `gorm:"size:64;not null;uniqueIndex:uk_quality_event,priority:1;index:idx_quality_equipment_time,priority:1"`
	Timestamp   time.Time `gorm:"not null;uniqueIndex:uk_quality_event,priority:2;index:idx_quality_equipment_time,priority:2"`
	EventType   string    `gorm:"size:64;not null;uniqueIndex:uk_quality_event,priority:3"`
	DefectCode  string    `gorm:"size:128"`
	Quantity    int64     `gorm:"not null"`
	IngestedAt  time.Time `gorm:"not null"`
}

func (QualityEventRow) TableName() string { return "quality_events" }
