package model

import "time"

// ShiftDefinition is a named recurring shift window with planned breaks,
// owned by the external scheduling collaborator.
type ShiftDefinition struct {
	ID            string    `gorm:"primaryKey;size:64"`
	Name          string    `gorm:"size:255;not null"`
	StartClock    string    `gorm:"size:8;not null"` // HH:MM local start
	DurationMin   int       `gorm:"not null"`
	BreaksJSON    string    `gorm:"type:json"` // [{"start_offset_min":120,"duration_min":15}, ...]
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (ShiftDefinition) TableName() string { return "shift_definitions" }

// ShiftInstance is one concrete occurrence of a shift definition, with actual
// start/end and optional early close.
type ShiftInstance struct {
	ID           string     `gorm:"primaryKey;size:64"`
	DefinitionID string     `gorm:"size:64;not null;index:idx_shift_definition"`
	EquipmentID  string     `gorm:"size:64;not null;index:idx_shift_equipment_time,priority:1"`
	StartTime    time.Time  `gorm:"not null;index:idx_shift_equipment_time,priority:2"`
	EndTime      time.Time  `gorm:"not null"`
	EarlyCloseAt *time.Time `gorm:""`
	BreaksJSON   string     `gorm:"type:json"` // [{"start":"...","end":"..."}] absolute break windows
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
}

func (ShiftInstance) TableName() string { return "shift_instances" }

// EffectiveEnd returns the actual end of the instance, honoring early close.
func (s *ShiftInstance) EffectiveEnd() time.Time {
	if s.EarlyCloseAt != nil && s.EarlyCloseAt.Before(s.EndTime) {
		return *s.EarlyCloseAt
	}
	return s.EndTime
}
