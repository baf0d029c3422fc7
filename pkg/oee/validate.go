package oee

import (
	"fmt"
	"time"
)

// ProductionCountEvent cumulative piece counts reported at a point in time
type ProductionCountEvent struct {
	EquipmentID     string
	Timestamp       time.Time
	TotalCount      int64
	GoodCount       int64
	RejectCount     int64
	ActualCycleTime time.Duration
	IngestedAt      time.Time
}

// QualityEvent a defect or yield observation
type QualityEvent struct {
	EquipmentID string
	Timestamp   time.Time
	EventType   string
	DefectCode  string
	Quantity    int64
	IngestedAt  time.Time
}

// ValidateStateEvent rejects malformed state-change events.
func ValidateStateEvent(ev StateEvent) error {
	if ev.EquipmentID == "" {
		return &ValidationError{Field: "equipmentId", Reason: "required"}
	}
	if ev.StartTime.IsZero() {
		return &ValidationError{Field: "startTime", Reason: "required"}
	}
	if !ev.State.Valid() {
		return &ValidationError{Field: "state", Reason: fmt.Sprintf("unknown state %q", ev.State)}
	}
	if ev.Category != "" && !ev.Category.Valid() {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", ev.Category)}
	}
	if ev.EndTime != nil && !ev.EndTime.After(ev.StartTime) {
		return &ValidationError{Field: "endTime", Reason: "must be after startTime"}
	}
	return nil
}

// ValidateProductionCountEvent rejects malformed count events. The count
// invariant goodCount + rejectCount <= totalCount is enforced here for every
// event so it also holds cumulatively over any window.
func ValidateProductionCountEvent(ev ProductionCountEvent) error {
	if ev.EquipmentID == "" {
		return &ValidationError{Field: "equipmentId", Reason: "required"}
	}
	if ev.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "required"}
	}
	if ev.TotalCount < 0 || ev.GoodCount < 0 || ev.RejectCount < 0 {
		return &ValidationError{Field: "counts", Reason: "must be non-negative"}
	}
	if ev.GoodCount+ev.RejectCount > ev.TotalCount {
		return &ValidationError{
			Field:  "counts",
			Reason: fmt.Sprintf("goodCount (%d) + rejectCount (%d) exceeds totalCount (%d)", ev.GoodCount, ev.RejectCount, ev.TotalCount),
		}
	}
	if ev.ActualCycleTime < 0 {
		return &ValidationError{Field: "actualCycleTime", Reason: "must be non-negative"}
	}
	return nil
}

// ValidateQualityEvent rejects malformed quality events.
func ValidateQualityEvent(ev QualityEvent) error {
	if ev.EquipmentID == "" {
		return &ValidationError{Field: "equipmentId", Reason: "required"}
	}
	if ev.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "required"}
	}
	if ev.EventType == "" {
		return &ValidationError{Field: "eventType", Reason: "required"}
	}
	if ev.Quantity < 0 {
		return &ValidationError{Field: "quantity", Reason: "must be non-negative"}
	}
	return nil
}
