package oee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProductionCountEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	valid := ProductionCountEvent{
		EquipmentID: "press-01",
		Timestamp:   ts,
		TotalCount:  100,
		GoodCount:   90,
		RejectCount: 10,
	}

	tests := []struct {
		name     string
		mutate   func(*ProductionCountEvent)
		wantErr  bool
		errField string
	}{
		{"valid event", func(*ProductionCountEvent) {}, false, ""},
		{"good plus reject exceeds total", func(ev *ProductionCountEvent) { ev.GoodCount = 95 }, true, "counts"},
		{"negative total", func(ev *ProductionCountEvent) { ev.TotalCount = -1 }, true, "counts"},
		{"negative reject", func(ev *ProductionCountEvent) { ev.RejectCount = -5 }, true, "counts"},
		{"negative cycle time", func(ev *ProductionCountEvent) { ev.ActualCycleTime = -time.Second }, true, "actualCycleTime"},
		{"missing equipment", func(ev *ProductionCountEvent) { ev.EquipmentID = "" }, true, "equipmentId"},
		{"missing timestamp", func(ev *ProductionCountEvent) { ev.Timestamp = time.Time{} }, true, "timestamp"},
		{"counts may not sum to total", func(ev *ProductionCountEvent) { ev.GoodCount = 50 }, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := valid
			tt.mutate(&ev)
			err := ValidateProductionCountEvent(ev)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.errField, vErr.Field)
		})
	}
}

func TestValidateStateEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	end := ts.Add(time.Hour)

	tests := []struct {
		name    string
		event   StateEvent
		wantErr bool
	}{
		{"valid", StateEvent{EquipmentID: "press-01", State: StateDown, StartTime: ts}, false},
		{"valid with end", StateEvent{EquipmentID: "press-01", State: StateDown, StartTime: ts, EndTime: &end}, false},
		{"unknown state", StateEvent{EquipmentID: "press-01", State: "EXPLODED", StartTime: ts}, true},
		{"unknown category", StateEvent{EquipmentID: "press-01", State: StateDown, Category: "WAT", StartTime: ts}, true},
		{"end before start", StateEvent{EquipmentID: "press-01", State: StateDown, StartTime: end, EndTime: &ts}, true},
		{"missing equipment", StateEvent{State: StateDown, StartTime: ts}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStateEvent(tt.event)
			if tt.wantErr {
				var vErr *ValidationError
				assert.ErrorAs(t, err, &vErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateQualityEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateQualityEvent(QualityEvent{
		EquipmentID: "press-01", Timestamp: ts, EventType: "DEFECT", DefectCode: "D-12", Quantity: 3,
	}))
	assert.Error(t, ValidateQualityEvent(QualityEvent{Timestamp: ts, EventType: "DEFECT"}))
	assert.Error(t, ValidateQualityEvent(QualityEvent{EquipmentID: "press-01", EventType: "DEFECT"}))
	assert.Error(t, ValidateQualityEvent(QualityEvent{EquipmentID: "press-01", Timestamp: ts}))
	assert.Error(t, ValidateQualityEvent(QualityEvent{EquipmentID: "press-01", Timestamp: ts, EventType: "DEFECT", Quantity: -1}))
}
