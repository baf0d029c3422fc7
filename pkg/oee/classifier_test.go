package oee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyReason(t *testing.T) {
	tests := []struct {
		name       string
		state      MachineState
		reasonCode string
		expected   LossCategory
		mapped     bool
	}{
		{"breakdown code", StateDown, "BREAKDOWN", LossEquipmentFailure, true},
		{"lowercase code", StateDown, "breakdown", LossEquipmentFailure, true},
		{"spaces normalized", StateDown, "tool change", LossSetupAdjustment, true},
		{"dashes normalized", StateIdle, "minor-stop", LossIdlingMinorStops, true},
		{"changeover", StateIdle, "CHANGEOVER", LossSetupAdjustment, true},
		{"starved", StateIdle, "STARVED", LossIdlingMinorStops, true},
		{"scrap", StateProducing, "SCRAP", LossProcessDefects, true},
		{"warmup", StateProducing, "WARMUP", LossReducedYield, true},
		{"unmapped falls back on DOWN state", StateDown, "E-STOP-77", LossEquipmentFailure, false},
		{"unmapped falls back on IDLE state", StateIdle, "OP-BREAK-X", LossIdlingMinorStops, false},
		{"unmapped with no state fallback", StateMaintenance, "MYSTERY", LossOther, false},
		{"empty reason code", StateMaintenance, "", LossOther, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, mapped := ClassifyReason(tt.state, tt.reasonCode)
			assert.Equal(t, tt.expected, cat)
			assert.Equal(t, tt.mapped, mapped)
		})
	}
}

func TestClassifyLosses(t *testing.T) {
	window := minuteWindow(0, 480)
	seg := Segmentation{
		EquipmentID: "press-01",
		Window:      window,
		Segments: []Segment{
			{Window: minuteWindow(0, 120), State: StateProducing, Category: CategoryProduction},
			{Window: minuteWindow(120, 180), State: StateDown, Category: CategoryAvailabilityLoss, ReasonCode: "BREAKDOWN"},
			{Window: minuteWindow(180, 200), State: StateIdle, Category: CategoryAvailabilityLoss, ReasonCode: "STARVED"},
			{Window: minuteWindow(200, 230), State: StateDown, Category: CategoryPlanned, ReasonCode: ReasonPlannedBreak},
			{Window: minuteWindow(230, 480), State: StateProducing, Category: CategoryProduction},
		},
		Totals: DurationTotals{
			Scheduled:        480 * time.Minute,
			Operating:        370 * time.Minute,
			Planned:          30 * time.Minute,
			AvailabilityLoss: 80 * time.Minute,
		},
	}

	ict := time.Minute
	counts := ProductionCounts{Total: 300, Good: 280, Reject: 20}
	quality := QualityTotals{ReducedYieldUnits: 5}

	breakdown, anomalies := ClassifyLosses(seg, counts, quality, ict)
	assert.Empty(t, anomalies)

	assert.Equal(t, 60*time.Minute, breakdown[LossEquipmentFailure].Duration)
	assert.Equal(t, 20*time.Minute, breakdown[LossIdlingMinorStops].Duration)
	// 370 operating minutes, 300 ideal minutes used: 70 minutes reduced speed.
	assert.Equal(t, 70*time.Minute, breakdown[LossReducedSpeed].Duration)
	// 20 rejects: 5 attributed to startup yield, 15 to process defects.
	assert.Equal(t, int64(15), breakdown[LossProcessDefects].Units)
	assert.Equal(t, 15*time.Minute, breakdown[LossProcessDefects].Duration)
	assert.Equal(t, int64(5), breakdown[LossReducedYield].Units)
	assert.Equal(t, 5*time.Minute, breakdown[LossReducedYield].Duration)

	// Planned break never appears as a loss.
	_, ok := breakdown[LossOther]
	assert.False(t, ok)
}

func TestClassifyLossesUnmappedReasonFlagged(t *testing.T) {
	seg := Segmentation{
		EquipmentID: "press-01",
		Window:      minuteWindow(0, 60),
		Segments: []Segment{
			{Window: minuteWindow(0, 60), State: StateMaintenance, Category: CategoryAvailabilityLoss, ReasonCode: "ERR_0x41"},
		},
		Totals: DurationTotals{Scheduled: 60 * time.Minute, AvailabilityLoss: 60 * time.Minute},
	}

	breakdown, anomalies := ClassifyLosses(seg, ProductionCounts{}, QualityTotals{}, time.Minute)

	assert.Equal(t, 60*time.Minute, breakdown[LossOther].Duration)
	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyUnmappedReason, anomalies[0].Kind)
	assert.Contains(t, anomalies[0].Detail, "ERR_0x41")
}

func TestLossBreakdownCategoriesOrdering(t *testing.T) {
	b := LossBreakdown{
		LossIdlingMinorStops: {Duration: 10 * time.Minute},
		LossEquipmentFailure: {Duration: 45 * time.Minute},
		LossReducedSpeed:     {Duration: 10 * time.Minute},
	}

	cats := b.Categories()
	require.Len(t, cats, 3)
	assert.Equal(t, LossEquipmentFailure, cats[0])
	// Equal durations break ties alphabetically for determinism.
	assert.Equal(t, LossIdlingMinorStops, cats[1])
	assert.Equal(t, LossReducedSpeed, cats[2])
}
