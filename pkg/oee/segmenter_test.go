package oee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minuteWindow(startMin, endMin int) Window {
	base := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	return Window{Start: base.Add(time.Duration(startMin) * time.Minute), End: base.Add(time.Duration(endMin) * time.Minute)}
}

func stateAt(min int, state MachineState, reason string, ingestOffset int) StateEvent {
	base := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	return StateEvent{
		EquipmentID: "press-01",
		State:       state,
		ReasonCode:  reason,
		StartTime:   base.Add(time.Duration(min) * time.Minute),
		IngestedAt:  base.Add(time.Duration(min+ingestOffset) * time.Minute),
	}
}

func TestBuildSegmentsGapFilling(t *testing.T) {
	window := minuteWindow(0, 480)
	events := []StateEvent{
		stateAt(0, StateProducing, "", 1),
		stateAt(120, StateDown, "BREAKDOWN", 1),
		stateAt(180, StateProducing, "", 1),
		// No further events: producing persists until window end.
	}

	seg := BuildSegments("press-01", window, events, nil)
	require.Len(t, seg.Segments, 3)
	assert.Empty(t, seg.Anomalies)

	assert.Equal(t, CategoryProduction, seg.Segments[0].Category)
	assert.Equal(t, 120*time.Minute, seg.Segments[0].Duration())
	assert.Equal(t, CategoryAvailabilityLoss, seg.Segments[1].Category)
	assert.Equal(t, 60*time.Minute, seg.Segments[1].Duration())
	assert.Equal(t, CategoryProduction, seg.Segments[2].Category)
	assert.Equal(t, 300*time.Minute, seg.Segments[2].Duration())

	assert.Equal(t, 420*time.Minute, seg.Totals.Operating)
	assert.Equal(t, 60*time.Minute, seg.Totals.AvailabilityLoss)
	assert.Equal(t, time.Duration(0), seg.Totals.Planned)
}

func TestBuildSegmentsDurationsTileWindowExactly(t *testing.T) {
	window := minuteWindow(0, 480)
	events := []StateEvent{
		stateAt(-30, StateProducing, "", 1), // state known before window start
		stateAt(95, StateIdle, "STARVED", 1),
		stateAt(130, StateProducing, "", 1),
		stateAt(300, StateMaintenance, "PM", 1),
		stateAt(360, StateProducing, "", 1),
	}
	breaks := []Window{minuteWindow(240, 270)}

	seg := BuildSegments("press-01", window, events, breaks)

	sum := seg.Totals.Operating + seg.Totals.Planned + seg.Totals.AvailabilityLoss
	assert.Equal(t, window.Duration(), sum)
	assert.Equal(t, window.Duration(), seg.Totals.Scheduled)

	// Segments are contiguous and non-overlapping.
	require.NotEmpty(t, seg.Segments)
	assert.True(t, seg.Segments[0].Window.Start.Equal(window.Start))
	assert.True(t, seg.Segments[len(seg.Segments)-1].Window.End.Equal(window.End))
	for i := 1; i < len(seg.Segments); i++ {
		assert.True(t, seg.Segments[i].Window.Start.Equal(seg.Segments[i-1].Window.End))
	}

	// Break carved out of production time as planned.
	assert.Equal(t, 30*time.Minute+60*time.Minute, seg.Totals.Planned)
}

func TestBuildSegmentsOverlapLastWriteWins(t *testing.T) {
	window := minuteWindow(0, 120)
	base := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	end := base.Add(90 * time.Minute)
	first := StateEvent{
		EquipmentID: "press-01",
		State:       StateProducing,
		StartTime:   base,
		EndTime:     &end,
		IngestedAt:  base.Add(time.Minute),
	}
	// Overlaps the first event's claimed span, ingested later: wins.
	second := stateAt(60, StateDown, "FAULT", 10)

	seg := BuildSegments("press-01", window, []StateEvent{first, second}, nil)

	require.Len(t, seg.Segments, 2)
	assert.Equal(t, 60*time.Minute, seg.Segments[0].Duration())
	assert.Equal(t, CategoryProduction, seg.Segments[0].Category)
	assert.Equal(t, CategoryAvailabilityLoss, seg.Segments[1].Category)

	require.Len(t, seg.Anomalies, 1)
	assert.Equal(t, AnomalyOverlapResolved, seg.Anomalies[0].Kind)
}

func TestBuildSegmentsOverlapEarlierIngestionDropped(t *testing.T) {
	window := minuteWindow(0, 120)
	base := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	end := base.Add(120 * time.Minute)
	authoritative := StateEvent{
		EquipmentID: "press-01",
		State:       StateDown,
		ReasonCode:  "BREAKDOWN",
		StartTime:   base,
		EndTime:     &end,
		IngestedAt:  base.Add(3 * time.Hour), // late correction wins
	}
	stale := stateAt(60, StateProducing, "", 1)

	seg := BuildSegments("press-01", window, []StateEvent{authoritative, stale}, nil)

	require.Len(t, seg.Segments, 1)
	assert.Equal(t, CategoryAvailabilityLoss, seg.Segments[0].Category)
	assert.Equal(t, window.Duration(), seg.Segments[0].Duration())

	require.Len(t, seg.Anomalies, 1)
	assert.Equal(t, AnomalyOverlapResolved, seg.Anomalies[0].Kind)
}

func TestBuildSegmentsDuplicateStartLastIngestionWins(t *testing.T) {
	window := minuteWindow(0, 60)
	events := []StateEvent{
		stateAt(0, StateIdle, "STARVED", 1),
		stateAt(0, StateDown, "BREAKDOWN", 5),
	}

	seg := BuildSegments("press-01", window, events, nil)

	require.Len(t, seg.Segments, 1)
	assert.Equal(t, StateDown, seg.Segments[0].State)
	require.Len(t, seg.Anomalies, 1)
	assert.Equal(t, AnomalyOverlapResolved, seg.Anomalies[0].Kind)
}

func TestBuildSegmentsUnknownLeadingState(t *testing.T) {
	window := minuteWindow(0, 120)
	events := []StateEvent{stateAt(30, StateProducing, "", 1)}

	seg := BuildSegments("press-01", window, events, nil)

	require.Len(t, seg.Segments, 2)
	assert.Equal(t, CategoryAvailabilityLoss, seg.Segments[0].Category)
	assert.Equal(t, ReasonUnknownState, seg.Segments[0].ReasonCode)
	assert.Equal(t, 30*time.Minute, seg.Segments[0].Duration())

	require.Len(t, seg.Anomalies, 1)
	assert.Equal(t, AnomalyUnknownState, seg.Anomalies[0].Kind)
}

func TestBuildSegmentsEmptyWindow(t *testing.T) {
	window := minuteWindow(60, 60)
	seg := BuildSegments("press-01", window, nil, nil)

	assert.Empty(t, seg.Segments)
	assert.Equal(t, DurationTotals{}, seg.Totals)
}

func TestBuildSegmentsExplicitCategoryWins(t *testing.T) {
	window := minuteWindow(0, 60)
	ev := stateAt(0, StateDown, "PM", 1)
	ev.Category = CategoryPlanned // scheduled maintenance reported as DOWN

	seg := BuildSegments("press-01", window, []StateEvent{ev}, nil)

	require.Len(t, seg.Segments, 1)
	assert.Equal(t, CategoryPlanned, seg.Segments[0].Category)
	assert.Equal(t, 60*time.Minute, seg.Totals.Planned)
}
