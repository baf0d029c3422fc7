package mysql

import (
	"testing"
	"time"

	"oeecore/pkg/oee"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultRowRoundTrip(t *testing.T) {
	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	res := &oee.Result{
		EquipmentID:     "press-01",
		Window:          oee.Window{Start: start, End: start.Add(time.Hour)},
		ShiftInstanceID: "shift-2026-03-01-a",
		Availability:    oee.DefinedRatio(0.9),
		Performance:     oee.DefinedRatio(0.8),
		Quality:         oee.DefinedRatio(0.95),
		OEE:             oee.DefinedRatio(0.684),
		Utilization:     oee.DefinedRatio(0.75),
		TEEP:            oee.DefinedRatio(0.513),
		Durations: oee.DurationTotals{
			Scheduled:        time.Hour,
			Operating:        45 * time.Minute,
			Planned:          10 * time.Minute,
			AvailabilityLoss: 5 * time.Minute,
		},
		Counts: oee.ProductionCounts{Total: 100, Good: 95, Reject: 5},
		LossBreakdown: oee.LossBreakdown{
			oee.LossEquipmentFailure: {Duration: 5 * time.Minute},
			oee.LossProcessDefects:   {Duration: 5 * time.Minute, Units: 5},
		},
		ComputedAt: start.Add(2 * time.Hour),
	}

	row, err := ResultToRow(res, oee.ResolutionHourly, false)
	require.NoError(t, err)
	assert.Equal(t, string(oee.ResolutionHourly), row.Resolution)
	require.NotNil(t, row.OEE)
	assert.InDelta(t, 0.684, *row.OEE, 1e-9)
	assert.Equal(t, 2700.0, row.OperatingSec)

	back, err := RowToResult(row)
	require.NoError(t, err)
	assert.Equal(t, res.EquipmentID, back.EquipmentID)
	assert.Equal(t, res.Availability, back.Availability)
	assert.Equal(t, res.OEE, back.OEE)
	assert.Equal(t, res.Durations, back.Durations)
	assert.Equal(t, res.Counts, back.Counts)
	assert.Equal(t, res.LossBreakdown, back.LossBreakdown)
}

func TestResultRowUndefinedRatiosAreNull(t *testing.T) {
	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	res := &oee.Result{
		EquipmentID:       "press-01",
		Window:            oee.Window{Start: start, End: start.Add(time.Hour)},
		MissingComponents: []string{oee.ComponentAvailability, oee.ComponentPerformance, oee.ComponentQuality},
		Flags:             []oee.Flag{oee.FlagNoData},
		LossBreakdown:     oee.LossBreakdown{},
		ComputedAt:        start,
	}

	row, err := ResultToRow(res, oee.ResolutionHourly, true)
	require.NoError(t, err)

	// Undefined is NULL, never 0.
	assert.Nil(t, row.Availability)
	assert.Nil(t, row.Performance)
	assert.Nil(t, row.Quality)
	assert.Nil(t, row.OEE)
	assert.True(t, row.Preliminary)

	back, err := RowToResult(row)
	require.NoError(t, err)
	assert.False(t, back.Availability.Defined)
	assert.False(t, back.OEE.Defined)
	assert.True(t, back.HasFlag(oee.FlagNoData))
	assert.Equal(t, res.MissingComponents, back.MissingComponents)
}
