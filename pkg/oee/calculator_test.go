package oee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testComputedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func shiftWindow() Window {
	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.Add(480 * time.Minute)}
}

// Worked example: 480-minute shift, 30-minute planned break, 60-minute
// breakdown, 350 of 450 theoretical units produced, 330 good.
func workedExampleInput() Input {
	return Input{
		EquipmentID: "press-01",
		Window:      shiftWindow(),
		// 390 minutes operating / 450 theoretical units
		IdealCycleTime: 52 * time.Second,
		Durations: DurationTotals{
			Scheduled:        480 * time.Minute,
			Operating:        390 * time.Minute,
			Planned:          30 * time.Minute,
			AvailabilityLoss: 60 * time.Minute,
		},
		Counts:     ProductionCounts{Total: 350, Good: 330, Reject: 20},
		ComputedAt: testComputedAt,
	}
}

func TestCalculateWorkedExample(t *testing.T) {
	res, anomalies, err := Calculate(workedExampleInput())
	require.NoError(t, err)
	assert.Empty(t, anomalies)

	assert.Equal(t, 450*time.Minute, res.Durations.PlannedProductionTime())
	assert.Equal(t, 390*time.Minute, res.Durations.Operating)

	require.True(t, res.Availability.Defined)
	assert.InDelta(t, 0.867, res.Availability.Value, 0.001)

	require.True(t, res.Performance.Defined)
	assert.InDelta(t, 0.778, res.Performance.Value, 0.001)

	require.True(t, res.Quality.Defined)
	assert.InDelta(t, 0.943, res.Quality.Value, 0.001)

	require.True(t, res.OEE.Defined)
	assert.InDelta(t, 0.636, res.OEE.Value, 0.001)
	assert.InDelta(t, res.Availability.Value*res.Performance.Value*res.Quality.Value, res.OEE.Value, 1e-12)

	require.True(t, res.Utilization.Defined)
	assert.InDelta(t, 450.0/480.0, res.Utilization.Value, 1e-9)
	require.True(t, res.TEEP.Defined)
	assert.InDelta(t, res.OEE.Value*res.Utilization.Value, res.TEEP.Value, 1e-12)

	assert.Empty(t, res.MissingComponents)
	assert.Empty(t, res.Flags)
}

func TestCalculateZeroPlannedProductionTime(t *testing.T) {
	in := workedExampleInput()
	// Whole shift is planned downtime: availability must be undefined, not 0.
	in.Durations = DurationTotals{Scheduled: 480 * time.Minute, Planned: 480 * time.Minute}
	in.Counts = ProductionCounts{}

	res, _, err := Calculate(in)
	require.NoError(t, err)

	assert.False(t, res.Availability.Defined)
	assert.False(t, res.Performance.Defined)
	assert.False(t, res.Quality.Defined)
	assert.False(t, res.OEE.Defined)
	assert.True(t, res.HasFlag(FlagNoData))
	assert.ElementsMatch(t,
		[]string{ComponentAvailability, ComponentPerformance, ComponentQuality},
		res.MissingComponents)
}

func TestCalculateZeroCountsOnly(t *testing.T) {
	in := workedExampleInput()
	in.Counts = ProductionCounts{}

	res, _, err := Calculate(in)
	require.NoError(t, err)

	assert.True(t, res.Availability.Defined)
	assert.True(t, res.Performance.Defined) // theoretical output > 0, actual 0
	assert.Equal(t, 0.0, res.Performance.Value)
	assert.False(t, res.Quality.Defined)
	assert.False(t, res.OEE.Defined)
	assert.Equal(t, []string{ComponentQuality}, res.MissingComponents)
	assert.True(t, res.HasFlag(FlagNoData))
}

func TestCalculatePerformanceClamped(t *testing.T) {
	in := workedExampleInput()
	// Miscalibrated cycle time: actual output exceeds theoretical.
	in.Counts = ProductionCounts{Total: 500, Good: 500}

	res, anomalies, err := Calculate(in)
	require.NoError(t, err)

	require.True(t, res.Performance.Defined)
	assert.Equal(t, 1.0, res.Performance.Value)

	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyPerformanceClamped, anomalies[0].Kind)
	assert.Equal(t, "press-01", anomalies[0].EquipmentID)
}

func TestCalculateInvalidIdealCycleTime(t *testing.T) {
	for _, ict := range []time.Duration{0, -time.Second} {
		in := workedExampleInput()
		in.IdealCycleTime = ict

		_, _, err := Calculate(in)
		require.Error(t, err)

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "press-01", cfgErr.EquipmentID)
	}
}

func TestCalculateIdempotent(t *testing.T) {
	in := workedExampleInput()

	first, _, err := Calculate(in)
	require.NoError(t, err)
	second, _, err := Calculate(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculateZeroOperatingTime(t *testing.T) {
	in := workedExampleInput()
	in.Durations = DurationTotals{
		Scheduled:        480 * time.Minute,
		Planned:          30 * time.Minute,
		AvailabilityLoss: 450 * time.Minute,
	}
	in.Counts = ProductionCounts{}

	res, _, err := Calculate(in)
	require.NoError(t, err)

	require.True(t, res.Availability.Defined)
	assert.Equal(t, 0.0, res.Availability.Value)
	// theoretical output is zero, so performance is undefined
	assert.False(t, res.Performance.Defined)
	assert.False(t, res.OEE.Defined)
	assert.Contains(t, res.MissingComponents, ComponentPerformance)
}
