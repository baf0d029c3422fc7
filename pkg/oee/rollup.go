package oee

import "time"

// Combine rolls constituent results up into one window by summing their raw
// durations and counts and reapplying the OEE formulas to the sums.
//
// This is the only correct way to aggregate: averaging the per-part ratios of
// unequal-length sub-periods weights every part the same regardless of how
// long it ran, and diverges from the duration-weighted truth. Use
// NaiveAverageOEE only for the explicitly labeled convenience metric.
func Combine(equipmentID string, window Window, parts []*Result, idealCycleTime time.Duration, computedAt time.Time) (*Result, []Anomaly, error) {
	in := Input{
		EquipmentID:    equipmentID,
		Window:         window,
		IdealCycleTime: idealCycleTime,
		LossBreakdown:  LossBreakdown{},
		ComputedAt:     computedAt,
	}
	for _, part := range parts {
		in.Durations = in.Durations.Add(part.Durations)
		in.Counts.Total += part.Counts.Total
		in.Counts.Good += part.Counts.Good
		in.Counts.Reject += part.Counts.Reject
		in.LossBreakdown.Add(part.LossBreakdown)
	}
	return Calculate(in)
}

// NaiveAverageOEE is the unweighted mean of the defined per-part OEE values.
//
// It is an approximation for quick multi-shift reporting only: for parts of
// unequal length it can diverge arbitrarily from the duration-weighted value
// Combine produces. Undefined parts are skipped; if no part has a defined OEE
// the average is undefined.
func NaiveAverageOEE(parts []*Result) Ratio {
	var sum float64
	var n int
	for _, part := range parts {
		if part.OEE.Defined {
			sum += part.OEE.Value
			n++
		}
	}
	if n == 0 {
		return UndefinedRatio()
	}
	return DefinedRatio(sum / float64(n))
}

// Coverage reports how much of the window the parts account for, as summed
// scheduled time over the window length. A daily rollup with coverage < 1 is
// preliminary: constituent hours are still missing.
func Coverage(window Window, parts []*Result) float64 {
	total := window.Duration()
	if total <= 0 {
		return 0
	}
	var covered time.Duration
	for _, part := range parts {
		covered += part.Durations.Scheduled
	}
	return covered.Seconds() / total.Seconds()
}
