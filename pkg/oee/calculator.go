package oee

import (
	"fmt"
	"time"
)

// Input is one window's segmented durations and count/quality totals, ready
// for the ISO 22400 formulas.
type Input struct {
	EquipmentID     string
	Window          Window
	ShiftInstanceID string

	// IdealCycleTime is the equipment's ideal time per unit. Required for
	// Performance; <= 0 is a ConfigurationError.
	IdealCycleTime time.Duration

	Durations DurationTotals
	Counts    ProductionCounts
	Quality   QualityTotals

	// LossBreakdown is carried through onto the result (see ClassifyLosses).
	LossBreakdown LossBreakdown

	// ComputedAt stamps the result; callers pass an explicit time so that
	// recomputing unchanged inputs yields an identical result. Zero means now.
	ComputedAt time.Time
}

// Calculate applies the OEE formulas to one window:
//
//	plannedProductionTime = scheduled - planned
//	availability          = operating / plannedProductionTime
//	performance           = min(actualCount / (operating / idealCycleTime), 1)
//	quality               = good / total
//	oee                   = availability * performance * quality
//	teep                  = oee * (plannedProductionTime / calendarTime)
//
// A ratio whose denominator is zero is undefined and flagged NO_DATA, never
// coerced to 0. OEE is computed only when all three components are defined;
// otherwise MissingComponents names the absent ones. Every defined ratio is
// guaranteed to lie in [0,1]: performance above 1.0 (cycle-time miscalibration
// or double-counted output) is clamped and reported as an anomaly, not an
// error.
func Calculate(in Input) (*Result, []Anomaly, error) {
	if in.IdealCycleTime <= 0 {
		return nil, nil, &ConfigurationError{
			EquipmentID: in.EquipmentID,
			Reason:      fmt.Sprintf("ideal cycle time must be positive, got %s", in.IdealCycleTime),
		}
	}

	computedAt := in.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now()
	}

	res := &Result{
		EquipmentID:     in.EquipmentID,
		Window:          in.Window,
		ShiftInstanceID: in.ShiftInstanceID,
		Durations:       in.Durations,
		Counts:          in.Counts,
		LossBreakdown:   in.LossBreakdown,
		ComputedAt:      computedAt,
	}
	if res.LossBreakdown == nil {
		res.LossBreakdown = LossBreakdown{}
	}

	var anomalies []Anomaly
	clamp := func(name string, r Ratio) Ratio {
		if !r.Defined || (r.Value >= 0 && r.Value <= 1) {
			return r
		}
		kind := AnomalyRatioClamped
		if name == ComponentPerformance && r.Value > 1 {
			kind = AnomalyPerformanceClamped
		}
		anomalies = append(anomalies, Anomaly{
			Kind:        kind,
			EquipmentID: in.EquipmentID,
			Window:      in.Window,
			Detail:      fmt.Sprintf("%s %.4f clamped into [0,1]", name, r.Value),
			ObservedAt:  computedAt,
		})
		if r.Value > 1 {
			r.Value = 1
		} else {
			r.Value = 0
		}
		return r
	}

	ppt := in.Durations.PlannedProductionTime()
	operating := in.Durations.Operating

	if ppt > 0 {
		res.Availability = clamp(ComponentAvailability, DefinedRatio(operating.Seconds()/ppt.Seconds()))
	}

	theoreticalOutput := operating.Seconds() / in.IdealCycleTime.Seconds()
	if theoreticalOutput > 0 {
		res.Performance = clamp(ComponentPerformance, DefinedRatio(float64(in.Counts.Total)/theoreticalOutput))
	}

	if in.Counts.Total > 0 {
		res.Quality = clamp(ComponentQuality, DefinedRatio(float64(in.Counts.Good)/float64(in.Counts.Total)))
	}

	for _, c := range []struct {
		name  string
		ratio Ratio
	}{
		{ComponentAvailability, res.Availability},
		{ComponentPerformance, res.Performance},
		{ComponentQuality, res.Quality},
	} {
		if !c.ratio.Defined {
			res.MissingComponents = append(res.MissingComponents, c.name)
		}
	}

	if len(res.MissingComponents) == 0 {
		res.OEE = DefinedRatio(res.Availability.Value * res.Performance.Value * res.Quality.Value)
	} else {
		res.Flags = append(res.Flags, FlagNoData)
	}

	if calendar := in.Durations.Scheduled; calendar > 0 {
		res.Utilization = DefinedRatio(ppt.Seconds() / calendar.Seconds())
	}
	if res.OEE.Defined && res.Utilization.Defined {
		res.TEEP = DefinedRatio(res.OEE.Value * res.Utilization.Value)
	}

	return res, anomalies, nil
}
