package oee

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// LossCategory is one of the six big losses, plus a mandatory fallback bucket
// for reason codes the taxonomy does not know. Classification never fails: an
// unclassifiable loss still counts toward availability, performance or quality.
type LossCategory string

const (
	// Availability losses
	LossEquipmentFailure LossCategory = "EQUIPMENT_FAILURE"
	LossSetupAdjustment  LossCategory = "SETUP_ADJUSTMENT"
	// Performance losses
	LossIdlingMinorStops LossCategory = "IDLING_MINOR_STOPS"
	LossReducedSpeed     LossCategory = "REDUCED_SPEED"
	// Quality losses
	LossProcessDefects LossCategory = "PROCESS_DEFECTS"
	LossReducedYield   LossCategory = "REDUCED_YIELD"
	// Fallback for unmapped reason codes
	LossOther LossCategory = "OTHER"
)

// LossAmount is the attributed size of one loss bucket: time lost, and for
// quality losses also the unit count it was derived from.
type LossAmount struct {
	Duration time.Duration `json:"duration"`
	Units    int64         `json:"units,omitempty"`
}

// LossBreakdown maps loss categories to attributed amounts.
type LossBreakdown map[LossCategory]LossAmount

// TotalDuration returns the summed duration across all buckets.
func (b LossBreakdown) TotalDuration() time.Duration {
	var total time.Duration
	for _, amount := range b {
		total += amount.Duration
	}
	return total
}

// Add merges another breakdown into this one, returning the receiver.
func (b LossBreakdown) Add(o LossBreakdown) LossBreakdown {
	for cat, amount := range o {
		have := b[cat]
		have.Duration += amount.Duration
		have.Units += amount.Units
		b[cat] = have
	}
	return b
}

// Categories returns the breakdown's categories in a stable order,
// largest duration first.
func (b LossBreakdown) Categories() []LossCategory {
	cats := make([]LossCategory, 0, len(b))
	for cat := range b {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		if b[cats[i]].Duration != b[cats[j]].Duration {
			return b[cats[i]].Duration > b[cats[j]].Duration
		}
		return cats[i] < cats[j]
	})
	return cats
}

// reasonCodeMap maps upstream MES/SCADA reason codes onto the taxonomy.
// Matching is case-insensitive on the normalized code. Codes not listed here
// fall back on the machine state, and finally into LossOther.
var reasonCodeMap = map[string]LossCategory{
	"BREAKDOWN":     LossEquipmentFailure,
	"FAILURE":       LossEquipmentFailure,
	"FAULT":         LossEquipmentFailure,
	"CRASH":         LossEquipmentFailure,
	"JAM":           LossEquipmentFailure,
	"SETUP":         LossSetupAdjustment,
	"CHANGEOVER":    LossSetupAdjustment,
	"ADJUSTMENT":    LossSetupAdjustment,
	"TOOL_CHANGE":   LossSetupAdjustment,
	"CALIBRATION":   LossSetupAdjustment,
	"MINOR_STOP":    LossIdlingMinorStops,
	"MICRO_STOP":    LossIdlingMinorStops,
	"STARVED":       LossIdlingMinorStops,
	"BLOCKED":       LossIdlingMinorStops,
	"NO_OPERATOR":   LossIdlingMinorStops,
	"NO_MATERIAL":   LossIdlingMinorStops,
	"SLOW_CYCLE":    LossReducedSpeed,
	"REDUCED_SPEED": LossReducedSpeed,
	"SCRAP":         LossProcessDefects,
	"DEFECT":        LossProcessDefects,
	"REWORK":        LossProcessDefects,
	"STARTUP_LOSS":  LossReducedYield,
	"WARMUP":        LossReducedYield,
	"YIELD":         LossReducedYield,
}

// ClassifyReason maps a reason code to a loss category. The second return is
// false when the code was unmapped and the state-based fallback was used.
func ClassifyReason(state MachineState, reasonCode string) (LossCategory, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(reasonCode))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	if cat, ok := reasonCodeMap[normalized]; ok {
		return cat, true
	}

	switch state {
	case StateDown:
		return LossEquipmentFailure, false
	case StateIdle:
		return LossIdlingMinorStops, false
	}
	return LossOther, false
}

// ClassifyLosses attributes every non-producing unplanned segment, the
// performance shortfall, and the quality totals onto the loss taxonomy.
//
// The performance shortfall (operating time not covered by ideal cycles of the
// actual output) is attributed to reduced speed; idling and minor stops arrive
// through IDLE availability segments. Quality losses are converted to time via
// the ideal cycle time so the pareto ranks all six losses in one unit.
func ClassifyLosses(seg Segmentation, counts ProductionCounts, quality QualityTotals, idealCycleTime time.Duration) (LossBreakdown, []Anomaly) {
	breakdown := LossBreakdown{}
	var anomalies []Anomaly

	for _, s := range seg.Segments {
		if s.Category != CategoryAvailabilityLoss {
			continue
		}
		cat, mapped := ClassifyReason(s.State, s.ReasonCode)
		if !mapped && s.ReasonCode != ReasonUnknownState {
			anomalies = append(anomalies, Anomaly{
				Kind:        AnomalyUnmappedReason,
				EquipmentID: seg.EquipmentID,
				Window:      s.Window,
				Detail:      fmt.Sprintf("reason code %q not in loss taxonomy, counted as %s", s.ReasonCode, cat),
				ObservedAt:  time.Now(),
			})
		}
		amount := breakdown[cat]
		amount.Duration += s.Duration()
		breakdown[cat] = amount
	}

	if idealCycleTime > 0 {
		// Performance shortfall: operating time minus the time the actual
		// output would have taken at ideal speed.
		idealUsed := time.Duration(counts.Total) * idealCycleTime
		if shortfall := seg.Totals.Operating - idealUsed; shortfall > 0 {
			amount := breakdown[LossReducedSpeed]
			amount.Duration += shortfall
			breakdown[LossReducedSpeed] = amount
		}

		defectUnits := counts.Reject
		yieldUnits := quality.ReducedYieldUnits
		if yieldUnits > defectUnits {
			yieldUnits = defectUnits
		}
		defectUnits -= yieldUnits

		if defectUnits > 0 {
			amount := breakdown[LossProcessDefects]
			amount.Duration += time.Duration(defectUnits) * idealCycleTime
			amount.Units += defectUnits
			breakdown[LossProcessDefects] = amount
		}
		if yieldUnits > 0 {
			amount := breakdown[LossReducedYield]
			amount.Duration += time.Duration(yieldUnits) * idealCycleTime
			amount.Units += yieldUnits
			breakdown[LossReducedYield] = amount
		}
	}

	return breakdown, anomalies
}
