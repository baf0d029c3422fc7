package oee

import "time"

// MachineState raw equipment state reported by upstream telemetry
type MachineState string

const (
	StateProducing   MachineState = "PRODUCING"
	StateIdle        MachineState = "IDLE"
	StateDown        MachineState = "DOWN"
	StateMaintenance MachineState = "MAINTENANCE"
)

// Valid reports whether the state is one of the known machine states.
func (s MachineState) Valid() bool {
	switch s {
	case StateProducing, StateIdle, StateDown, StateMaintenance:
		return true
	}
	return false
}

// SegmentCategory time accounting category of a segment
type SegmentCategory string

const (
	CategoryProduction       SegmentCategory = "PRODUCTION"
	CategoryPlanned          SegmentCategory = "PLANNED"
	CategoryAvailabilityLoss SegmentCategory = "AVAILABILITY_LOSS"
)

// Valid reports whether the category is one of the known segment categories.
func (c SegmentCategory) Valid() bool {
	switch c {
	case CategoryProduction, CategoryPlanned, CategoryAvailabilityLoss:
		return true
	}
	return false
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the window length. Zero for inverted windows.
func (w Window) Duration() time.Duration {
	if !w.End.After(w.Start) {
		return 0
	}
	return w.End.Sub(w.Start)
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// StateEvent is a state-change point: the equipment enters State at StartTime
// and remains there until the next event ("last known state persists").
// EndTime is an optional upstream hint; overlaps against the next event are
// resolved by IngestedAt, last write wins.
type StateEvent struct {
	EquipmentID string
	State       MachineState
	Category    SegmentCategory
	ReasonCode  string
	StartTime   time.Time
	EndTime     *time.Time
	IngestedAt  time.Time
}

// ProductionCounts cumulative piece counts over a window
type ProductionCounts struct {
	Total  int64 `json:"total"`
	Good   int64 `json:"good"`
	Reject int64 `json:"reject"`
}

// QualityTotals per-window quality event totals, split by defect disposition
type QualityTotals struct {
	ProcessDefectUnits int64 `json:"process_defect_units"`
	ReducedYieldUnits  int64 `json:"reduced_yield_units"`
}

// Segment one contiguous span of a single category for one equipment
type Segment struct {
	Window     Window          `json:"window"`
	State      MachineState    `json:"state"`
	Category   SegmentCategory `json:"category"`
	ReasonCode string          `json:"reason_code"`
}

// Duration returns the segment length.
func (s Segment) Duration() time.Duration { return s.Window.Duration() }

// DurationTotals per-category duration sums for one window.
// Scheduled = Operating + Planned + AvailabilityLoss always holds.
type DurationTotals struct {
	Scheduled        time.Duration `json:"scheduled"`
	Operating        time.Duration `json:"operating"`
	Planned          time.Duration `json:"planned"`
	AvailabilityLoss time.Duration `json:"availability_loss"`
}

// PlannedProductionTime returns scheduled time minus planned downtime and breaks.
func (d DurationTotals) PlannedProductionTime() time.Duration {
	return d.Scheduled - d.Planned
}

// Add returns the element-wise sum of two totals.
func (d DurationTotals) Add(o DurationTotals) DurationTotals {
	return DurationTotals{
		Scheduled:        d.Scheduled + o.Scheduled,
		Operating:        d.Operating + o.Operating,
		Planned:          d.Planned + o.Planned,
		AvailabilityLoss: d.AvailabilityLoss + o.AvailabilityLoss,
	}
}

// Ratio is a [0,1] ratio that may be undefined (zero denominator).
// An undefined ratio is never reported as 0.
type Ratio struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// DefinedRatio returns a defined ratio.
func DefinedRatio(v float64) Ratio { return Ratio{Value: v, Defined: true} }

// UndefinedRatio returns the undefined ratio.
func UndefinedRatio() Ratio { return Ratio{} }

// Flag marks a non-fatal condition on a calculation result
type Flag string

const (
	FlagNoData      Flag = "NO_DATA"     // a ratio denominator was zero
	FlagPreliminary Flag = "PRELIMINARY" // rollup computed before all constituent inputs were finalized
	FlagStale       Flag = "STALE"       // cached result returned because recompute exceeded its budget
)

// Component names used in MissingComponents reason tags
const (
	ComponentAvailability = "availability"
	ComponentPerformance  = "performance"
	ComponentQuality      = "quality"
)

// Resolution of a calculation window
type Resolution string

const (
	ResolutionRealtime Resolution = "realtime"
	ResolutionHourly   Resolution = "hourly"
	ResolutionDaily    Resolution = "daily"
	ResolutionShift    Resolution = "shift"
)

// Valid reports whether the resolution is known.
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionRealtime, ResolutionHourly, ResolutionDaily, ResolutionShift:
		return true
	}
	return false
}

// Step returns the window length of one slot at this resolution.
// Shift windows are irregular and have no fixed step.
func (r Resolution) Step() time.Duration {
	switch r {
	case ResolutionRealtime:
		return time.Minute
	case ResolutionHourly:
		return time.Hour
	case ResolutionDaily:
		return 24 * time.Hour
	}
	return 0
}

// Result is one window's calculated effectiveness metrics together with the
// summed raw totals they were derived from. Totals are carried so that
// higher-resolution rollups recompute ratios from summed durations and counts,
// never from averaging sub-period ratios.
type Result struct {
	EquipmentID     string `json:"equipment_id"`
	Window          Window `json:"window"`
	ShiftInstanceID string `json:"shift_instance_id,omitempty"`

	Availability Ratio `json:"availability"`
	Performance  Ratio `json:"performance"`
	Quality      Ratio `json:"quality"`
	OEE          Ratio `json:"oee"`
	Utilization  Ratio `json:"utilization"`
	TEEP         Ratio `json:"teep"`

	// MissingComponents names the undefined components when OEE is undefined.
	MissingComponents []string `json:"missing_components,omitempty"`

	Durations DurationTotals   `json:"durations"`
	Counts    ProductionCounts `json:"counts"`

	LossBreakdown LossBreakdown `json:"loss_breakdown"`

	Flags      []Flag    `json:"flags,omitempty"`
	ComputedAt time.Time `json:"computed_at"`
}

// HasFlag reports whether the result carries the given flag.
func (r *Result) HasFlag(f Flag) bool {
	for _, have := range r.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// Anomaly is a non-fatal warning raised during segmentation, classification or
// calculation. Anomalies are logged and counted, never block computation.
type Anomaly struct {
	Kind        AnomalyKind `json:"kind"`
	EquipmentID string      `json:"equipment_id"`
	Window      Window      `json:"window"`
	Detail      string      `json:"detail"`
	ObservedAt  time.Time   `json:"observed_at"`
}

// AnomalyKind identifies the condition that raised an anomaly
type AnomalyKind string

const (
	AnomalyPerformanceClamped AnomalyKind = "PERFORMANCE_CLAMPED"  // performance > 1.0, clamped; cycle-time calibration suspect
	AnomalyRatioClamped       AnomalyKind = "RATIO_CLAMPED"        // a ratio fell outside [0,1] and was clamped
	AnomalyUnmappedReason     AnomalyKind = "UNMAPPED_REASON_CODE" // reason code not in the loss taxonomy, counted as other losses
	AnomalyOverlapResolved    AnomalyKind = "OVERLAP_RESOLVED"     // overlapping state events resolved by ingestion order
	AnomalyUnknownState       AnomalyKind = "UNKNOWN_LEADING_STATE" // no state known at window start, span counted as availability loss
)
