package model

import (
	"time"

	"oeecore/pkg/oee"
)

// OEEResultResponse one calculation result. Undefined ratios are null, never
// zero; MissingComponents names the components whose denominators were zero.
type OEEResultResponse struct {
	EquipmentID     string    `json:"equipment_id"`
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	ShiftInstanceID string    `json:"shift_instance_id,omitempty"`

	Availability *float64 `json:"availability"`
	Performance  *float64 `json:"performance"`
	Quality      *float64 `json:"quality"`
	OEE          *float64 `json:"oee"`
	Utilization  *float64 `json:"utilization"`
	TEEP         *float64 `json:"teep"`

	MissingComponents []string `json:"missing_components,omitempty"`
	Flags             []string `json:"flags,omitempty"`
	Stale             bool     `json:"stale,omitempty"`
	Preliminary       bool     `json:"preliminary,omitempty"`

	ScheduledSec        float64 `json:"scheduled_sec"`
	OperatingSec        float64 `json:"operating_sec"`
	PlannedDowntimeSec  float64 `json:"planned_downtime_sec"`
	AvailabilityLossSec float64 `json:"availability_loss_sec"`

	TotalCount  int64 `json:"total_count"`
	GoodCount   int64 `json:"good_count"`
	RejectCount int64 `json:"reject_count"`

	LossBreakdown []LossEntry `json:"loss_breakdown,omitempty"`

	ComputedAt time.Time `json:"computed_at"`
}

// LossEntry one loss category's share of a window
type LossEntry struct {
	Category    string  `json:"category"`
	DurationSec float64 `json:"duration_sec"`
	Units       int64   `json:"units,omitempty"`
	Percentage  float64 `json:"percentage,omitempty"` // of total loss duration
}

// TrendResponse ordered sequence of results at one resolution
type TrendResponse struct {
	EquipmentID string              `json:"equipment_id"`
	Resolution  string              `json:"resolution"`
	Results     []OEEResultResponse `json:"results"`
}

// LossParetoResponse ranked loss categories for a window. Either one
// equipment or a whole work center.
type LossParetoResponse struct {
	EquipmentID  string      `json:"equipment_id,omitempty"`
	WorkCenterID string      `json:"work_center_id,omitempty"`
	WindowStart  time.Time   `json:"window_start"`
	WindowEnd    time.Time   `json:"window_end"`
	TotalLossSec float64     `json:"total_loss_sec"`
	Entries      []LossEntry `json:"entries"`
}

// ShiftSummaryResponse exposes both the duration-weighted OEE of the covered
// shifts and the naive per-shift average. The naive value is an approximation
// that diverges from the true value when shift lengths differ.
type ShiftSummaryResponse struct {
	EquipmentID     string              `json:"equipment_id"`
	WindowStart     time.Time           `json:"window_start"`
	WindowEnd       time.Time           `json:"window_end"`
	ShiftCount      int                 `json:"shift_count"`
	TrueOEE         *float64            `json:"true_oee"`
	NaiveAverageOEE *float64            `json:"naive_average_oee"`
	Shifts          []OEEResultResponse `json:"shifts,omitempty"`
}

// AnomalyResponse one persisted anomaly warning
type AnomalyResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	EquipmentID string    `json:"equipment_id"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Detail      string    `json:"detail"`
	ObservedAt  time.Time `json:"observed_at"`
}

// AnomalyListResponse anomaly warnings for one equipment and window, with
// per-kind totals over the whole window regardless of the item limit.
type AnomalyListResponse struct {
	EquipmentID string            `json:"equipment_id"`
	WindowStart time.Time         `json:"window_start"`
	WindowEnd   time.Time         `json:"window_end"`
	Counts      map[string]int64  `json:"counts"`
	Items       []AnomalyResponse `json:"items"`
}

// ShiftInstanceResponse one concrete shift occurrence from the calendar
// mirror. End honors an early close when one was recorded.
type ShiftInstanceResponse struct {
	ID           string    `json:"id"`
	DefinitionID string    `json:"definition_id"`
	EquipmentID  string    `json:"equipment_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	ClosedEarly  bool      `json:"closed_early,omitempty"`
}

// EquipmentResponse read-only registry mirror entry
type EquipmentResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	WorkCenterID     string  `json:"work_center_id,omitempty"`
	IdealCycleTimeMs int64   `json:"ideal_cycle_time_ms"`
	NominalSpeed     float64 `json:"nominal_speed,omitempty"`
}

// ratioPtr exposes a defined ratio as a pointer, undefined as nil.
func ratioPtr(r oee.Ratio) *float64 {
	if !r.Defined {
		return nil
	}
	v := r.Value
	return &v
}

// ResultToResponse converts a calculation result to its API shape.
func ResultToResponse(res *oee.Result) OEEResultResponse {
	flags := make([]string, len(res.Flags))
	for i, f := range res.Flags {
		flags[i] = string(f)
	}

	total := res.LossBreakdown.TotalDuration()
	var losses []LossEntry
	for _, cat := range res.LossBreakdown.Categories() {
		amount := res.LossBreakdown[cat]
		entry := LossEntry{
			Category:    string(cat),
			DurationSec: amount.Duration.Seconds(),
			Units:       amount.Units,
		}
		if total > 0 {
			entry.Percentage = amount.Duration.Seconds() / total.Seconds() * 100
		}
		losses = append(losses, entry)
	}

	return OEEResultResponse{
		EquipmentID:     res.EquipmentID,
		WindowStart:     res.Window.Start,
		WindowEnd:       res.Window.End,
		ShiftInstanceID: res.ShiftInstanceID,

		Availability: ratioPtr(res.Availability),
		Performance:  ratioPtr(res.Performance),
		Quality:      ratioPtr(res.Quality),
		OEE:          ratioPtr(res.OEE),
		Utilization:  ratioPtr(res.Utilization),
		TEEP:         ratioPtr(res.TEEP),

		MissingComponents: res.MissingComponents,
		Flags:             flags,
		Stale:             res.HasFlag(oee.FlagStale),
		Preliminary:       res.HasFlag(oee.FlagPreliminary),

		ScheduledSec:        res.Durations.Scheduled.Seconds(),
		OperatingSec:        res.Durations.Operating.Seconds(),
		PlannedDowntimeSec:  res.Durations.Planned.Seconds(),
		AvailabilityLossSec: res.Durations.AvailabilityLoss.Seconds(),

		TotalCount:  res.Counts.Total,
		GoodCount:   res.Counts.Good,
		RejectCount: res.Counts.Reject,

		LossBreakdown: losses,

		ComputedAt: res.ComputedAt,
	}
}
