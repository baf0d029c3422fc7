package mysql

import (
	"encoding/json"
	"time"

	"oeecore/pkg/oee"
	"oeecore/pkg/store/mysql/model"
)

func ratioPtr(r oee.Ratio) *float64 {
	if !r.Defined {
		return nil
	}
	v := r.Value
	return &v
}

func ptrRatio(p *float64) oee.Ratio {
	if p == nil {
		return oee.UndefinedRatio()
	}
	return oee.DefinedRatio(*p)
}

// ResultToRow converts a calculated result into its storage row.
// Undefined ratios become NULL columns, never zeros.
func ResultToRow(res *oee.Result, resolution oee.Resolution, preliminary bool) (*model.OEEResultRow, error) {
	breakdown, err := json.Marshal(res.LossBreakdown)
	if err != nil {
		return nil, err
	}
	missing, err := json.Marshal(res.MissingComponents)
	if err != nil {
		return nil, err
	}
	flags, err := json.Marshal(res.Flags)
	if err != nil {
		return nil, err
	}

	return &model.OEEResultRow{
		EquipmentID:     res.EquipmentID,
		WindowStart:     res.Window.Start,
		WindowEnd:       res.Window.End,
		ShiftInstanceID: res.ShiftInstanceID,
		Resolution:      string(resolution),

		Availability: ratioPtr(res.Availability),
		Performance:  ratioPtr(res.Performance),
		Quality:      ratioPtr(res.Quality),
		OEE:          ratioPtr(res.OEE),
		Utilization:  ratioPtr(res.Utilization),
		TEEP:         ratioPtr(res.TEEP),

		ScheduledSec:        res.Durations.Scheduled.Seconds(),
		OperatingSec:        res.Durations.Operating.Seconds(),
		PlannedSec:          res.Durations.Planned.Seconds(),
		AvailabilityLossSec: res.Durations.AvailabilityLoss.Seconds(),

		TotalCount:  res.Counts.Total,
		GoodCount:   res.Counts.Good,
		RejectCount: res.Counts.Reject,

		LossBreakdownJSON:     string(breakdown),
		MissingComponentsJSON: string(missing),
		FlagsJSON:             string(flags),

		Preliminary: preliminary,
		ComputedAt:  res.ComputedAt,
	}, nil
}

// RowToResult converts a storage row back into a calculation result.
func RowToResult(row *model.OEEResultRow) (*oee.Result, error) {
	res := &oee.Result{
		EquipmentID:     row.EquipmentID,
		Window:          oee.Window{Start: row.WindowStart, End: row.WindowEnd},
		ShiftInstanceID: row.ShiftInstanceID,

		Availability: ptrRatio(row.Availability),
		Performance:  ptrRatio(row.Performance),
		Quality:      ptrRatio(row.Quality),
		OEE:          ptrRatio(row.OEE),
		Utilization:  ptrRatio(row.Utilization),
		TEEP:         ptrRatio(row.TEEP),

		Durations: oee.DurationTotals{
			Scheduled:        secondsToDuration(row.ScheduledSec),
			Operating:        secondsToDuration(row.OperatingSec),
			Planned:          secondsToDuration(row.PlannedSec),
			AvailabilityLoss: secondsToDuration(row.AvailabilityLossSec),
		},
		Counts: oee.ProductionCounts{
			Total:  row.TotalCount,
			Good:   row.GoodCount,
			Reject: row.RejectCount,
		},

		LossBreakdown: oee.LossBreakdown{},
		ComputedAt:    row.ComputedAt,
	}

	if row.LossBreakdownJSON != "" {
		if err := json.Unmarshal([]byte(row.LossBreakdownJSON), &res.LossBreakdown); err != nil {
			return nil, err
		}
	}
	if row.MissingComponentsJSON != "" {
		if err := json.Unmarshal([]byte(row.MissingComponentsJSON), &res.MissingComponents); err != nil {
			return nil, err
		}
	}
	if row.FlagsJSON != "" {
		if err := json.Unmarshal([]byte(row.FlagsJSON), &res.Flags); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

// AnomalyToRow converts a domain anomaly into its storage row.
func AnomalyToRow(id string, a oee.Anomaly) *model.AnomalyRow {
	return &model.AnomalyRow{
		ID:          id,
		Kind:        string(a.Kind),
		EquipmentID: a.EquipmentID,
		WindowStart: a.Window.Start,
		WindowEnd:   a.Window.End,
		Detail:      a.Detail,
		ObservedAt:  a.ObservedAt,
	}
}
