package oee

import (
	"fmt"
	"sort"
	"time"
)

// ReasonPlannedBreak is the reason code attached to segments carved out for
// shift breaks.
const ReasonPlannedBreak = "PLANNED_BREAK"

// ReasonUnknownState is attached to the leading span of a window for which no
// state is known yet.
const ReasonUnknownState = "UNKNOWN_STATE"

// Segmentation is the output of BuildSegments: contiguous, non-overlapping
// segments tiling the window exactly, plus per-category duration totals.
type Segmentation struct {
	EquipmentID string
	Window      Window
	Segments    []Segment
	Totals      DurationTotals
	Anomalies   []Anomaly
}

// BuildSegments turns a per-equipment stream of state-change events into
// non-overlapping segments for one window.
//
// Events are state-change points: a state persists until the next event or the
// window end. Overlapping or out-of-order submissions are resolved
// deterministically by ingestion timestamp (last write wins) and reported as
// anomalies rather than failing the segmentation. Planned breaks override the
// underlying state for their duration.
//
// Callers should include the last event at or before the window start so the
// leading state is known; without it the leading span is counted as
// availability loss and flagged.
func BuildSegments(equipmentID string, window Window, events []StateEvent, breaks []Window) Segmentation {
	seg := Segmentation{EquipmentID: equipmentID, Window: window}
	if window.Duration() == 0 {
		return seg
	}

	effective, anomalies := resolveEventConflicts(equipmentID, window, events)
	seg.Anomalies = anomalies

	// Cut the window at every event start and break boundary, then categorize
	// each elementary interval.
	points := boundaryPoints(window, effective, breaks)
	for i := 0; i+1 < len(points); i++ {
		sub := Window{Start: points[i], End: points[i+1]}
		if sub.Duration() == 0 {
			continue
		}

		piece := Segment{Window: sub}
		if inAnyBreak(sub.Start, window, breaks) {
			piece.Category = CategoryPlanned
			piece.ReasonCode = ReasonPlannedBreak
		} else if ev := eventInEffect(effective, sub.Start); ev != nil {
			piece.State = ev.State
			piece.Category = categoryFor(ev)
			piece.ReasonCode = ev.ReasonCode
		} else {
			// No state known yet: count the span as availability loss so it
			// cannot inflate OEE, and flag it for operator review.
			piece.Category = CategoryAvailabilityLoss
			piece.ReasonCode = ReasonUnknownState
			seg.Anomalies = append(seg.Anomalies, Anomaly{
				Kind:        AnomalyUnknownState,
				EquipmentID: equipmentID,
				Window:      sub,
				Detail:      "no state event at or before window start",
				ObservedAt:  time.Now(),
			})
		}
		seg.Segments = append(seg.Segments, piece)
	}

	seg.Segments = mergeAdjacent(seg.Segments)

	seg.Totals.Scheduled = window.Duration()
	for _, s := range seg.Segments {
		switch s.Category {
		case CategoryProduction:
			seg.Totals.Operating += s.Duration()
		case CategoryPlanned:
			seg.Totals.Planned += s.Duration()
		case CategoryAvailabilityLoss:
			seg.Totals.AvailabilityLoss += s.Duration()
		}
	}

	return seg
}

// resolveEventConflicts orders events by start time and resolves overlaps and
// duplicate starts by ingestion timestamp, last write wins.
func resolveEventConflicts(equipmentID string, window Window, events []StateEvent) ([]StateEvent, []Anomaly) {
	relevant := make([]StateEvent, 0, len(events))
	for _, ev := range events {
		if ev.StartTime.Before(window.End) {
			relevant = append(relevant, ev)
		}
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		if relevant[i].StartTime.Equal(relevant[j].StartTime) {
			return relevant[i].IngestedAt.Before(relevant[j].IngestedAt)
		}
		return relevant[i].StartTime.Before(relevant[j].StartTime)
	})

	var anomalies []Anomaly
	effective := make([]StateEvent, 0, len(relevant))
	for _, ev := range relevant {
		if len(effective) == 0 {
			effective = append(effective, ev)
			continue
		}
		prev := &effective[len(effective)-1]

		if ev.StartTime.Equal(prev.StartTime) {
			// Same start, later ingestion wins (ordering above guarantees it).
			anomalies = append(anomalies, overlapAnomaly(equipmentID, ev,
				fmt.Sprintf("duplicate state at %s superseded by later ingestion", ev.StartTime.Format(time.RFC3339))))
			*prev = ev
			continue
		}

		if prev.EndTime != nil && ev.StartTime.Before(*prev.EndTime) {
			if ev.IngestedAt.Before(prev.IngestedAt) {
				// Earlier ingestion loses: the already-accepted event persists.
				anomalies = append(anomalies, overlapAnomaly(equipmentID, ev,
					fmt.Sprintf("event at %s overlaps prior segment and was ingested earlier, dropped", ev.StartTime.Format(time.RFC3339))))
				continue
			}
			anomalies = append(anomalies, overlapAnomaly(equipmentID, ev,
				fmt.Sprintf("event at %s truncates overlapping prior segment", ev.StartTime.Format(time.RFC3339))))
		}

		effective = append(effective, ev)
	}

	return effective, anomalies
}

func overlapAnomaly(equipmentID string, ev StateEvent, detail string) Anomaly {
	w := Window{Start: ev.StartTime, End: ev.StartTime}
	if ev.EndTime != nil {
		w.End = *ev.EndTime
	}
	return Anomaly{
		Kind:        AnomalyOverlapResolved,
		EquipmentID: equipmentID,
		Window:      w,
		Detail:      detail,
		ObservedAt:  time.Now(),
	}
}

func boundaryPoints(window Window, events []StateEvent, breaks []Window) []time.Time {
	points := []time.Time{window.Start, window.End}
	for _, ev := range events {
		if window.Contains(ev.StartTime) {
			points = append(points, ev.StartTime)
		}
	}
	for _, b := range breaks {
		for _, t := range []time.Time{b.Start, b.End} {
			if window.Contains(t) {
				points = append(points, t)
			}
		}
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })

	dedup := points[:1]
	for _, t := range points[1:] {
		if !t.Equal(dedup[len(dedup)-1]) {
			dedup = append(dedup, t)
		}
	}
	return dedup
}

func inAnyBreak(t time.Time, window Window, breaks []Window) bool {
	for _, b := range breaks {
		clipped := Window{Start: maxTime(b.Start, window.Start), End: minTime(b.End, window.End)}
		if clipped.Contains(t) {
			return true
		}
	}
	return false
}

// eventInEffect returns the last event starting at or before t, or nil.
func eventInEffect(events []StateEvent, t time.Time) *StateEvent {
	var current *StateEvent
	for i := range events {
		if events[i].StartTime.After(t) {
			break
		}
		current = &events[i]
	}
	return current
}

func categoryFor(ev *StateEvent) SegmentCategory {
	if ev.Category.Valid() {
		return ev.Category
	}
	switch ev.State {
	case StateProducing:
		return CategoryProduction
	case StateMaintenance:
		return CategoryPlanned
	default:
		return CategoryAvailabilityLoss
	}
}

func mergeAdjacent(segments []Segment) []Segment {
	if len(segments) < 2 {
		return segments
	}
	merged := segments[:1]
	for _, s := range segments[1:] {
		last := &merged[len(merged)-1]
		if last.State == s.State && last.Category == s.Category && last.ReasonCode == s.ReasonCode &&
			last.Window.End.Equal(s.Window.Start) {
			last.Window.End = s.Window.End
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
