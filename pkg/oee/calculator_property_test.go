// Property-based tests for the calculator's numeric guarantees: every defined
// ratio lies in [0,1], OEE is exactly the product of its defined components,
// and recomputation of unchanged inputs is deterministic.
package oee

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genInput builds arbitrary but well-formed calculator inputs: the window is
// partitioned into operating/planned/availability-loss minutes and counts obey
// good + reject <= total.
func genInput() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 1440), // operating minutes
		gen.IntRange(0, 480),  // planned minutes
		gen.IntRange(0, 480),  // availability loss minutes
		gen.Int64Range(0, 5000),
		gen.Int64Range(0, 5000),
		gen.Int64Range(1, 300), // ideal cycle seconds
	).Map(func(values []interface{}) Input {
		operating := time.Duration(values[0].(int)) * time.Minute
		planned := time.Duration(values[1].(int)) * time.Minute
		availLoss := time.Duration(values[2].(int)) * time.Minute
		scheduled := operating + planned + availLoss

		total := values[3].(int64)
		good := values[4].(int64) % (total + 1)

		start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		return Input{
			EquipmentID:    "press-01",
			Window:         Window{Start: start, End: start.Add(scheduled)},
			IdealCycleTime: time.Duration(values[5].(int64)) * time.Second,
			Durations: DurationTotals{
				Scheduled:        scheduled,
				Operating:        operating,
				Planned:          planned,
				AvailabilityLoss: availLoss,
			},
			Counts:     ProductionCounts{Total: total, Good: good, Reject: total - good},
			ComputedAt: testComputedAt,
		}
	})
}

func TestProperty_DefinedRatiosWithinUnitInterval(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("availability, performance, quality, oee, teep all in [0,1] when defined", prop.ForAll(
		func(in Input) bool {
			res, _, err := Calculate(in)
			if err != nil {
				return false
			}
			for _, r := range []Ratio{res.Availability, res.Performance, res.Quality, res.OEE, res.Utilization, res.TEEP} {
				if r.Defined && (r.Value < 0 || r.Value > 1) {
					return false
				}
			}
			return true
		},
		genInput(),
	))

	properties.TestingRun(t)
}

func TestProperty_OEEIsProductOfComponentsOrUndefined(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("oee = availability * performance * quality when all defined, else undefined with reason tags", prop.ForAll(
		func(in Input) bool {
			res, _, err := Calculate(in)
			if err != nil {
				return false
			}
			allDefined := res.Availability.Defined && res.Performance.Defined && res.Quality.Defined
			if allDefined {
				product := res.Availability.Value * res.Performance.Value * res.Quality.Value
				return res.OEE.Defined && math.Abs(res.OEE.Value-product) < 1e-9 && len(res.MissingComponents) == 0
			}
			return !res.OEE.Defined && len(res.MissingComponents) > 0 && res.HasFlag(FlagNoData)
		},
		genInput(),
	))

	properties.TestingRun(t)
}

func TestProperty_UndefinedIsNeverZero(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("zero planned production time yields undefined availability, not zero", prop.ForAll(
		func(plannedMinutes int) bool {
			planned := time.Duration(plannedMinutes) * time.Minute
			start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
			res, _, err := Calculate(Input{
				EquipmentID:    "press-01",
				Window:         Window{Start: start, End: start.Add(planned)},
				IdealCycleTime: time.Minute,
				Durations:      DurationTotals{Scheduled: planned, Planned: planned},
				ComputedAt:     testComputedAt,
			})
			if err != nil {
				return false
			}
			return !res.Availability.Defined && res.HasFlag(FlagNoData)
		},
		gen.IntRange(0, 1440),
	))

	properties.TestingRun(t)
}

func TestProperty_RecomputationIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("recomputing unchanged inputs yields an identical result", prop.ForAll(
		func(in Input) bool {
			first, _, err1 := Calculate(in)
			second, _, err2 := Calculate(in)
			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil
			}
			if !first.ComputedAt.Equal(second.ComputedAt) {
				return false
			}
			return first.Availability == second.Availability &&
				first.Performance == second.Performance &&
				first.Quality == second.Quality &&
				first.OEE == second.OEE &&
				first.TEEP == second.TEEP &&
				first.Durations == second.Durations &&
				first.Counts == second.Counts
		},
		genInput(),
	))

	properties.TestingRun(t)
}
