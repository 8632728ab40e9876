package analysis

import (
	"time"

	"endurance/internal/store"
)

const metersPerMile = 1609.34

// ObjectiveProgress is how far the current period has gone toward an objective
type ObjectiveProgress struct {
	Objective store.Objective
	From, To  time.Time // zero for all-time objectives
	Achieved  float64   // in the objective's unit
	Percent   float64   // 0-100, capped
	Done      bool
}

// EvaluateObjective measures an objective over the period containing now.
// totalHours objectives count every activity ever recorded.
func EvaluateObjective(o store.Objective, acts []store.ActivitySummary, now time.Time) ObjectiveProgress {
	prog := ObjectiveProgress{Objective: o}

	allTime := o.Kind == store.ObjectiveTotalHours || o.Period == ""
	if !allTime {
		prog.From = BucketStart(now, o.Period)
		prog.To = AddPeriods(prog.From, o.Period, 1)
	}

	for _, a := range acts {
		if a.IsSuspicious {
			continue
		}
		if o.Sport != "" && a.Sport != o.Sport {
			continue
		}
		if !allTime && !inRange(a.StartDate, prog.From, prog.To) {
			continue
		}
		prog.Achieved += objectiveValue(o, a)
	}

	if pct, ok := SafeRatio(prog.Achieved, o.Value); ok && o.Value > 0 {
		prog.Percent = Clamp(pct*100, 0, 100)
		prog.Done = prog.Achieved >= o.Value
	}
	return prog
}

func objectiveValue(o store.Objective, a store.ActivitySummary) float64 {
	switch o.Kind {
	case store.ObjectiveSessions:
		return 1
	case store.ObjectiveHours, store.ObjectiveTotalHours:
		if IsFinite(a.DurationS) && a.DurationS > 0 {
			return a.DurationS / 3600
		}
	case store.ObjectiveDistance:
		if !IsFinite(a.DistanceM) {
			return 0
		}
		if o.Unit == "mi" {
			return a.DistanceM / metersPerMile
		}
		return a.DistanceM / 1000
	case store.ObjectiveElevation:
		elev, _ := Known(a.ElevationM)
		if elev > 0 {
			return elev
		}
	}
	return 0
}
