package analysis

import (
	"fmt"
	"strings"

	"endurance/internal/store"
)

// UserBaseline is a user's historical habits, used to flag outliers
type UserBaseline struct {
	MedianDistanceM float64
	MedianDurationS float64
	AvgSpeedMS      float64
}

// SuspicionResult is the plausibility verdict of one activity
type SuspicionResult struct {
	IsSuspicious     bool
	SuspicionScore   float64
	SuspicionReasons []string
}

// AvgSpeedKmh returns the average speed of an activity in km/h: the reported
// average speed if known, else distance over duration. ok is false when
// neither is usable.
func AvgSpeedKmh(a store.ActivitySummary) (float64, bool) {
	if v, ok := Known(a.AvgSpeedMS); ok {
		return v * 3.6, true
	}
	if a.DurationS <= 0 {
		return 0, false
	}
	v, ok := SafeRatio(a.DistanceM/1000, a.DurationS/3600)
	return v, ok
}

// AnalyzeSuspicion scores an imported activity against every plausibility
// rule, including the capability-flag checks that need the raw polyline and
// streams. baseline may be nil.
func AnalyzeSuspicion(d store.ActivityDetails, baseline *UserBaseline, p Profile) SuspicionResult {
	return analyze(d.ActivitySummary, &d, baseline, p)
}

// AnalyzeSummary scores a stored activity. Stored summaries do not keep the
// polyline or streams, so the capability-flag rules are skipped.
func AnalyzeSummary(a store.ActivitySummary, baseline *UserBaseline, p Profile) SuspicionResult {
	return analyze(a, nil, baseline, p)
}

func analyze(a store.ActivitySummary, evidence *store.ActivityDetails, baseline *UserBaseline, p Profile) SuspicionResult {
	rules := p.Suspicion
	var t tally

	distanceKm := a.DistanceM / 1000
	durationH := a.DurationS / 3600
	speedKmh, speedKnown := AvgSpeedKmh(a)

	// physical impossibility
	if a.DistanceM <= 0 && a.DurationS > 0 {
		t.add(rules.ZeroDistance, "distance_zero_with_duration")
	}
	if !(a.DurationS > 0) {
		t.add(rules.InvalidDuration, "invalid_duration")
	}
	if !speedKnown {
		t.add(rules.NonFiniteSpeed, "non_finite_speed")
	}
	if elev, ok := Known(a.ElevationM); ok && elev < 0 {
		t.add(rules.NegativeElevation, "negative_elevation")
	}

	// absolute magnitude
	for _, th := range rules.DistanceKm {
		if distanceKm > th.Limit {
			t.add(th.Points, fmt.Sprintf("distance_above_%gkm", th.Limit))
		}
	}
	for _, th := range rules.DurationH {
		if durationH > th.Limit {
			t.add(th.Points, fmt.Sprintf("duration_above_%gh", th.Limit))
		}
	}

	// sport-aware speed ceiling
	sport := strings.ToLower(string(a.Sport))
	if speedKnown {
		limit := p.MaxSpeed(a.Sport)
		switch {
		case speedKmh > limit:
			t.add(rules.AboveSpeedLimit, "avg_speed_above_physiological_limit_"+sport)
		case speedKmh > limit*rules.NearSpeedFraction:
			t.add(rules.NearSpeedLimit, "avg_speed_near_physiological_limit_"+sport)
		}
	}

	// distance/duration incoherence
	if distanceKm > rules.FastDistanceKm && durationH < rules.FastDurationH {
		t.add(rules.IncoherentFast, "distance_duration_incoherent_fast")
	}
	if distanceKm < rules.SlowDistanceKm && durationH > rules.SlowDurationH {
		t.add(rules.IncoherentSlow, "distance_duration_incoherent_slow")
	}

	// capability flags
	if evidence != nil {
		if a.HasGPS && evidence.Polyline == "" {
			t.add(rules.GPSWithoutPolyline, "gps_flag_without_polyline")
		}
		if a.HasStreams && len(evidence.Streams) == 0 {
			t.add(rules.StreamsWithoutData, "streams_flag_without_data")
		}
	}

	// deviation from the user's habits
	if baseline != nil {
		if baseline.MedianDistanceM > 0 && distanceKm > baseline.MedianDistanceM/1000*rules.DistanceHabitMultiple {
			t.add(rules.DistanceHabit, "distance_far_above_user_habit")
		}
		if baseline.AvgSpeedMS > 0 && speedKnown && speedKmh > baseline.AvgSpeedMS*3.6*rules.SpeedHabitMultiple {
			t.add(rules.SpeedHabit, "speed_far_above_user_habit")
		}
		if baseline.MedianDurationS > 0 && durationH > baseline.MedianDurationS/3600*rules.DurationHabitMultiple {
			t.add(rules.DurationHabit, "duration_far_above_user_habit")
		}
	}

	return SuspicionResult{
		IsSuspicious:     t.score >= rules.Threshold,
		SuspicionScore:   t.score,
		SuspicionReasons: t.reasons,
	}
}
