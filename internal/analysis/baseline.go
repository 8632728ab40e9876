package analysis

import "endurance/internal/store"

// MinReferenceEffortS is the shortest effort that counts toward a data-derived reference speed
const MinReferenceEffortS = 30 * 60

// ComputeBaseline derives a user's habits from past activities: median
// distance and duration, and mean average speed. Activities that are flagged
// suspicious or lack a positive duration are ignored. It returns nil when no
// activity qualifies.
func ComputeBaseline(acts []store.ActivitySummary) *UserBaseline {
	var distances, durations, speeds []float64
	for _, a := range acts {
		if a.IsSuspicious || !(a.DurationS > 0) || !IsFinite(a.DistanceM) {
			continue
		}
		distances = append(distances, a.DistanceM)
		durations = append(durations, a.DurationS)
		if kmh, ok := AvgSpeedKmh(a); ok {
			speeds = append(speeds, kmh/3.6)
		}
	}
	if len(distances) == 0 {
		return nil
	}
	return &UserBaseline{
		MedianDistanceM: median(distances),
		MedianDurationS: median(durations),
		AvgSpeedMS:      mean(speeds),
	}
}

// ReferenceSpeeds returns, per sport, the median speed (km/h) of the user's
// non-suspicious efforts lasting at least MinReferenceEffortS. Sports
// without such efforts are absent and fall back to the profile defaults.
func ReferenceSpeeds(acts []store.ActivitySummary) map[store.Sport]float64 {
	bySport := make(map[store.Sport][]float64)
	for _, a := range acts {
		if a.IsSuspicious || a.DurationS < MinReferenceEffortS || !(a.DistanceM > 0) {
			continue
		}
		if v, ok := SafeRatio(a.DistanceM, a.DurationS); ok {
			bySport[a.Sport] = append(bySport[a.Sport], v*3.6)
		}
	}

	refs := make(map[store.Sport]float64, len(bySport))
	for sport, speeds := range bySport {
		if m := median(speeds); m > 0 {
			refs[sport] = m
		}
	}
	return refs
}
