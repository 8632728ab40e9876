package analysis

import (
	"math"
	"sort"
	"time"

	"endurance/internal/store"
)

// ComputeLoad converts one activity into a unitless load:
// 100 * hours * (gradeAdjustedSpeed / refSpeed)^n, scaled up by speed variability.
// refs overrides the profile's reference speeds per sport and may be nil.
// ok is false when the load could not be computed (bad duration, unknown
// speed, or no reference speed for the sport); the load is then 0.
func ComputeLoad(a store.ActivitySummary, refs map[store.Sport]float64, p Profile) (float64, bool) {
	if !IsFinite(a.DurationS) || a.DurationS <= 0 {
		return 0, false
	}
	hours := a.DurationS / 3600

	mps, ok := SafeRatio(a.DistanceM, a.DurationS)
	if !ok {
		return 0, false
	}
	speedKmh := mps * 3.6

	gradeFactor := 1.0
	elev, _ := Known(a.ElevationM) // unknown elevation counts as flat
	if a.DistanceM > 0 {
		if grade, ok := SafeRatio(elev, a.DistanceM/1000); ok {
			gradeFactor = 1 + p.GradeCoefficient*math.Min(grade, p.GradeCap)
		}
	}
	adjSpeed := speedKmh * gradeFactor

	ref, ok := resolveRefSpeed(a.Sport, refs, p)
	if !ok {
		return 0, false
	}

	ratio, ok := SafeRatio(adjSpeed, ref)
	if !ok {
		return 0, false
	}
	load := 100 * hours * math.Pow(ratio, p.Exponent(a.Sport))

	variability := 1.0
	if maxMS, ok := Known(a.MaxSpeedMS); ok && speedKmh > 0 {
		if v, ok := SafeRatio(maxMS*3.6, speedKmh); ok {
			variability = v
		}
	}
	load *= 1 + p.VariabilityAlpha*math.Max(0, variability-1)

	if !IsFinite(load) || load < 0 {
		return 0, true
	}
	return load, true
}

// ActivityLoad is ComputeLoad without the known flag
func ActivityLoad(a store.ActivitySummary, refs map[store.Sport]float64, p Profile) float64 {
	load, _ := ComputeLoad(a, refs, p)
	return load
}

func resolveRefSpeed(sport store.Sport, refs map[store.Sport]float64, p Profile) (float64, bool) {
	if v, ok := refs[sport]; ok && IsFinite(v) && v > 0 {
		return v, true
	}
	return p.RefSpeed(sport)
}

// HRZones represents athlete's heart rate zones
type HRZones struct {
	RestingHR float64
	MaxHR     float64
}

// DefaultZones returns sensible defaults if not configured
func DefaultZones() HRZones {
	return HRZones{
		RestingHR: 50,
		MaxHR:     185,
	}
}

// TRIMP calculates Training Impulse (Banister model) from the average heart rate
// TRIMP = duration (min) * ΔHR ratio * e^(b * ΔHR ratio)
// where b = 1.92 for men, 1.67 for women (using male default).
// ok is false without heart rate data.
func TRIMP(a store.ActivitySummary, zones HRZones) (float64, bool) {
	avgHR, ok := Known(a.AvgHR)
	if !ok || avgHR <= 0 || a.DurationS <= 0 {
		return 0, false
	}

	hrReserve := zones.MaxHR - zones.RestingHR
	hrRatio, ok := SafeRatio(avgHR-zones.RestingHR, hrReserve)
	if !ok || hrReserve < 0 {
		return 0, false
	}
	hrRatio = Clamp(hrRatio, 0, 1)

	// Gender coefficient (using male default)
	b := 1.92

	return a.DurationS / 60 * hrRatio * math.Exp(b*hrRatio), true
}

// DailyLoad represents training load for a single day
type DailyLoad struct {
	Date time.Time
	Load float64
}

// FitnessMetrics represents CTL/ATL/TSB for a day
type FitnessMetrics struct {
	Date time.Time
	CTL  float64 // Chronic Training Load (42-day EMA) - "Fitness"
	ATL  float64 // Acute Training Load (7-day EMA) - "Fatigue"
	TSB  float64 // Training Stress Balance (CTL - ATL) - "Form"
}

// CalculateFitnessTrend computes CTL/ATL/TSB from daily loads, one point per
// day from the first load through max(last load, through).
// A zero through stops at the last load.
func CalculateFitnessTrend(dailyLoads []DailyLoad, through time.Time) []FitnessMetrics {
	if len(dailyLoads) == 0 {
		return nil
	}

	sorted := append([]DailyLoad(nil), dailyLoads...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	// EMA decay constants
	ctlDecay := 2.0 / (42.0 + 1.0) // 42-day time constant
	atlDecay := 2.0 / (7.0 + 1.0)  // 7-day time constant

	startDate := DayStart(sorted[0].Date)
	endDate := DayStart(sorted[len(sorted)-1].Date)
	if !through.IsZero() && DayStart(through).After(endDate) {
		endDate = DayStart(through)
	}

	loadMap := make(DailyLoadMap)
	for _, dl := range sorted {
		if IsFinite(dl.Load) {
			loadMap[DayKey(dl.Date)] += dl.Load // Sum multiple activities on same day
		}
	}

	var metrics []FitnessMetrics
	var ctl, atl float64
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		load := loadMap[DayKey(d)] // 0 if no activity

		// Exponential moving average
		ctl = ctl + ctlDecay*(load-ctl)
		atl = atl + atlDecay*(load-atl)

		metrics = append(metrics, FitnessMetrics{
			Date: d,
			CTL:  ctl,
			ATL:  atl,
			TSB:  ctl - atl,
		})
	}

	return metrics
}

// GetCurrentFitness returns the CTL/ATL/TSB values as of today
func GetCurrentFitness(dailyLoads []DailyLoad, today time.Time) FitnessMetrics {
	metrics := CalculateFitnessTrend(dailyLoads, today)
	if len(metrics) == 0 {
		return FitnessMetrics{}
	}
	return metrics[len(metrics)-1]
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}
