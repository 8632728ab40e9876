package analysis

import (
	"math"
	"time"

	"endurance/internal/store"
)

// Confidence labels
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// PredictionTarget represents a target distance for predictions
type PredictionTarget struct {
	Name       string // "5km", "10km", "21.1km", "42.2km"
	Label      string
	DistanceKm float64
}

// PredictionTargets defines the standard prediction distances
var PredictionTargets = []PredictionTarget{
	{"5km", "5K", 5},
	{"10km", "10K", 10},
	{"21.1km", "Half Marathon", 21.1},
	{"42.2km", "Marathon", 42.2},
}

// RunEffort is a running reference performance
type RunEffort struct {
	ActivityID string
	DistanceKm float64
	TimeS      float64 // flat-equivalent time when grade-normalized
	Score      float64
	Flat       bool // false when chosen by the any-distance fallback
}

// RacePrediction represents a predicted race time
type RacePrediction struct {
	Target       PredictionTarget
	Seconds      float64
	PaceSecPerKm float64
	VDOTSeconds  int // equivalent time from the Daniels tables, 0 if unavailable
}

// RunningForecast is the running part of a forecast
type RunningForecast struct {
	Reference   RunEffort
	Exponent    float64
	Predictions []RacePrediction
	VDOT        float64
	VDOTLabel   string
}

// Time returns the predicted seconds for a target name such as "10km"
func (f *RunningForecast) Time(name string) (float64, bool) {
	for _, p := range f.Predictions {
		if p.Target.Name == name {
			return p.Seconds, true
		}
	}
	return 0, false
}

// CyclingForecast is the cycling part of a forecast
type CyclingForecast struct {
	CP      float64 // critical power estimate, watts
	FTP     float64
	P20     float64 // best 20-minute power
	Efforts int
	Fitted  bool // CP from regression rather than a single effort
}

// ForecastConfidence holds the confidence label of each discipline
type ForecastConfidence struct {
	Running string
	Cycling string
}

// PerformanceForecast is the output of PredictPerformance.
// Running and Cycling are nil when the data is insufficient.
type PerformanceForecast struct {
	Running    *RunningForecast
	Cycling    *CyclingForecast
	Confidence ForecastConfidence
	FormDelta  float64
}

// PowerEffort is a cycling effort with known average power
type PowerEffort struct {
	DurationS float64
	Watts     float64
}

// PredictPerformance forecasts race times and power targets from the
// activities of the last PredictionWindowDays days before now.
// ctl and atl are the caller's chronic and acute training loads.
func PredictPerformance(acts []store.ActivitySummary, ctl, atl float64, now time.Time, p Profile) PerformanceForecast {
	cutoff := now.AddDate(0, 0, -p.PredictionWindowDays)

	var runs, rides []store.ActivitySummary
	for _, a := range acts {
		if a.StartDate.Before(cutoff) || a.StartDate.After(now) {
			continue
		}
		switch a.Sport {
		case store.SportRun:
			runs = append(runs, a)
		case store.SportRide:
			rides = append(rides, a)
		}
	}

	formDelta := FormDelta(ctl, atl, p)
	forecast := PerformanceForecast{FormDelta: formDelta}

	// running
	qualifying := 0
	for _, r := range runs {
		if r.DistanceM > 0 && r.DurationS > 0 && IsFinite(r.DistanceM) && IsFinite(r.DurationS) {
			qualifying++
		}
	}
	if ref, ok := SelectBestRunningEffort(runs, p); ok {
		forecast.Running = predictRunning(ref, EstimateRiegelExponent([]RunEffort{ref}, p), formDelta, p)
	}
	forecast.Confidence.Running = confidence(qualifying, p.HighConfidenceRuns)

	// cycling
	efforts := ExtractPowerEfforts(rides, p)
	if cp, fitted, ok := EstimateCP(efforts); ok {
		forecast.Cycling = predictCycling(cp, formDelta, len(efforts), fitted, p)
	}
	forecast.Confidence.Cycling = confidence(len(efforts), p.HighConfidencePower)

	return forecast
}

func confidence(n, high int) string {
	switch {
	case n >= high:
		return ConfidenceHigh
	case n >= 1:
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}

// FormDelta is (CTL-ATL)/CTL clamped to ±FormLimit, 0 without fitness
func FormDelta(ctl, atl float64, p Profile) float64 {
	if !(ctl > 0) || !IsFinite(atl) {
		return 0
	}
	d, ok := SafeRatio(ctl-atl, ctl)
	if !ok {
		return 0
	}
	return Clamp(d, -p.FormLimit, p.FormLimit)
}

// flatRunningTime returns the time a run would have taken on flat ground.
// ok is false for runs shorter than MinFlatRunM or without a usable speed.
func flatRunningTime(a store.ActivitySummary, p Profile) (float64, bool) {
	if !(a.DistanceM >= p.MinFlatRunM) {
		return 0, false
	}
	v, ok := SafeRatio(a.DistanceM, a.DurationS)
	if !ok || v <= 0 {
		return 0, false
	}
	elev, _ := Known(a.ElevationM)
	vFlat := v * (1 - p.FlatElevationCoef*(elev/1000))
	if !(vFlat > 0) {
		return 0, false
	}
	return SafeRatio(a.DistanceM, vFlat)
}

// SelectBestRunningEffort picks the run maximizing speed * sqrt(distance km),
// preferring grade-normalized efforts of at least MinFlatRunM and falling
// back to any run with a usable distance and duration.
func SelectBestRunningEffort(runs []store.ActivitySummary, p Profile) (RunEffort, bool) {
	var best RunEffort
	found := false
	for _, a := range runs {
		tFlat, ok := flatRunningTime(a, p)
		if !ok {
			continue
		}
		if e, ok := scoreEffort(a.ID, a.DistanceM/1000, tFlat); ok && (!found || e.Score > best.Score) {
			e.Flat = true
			best, found = e, true
		}
	}
	if found {
		return best, true
	}

	for _, a := range runs {
		if !(a.DistanceM > 0) || !(a.DurationS > 0) {
			continue
		}
		if e, ok := scoreEffort(a.ID, a.DistanceM/1000, a.DurationS); ok && (!found || e.Score > best.Score) {
			best, found = e, true
		}
	}
	return best, found
}

func scoreEffort(id string, dKm, timeS float64) (RunEffort, bool) {
	v, ok := SafeRatio(dKm, timeS/3600)
	if !ok {
		return RunEffort{}, false
	}
	return RunEffort{ActivityID: id, DistanceKm: dKm, TimeS: timeS, Score: v * math.Sqrt(dKm)}, true
}

// EstimateRiegelExponent fits the Riegel fatigue exponent from the first two
// reference efforts, clamped to [RiegelMin, RiegelMax]. With fewer than two
// usable efforts it returns DefaultRiegel.
func EstimateRiegelExponent(refs []RunEffort, p Profile) float64 {
	if len(refs) < 2 {
		return p.DefaultRiegel
	}
	a, b := refs[0], refs[1]
	tr, ok1 := SafeRatio(b.TimeS, a.TimeS)
	dr, ok2 := SafeRatio(b.DistanceKm, a.DistanceKm)
	if !ok1 || !ok2 || tr <= 0 || dr <= 0 {
		return p.DefaultRiegel
	}
	k, ok := SafeRatio(math.Log(tr), math.Log(dr))
	if !ok {
		return p.DefaultRiegel
	}
	return Clamp(k, p.RiegelMin, p.RiegelMax)
}

func predictRunning(ref RunEffort, k, formDelta float64, p Profile) *RunningForecast {
	adj := 1 - p.FormAlpha*formDelta

	f := &RunningForecast{Reference: ref, Exponent: k}
	f.VDOT = CalculateVDOT(ref.DistanceKm*1000, int(math.Round(ref.TimeS)))
	f.VDOTLabel = GetVDOTLabel(f.VDOT)

	for _, target := range PredictionTargets {
		t := ref.TimeS * math.Pow(target.DistanceKm/ref.DistanceKm, k) * adj
		if !IsFinite(t) || t <= 0 {
			continue
		}
		pred := RacePrediction{Target: target, Seconds: t, PaceSecPerKm: t / target.DistanceKm}
		if f.VDOT > 0 {
			pred.VDOTSeconds = PredictTime(f.VDOT, target.DistanceKm*1000)
		}
		f.Predictions = append(f.Predictions, pred)
	}
	if len(f.Predictions) == 0 {
		return nil
	}
	return f
}

// ExtractPowerEfforts collects rides between MinPowerEffortS and
// MaxPowerEffortS long with a known average power
func ExtractPowerEfforts(rides []store.ActivitySummary, p Profile) []PowerEffort {
	var efforts []PowerEffort
	for _, a := range rides {
		w, ok := Known(a.AvgWatts)
		if !ok || !IsFinite(a.DurationS) {
			continue
		}
		if a.DurationS < p.MinPowerEffortS || a.DurationS > p.MaxPowerEffortS {
			continue
		}
		efforts = append(efforts, PowerEffort{DurationS: a.DurationS, Watts: w})
	}
	return efforts
}

// EstimateCP estimates critical power by regressing power on inverse
// duration (P = CP + W'/t). It needs two efforts with distinct durations and
// a positive intercept. A single effort stands in for CP on its own.
func EstimateCP(efforts []PowerEffort) (cp float64, fitted, ok bool) {
	if len(efforts) == 1 {
		w := efforts[0].Watts
		return w, false, w > 0
	}
	if len(efforts) < 2 {
		return 0, false, false
	}

	xs := make([]float64, len(efforts))
	ys := make([]float64, len(efforts))
	for i, e := range efforts {
		xs[i] = 1 / e.DurationS
		ys[i] = e.Watts
	}
	xMean, yMean := mean(xs), mean(ys)

	var num, den float64
	for i := range xs {
		num += (xs[i] - xMean) * (ys[i] - yMean)
		den += (xs[i] - xMean) * (xs[i] - xMean)
	}
	wPrime, ok := SafeRatio(num, den)
	if !ok {
		return 0, false, false
	}
	cp = yMean - wPrime*xMean
	if !IsFinite(cp) || cp <= 0 {
		return 0, false, false
	}
	return cp, true, true
}

func predictCycling(cp, formDelta float64, n int, fitted bool, p Profile) *CyclingForecast {
	ftp := cp * (1 + p.FormAlpha*formDelta)
	return &CyclingForecast{
		CP:      cp,
		FTP:     ftp,
		P20:     ftp / p.FTPToP20,
		Efforts: n,
		Fitted:  fitted,
	}
}
