package analysis

import (
	"sort"
	"time"

	"endurance/internal/store"
)

// All calendar buckets are computed in UTC; weeks start on Monday.

// DailyLoadMap maps a day key (YYYY-MM-DD) to the summed load of that day
type DailyLoadMap map[string]float64

// DayKey formats the UTC day of t
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DayStart returns UTC midnight of t's day
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Days returns the map as a slice sorted by date
func (m DailyLoadMap) Days() []DailyLoad {
	days := make([]DailyLoad, 0, len(m))
	for k, v := range m {
		d, err := time.Parse("2006-01-02", k)
		if err != nil {
			continue
		}
		days = append(days, DailyLoad{Date: d, Load: v})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

// DailyLoads sums per-activity loads by day
func DailyLoads(acts []store.ActivitySummary, refs map[store.Sport]float64, p Profile) DailyLoadMap {
	m := make(DailyLoadMap)
	for _, a := range acts {
		m[DayKey(a.StartDate)] += ActivityLoad(a, refs, p)
	}
	return m
}

// SumLoad sums the loads of activities that started in [from, to)
func SumLoad(acts []store.ActivitySummary, from, to time.Time, refs map[store.Sport]float64, p Profile) float64 {
	var total float64
	for _, a := range acts {
		if inRange(a.StartDate, from, to) {
			total += ActivityLoad(a, refs, p)
		}
	}
	return total
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// BucketStart returns the start of the period bucket containing t
func BucketStart(t time.Time, period store.Period) time.Time {
	d := DayStart(t)
	switch period {
	case store.PeriodWeek:
		offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
		return d.AddDate(0, 0, -offset)
	case store.PeriodMonth:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	case store.PeriodYear:
		return time.Date(d.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

// AddPeriods moves a bucket start by n buckets
func AddPeriods(start time.Time, period store.Period, n int) time.Time {
	switch period {
	case store.PeriodWeek:
		return start.AddDate(0, 0, 7*n)
	case store.PeriodMonth:
		return start.AddDate(0, n, 0)
	case store.PeriodYear:
		return start.AddDate(n, 0, 0)
	default:
		return start.AddDate(0, 0, n)
	}
}

// BucketLabel formats a bucket start for display
func BucketLabel(start time.Time, period store.Period) string {
	switch period {
	case store.PeriodMonth:
		return start.Format("2006-01")
	case store.PeriodYear:
		return start.Format("2006")
	default:
		return start.Format("2006-01-02")
	}
}

// SeriesPoint is one bucket of a time series
type SeriesPoint struct {
	Start time.Time
	Label string
	Value float64
}

// Series buckets value(a) by period over [from, to], filling empty buckets
// with zero. Non-finite values contribute nothing.
func Series(acts []store.ActivitySummary, period store.Period, from, to time.Time, value func(store.ActivitySummary) float64) []SeriesPoint {
	first := BucketStart(from, period)
	last := BucketStart(to, period)
	if last.Before(first) {
		return nil
	}

	sums := make(map[time.Time]float64)
	for _, a := range acts {
		b := BucketStart(a.StartDate, period)
		if b.Before(first) || b.After(last) {
			continue
		}
		if v := value(a); IsFinite(v) {
			sums[b] += v
		}
	}

	var points []SeriesPoint
	for b := first; !b.After(last); b = AddPeriods(b, period, 1) {
		points = append(points, SeriesPoint{Start: b, Label: BucketLabel(b, period), Value: sums[b]})
	}
	return points
}

// LoadSeries is the training-load time series over [from, to]
func LoadSeries(acts []store.ActivitySummary, period store.Period, from, to time.Time, refs map[store.Sport]float64, p Profile) []SeriesPoint {
	return Series(acts, period, from, to, func(a store.ActivitySummary) float64 {
		return ActivityLoad(a, refs, p)
	})
}

// WeeklyDistance is the weekly distance series in km
func WeeklyDistance(acts []store.ActivitySummary, from, to time.Time) []SeriesPoint {
	return Series(acts, store.PeriodWeek, from, to, func(a store.ActivitySummary) float64 {
		return a.DistanceM / 1000
	})
}

// MonthlyElevation is the monthly elevation gain series in meters
func MonthlyElevation(acts []store.ActivitySummary, from, to time.Time) []SeriesPoint {
	return Series(acts, store.PeriodMonth, from, to, func(a store.ActivitySummary) float64 {
		elev, _ := Known(a.ElevationM)
		return elev
	})
}

// PeriodMetrics are the totals of one calendar period
type PeriodMetrics struct {
	Start, End time.Time
	Count      int
	DistanceKm float64
	ElevationM float64
	DurationH  float64
	Load       float64
}

// PeriodComparison compares the period containing a date to the one before it
type PeriodComparison struct {
	Period   store.Period
	Current  PeriodMetrics
	Previous PeriodMetrics

	DistanceDeltaPct  float64
	ElevationDeltaPct float64
	LoadDeltaPct      float64
}

// ComputeMetrics totals activities that started in [from, to)
func ComputeMetrics(acts []store.ActivitySummary, from, to time.Time, refs map[store.Sport]float64, p Profile) PeriodMetrics {
	m := PeriodMetrics{Start: from, End: to}
	for _, a := range acts {
		if !inRange(a.StartDate, from, to) {
			continue
		}
		m.Count++
		if IsFinite(a.DistanceM) {
			m.DistanceKm += a.DistanceM / 1000
		}
		if elev, ok := Known(a.ElevationM); ok {
			m.ElevationM += elev
		}
		if IsFinite(a.DurationS) && a.DurationS > 0 {
			m.DurationH += a.DurationS / 3600
		}
		m.Load += ActivityLoad(a, refs, p)
	}
	return m
}

// ComparePeriods compares the week, month or year containing base with the previous one
func ComparePeriods(acts []store.ActivitySummary, period store.Period, base time.Time, refs map[store.Sport]float64, p Profile) PeriodComparison {
	curStart := BucketStart(base, period)
	curEnd := AddPeriods(curStart, period, 1)
	prevStart := AddPeriods(curStart, period, -1)

	cur := ComputeMetrics(acts, curStart, curEnd, refs, p)
	prev := ComputeMetrics(acts, prevStart, curStart, refs, p)

	return PeriodComparison{
		Period:            period,
		Current:           cur,
		Previous:          prev,
		DistanceDeltaPct:  DeltaPct(cur.DistanceKm, prev.DistanceKm),
		ElevationDeltaPct: DeltaPct(cur.ElevationM, prev.ElevationM),
		LoadDeltaPct:      DeltaPct(cur.Load, prev.Load),
	}
}

// DeltaPct is the percentage change from prev to cur. From a zero base it
// is 0 when cur is also zero and 100 otherwise.
func DeltaPct(cur, prev float64) float64 {
	if prev < nearZero && prev > -nearZero {
		if cur < nearZero && cur > -nearZero {
			return 0
		}
		return 100
	}
	d, ok := SafeRatio(cur-prev, prev)
	if !ok {
		return 0
	}
	if prev < 0 {
		d = -d
	}
	return d * 100
}

// DashboardTotals are the rolling figures shown on the main screen
type DashboardTotals struct {
	Distance30M     float64
	Elevation30M    float64
	Duration30S     float64
	Load30          float64
	Load7           float64
	Load28          float64
	Variation30Pct  float64 // load of the last 15 days vs the 15 before
	OverloadWarning bool    // 7-day load above the 28-day weekly average
	Count30         int
}

// ComputeDashboardTotals computes rolling windows ending today (inclusive).
// Loads come from ActivityLoad so unknown stored loads never count as zero silently.
func ComputeDashboardTotals(acts []store.ActivitySummary, today time.Time, refs map[store.Sport]float64, p Profile) DashboardTotals {
	end := DayStart(today).AddDate(0, 0, 1)
	start30 := end.AddDate(0, 0, -30)
	start28 := end.AddDate(0, 0, -28)
	start7 := end.AddDate(0, 0, -7)
	mid := start30.AddDate(0, 0, 15)

	var t DashboardTotals
	var loadFirst, loadSecond float64
	for _, a := range acts {
		if !inRange(a.StartDate, start30, end) {
			continue
		}
		load := ActivityLoad(a, refs, p)

		t.Count30++
		if IsFinite(a.DistanceM) {
			t.Distance30M += a.DistanceM
		}
		if elev, ok := Known(a.ElevationM); ok {
			t.Elevation30M += elev
		}
		if IsFinite(a.DurationS) && a.DurationS > 0 {
			t.Duration30S += a.DurationS
		}
		t.Load30 += load
		if a.StartDate.Before(mid) {
			loadFirst += load
		} else {
			loadSecond += load
		}
	}

	t.Load28 = SumLoad(acts, start28, end, refs, p)
	t.Load7 = SumLoad(acts, start7, end, refs, p)
	t.Variation30Pct = DeltaPct(loadSecond, loadFirst)
	t.OverloadWarning = t.Load7 > t.Load28/4
	return t
}
