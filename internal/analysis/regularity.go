package analysis

import (
	"fmt"
	"math"
	"time"
)

// RegularityCategory is the advisory outcome of a regularity analysis
type RegularityCategory string

const (
	RegularityNone         RegularityCategory = ""
	RegularityOverloadRisk RegularityCategory = "overload_risk"
	RegularityRapidRise    RegularityCategory = "rapid_increase"
	RegularityIrregular    RegularityCategory = "irregular"
	RegularityHealthy      RegularityCategory = "healthy"
)

// RegularityReport summarizes the training trend of the last weeks
type RegularityReport struct {
	Vn       float64 // load of the last 7 days
	VnPrev   float64 // load of the 7 days before
	DeltaPct float64
	R        float64 // intra-week variability: stddev/mean of the last 7 daily loads

	WeeklyTotals   [3]float64 // last, previous, and the one before
	CoherenceScore int        // 0-100

	Category RegularityCategory
	Message  string
}

// AnalyzeRegularity derives trend, variability and 3-week coherence from
// daily loads. Windows end on today's day (inclusive).
func AnalyzeRegularity(daily DailyLoadMap, today time.Time) RegularityReport {
	day0 := DayStart(today)

	lastWeek := sevenDays(daily, day0, 0)

	var r RegularityReport
	r.WeeklyTotals = [3]float64{
		sum(lastWeek),
		sum(sevenDays(daily, day0, 7)),
		sum(sevenDays(daily, day0, 14)),
	}
	r.Vn = r.WeeklyTotals[0]
	r.VnPrev = r.WeeklyTotals[1]
	r.DeltaPct = DeltaPct(r.Vn, r.VnPrev)

	if v, ok := SafeRatio(stddev(lastWeek), mean(lastWeek)); ok {
		r.R = v
	}

	r.CoherenceScore = coherence(r.WeeklyTotals[:])
	if r.Vn <= nearZero && r.VnPrev <= nearZero {
		// two empty weeks say nothing about the trend
		return r
	}
	r.Category, r.Message = classifyRegularity(r.DeltaPct, r.R)
	return r
}

// sevenDays returns the 7 daily loads of the window ending offset days before day0
func sevenDays(daily DailyLoadMap, day0 time.Time, offset int) []float64 {
	out := make([]float64, 0, 7)
	for i := offset + 6; i >= offset; i-- {
		v := daily[DayKey(day0.AddDate(0, 0, -i))]
		if !IsFinite(v) {
			v = 0
		}
		out = append(out, v)
	}
	return out
}

// coherence is 1 - stddev/mean of the weekly totals as a rounded 0-100 score.
// Without load it is 0: no data is not perfect consistency.
func coherence(totals []float64) int {
	m := mean(totals)
	if m <= nearZero {
		return 0
	}
	c, ok := SafeRatio(stddev(totals), m)
	if !ok {
		return 0
	}
	return int(math.Round(Clamp(1-c, 0, 1) * 100))
}

func classifyRegularity(delta, r float64) (RegularityCategory, string) {
	switch {
	case delta > 25 && r > 0.6:
		return RegularityOverloadRisk, fmt.Sprintf("Load up %.0f%% with uneven sessions: risk of overload", delta)
	case delta > 10 && delta <= 25 && r <= 0.6:
		return RegularityRapidRise, fmt.Sprintf("Load up %.0f%% this week: rapid increase", delta)
	case math.Abs(delta) <= 10 && r > 0.8:
		return RegularityIrregular, "Stable volume but irregular sessions"
	case math.Abs(delta) <= 10 && r < 0.5:
		return RegularityHealthy, "Stable and regular: healthy zone"
	default:
		return RegularityNone, ""
	}
}
