package service

import (
	"fmt"
	"time"

	"endurance/internal/analysis"
	"endurance/internal/store"
)

// PeriodStats holds aggregated stats for a time period
type PeriodStats struct {
	PeriodStart time.Time
	PeriodLabel string
	analysis.PeriodMetrics
}

// ComparisonStats holds two periods and their deltas
type ComparisonStats struct {
	Label    string
	Current  PeriodStats
	Previous PeriodStats

	DeltaCount        int
	DistanceDeltaPct  float64
	ElevationDeltaPct float64
	LoadDeltaPct      float64
}

// GetComparisons compares the current week, month and year with the previous ones
func (q *QueryService) GetComparisons() ([]ComparisonStats, error) {
	ds, err := q.loadDataset()
	if err != nil {
		return nil, err
	}
	now := q.now()

	labels := map[store.Period]string{
		store.PeriodWeek:  "This Week vs Last Week",
		store.PeriodMonth: "This Month vs Last Month",
		store.PeriodYear:  "This Year vs Last Year",
	}

	var out []ComparisonStats
	for _, period := range []store.Period{store.PeriodWeek, store.PeriodMonth, store.PeriodYear} {
		c := analysis.ComparePeriods(ds.acts, period, now, ds.refs, q.profile)
		out = append(out, buildComparison(labels[period], period, c))
	}
	return out, nil
}

// GetComparison compares the period containing base with the previous one
func (q *QueryService) GetComparison(period store.Period, base time.Time) (ComparisonStats, error) {
	switch period {
	case store.PeriodWeek, store.PeriodMonth, store.PeriodYear:
	default:
		return ComparisonStats{}, fmt.Errorf("unsupported comparison period %q", period)
	}
	ds, err := q.loadDataset()
	if err != nil {
		return ComparisonStats{}, err
	}
	c := analysis.ComparePeriods(ds.acts, period, base, ds.refs, q.profile)
	return buildComparison(string(period), period, c), nil
}

// GetPeriodStats returns the last numPeriods weeks or months, oldest first
func (q *QueryService) GetPeriodStats(period store.Period, numPeriods int) ([]PeriodStats, error) {
	ds, err := q.loadDataset()
	if err != nil {
		return nil, err
	}

	current := analysis.BucketStart(q.now(), period)
	stats := make([]PeriodStats, 0, numPeriods)
	for i := numPeriods - 1; i >= 0; i-- {
		start := analysis.AddPeriods(current, period, -i)
		end := analysis.AddPeriods(start, period, 1)
		stats = append(stats, PeriodStats{
			PeriodStart:   start,
			PeriodLabel:   periodLabel(start, period),
			PeriodMetrics: analysis.ComputeMetrics(ds.acts, start, end, ds.refs, q.profile),
		})
	}
	return stats, nil
}

// MonthlyElevation returns the elevation gain per month for the last ChartMonths months
func (q *QueryService) MonthlyElevation() ([]analysis.SeriesPoint, error) {
	ds, err := q.loadDataset()
	if err != nil {
		return nil, err
	}
	now := q.now()
	from := analysis.AddPeriods(analysis.BucketStart(now, store.PeriodMonth), store.PeriodMonth, -(ChartMonths - 1))
	return analysis.MonthlyElevation(ds.acts, from, now), nil
}

func periodLabel(start time.Time, period store.Period) string {
	switch period {
	case store.PeriodWeek:
		return start.Format("Jan 02")
	case store.PeriodMonth:
		return start.Format("Jan 2006")
	default:
		return analysis.BucketLabel(start, period)
	}
}

// buildComparison creates a ComparisonStats from an engine comparison
func buildComparison(label string, period store.Period, c analysis.PeriodComparison) ComparisonStats {
	return ComparisonStats{
		Label:             label,
		Current:           PeriodStats{PeriodStart: c.Current.Start, PeriodLabel: periodLabel(c.Current.Start, period), PeriodMetrics: c.Current},
		Previous:          PeriodStats{PeriodStart: c.Previous.Start, PeriodLabel: periodLabel(c.Previous.Start, period), PeriodMetrics: c.Previous},
		DeltaCount:        c.Current.Count - c.Previous.Count,
		DistanceDeltaPct:  c.DistanceDeltaPct,
		ElevationDeltaPct: c.ElevationDeltaPct,
		LoadDeltaPct:      c.LoadDeltaPct,
	}
}
