package service

import (
	"context"

	"endurance/internal/analysis"
	"endurance/internal/logger"
	"endurance/internal/store"
)

// DashboardData contains all data needed for the dashboard
type DashboardData struct {
	Totals analysis.DashboardTotals

	// Current fitness
	Fitness         analysis.FitnessMetrics
	FormDescription string

	Regularity analysis.RegularityReport

	RecentActivities []ActivityRow

	// For charts
	FitnessHistory []analysis.FitnessMetrics
	WeeklyDistance []analysis.SeriesPoint // km
	WeeklyLoad     []analysis.SeriesPoint

	HasData bool
}

// GetDashboardData fetches all data needed for the dashboard
func (q *QueryService) GetDashboardData() (*DashboardData, error) {
	ds, err := q.loadDataset()
	if err != nil {
		return nil, err
	}
	today := q.now()
	data := &DashboardData{HasData: len(ds.acts) > 0}

	data.Totals = analysis.ComputeDashboardTotals(ds.acts, today, ds.refs, q.profile)

	daily := analysis.DailyLoads(ds.acts, ds.refs, q.profile)
	trend := analysis.CalculateFitnessTrend(daily.Days(), today)
	if len(trend) > 0 {
		data.Fitness = trend[len(trend)-1]
	}
	if len(trend) > ChartDays {
		trend = trend[len(trend)-ChartDays:]
	}
	data.FitnessHistory = trend
	data.FormDescription = analysis.FormDescription(data.Fitness.TSB)

	data.Regularity = analysis.AnalyzeRegularity(daily, today)

	for i, a := range ds.acts {
		if i == RecentActivitiesLimit {
			break
		}
		data.RecentActivities = append(data.RecentActivities, q.row(a, ds.refs))
	}

	from := analysis.AddPeriods(analysis.BucketStart(today, store.PeriodWeek), store.PeriodWeek, -(ChartWeeks - 1))
	data.WeeklyDistance = analysis.WeeklyDistance(ds.acts, from, today)
	data.WeeklyLoad = analysis.LoadSeries(ds.acts, store.PeriodWeek, from, today, ds.refs, q.profile)

	if data.Totals.OverloadWarning {
		q.log.Debug(context.Background(), "overload warning",
			logger.Float64("load7", data.Totals.Load7),
			logger.Float64("load28", data.Totals.Load28))
	}
	return data, nil
}
