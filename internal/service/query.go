package service

import (
	"fmt"
	"time"

	"endurance/internal/analysis"
	"endurance/internal/logger"
	"endurance/internal/store"
)

// QueryService provides read-only queries for the TUI.
// Activities flagged suspicious are excluded from every aggregate.
type QueryService struct {
	store         *store.DB
	userID        string
	profile       analysis.Profile
	zones         analysis.HRZones
	derivedSpeeds bool
	now           func() time.Time
	log           logger.Logger
}

// QueryOption configures a QueryService
type QueryOption func(*QueryService)

// WithHRZones sets the heart rate zones used for TRIMP
func WithHRZones(z analysis.HRZones) QueryOption {
	return func(q *QueryService) { q.zones = z }
}

// WithQueryClock replaces time.Now
func WithQueryClock(now func() time.Time) QueryOption {
	return func(q *QueryService) { q.now = now }
}

// WithDerivedReferenceSpeeds computes loads against the athlete's own median speeds
func WithDerivedReferenceSpeeds(enabled bool) QueryOption {
	return func(q *QueryService) { q.derivedSpeeds = enabled }
}

// NewQueryService creates a new query service
func NewQueryService(db *store.DB, userID string, profile analysis.Profile, opts ...QueryOption) *QueryService {
	q := &QueryService{
		store:   db,
		userID:  userID,
		profile: profile,
		zones:   analysis.DefaultZones(),
		now:     time.Now,
		log:     logger.Named("query"),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// dataset is the trusted activity history a query works on
type dataset struct {
	acts []store.ActivitySummary // newest first
	refs map[store.Sport]float64
}

func (q *QueryService) loadDataset() (*dataset, error) {
	all, err := q.store.ListActivities(q.userID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	acts := make([]store.ActivitySummary, 0, len(all))
	for _, a := range all {
		if !a.IsSuspicious {
			acts = append(acts, a)
		}
	}
	ds := &dataset{acts: acts}
	if q.derivedSpeeds {
		ds.refs = analysis.ReferenceSpeeds(acts)
	}
	return ds, nil
}

// ActivityRow is an activity with the figures shown in lists
type ActivityRow struct {
	Activity  store.ActivitySummary
	Load      float64
	LoadKnown bool
	TRIMP     float64
	HasTRIMP  bool
}

func (q *QueryService) row(a store.ActivitySummary, refs map[store.Sport]float64) ActivityRow {
	r := ActivityRow{Activity: a}
	r.Load, r.LoadKnown = analysis.ComputeLoad(a, refs, q.profile)
	r.TRIMP, r.HasTRIMP = analysis.TRIMP(a, q.zones)
	return r
}

// GetActivitiesList returns a page of activities, newest first.
// Suspicious activities are listed too so they can be reviewed.
func (q *QueryService) GetActivitiesList(limit, offset int) ([]ActivityRow, error) {
	all, err := q.store.ListActivities(q.userID)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	var refs map[store.Sport]float64
	if q.derivedSpeeds {
		refs = analysis.ReferenceSpeeds(all)
	}
	rows := make([]ActivityRow, 0, end-offset)
	for _, a := range all[offset:end] {
		rows = append(rows, q.row(a, refs))
	}
	return rows, nil
}

// GetTotalActivityCount returns the total number of activities
func (q *QueryService) GetTotalActivityCount() (int, error) {
	return q.store.CountActivities(q.userID)
}

// SyncStatus describes when each source was last imported
type SyncStatus struct {
	LastStrava time.Time
	LastFIT    time.Time
	Activities int
}

// GetSyncStatus returns the import cursors and the activity count
func (q *QueryService) GetSyncStatus() (*SyncStatus, error) {
	var st SyncStatus
	var err error
	if st.LastStrava, err = q.store.GetSyncTime(store.SyncKeyLastStrava); err != nil {
		return nil, err
	}
	if st.LastFIT, err = q.store.GetSyncTime(store.SyncKeyLastFIT); err != nil {
		return nil, err
	}
	if st.Activities, err = q.store.CountActivities(q.userID); err != nil {
		return nil, err
	}
	return &st, nil
}

// FitnessTrend returns CTL/ATL/TSB for the last days days through today
func (q *QueryService) FitnessTrend(days int) ([]analysis.FitnessMetrics, error) {
	ds, err := q.loadDataset()
	if err != nil {
		return nil, err
	}
	trend := analysis.CalculateFitnessTrend(analysis.DailyLoads(ds.acts, ds.refs, q.profile).Days(), q.now())
	if days > 0 && len(trend) > days {
		trend = trend[len(trend)-days:]
	}
	return trend, nil
}

func (q *QueryService) currentFitness(ds *dataset) analysis.FitnessMetrics {
	daily := analysis.DailyLoads(ds.acts, ds.refs, q.profile)
	return analysis.GetCurrentFitness(daily.Days(), q.now())
}

// GetActivity returns one activity with its list figures
func (q *QueryService) GetActivity(id string) (*ActivityRow, error) {
	a, err := q.store.GetActivity(id)
	if err != nil {
		return nil, err
	}
	var refs map[store.Sport]float64
	if q.derivedSpeeds {
		ds, err := q.loadDataset()
		if err != nil {
			return nil, err
		}
		refs = ds.refs
	}
	r := q.row(*a, refs)
	return &r, nil
}
