package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"endurance/internal/analysis"
	"endurance/internal/fitfile"
	"endurance/internal/logger"
	"endurance/internal/metrics"
	"endurance/internal/store"
	"endurance/internal/strava"
)

// ActivitySource fetches activities from Strava. *strava.Client implements it.
type ActivitySource interface {
	GetAllActivities(ctx context.Context, after time.Time, onProgress func(fetched int)) ([]strava.Activity, error)
	GetActivityStreams(ctx context.Context, activityID int64) (*strava.Streams, error)
	RateLimitStatus() (shortRemaining, dailyRemaining int)
}

// SyncService imports activities from Strava and FIT files through the
// plausibility gate and duplicate detection into the store
type SyncService struct {
	source        ActivitySource
	store         *store.DB
	userID        string
	profile       analysis.Profile
	derivedSpeeds bool
	fetchStreams  bool
	metrics       *metrics.Recorder
	log           logger.Logger
	now           func() time.Time
}

// SyncOption configures a SyncService
type SyncOption func(*SyncService)

// WithMetrics records import counters on r
func WithMetrics(r *metrics.Recorder) SyncOption {
	return func(s *SyncService) { s.metrics = r }
}

// WithLogger replaces the default named logger
func WithLogger(l logger.Logger) SyncOption {
	return func(s *SyncService) { s.log = l }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) SyncOption {
	return func(s *SyncService) { s.now = now }
}

// WithStreams fetches streams for every new Strava activity. This costs
// one API request per activity.
func WithStreams(enabled bool) SyncOption {
	return func(s *SyncService) { s.fetchStreams = enabled }
}

// WithDerivedSpeeds computes loads against the athlete's own median speeds
func WithDerivedSpeeds(enabled bool) SyncOption {
	return func(s *SyncService) { s.derivedSpeeds = enabled }
}

// NewSyncService creates a sync service for userID. source may be nil when
// only FIT files are imported.
func NewSyncService(source ActivitySource, db *store.DB, userID string, profile analysis.Profile, opts ...SyncOption) *SyncService {
	s := &SyncService{
		source:  source,
		store:   db,
		userID:  userID,
		profile: profile,
		log:     logger.Named("sync"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase           string
	Total           int
	Completed       int
	CurrentActivity string
}

// MergeRecord describes an imported activity folded into an existing one
type MergeRecord struct {
	Imported   string // source/external id of the incoming record
	IntoID     string
	Score      float64
	Candidates []analysis.SimilarityCandidate
}

// SuspectRecord describes an activity flagged by the plausibility rules.
// It is stored with IsSuspicious set under ID.
type SuspectRecord struct {
	Imported string
	ID       string
	Name     string
	Score    float64
	Reasons  []string
}

// SyncResult contains the results of a sync or import operation
type SyncResult struct {
	Fetched  int
	Stored   int
	Merged   []MergeRecord
	Suspects []SuspectRecord
	Skipped  int // already imported on a previous run
	Errors   []error
}

// ErrNoSource is returned by SyncAll when the service has no Strava client
var ErrNoSource = errors.New("no strava client configured")

// batch carries what every record of one import run is analyzed against
type batch struct {
	baseline *analysis.UserBaseline
	refs     map[store.Sport]float64
}

func (s *SyncService) newBatch() (*batch, error) {
	acts, err := s.store.ListActivities(s.userID)
	if err != nil {
		return nil, fmt.Errorf("loading stored activities: %w", err)
	}
	b := &batch{baseline: analysis.ComputeBaseline(acts)}
	if s.derivedSpeeds {
		b.refs = analysis.ReferenceSpeeds(acts)
	}
	return b, nil
}

// SyncAll fetches activities newer than the last sync from Strava and imports them
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}
	if s.source == nil {
		return nil, ErrNoSource
	}

	result := &SyncResult{}

	after, err := s.store.GetSyncTime(store.SyncKeyLastStrava)
	if err != nil {
		return result, err
	}

	send(progress, SyncProgress{Phase: PhaseFetch})
	activities, err := s.source.GetAllActivities(ctx, after, func(fetched int) {
		send(progress, SyncProgress{Phase: PhaseFetch, Total: fetched, Completed: fetched})
	})
	if err != nil {
		return result, fmt.Errorf("fetching activities: %w", err)
	}
	result.Fetched = len(activities)
	s.log.Info(ctx, "fetched strava activities",
		logger.Int("count", len(activities)),
		logger.String("after", after.Format(time.RFC3339)))

	// oldest first so later records see earlier ones as duplicate candidates
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].StartDate.Before(activities[j].StartDate)
	})

	b, err := s.newBatch()
	if err != nil {
		return result, err
	}

	// the cursor never passes an activity whose import failed, so the next
	// sync fetches it again
	newest := after
	var firstFailed time.Time
	for i, a := range activities {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		send(progress, SyncProgress{Phase: PhaseAnalyze, Total: len(activities), Completed: i, CurrentActivity: a.Name})

		if !after.IsZero() && !a.StartDate.After(after) {
			result.Skipped++
			continue
		}

		var streams *strava.Streams
		if s.fetchStreams {
			send(progress, SyncProgress{Phase: PhaseStreams, Total: len(activities), Completed: i, CurrentActivity: a.Name})
			streams, err = s.source.GetActivityStreams(ctx, a.ID)
			if err != nil {
				// some activities have no streams; import the summary anyway
				result.Errors = append(result.Errors, fmt.Errorf("streams for activity %d: %w", a.ID, err))
				streams = nil
			}
		}

		d := strava.ToDetails(a, streams, s.userID)
		if err := s.importOne(ctx, b, d, result); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("activity %d (%s): %w", a.ID, a.Name, err))
			s.metrics.ImportError(string(store.SourceStrava))
			if firstFailed.IsZero() || a.StartDate.Before(firstFailed) {
				firstFailed = a.StartDate
			}
			continue
		}
		if a.StartDate.After(newest) {
			newest = a.StartDate
		}
	}
	send(progress, SyncProgress{Phase: PhaseAnalyze, Total: len(activities), Completed: len(activities)})

	if !firstFailed.IsZero() && !newest.Before(firstFailed) {
		newest = firstFailed.Add(-time.Nanosecond)
	}

	if newest.After(after) {
		if err := s.store.SetSyncTime(store.SyncKeyLastStrava, newest); err != nil {
			return result, fmt.Errorf("saving sync time: %w", err)
		}
	}
	s.metrics.ImportRun(string(store.SourceStrava), s.now())
	s.logResult(ctx, "strava sync finished", result)
	return result, nil
}

// ImportFiles imports FIT files. A file that fails to decode is reported
// in the result and does not stop the others.
func (s *SyncService) ImportFiles(ctx context.Context, paths []string, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result := &SyncResult{}
	var decoded []store.ActivityDetails
	for i, path := range paths {
		send(progress, SyncProgress{Phase: PhaseDecode, Total: len(paths), Completed: i, CurrentActivity: path})
		d, err := fitfile.DecodeFile(path, s.userID)
		if err != nil {
			result.Errors = append(result.Errors, err)
			s.metrics.ImportError(string(store.SourceFIT))
			continue
		}
		decoded = append(decoded, d)
	}
	result.Fetched = len(decoded)

	sort.SliceStable(decoded, func(i, j int) bool {
		return decoded[i].StartDate.Before(decoded[j].StartDate)
	})

	result2, err := s.ImportDetails(ctx, decoded, progress)
	if result2 != nil {
		result.Stored = result2.Stored
		result.Merged = result2.Merged
		result.Suspects = result2.Suspects
		result.Errors = append(result.Errors, result2.Errors...)
	}
	if err != nil {
		return result, err
	}

	if err := s.store.SetSyncTime(store.SyncKeyLastFIT, s.now()); err != nil {
		return result, fmt.Errorf("saving import time: %w", err)
	}
	s.metrics.ImportRun(string(store.SourceFIT), s.now())
	return result, nil
}

// ImportDetails runs already-mapped records through the import pipeline
func (s *SyncService) ImportDetails(ctx context.Context, records []store.ActivityDetails, progress chan<- SyncProgress) (*SyncResult, error) {
	result := &SyncResult{Fetched: len(records)}

	b, err := s.newBatch()
	if err != nil {
		return result, err
	}

	for i, d := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		send(progress, SyncProgress{Phase: PhaseAnalyze, Total: len(records), Completed: i, CurrentActivity: d.Name})
		if err := s.importOne(ctx, b, d, result); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s %s: %w", d.Source, d.ExternalID, err))
			s.metrics.ImportError(string(d.Source))
		}
	}
	s.logResult(ctx, "import finished", result)
	return result, nil
}

// importOne gates d on plausibility, merges it into a near-identical
// stored activity when one exists, and stores it otherwise
func (s *SyncService) importOne(ctx context.Context, b *batch, d store.ActivityDetails, result *SyncResult) error {
	if d.UserID == "" || d.Source == "" {
		return store.ErrMissingIdentity
	}
	if d.ExternalID != "" {
		d.ID = store.ActivityID(d.Source, d.ExternalID)
	}
	label := string(d.Source) + "/" + d.ExternalID

	verdict := analysis.AnalyzeSuspicion(d, b.baseline, s.profile)
	d.IsSuspicious = verdict.IsSuspicious
	d.SuspicionScore = verdict.SuspicionScore
	d.SuspicionReasons = verdict.SuspicionReasons
	if verdict.IsSuspicious {
		// stored flagged so aggregates skip it and purge can delete it
		a := d.ActivitySummary
		s.applyLoad(&a, b)
		id, err := s.store.UpsertActivity(&a)
		if err != nil {
			return err
		}
		result.Suspects = append(result.Suspects, SuspectRecord{
			Imported: label,
			ID:       id,
			Name:     d.Name,
			Score:    verdict.SuspicionScore,
			Reasons:  verdict.SuspicionReasons,
		})
		s.metrics.Suspicious(string(d.Source))
		s.log.Warn(ctx, "activity flagged as suspicious",
			logger.String("activity", label),
			logger.Float64("score", verdict.SuspicionScore),
			logger.Any("reasons", verdict.SuspicionReasons))
		return nil
	}

	window := time.Duration(s.profile.CandidateWindowSec) * time.Second
	pool, err := s.store.FindInStartWindow(d.UserID, d.StartDate, window)
	if err != nil {
		return fmt.Errorf("loading duplicate candidates: %w", err)
	}
	pool = slices.DeleteFunc(pool, func(c store.ActivitySummary) bool { return c.IsSuspicious })
	candidates, err := analysis.FindSimilar(d.ActivitySummary, pool, s.profile)
	if err != nil {
		return err
	}

	if best, ok := analysis.BestMatch(candidates, s.profile.MergeThreshold); ok {
		merged := mergeActivities(best.Activity, d.ActivitySummary)
		s.applyLoad(&merged, b)
		if _, err := s.store.UpsertActivity(&merged); err != nil {
			return err
		}
		if len(candidates) > MaxReportedCandidates {
			candidates = candidates[:MaxReportedCandidates]
		}
		result.Merged = append(result.Merged, MergeRecord{
			Imported:   label,
			IntoID:     merged.ID,
			Score:      best.Score,
			Candidates: candidates,
		})
		s.metrics.Duplicate(string(d.Source))
		s.log.Info(ctx, "merged duplicate activity",
			logger.String("activity", label),
			logger.String("into", merged.ID),
			logger.Float64("score", best.Score))
		return nil
	}

	a := d.ActivitySummary
	s.applyLoad(&a, b)
	id, err := s.store.UpsertActivity(&a)
	if err != nil {
		return err
	}
	result.Stored++
	s.metrics.Imported(string(a.Source), string(a.Sport))
	s.log.Debug(ctx, "stored activity", logger.String("id", id))
	return nil
}

func (s *SyncService) applyLoad(a *store.ActivitySummary, b *batch) {
	load, ok := analysis.ComputeLoad(*a, b.refs, s.profile)
	if !ok {
		a.Load = nil
		return
	}
	a.Load = store.Float(load)
	if !a.IsSuspicious {
		s.metrics.ObserveLoad(string(a.Sport), load)
	}
}

// mergeActivities folds incoming into existing. The stored record keeps its
// identity and values; the incoming one fills in what it lacks.
func mergeActivities(existing, incoming store.ActivitySummary) store.ActivitySummary {
	m := existing
	if !(m.DurationS > 0) {
		m.DurationS = incoming.DurationS
	}
	if !(m.DistanceM > 0) {
		m.DistanceM = incoming.DistanceM
	}
	fill := func(dst **float64, src *float64) {
		if *dst == nil && src != nil {
			v := *src
			*dst = &v
		}
	}
	fill(&m.ElevationM, incoming.ElevationM)
	fill(&m.MaxElevationM, incoming.MaxElevationM)
	fill(&m.MinElevationM, incoming.MinElevationM)
	fill(&m.AvgSpeedMS, incoming.AvgSpeedMS)
	fill(&m.MaxSpeedMS, incoming.MaxSpeedMS)
	fill(&m.AvgWatts, incoming.AvgWatts)
	fill(&m.EnergyKJ, incoming.EnergyKJ)
	fill(&m.AvgHR, incoming.AvgHR)
	fill(&m.MaxHR, incoming.MaxHR)

	m.HasGPS = m.HasGPS || incoming.HasGPS
	m.HasStreams = m.HasStreams || incoming.HasStreams
	m.HasPower = m.HasPower || incoming.HasPower
	return m
}

// PurgeResult lists the activity ids a purge removed and kept
type PurgeResult struct {
	Deleted []string
	Kept    []string
}

// Baseline computes the user's habits from the stored activities
func (s *SyncService) Baseline() (*analysis.UserBaseline, error) {
	acts, err := s.store.ListActivities(s.userID)
	if err != nil {
		return nil, err
	}
	return analysis.ComputeBaseline(acts), nil
}

// PurgeSuspicious re-evaluates every stored activity and deletes those the
// plausibility rules reject, along with those flagged on import. baseline
// may be nil. With dryRun the activities are only flagged. A record that
// fails to process is kept.
func (s *SyncService) PurgeSuspicious(ctx context.Context, baseline *analysis.UserBaseline, dryRun bool) (*PurgeResult, error) {
	acts, err := s.store.ListActivities(s.userID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}

	res := &PurgeResult{}
	for _, a := range acts {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		verdict := analysis.AnalyzeSummary(a, baseline, s.profile)
		if !verdict.IsSuspicious && !a.IsSuspicious {
			res.Kept = append(res.Kept, a.ID)
			continue
		}

		var err error
		switch {
		case dryRun && !verdict.IsSuspicious:
			// flagged on import, nothing new to record
		case dryRun:
			err = s.store.SetSuspicion(a.ID, true, verdict.SuspicionScore, verdict.SuspicionReasons)
		default:
			err = s.store.DeleteActivity(a.ID)
		}
		if err != nil {
			s.log.Warn(ctx, "purge check failed", logger.String("id", a.ID), logger.Error(err))
			res.Kept = append(res.Kept, a.ID)
			continue
		}
		res.Deleted = append(res.Deleted, a.ID)
	}

	if !dryRun {
		s.metrics.Purged(len(res.Deleted))
	}
	s.log.Info(ctx, "purge finished",
		logger.Int("deleted", len(res.Deleted)),
		logger.Int("kept", len(res.Kept)),
		logger.Bool("dry_run", dryRun))
	return res, nil
}

// RecomputeLoads recomputes and stores the load of every activity, e.g.
// after the reference speeds changed. It returns how many loads are unknown.
func (s *SyncService) RecomputeLoads(ctx context.Context) (updated, unknown int, err error) {
	b, err := s.newBatch()
	if err != nil {
		return 0, 0, err
	}
	acts, err := s.store.ListActivities(s.userID)
	if err != nil {
		return 0, 0, err
	}

	for _, a := range acts {
		if err := ctx.Err(); err != nil {
			return updated, unknown, err
		}
		var load *float64
		if v, ok := analysis.ComputeLoad(a, b.refs, s.profile); ok {
			load = store.Float(v)
		} else {
			unknown++
		}
		if err := s.store.UpdateLoad(a.ID, load); err != nil {
			return updated, unknown, fmt.Errorf("updating load of %s: %w", a.ID, err)
		}
		updated++
	}
	return updated, unknown, nil
}

// RateLimitStatus returns the remaining Strava requests in the short and daily windows
func (s *SyncService) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	if s.source == nil {
		return 0, 0
	}
	return s.source.RateLimitStatus()
}

func (s *SyncService) logResult(ctx context.Context, msg string, r *SyncResult) {
	s.log.Info(ctx, msg,
		logger.Int("fetched", r.Fetched),
		logger.Int("stored", r.Stored),
		logger.Int("merged", len(r.Merged)),
		logger.Int("suspicious", len(r.Suspects)),
		logger.Int("errors", len(r.Errors)))
}

// send reports progress without blocking the import when nobody listens
func send(progress chan<- SyncProgress, p SyncProgress) {
	if progress == nil {
		return
	}
	select {
	case progress <- p:
	default:
	}
}
