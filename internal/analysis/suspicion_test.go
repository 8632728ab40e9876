package analysis

import (
	"math"
	"reflect"
	"testing"

	"endurance/internal/store"
)

func details(a store.ActivitySummary) store.ActivityDetails {
	return store.ActivityDetails{ActivitySummary: a}
}

func TestAnalyzeSuspicion(t *testing.T) {
	p := DefaultProfile()

	with := func(a store.ActivitySummary, fn func(*store.ActivitySummary)) store.ActivitySummary {
		fn(&a)
		return a
	}

	tests := []struct {
		name        string
		activity    store.ActivityDetails
		baseline    *UserBaseline
		wantScore   float64
		wantReasons []string
	}{
		{
			name:        "plausible run",
			activity:    details(activity(store.SportRun, 10000, 3000)),
			wantScore:   0,
			wantReasons: nil,
		},
		{
			name:        "zero distance with duration",
			activity:    details(activity(store.SportRun, 0, 600)),
			wantScore:   80,
			wantReasons: []string{"distance_zero_with_duration"},
		},
		{
			name:        "zero duration without reported speed also scores the unknown speed",
			activity:    details(activity(store.SportRun, 5000, 0)),
			wantScore:   200,
			wantReasons: []string{"invalid_duration", "non_finite_speed"},
		},
		{
			name: "zero duration with reported speed",
			activity: details(with(activity(store.SportRun, 5000, 0), func(a *store.ActivitySummary) {
				a.AvgSpeedMS = store.Float(3)
			})),
			wantScore:   100,
			wantReasons: []string{"invalid_duration"},
		},
		{
			name: "NaN reported speed falls back to distance over duration",
			activity: details(with(activity(store.SportRun, 10000, 3000), func(a *store.ActivitySummary) {
				a.AvgSpeedMS = store.Float(math.NaN())
			})),
			wantScore:   0,
			wantReasons: nil,
		},
		{
			name: "negative elevation",
			activity: details(with(activity(store.SportRun, 10000, 3600), func(a *store.ActivitySummary) {
				a.ElevationM = store.Float(-5)
			})),
			wantScore:   40,
			wantReasons: []string{"negative_elevation"},
		},
		{
			name:      "magnitude thresholds accumulate",
			activity:  details(activity(store.SportRide, 850000, 30*3600)),
			wantScore: 20 + 40 + 70 + 15 + 35,
			wantReasons: []string{
				"distance_above_200km", "distance_above_400km", "distance_above_800km",
				"duration_above_12h", "duration_above_24h",
			},
		},
		{
			name:        "run above the speed ceiling",
			activity:    details(activity(store.SportRun, 10000, 1200)),
			wantScore:   60,
			wantReasons: []string{"avg_speed_above_physiological_limit_run"},
		},
		{
			name:        "run near the speed ceiling",
			activity:    details(activity(store.SportRun, 22000, 3600)),
			wantScore:   30,
			wantReasons: []string{"avg_speed_near_physiological_limit_run"},
		},
		{
			name:        "hike above its ceiling",
			activity:    details(activity(store.SportHike, 12000, 3600)),
			wantScore:   60,
			wantReasons: []string{"avg_speed_above_physiological_limit_hike"},
		},
		{
			name:        "100+ km in under two hours",
			activity:    details(activity(store.SportRide, 150000, 5400)),
			wantScore:   110,
			wantReasons: []string{"avg_speed_above_physiological_limit_ride", "distance_duration_incoherent_fast"},
		},
		{
			name:        "under 1 km in over two hours",
			activity:    details(activity(store.SportWalk, 500, 3*3600)),
			wantScore:   40,
			wantReasons: []string{"distance_duration_incoherent_slow"},
		},
		{
			name: "capability flags without evidence",
			activity: details(with(activity(store.SportRun, 10000, 3000), func(a *store.ActivitySummary) {
				a.HasGPS = true
				a.HasStreams = true
			})),
			wantScore:   50,
			wantReasons: []string{"gps_flag_without_polyline", "streams_flag_without_data"},
		},
		{
			name: "capability flags with evidence",
			activity: store.ActivityDetails{
				ActivitySummary: with(activity(store.SportRun, 10000, 3000), func(a *store.ActivitySummary) {
					a.HasGPS = true
					a.HasStreams = true
				}),
				Polyline: "abc",
				Streams:  map[string][]float64{"time": {0, 1}},
			},
			wantScore:   0,
			wantReasons: nil,
		},
		{
			name:        "far above distance and duration habits",
			activity:    details(activity(store.SportRun, 20000, 7200)),
			baseline:    &UserBaseline{MedianDistanceM: 5000, MedianDurationS: 1800, AvgSpeedMS: 2.5},
			wantScore:   50,
			wantReasons: []string{"distance_far_above_user_habit", "duration_far_above_user_habit"},
		},
		{
			name:        "far above speed habit",
			activity:    details(activity(store.SportRun, 10000, 1800)),
			baseline:    &UserBaseline{MedianDistanceM: 5000, MedianDurationS: 1800, AvgSpeedMS: 2.5},
			wantScore:   40,
			wantReasons: []string{"speed_far_above_user_habit"},
		},
		{
			name:        "empty baseline is ignored",
			activity:    details(activity(store.SportRun, 10000, 1800)),
			baseline:    &UserBaseline{},
			wantScore:   0,
			wantReasons: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeSuspicion(tt.activity, tt.baseline, p)
			if got.SuspicionScore != tt.wantScore {
				t.Errorf("score = %v, want %v (reasons %v)", got.SuspicionScore, tt.wantScore, got.SuspicionReasons)
			}
			if !reflect.DeepEqual(got.SuspicionReasons, tt.wantReasons) {
				t.Errorf("reasons = %v, want %v", got.SuspicionReasons, tt.wantReasons)
			}
			if got.IsSuspicious != (got.SuspicionScore >= 70) {
				t.Errorf("IsSuspicious = %v with score %v", got.IsSuspicious, got.SuspicionScore)
			}
		})
	}
}

func TestAnalyzeSuspicion_ZeroDistanceIsSuspicious(t *testing.T) {
	got := AnalyzeSuspicion(details(activity(store.SportRun, 0, 600)), nil, DefaultProfile())
	if got.SuspicionScore < 80 || !got.IsSuspicious {
		t.Errorf("got %+v, want score >= 80 and suspicious", got)
	}
}

func TestAnalyzeSuspicion_Monotonic(t *testing.T) {
	p := DefaultProfile()
	base := activity(store.SportRun, 10000, 3000)
	before := AnalyzeSuspicion(details(base), nil, p).SuspicionScore

	triggers := []func(*store.ActivitySummary){
		func(a *store.ActivitySummary) { a.ElevationM = store.Float(-1) },
		func(a *store.ActivitySummary) { a.HasGPS = true },
		func(a *store.ActivitySummary) { a.DistanceM = 900000; a.DurationS = 50 * 3600 },
		func(a *store.ActivitySummary) { a.DistanceM = 0 },
		func(a *store.ActivitySummary) { a.DurationS = 0 },
	}

	for i, trig := range triggers {
		a := base
		trig(&a)
		after := AnalyzeSuspicion(details(a), nil, p).SuspicionScore
		if after < before {
			t.Errorf("trigger %d lowered the score: %v -> %v", i, before, after)
		}
		// stacking with a baseline never lowers it either
		withBaseline := AnalyzeSuspicion(details(a), &UserBaseline{MedianDistanceM: 1000, MedianDurationS: 600, AvgSpeedMS: 1}, p).SuspicionScore
		if withBaseline < after {
			t.Errorf("trigger %d: baseline lowered the score: %v -> %v", i, after, withBaseline)
		}
	}
}

func TestAnalyzeSummary_SkipsCapabilityFlags(t *testing.T) {
	a := activity(store.SportRun, 10000, 3000)
	a.HasGPS = true
	a.HasStreams = true

	got := AnalyzeSummary(a, nil, DefaultProfile())
	if got.SuspicionScore != 0 {
		t.Errorf("score = %v, want 0 (%v)", got.SuspicionScore, got.SuspicionReasons)
	}
}
