package analysis

import (
	"math"
	"testing"
	"time"

	"endurance/internal/store"
)

func TestComputeLoad(t *testing.T) {
	p := DefaultProfile()

	withElevation := func(a store.ActivitySummary, elev float64) store.ActivitySummary {
		a.ElevationM = store.Float(elev)
		return a
	}
	withMaxSpeed := func(a store.ActivitySummary, ms float64) store.ActivitySummary {
		a.MaxSpeedMS = store.Float(ms)
		return a
	}

	tests := []struct {
		name     string
		activity store.ActivitySummary
		refs     map[store.Sport]float64
		expected float64
		ok       bool
	}{
		{
			name:     "flat ride at 30 km/h against 25 km/h reference",
			activity: activity(store.SportRide, 30000, 3600),
			// ratio = 1.2, n = 2.4
			expected: 100 * math.Pow(1.2, 2.4),
			ok:       true,
		},
		{
			name:     "run with 10 m/km of climbing",
			activity: withElevation(activity(store.SportRun, 10000, 3600), 100),
			// grade factor 1.05, ratio 1.05, n = 2.6
			expected: 100 * math.Pow(1.05, 2.6),
			ok:       true,
		},
		{
			name:     "grade capped at 150 m/km",
			activity: withElevation(activity(store.SportRun, 10000, 3600), 2000),
			expected: 100 * math.Pow(1.75, 2.6),
			ok:       true,
		},
		{
			name:     "unknown elevation is flat",
			activity: activity(store.SportWalk, 5000, 3600),
			expected: 100,
			ok:       true,
		},
		{
			name:     "max speed variability",
			activity: withMaxSpeed(activity(store.SportRide, 30000, 3600), 12.5),
			// variability = 45/30 = 1.5, factor 1.25
			expected: 100 * math.Pow(1.2, 2.4) * 1.25,
			ok:       true,
		},
		{
			name:     "max speed below average does not reduce load",
			activity: withMaxSpeed(activity(store.SportRide, 30000, 3600), 5),
			expected: 100 * math.Pow(1.2, 2.4),
			ok:       true,
		},
		{
			name:     "caller reference speed overrides default",
			activity: activity(store.SportRun, 12000, 3600),
			refs:     map[store.Sport]float64{store.SportRun: 12},
			expected: 100,
			ok:       true,
		},
		{
			name:     "two hour hike at reference speed",
			activity: activity(store.SportHike, 8000, 7200),
			expected: 200,
			ok:       true,
		},
		{
			name:     "zero distance is a computed zero",
			activity: activity(store.SportRun, 0, 1800),
			expected: 0,
			ok:       true,
		},
		{
			name:     "zero duration",
			activity: activity(store.SportRun, 5000, 0),
			expected: 0,
			ok:       false,
		},
		{
			name:     "negative duration",
			activity: activity(store.SportRun, 5000, -60),
			expected: 0,
			ok:       false,
		},
		{
			name:     "NaN duration",
			activity: activity(store.SportRun, 5000, math.NaN()),
			expected: 0,
			ok:       false,
		},
		{
			name:     "infinite distance",
			activity: activity(store.SportRun, math.Inf(1), 600),
			expected: 0,
			ok:       false,
		},
		{
			name:     "no reference speed for Other",
			activity: activity(store.SportOther, 10000, 3600),
			expected: 0,
			ok:       false,
		},
		{
			name:     "Other with caller reference uses default exponent",
			activity: activity(store.SportOther, 10000, 3600),
			refs:     map[store.Sport]float64{store.SportOther: 5},
			expected: 100 * math.Pow(2, 2.5),
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ComputeLoad(tt.activity, tt.refs, p)
			if ok != tt.ok {
				t.Errorf("ComputeLoad() ok = %v, want %v", ok, tt.ok)
			}
			if math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("ComputeLoad() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestComputeLoad_NeverNegative(t *testing.T) {
	p := DefaultProfile()

	elevations := []float64{-1e6, -5000, -100, 0, 50, 1e5}
	durations := []float64{-10, 0, 1, 600, 36000}
	distances := []float64{-100, 0, 1, 5000, 1e6}

	for _, sport := range store.Sports {
		for _, elev := range elevations {
			for _, dur := range durations {
				for _, dist := range distances {
					a := activity(sport, dist, dur)
					a.ElevationM = store.Float(elev)
					got := ActivityLoad(a, nil, p)
					if got < 0 || !IsFinite(got) {
						t.Fatalf("load(%s, dist=%v, dur=%v, elev=%v) = %v", sport, dist, dur, elev, got)
					}
					if dur <= 0 && got != 0 {
						t.Fatalf("load with duration %v = %v, want 0", dur, got)
					}
				}
			}
		}
	}
}

func TestAggregationConsistency(t *testing.T) {
	p := DefaultProfile()

	var acts []store.ActivitySummary
	for i := 0; i < 40; i++ {
		a := activity(store.Sports[i%len(store.Sports)], float64(3000+i*700), float64(1200+i*90))
		a.StartDate = refDay.AddDate(0, 0, -i).Add(time.Duration(i%5) * time.Hour)
		acts = append(acts, a)
	}

	from := refDay.AddDate(0, 0, -20)
	to := refDay.AddDate(0, 0, 1)

	daily := DailyLoads(acts, nil, p)
	var fromDays float64
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		fromDays += daily[DayKey(d)]
	}

	direct := SumLoad(acts, from, to, nil, p)
	if math.Abs(fromDays-direct) > 1e-9 {
		t.Errorf("sum of daily buckets = %v, direct = %v", fromDays, direct)
	}
}

func TestTRIMP(t *testing.T) {
	zones := DefaultZones()

	withHR := func(hr float64) store.ActivitySummary {
		a := activity(store.SportRun, 10000, 3600)
		a.AvgHR = store.Float(hr)
		return a
	}

	tests := []struct {
		name     string
		activity store.ActivitySummary
		zones    HRZones
		expected float64
		ok       bool
	}{
		{
			name:     "one hour at 150 bpm",
			activity: withHR(150),
			zones:    zones,
			// hrRatio = 100/135, TRIMP = 60 * 0.741 * e^(1.92*0.741)
			expected: 184.3,
			ok:       true,
		},
		{
			name:     "no heart rate",
			activity: activity(store.SportRun, 10000, 3600),
			zones:    zones,
			ok:       false,
		},
		{
			name:     "zero HR reserve",
			activity: withHR(150),
			zones:    HRZones{RestingHR: 150, MaxHR: 150},
			ok:       false,
		},
		{
			name:     "below resting clamps to zero",
			activity: withHR(40),
			zones:    zones,
			expected: 0,
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TRIMP(tt.activity, tt.zones)
			if ok != tt.ok {
				t.Fatalf("TRIMP() ok = %v, want %v", ok, tt.ok)
			}
			if math.Abs(got-tt.expected) > 1 {
				t.Errorf("TRIMP() = %v, want ~%v", got, tt.expected)
			}
		})
	}
}

func TestCalculateFitnessTrend(t *testing.T) {
	baseDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		dailyLoads []DailyLoad
		through    time.Time
		checkFn    func(t *testing.T, metrics []FitnessMetrics)
	}{
		{
			name:       "empty daily loads",
			dailyLoads: []DailyLoad{},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if metrics != nil {
					t.Errorf("expected nil, got %v", metrics)
				}
			},
		},
		{
			name:       "single day load",
			dailyLoads: []DailyLoad{{Date: baseDate, Load: 100}},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if len(metrics) != 1 {
					t.Fatalf("expected 1 metric, got %d", len(metrics))
				}
				// CTL = 2/43 * 100, ATL = 2/8 * 100
				if math.Abs(metrics[0].CTL-4.65) > 0.01 {
					t.Errorf("CTL = %v, want ~4.65", metrics[0].CTL)
				}
				if math.Abs(metrics[0].ATL-25) > 1e-9 {
					t.Errorf("ATL = %v, want 25", metrics[0].ATL)
				}
				if math.Abs(metrics[0].TSB-(metrics[0].CTL-metrics[0].ATL)) > 1e-9 {
					t.Errorf("TSB = %v, want CTL-ATL", metrics[0].TSB)
				}
			},
		},
		{
			name: "consecutive daily loads build fitness",
			dailyLoads: func() []DailyLoad {
				loads := make([]DailyLoad, 14)
				for i := range loads {
					loads[i] = DailyLoad{Date: baseDate.AddDate(0, 0, i), Load: 100}
				}
				return loads
			}(),
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if len(metrics) != 14 {
					t.Fatalf("expected 14 metrics, got %d", len(metrics))
				}
				for i := 1; i < len(metrics); i++ {
					if metrics[i].CTL <= metrics[i-1].CTL {
						t.Errorf("CTL should increase: day %d CTL=%v, day %d CTL=%v",
							i-1, metrics[i-1].CTL, i, metrics[i].CTL)
					}
				}
				if metrics[6].ATL <= metrics[6].CTL {
					t.Errorf("ATL should respond faster than CTL: ATL=%v, CTL=%v", metrics[6].ATL, metrics[6].CTL)
				}
			},
		},
		{
			name: "gap days decay and the trend extends through today",
			dailyLoads: []DailyLoad{
				{Date: baseDate, Load: 100},
				{Date: baseDate.AddDate(0, 0, 3), Load: 100},
			},
			through: baseDate.AddDate(0, 0, 9),
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if len(metrics) != 10 {
					t.Fatalf("expected 10 metrics, got %d", len(metrics))
				}
				if metrics[1].ATL >= metrics[0].ATL {
					t.Errorf("ATL should decay on a rest day: %v -> %v", metrics[0].ATL, metrics[1].ATL)
				}
				if metrics[9].ATL >= metrics[3].ATL {
					t.Errorf("ATL should decay after the last load: %v -> %v", metrics[3].ATL, metrics[9].ATL)
				}
			},
		},
		{
			name: "unsorted input with same-day loads",
			dailyLoads: []DailyLoad{
				{Date: baseDate.AddDate(0, 0, 1), Load: 50},
				{Date: baseDate.Add(6 * time.Hour), Load: 60},
				{Date: baseDate.Add(18 * time.Hour), Load: 40},
			},
			checkFn: func(t *testing.T, metrics []FitnessMetrics) {
				if len(metrics) != 2 {
					t.Fatalf("expected 2 metrics, got %d", len(metrics))
				}
				if math.Abs(metrics[0].ATL-25) > 1e-9 {
					t.Errorf("same-day loads should sum: ATL = %v, want 25", metrics[0].ATL)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.checkFn(t, CalculateFitnessTrend(tt.dailyLoads, tt.through))
		})
	}
}

func TestCalculateFitnessTrend_DoesNotMutateInput(t *testing.T) {
	baseDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loads := []DailyLoad{
		{Date: baseDate.AddDate(0, 0, 2), Load: 1},
		{Date: baseDate, Load: 2},
	}

	CalculateFitnessTrend(loads, time.Time{})

	if !loads[0].Date.Equal(baseDate.AddDate(0, 0, 2)) {
		t.Errorf("input was reordered")
	}
}

func TestGetCurrentFitness(t *testing.T) {
	baseDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if m := GetCurrentFitness(nil, baseDate); m.CTL != 0 || m.ATL != 0 || m.TSB != 0 {
		t.Errorf("expected zero metrics, got %+v", m)
	}

	loads := []DailyLoad{
		{Date: baseDate, Load: 100},
		{Date: baseDate.AddDate(0, 0, 1), Load: 50},
		{Date: baseDate.AddDate(0, 0, 2), Load: 200},
	}
	today := baseDate.AddDate(0, 0, 5)
	m := GetCurrentFitness(loads, today)
	if !m.Date.Equal(today) {
		t.Errorf("Date = %v, want %v", m.Date, today)
	}
}

func TestFormDescription(t *testing.T) {
	tests := []struct {
		tsb      float64
		expected string
	}{
		{30, "Very fresh (possibly detrained)"},
		{25, "Fresh and ready to race"},
		{10.1, "Fresh and ready to race"},
		{10, "Neutral - good for training"},
		{0.1, "Neutral - good for training"},
		{0, "Slightly fatigued"},
		{-9.9, "Slightly fatigued"},
		{-10, "Tired but building fitness"},
		{-24.9, "Tired but building fitness"},
		{-25, "Very fatigued - rest needed"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormDescription(tt.tsb)
			if result != tt.expected {
				t.Errorf("FormDescription(%v) = %q, want %q", tt.tsb, result, tt.expected)
			}
		})
	}
}
