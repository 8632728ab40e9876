package analysis

import (
	"math"
	"testing"
	"time"

	"endurance/internal/store"
)

var predictNow = refDay.Add(20 * time.Hour)

func run(id string, distanceM, durationS float64, daysAgo int) store.ActivitySummary {
	a := withID(activity(store.SportRun, distanceM, durationS), id)
	a.StartDate = predictNow.AddDate(0, 0, -daysAgo)
	return a
}

func ride(id string, durationS, watts float64, daysAgo int) store.ActivitySummary {
	a := withID(activity(store.SportRide, durationS*8, durationS), id)
	a.StartDate = predictNow.AddDate(0, 0, -daysAgo)
	if watts > 0 {
		a.AvgWatts = store.Float(watts)
	}
	return a
}

func TestPredictPerformance_NoActivities(t *testing.T) {
	got := PredictPerformance(nil, 40, 30, predictNow, DefaultProfile())

	if got.Running != nil || got.Cycling != nil {
		t.Errorf("expected no forecasts, got %+v", got)
	}
	if got.Confidence.Running != ConfidenceMedium || got.Confidence.Cycling != ConfidenceMedium {
		t.Errorf("Confidence = %+v, want medium/medium", got.Confidence)
	}
}

func TestPredictPerformance_Running(t *testing.T) {
	p := DefaultProfile()

	hilly := run("hilly", 10000, 3000, 3)
	hilly.ElevationM = store.Float(500)

	tests := []struct {
		name           string
		acts           []store.ActivitySummary
		ctl, atl       float64
		wantRef        string
		wantDistanceKm float64
		wantTimeS      float64
		wantFlat       bool
		wantConfidence string
	}{
		{
			name:           "single flat 10 km",
			acts:           []store.ActivitySummary{run("r1", 10000, 3000, 2)},
			wantRef:        "r1",
			wantDistanceKm: 10,
			wantTimeS:      3000,
			wantFlat:       true,
			wantConfidence: ConfidenceLow,
		},
		{
			name:           "climbing lengthens the flat-equivalent time",
			acts:           []store.ActivitySummary{hilly},
			wantRef:        "hilly",
			wantDistanceKm: 10,
			wantTimeS:      3000 / (1 - 0.03*0.5),
			wantFlat:       true,
			wantConfidence: ConfidenceLow,
		},
		{
			name: "longer effort wins on speed * sqrt(distance)",
			acts: []store.ActivitySummary{
				run("fast5k", 5000, 1200, 1),
				run("steady10k", 10000, 2700, 5),
			},
			wantRef:        "steady10k",
			wantDistanceKm: 10,
			wantTimeS:      2700,
			wantFlat:       true,
			wantConfidence: ConfidenceLow,
		},
		{
			name:           "short runs fall back without normalization",
			acts:           []store.ActivitySummary{run("short", 2000, 600, 1)},
			wantRef:        "short",
			wantDistanceKm: 2,
			wantTimeS:      600,
			wantFlat:       false,
			wantConfidence: ConfidenceLow,
		},
		{
			name: "six recent runs give high confidence",
			acts: []store.ActivitySummary{
				run("a", 5000, 1500, 1), run("b", 5000, 1500, 3), run("c", 5000, 1500, 5),
				run("d", 5000, 1500, 7), run("e", 5000, 1500, 9), run("f", 5000, 1400, 11),
			},
			wantRef:        "f",
			wantDistanceKm: 5,
			wantTimeS:      1400,
			wantFlat:       true,
			wantConfidence: ConfidenceHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PredictPerformance(tt.acts, tt.ctl, tt.atl, predictNow, p)
			if got.Running == nil {
				t.Fatal("expected a running forecast")
			}
			ref := got.Running.Reference
			if ref.ActivityID != tt.wantRef || ref.Flat != tt.wantFlat {
				t.Errorf("reference = %+v, want %s (flat=%v)", ref, tt.wantRef, tt.wantFlat)
			}
			if math.Abs(ref.DistanceKm-tt.wantDistanceKm) > 1e-9 || math.Abs(ref.TimeS-tt.wantTimeS) > 1e-6 {
				t.Errorf("reference = %.3f km in %.3f s, want %.3f km in %.3f s",
					ref.DistanceKm, ref.TimeS, tt.wantDistanceKm, tt.wantTimeS)
			}
			if got.Running.Exponent != 1.06 {
				t.Errorf("Exponent = %v, want 1.06", got.Running.Exponent)
			}
			if got.Confidence.Running != tt.wantConfidence {
				t.Errorf("Confidence.Running = %v, want %v", got.Confidence.Running, tt.wantConfidence)
			}
			if len(got.Running.Predictions) != len(PredictionTargets) {
				t.Fatalf("got %d predictions", len(got.Running.Predictions))
			}
			for _, pred := range got.Running.Predictions {
				want := ref.TimeS * math.Pow(pred.Target.DistanceKm/ref.DistanceKm, 1.06)
				if math.Abs(pred.Seconds-want) > 1e-6 {
					t.Errorf("%s = %v, want %v", pred.Target.Name, pred.Seconds, want)
				}
			}
		})
	}
}

func TestPredictPerformance_FormDeltaAdjustsTimes(t *testing.T) {
	p := DefaultProfile()
	acts := []store.ActivitySummary{run("r1", 10000, 3000, 2)}

	fresh := PredictPerformance(acts, 50, 40, predictNow, p) // delta 0.2, clamped to 0.05
	got, ok := fresh.Running.Time("10km")
	if !ok || math.Abs(got-3000*0.975) > 1e-6 {
		t.Errorf("fresh 10km = %v, want %v", got, 3000*0.975)
	}
	if fresh.FormDelta != 0.05 {
		t.Errorf("FormDelta = %v, want 0.05", fresh.FormDelta)
	}

	tired := PredictPerformance(acts, 40, 60, predictNow, p)
	got, _ = tired.Running.Time("10km")
	if math.Abs(got-3000*1.025) > 1e-6 {
		t.Errorf("tired 10km = %v, want %v", got, 3000*1.025)
	}
}

func TestPredictPerformance_IgnoresOldAndInvalidRuns(t *testing.T) {
	acts := []store.ActivitySummary{
		run("old", 10000, 3000, 50),
		run("broken", 10000, 0, 1),
		run("empty", 0, 1800, 1),
	}

	got := PredictPerformance(acts, 0, 0, predictNow, DefaultProfile())
	if got.Running != nil {
		t.Errorf("expected no running forecast, got %+v", got.Running.Reference)
	}
	if got.Confidence.Running != ConfidenceMedium {
		t.Errorf("Confidence.Running = %v, want medium", got.Confidence.Running)
	}
}

func TestPredictPerformance_VDOT(t *testing.T) {
	got := PredictPerformance([]store.ActivitySummary{run("r", 10000, 2364, 1)}, 0, 0, predictNow, DefaultProfile())
	if got.Running == nil {
		t.Fatal("expected a running forecast")
	}
	if math.Abs(got.Running.VDOT-50) > 1 {
		t.Errorf("VDOT = %v, want ~50", got.Running.VDOT)
	}
	if got.Running.VDOTLabel != "Advanced Recreational" {
		t.Errorf("VDOTLabel = %q", got.Running.VDOTLabel)
	}
	for _, pred := range got.Running.Predictions {
		if pred.VDOTSeconds <= 0 {
			t.Errorf("%s: missing VDOT equivalent", pred.Target.Name)
		}
	}
}

func TestPredictPerformance_Cycling(t *testing.T) {
	p := DefaultProfile()

	// P = 220 + 20000/t
	power := func(t float64) float64 { return 220 + 20000/t }

	tests := []struct {
		name           string
		acts           []store.ActivitySummary
		ctl, atl       float64
		wantCP         float64
		wantFitted     bool
		wantNil        bool
		wantConfidence string
	}{
		{
			name: "regression over three efforts",
			acts: []store.ActivitySummary{
				ride("a", 720, power(720), 1),
				ride("b", 1800, power(1800), 4),
				ride("c", 3600, power(3600), 8),
			},
			wantCP:         220,
			wantFitted:     true,
			wantConfidence: ConfidenceLow,
		},
		{
			name: "four efforts give high confidence",
			acts: []store.ActivitySummary{
				ride("a", 720, power(720), 1),
				ride("b", 1200, power(1200), 2),
				ride("c", 1800, power(1800), 4),
				ride("d", 3600, power(3600), 8),
			},
			wantCP:         220,
			wantFitted:     true,
			wantConfidence: ConfidenceHigh,
		},
		{
			name:           "single effort stands in for CP",
			acts:           []store.ActivitySummary{ride("a", 1800, 250, 1)},
			wantCP:         250,
			wantConfidence: ConfidenceLow,
		},
		{
			name: "efforts outside 12-60 minutes or without power",
			acts: []store.ActivitySummary{
				ride("short", 600, 350, 1),
				ride("long", 7200, 200, 2),
				ride("nopower", 1800, 0, 3),
			},
			wantNil:        true,
			wantConfidence: ConfidenceMedium,
		},
		{
			name: "identical durations cannot be fitted",
			acts: []store.ActivitySummary{
				ride("a", 1800, 250, 1),
				ride("b", 1800, 260, 2),
			},
			wantNil:        true,
			wantConfidence: ConfidenceLow,
		},
		{
			name: "non-positive CP is rejected",
			acts: []store.ActivitySummary{
				ride("a", 720, -50+200000.0/720, 1),
				ride("b", 3600, -50+200000.0/3600, 2),
			},
			wantNil:        true,
			wantConfidence: ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PredictPerformance(tt.acts, tt.ctl, tt.atl, predictNow, p)
			if got.Confidence.Cycling != tt.wantConfidence {
				t.Errorf("Confidence.Cycling = %v, want %v", got.Confidence.Cycling, tt.wantConfidence)
			}
			if tt.wantNil {
				if got.Cycling != nil {
					t.Errorf("expected no cycling forecast, got %+v", got.Cycling)
				}
				return
			}
			if got.Cycling == nil {
				t.Fatal("expected a cycling forecast")
			}
			if math.Abs(got.Cycling.CP-tt.wantCP) > 1e-6 || got.Cycling.Fitted != tt.wantFitted {
				t.Errorf("CP = %v (fitted=%v), want %v (fitted=%v)", got.Cycling.CP, got.Cycling.Fitted, tt.wantCP, tt.wantFitted)
			}
			if math.Abs(got.Cycling.FTP-tt.wantCP) > 1e-6 {
				t.Errorf("FTP = %v, want %v", got.Cycling.FTP, tt.wantCP)
			}
			if math.Abs(got.Cycling.P20-tt.wantCP/0.95) > 1e-6 {
				t.Errorf("P20 = %v, want %v", got.Cycling.P20, tt.wantCP/0.95)
			}
		})
	}
}

func TestPredictPerformance_CyclingForm(t *testing.T) {
	acts := []store.ActivitySummary{ride("a", 1800, 200, 1)}
	got := PredictPerformance(acts, 100, 90, predictNow, DefaultProfile()) // delta 0.1 -> 0.05

	if math.Abs(got.Cycling.FTP-200*1.025) > 1e-9 {
		t.Errorf("FTP = %v, want %v", got.Cycling.FTP, 200*1.025)
	}
}

func TestEstimateRiegelExponent(t *testing.T) {
	p := DefaultProfile()

	tests := []struct {
		name string
		refs []RunEffort
		want float64
	}{
		{"no references", nil, 1.06},
		{"one reference", []RunEffort{{DistanceKm: 10, TimeS: 3000}}, 1.06},
		{"fitted in range", []RunEffort{{DistanceKm: 5, TimeS: 1200}, {DistanceKm: 10, TimeS: 2500}}, math.Log(2500.0/1200) / math.Log(2)},
		{"clamped high", []RunEffort{{DistanceKm: 5, TimeS: 1200}, {DistanceKm: 10, TimeS: 3000}}, 1.10},
		{"clamped low", []RunEffort{{DistanceKm: 5, TimeS: 1200}, {DistanceKm: 10, TimeS: 2400}}, 1.04},
		{"same distance", []RunEffort{{DistanceKm: 5, TimeS: 1200}, {DistanceKm: 5, TimeS: 1300}}, 1.06},
		{"zero time", []RunEffort{{DistanceKm: 5, TimeS: 0}, {DistanceKm: 10, TimeS: 2500}}, 1.06},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateRiegelExponent(tt.refs, p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EstimateRiegelExponent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormDelta(t *testing.T) {
	p := DefaultProfile()

	tests := []struct {
		ctl, atl, want float64
	}{
		{0, 10, 0},
		{-5, 10, 0},
		{100, 98, 0.02},
		{100, 200, -0.05},
		{100, 0, 0.05},
		{math.NaN(), 0, 0},
	}

	for _, tt := range tests {
		if got := FormDelta(tt.ctl, tt.atl, p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("FormDelta(%v, %v) = %v, want %v", tt.ctl, tt.atl, got, tt.want)
		}
	}
}

func TestPredictPerformance_Deterministic(t *testing.T) {
	acts := []store.ActivitySummary{
		run("a", 5000, 1500, 1),
		run("b", 10000, 3100, 6),
		ride("c", 1500, 230, 2),
		ride("d", 3000, 210, 9),
	}
	p := DefaultProfile()

	first := PredictPerformance(acts, 30, 35, predictNow, p)
	for i := 0; i < 5; i++ {
		again := PredictPerformance(acts, 30, 35, predictNow, p)
		a, _ := first.Running.Time("42.2km")
		b, _ := again.Running.Time("42.2km")
		if a != b || first.Cycling.FTP != again.Cycling.FTP {
			t.Fatalf("run %d differs", i)
		}
	}
}
