package analysis

import (
	"math"
	"testing"
	"time"
)

// weekLoads fills 7 consecutive days ending offset days before today
func weekLoads(m DailyLoadMap, today time.Time, offset int, loads [7]float64) {
	for i, v := range loads {
		day := today.AddDate(0, 0, -(offset + 6 - i))
		m[DayKey(day)] += v
	}
}

func TestAnalyzeRegularity(t *testing.T) {
	today := refDay.Add(15 * time.Hour)
	flat := [7]float64{10, 10, 10, 10, 10, 10, 10}

	tests := []struct {
		name          string
		build         func(m DailyLoadMap)
		wantDelta     float64
		wantR         float64
		wantCoherence int // -1 skips the check
		wantCategory  RegularityCategory
	}{
		{
			name:          "no activity",
			build:         func(m DailyLoadMap) {},
			wantDelta:     0,
			wantR:         0,
			wantCoherence: 0,
			wantCategory:  RegularityNone,
		},
		{
			name: "three identical weeks",
			build: func(m DailyLoadMap) {
				weekLoads(m, today, 0, flat)
				weekLoads(m, today, 7, flat)
				weekLoads(m, today, 14, flat)
			},
			wantDelta:     0,
			wantR:         0,
			wantCoherence: 100,
			wantCategory:  RegularityHealthy,
		},
		{
			// delta and R are both 0 here, which the rules alone would call healthy
			name: "two idle weeks after training stay uncategorized",
			build: func(m DailyLoadMap) {
				weekLoads(m, today, 14, flat)
			},
			wantDelta:     0,
			wantR:         0,
			wantCoherence: -1,
			wantCategory:  RegularityNone,
		},
		{
			name: "first week of training",
			build: func(m DailyLoadMap) {
				weekLoads(m, today, 0, flat)
			},
			wantDelta:     100,
			wantR:         0,
			wantCoherence: 0,
			wantCategory:  RegularityNone,
		},
		{
			name: "single big session after a regular week",
			build: func(m DailyLoadMap) {
				weekLoads(m, today, 7, flat)
				weekLoads(m, today, 0, [7]float64{0, 0, 0, 0, 0, 0, 100})
			},
			wantDelta:     (100.0 - 70) / 70 * 100,
			wantR:         math.Sqrt(6),
			wantCoherence: -1,
			wantCategory:  RegularityOverloadRisk,
		},
		{
			name: "steady 20% increase",
			build: func(m DailyLoadMap) {
				weekLoads(m, today, 7, flat)
				weekLoads(m, today, 0, [7]float64{12, 12, 12, 12, 12, 12, 12})
			},
			wantDelta:     20,
			wantR:         0,
			wantCoherence: -1,
			wantCategory:  RegularityRapidRise,
		},
		{
			name: "same volume packed into two days",
			build: func(m DailyLoadMap) {
				weekLoads(m, today, 7, flat)
				weekLoads(m, today, 0, [7]float64{35, 35, 0, 0, 0, 0, 0})
			},
			wantDelta:     0,
			wantR:         math.Sqrt(250) / 10,
			wantCoherence: -1,
			wantCategory:  RegularityIrregular,
		},
		{
			name: "halved volume",
			build: func(m DailyLoadMap) {
				weekLoads(m, today, 7, flat)
				weekLoads(m, today, 0, [7]float64{5, 5, 5, 5, 5, 5, 5})
			},
			wantDelta:     -50,
			wantR:         0,
			wantCoherence: 18, // weeks [35 70 0]
			wantCategory:  RegularityNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := make(DailyLoadMap)
			tt.build(m)
			got := AnalyzeRegularity(m, today)

			if math.Abs(got.DeltaPct-tt.wantDelta) > 1e-9 {
				t.Errorf("DeltaPct = %v, want %v", got.DeltaPct, tt.wantDelta)
			}
			if math.Abs(got.R-tt.wantR) > 1e-9 {
				t.Errorf("R = %v, want %v", got.R, tt.wantR)
			}
			if tt.wantCoherence >= 0 && got.CoherenceScore != tt.wantCoherence {
				t.Errorf("CoherenceScore = %v, want %v", got.CoherenceScore, tt.wantCoherence)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", got.Category, tt.wantCategory)
			}
			if (got.Category == RegularityNone) != (got.Message == "") {
				t.Errorf("Message %q inconsistent with category %q", got.Message, got.Category)
			}
		})
	}
}

func TestAnalyzeRegularity_WeeklyTotals(t *testing.T) {
	today := refDay
	m := make(DailyLoadMap)
	weekLoads(m, today, 0, [7]float64{1, 1, 1, 1, 1, 1, 1})
	weekLoads(m, today, 7, [7]float64{2, 2, 2, 2, 2, 2, 2})
	weekLoads(m, today, 14, [7]float64{3, 3, 3, 3, 3, 3, 3})
	m[DayKey(today.AddDate(0, 0, -21))] = 1000 // outside every window
	m[DayKey(today.AddDate(0, 0, 1))] = 1000   // tomorrow

	got := AnalyzeRegularity(m, today)
	if got.WeeklyTotals != [3]float64{7, 14, 21} {
		t.Errorf("WeeklyTotals = %v, want [7 14 21]", got.WeeklyTotals)
	}
	if got.Vn != 7 || got.VnPrev != 14 {
		t.Errorf("Vn = %v, VnPrev = %v", got.Vn, got.VnPrev)
	}
	// 1 - std([7,14,21])/14
	want := int(math.Round((1 - math.Sqrt(98.0/3)/14) * 100))
	if got.CoherenceScore != want {
		t.Errorf("CoherenceScore = %v, want %v", got.CoherenceScore, want)
	}
}

func TestAnalyzeRegularity_CoherenceBounded(t *testing.T) {
	loads := []float64{0, 1e-9, 1, 100, 1e9, math.NaN(), math.Inf(1)}
	for _, a := range loads {
		for _, b := range loads {
			m := DailyLoadMap{
				DayKey(refDay):                   a,
				DayKey(refDay.AddDate(0, 0, -9)): b,
			}
			got := AnalyzeRegularity(m, refDay)
			if got.CoherenceScore < 0 || got.CoherenceScore > 100 {
				t.Fatalf("CoherenceScore = %v for loads %v, %v", got.CoherenceScore, a, b)
			}
			if !IsFinite(got.DeltaPct) || !IsFinite(got.R) {
				t.Fatalf("non-finite output for loads %v, %v: %+v", a, b, got)
			}
		}
	}
}
