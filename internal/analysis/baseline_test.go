package analysis

import (
	"math"
	"testing"

	"endurance/internal/store"
)

func TestComputeBaseline(t *testing.T) {
	if ComputeBaseline(nil) != nil {
		t.Error("expected nil baseline without activities")
	}

	suspicious := activity(store.SportRun, 900000, 3600)
	suspicious.IsSuspicious = true

	acts := []store.ActivitySummary{
		activity(store.SportRun, 5000, 1800),
		activity(store.SportRun, 10000, 3600),
		activity(store.SportRun, 20000, 7200),
		activity(store.SportRun, 1000, 0), // no duration
		suspicious,
	}

	got := ComputeBaseline(acts)
	if got == nil {
		t.Fatal("expected a baseline")
	}
	if got.MedianDistanceM != 10000 || got.MedianDurationS != 3600 {
		t.Errorf("medians = %v m / %v s", got.MedianDistanceM, got.MedianDurationS)
	}
	// every counted run is 10 km/h
	if math.Abs(got.AvgSpeedMS-10/3.6) > 1e-9 {
		t.Errorf("AvgSpeedMS = %v, want %v", got.AvgSpeedMS, 10/3.6)
	}
}

func TestReferenceSpeeds(t *testing.T) {
	acts := []store.ActivitySummary{
		activity(store.SportRun, 12000, 3600),  // 12 km/h
		activity(store.SportRun, 5000, 1800),   // 10 km/h
		activity(store.SportRun, 14000, 3600),  // 14 km/h
		activity(store.SportRun, 10000, 1200),  // too short
		activity(store.SportRide, 60000, 7200), // 30 km/h
		activity(store.SportWalk, 0, 7200),     // no distance
	}

	refs := ReferenceSpeeds(acts)
	if math.Abs(refs[store.SportRun]-12) > 1e-9 {
		t.Errorf("Run reference = %v, want 12", refs[store.SportRun])
	}
	if math.Abs(refs[store.SportRide]-30) > 1e-9 {
		t.Errorf("Ride reference = %v, want 30", refs[store.SportRide])
	}
	if _, ok := refs[store.SportWalk]; ok {
		t.Errorf("Walk should fall back to the default")
	}

	// data-derived references feed the load engine
	load, ok := ComputeLoad(activity(store.SportRun, 12000, 3600), refs, DefaultProfile())
	if !ok || math.Abs(load-100) > 1e-9 {
		t.Errorf("load at reference speed = %v, want 100", load)
	}
}
