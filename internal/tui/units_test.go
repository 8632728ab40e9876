package tui

import (
	"testing"

	"endurance/internal/config"
	"endurance/internal/store"
)

func TestUnitsFormatDistance(t *testing.T) {
	tests := []struct {
		unit     string
		meters   float64
		expected string
	}{
		{"km", 10000, "10.0 km"},
		{"km", 0, "0.0 km"},
		{"mi", 1609.34, "1.0 mi"},
		{"mi", 42195, "26.2 mi"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			u := NewUnits(config.DisplayConfig{DistanceUnit: tt.unit})
			if got := u.FormatDistance(tt.meters); got != tt.expected {
				t.Errorf("FormatDistance(%v) = %q, want %q", tt.meters, got, tt.expected)
			}
		})
	}
}

func TestUnitsFormatPace(t *testing.T) {
	tests := []struct {
		name     string
		paceUnit string
		seconds  float64
		meters   float64
		expected string
	}{
		{"5 min/km", "min/km", 1500, 5000, "5:00"},
		{"per mile", "min/mi", 1500, 5000, "8:03"},
		{"no distance", "min/km", 1500, 0, "-"},
		{"no time", "min/km", 0, 5000, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUnits(config.DisplayConfig{PaceUnit: tt.paceUnit})
			if got := u.FormatPace(tt.seconds, tt.meters); got != tt.expected {
				t.Errorf("FormatPace(%v, %v) = %q, want %q", tt.seconds, tt.meters, got, tt.expected)
			}
		})
	}
}

func TestUnitsFormatActivityPace(t *testing.T) {
	u := NewUnits(config.DisplayConfig{DistanceUnit: "km", PaceUnit: "min/km"})

	ride := store.ActivitySummary{Sport: store.SportRide, DistanceM: 30000, DurationS: 3600}
	if got := u.FormatActivityPace(ride); got != "30.0 km/h" {
		t.Errorf("ride pace = %q, want speed", got)
	}

	run := store.ActivitySummary{Sport: store.SportRun, DistanceM: 10000, DurationS: 3000}
	if got := u.FormatActivityPace(run); got != "5:00" {
		t.Errorf("run pace = %q, want 5:00", got)
	}
}
