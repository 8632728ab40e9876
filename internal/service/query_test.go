package service

import (
	"errors"
	"math"
	"testing"

	"endurance/internal/store"
)

func TestFormatPace(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "-"},
		{-5, "-"},
		{math.NaN(), "-"},
		{30, "0:30"},
		{60, "1:00"},
		{90, "1:30"},
		{300, "5:00"},
		{359.4, "5:59"},
		{359.6, "6:00"},
		{600, "10:00"},
		{3600, "60:00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := formatPace(tt.seconds)
			if result != tt.expected {
				t.Errorf("formatPace(%v) = %q, want %q", tt.seconds, result, tt.expected)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{1500, "25:00"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{10530, "2:55:30"},
		{math.Inf(1), "-"},
		{-1, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := formatDuration(tt.seconds)
			if result != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.seconds, result, tt.expected)
			}
		})
	}
}

func TestValidateObjective(t *testing.T) {
	tests := []struct {
		name    string
		obj     store.Objective
		wantErr bool
	}{
		{"weekly distance", store.Objective{Kind: store.ObjectiveDistance, Value: 40, Period: store.PeriodWeek, Unit: "km"}, false},
		{"total hours without period", store.Objective{Kind: store.ObjectiveTotalHours, Value: 100}, false},
		{"sport filter", store.Objective{Kind: store.ObjectiveSessions, Value: 3, Period: store.PeriodWeek, Sport: store.SportRide}, false},
		{"zero value", store.Objective{Kind: store.ObjectiveSessions, Value: 0, Period: store.PeriodWeek}, true},
		{"NaN value", store.Objective{Kind: store.ObjectiveSessions, Value: math.NaN(), Period: store.PeriodWeek}, true},
		{"missing period", store.Objective{Kind: store.ObjectiveHours, Value: 5}, true},
		{"unknown kind", store.Objective{Kind: "laps", Value: 5, Period: store.PeriodWeek}, true},
		{"unknown sport", store.Objective{Kind: store.ObjectiveSessions, Value: 5, Period: store.PeriodWeek, Sport: "Rowing"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateObjective(tt.obj)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidObjective) {
					t.Errorf("validateObjective() = %v, want ErrInvalidObjective", err)
				}
				return
			}
			if err != nil {
				t.Errorf("validateObjective() unexpected error: %v", err)
			}
		})
	}
}
