package analysis

import (
	"math"
	"testing"
)

func TestCalculateVDOT(t *testing.T) {
	tests := []struct {
		name            string
		distanceMeters  float64
		durationSeconds int
		wantVDOT        float64
		tolerance       float64
	}{
		{"5K at 19:00", Distance5K, 1140, 50, 1},
		{"5K at 23:42", Distance5K, 1422, 40, 1},
		{"10K at 39:24", Distance10K, 2364, 50, 1},
		{"half at 1:25:00", DistanceHalfMara, 5100, 50, 1},
		{"marathon at 2:54:54", DistanceMarathon, 10494, 50, 1},
		{"mile at 5:44", Distance1Mile, 344, 50, 1},
		{"elite 5K at 13:06", Distance5K, 786, 75, 2},
		{"slow 5K clamps to table floor", Distance5K, 3600, 30, 0},
		{"fast 5K clamps to table ceiling", Distance5K, 600, 85, 0},
		{"zero duration", Distance5K, 0, 0, 0},
		{"negative duration", Distance5K, -100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateVDOT(tt.distanceMeters, tt.durationSeconds)
			if math.Abs(got-tt.wantVDOT) > tt.tolerance {
				t.Errorf("CalculateVDOT() = %v, want %v (±%v)", got, tt.wantVDOT, tt.tolerance)
			}
		})
	}
}

func TestCalculateVDOT_NonStandardDistance(t *testing.T) {
	// 8 km sits between 5K and 10K; a faster time must rate higher
	slow := CalculateVDOT(8000, 2400)
	fast := CalculateVDOT(8000, 2100)
	if fast <= slow {
		t.Errorf("CalculateVDOT(8km) fast=%v should exceed slow=%v", fast, slow)
	}
}

func TestPredictTime(t *testing.T) {
	tests := []struct {
		name           string
		vdot           float64
		targetDistance float64
		wantSeconds    int
		tolerance      int
	}{
		{"VDOT 50 5K", 50, Distance5K, 1140, 60},
		{"VDOT 50 10K", 50, Distance10K, 2364, 120},
		{"VDOT 50 marathon", 50, DistanceMarathon, 10494, 300},
		{"VDOT 60 marathon", 60, DistanceMarathon, 8664, 300},
		{"zero VDOT", 0, Distance5K, 0, 0},
		{"negative VDOT", -50, Distance5K, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PredictTime(tt.vdot, tt.targetDistance)
			if diff := got - tt.wantSeconds; diff > tt.tolerance || -diff > tt.tolerance {
				t.Errorf("PredictTime() = %v, want %v (±%v)", got, tt.wantSeconds, tt.tolerance)
			}
		})
	}
}

func TestVDOTRoundTrip(t *testing.T) {
	tests := []struct {
		distance float64
		duration int
	}{
		{Distance5K, 1200},
		{Distance10K, 2400},
		{DistanceHalfMara, 5400},
		{DistanceMarathon, 11400},
	}

	for _, tt := range tests {
		vdot := CalculateVDOT(tt.distance, tt.duration)
		predicted := PredictTime(vdot, tt.distance)

		// within 2% of the original time
		tolerance := float64(tt.duration) * 0.02
		if math.Abs(float64(predicted-tt.duration)) > tolerance {
			t.Errorf("round trip %.0fm in %ds: VDOT %.1f predicts %ds", tt.distance, tt.duration, vdot, predicted)
		}
	}
}

func TestGetVDOTLabel(t *testing.T) {
	tests := []struct {
		vdot      float64
		wantLabel string
	}{
		{80, "Elite"},
		{70, "Highly Competitive"},
		{55, "Competitive"},
		{50, "Advanced Recreational"},
		{38, "Intermediate"},
		{30, "Beginner"},
		{25, "Novice"},
	}

	for _, tt := range tests {
		t.Run(tt.wantLabel, func(t *testing.T) {
			if got := GetVDOTLabel(tt.vdot); got != tt.wantLabel {
				t.Errorf("GetVDOTLabel(%v) = %v, want %v", tt.vdot, got, tt.wantLabel)
			}
		})
	}
}
