package analysis

import (
	"math"
	"testing"
)

func TestSafeRatio(t *testing.T) {
	tests := []struct {
		name   string
		n, d   float64
		want   float64
		wantOK bool
	}{
		{"plain", 10, 4, 2.5, true},
		{"zero numerator", 0, 4, 0, true},
		{"zero denominator", 1, 0, 0, false},
		{"zero over zero", 0, 0, 0, false},
		{"NaN numerator", math.NaN(), 1, 0, false},
		{"infinite denominator", 1, math.Inf(-1), 0, false},
		{"overflow", math.MaxFloat64, 1e-300, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SafeRatio(tt.n, tt.d)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("SafeRatio(%v, %v) = (%v, %v), want (%v, %v)", tt.n, tt.d, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestKnown(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	zero := 0.0

	if _, ok := Known(nil); ok {
		t.Error("Known(nil) should be unknown")
	}
	if _, ok := Known(&nan); ok {
		t.Error("Known(NaN) should be unknown")
	}
	if _, ok := Known(&inf); ok {
		t.Error("Known(+Inf) should be unknown")
	}
	if v, ok := Known(&zero); !ok || v != 0 {
		t.Errorf("Known(0) = (%v, %v), want (0, true)", v, ok)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 1); got != 1 {
		t.Errorf("Clamp(5, 0, 1) = %v", got)
	}
	if got := Clamp(-5, 0, 1); got != 0 {
		t.Errorf("Clamp(-5, 0, 1) = %v", got)
	}
	if got := Clamp(0.3, 0, 1); got != 0.3 {
		t.Errorf("Clamp(0.3, 0, 1) = %v", got)
	}
}

func TestMedianDoesNotMutate(t *testing.T) {
	xs := []float64{3, 1, 2, 10}
	if got := median(xs); got != 2.5 {
		t.Errorf("median = %v, want 2.5", got)
	}
	if xs[0] != 3 || xs[3] != 10 {
		t.Errorf("median reordered its input: %v", xs)
	}
}

func TestTallyIgnoresNonPositive(t *testing.T) {
	var tl tally
	tl.add(10, "a")
	tl.add(0, "b")
	tl.add(-5, "c")
	if tl.score != 10 || len(tl.reasons) != 1 {
		t.Errorf("tally = %+v", tl)
	}
}
