package analysis

import (
	"math"
	"sort"
)

// nearZero is the tolerance under which a sum is treated as "no data"
const nearZero = 1e-6

// IsFinite reports whether x is a real number (not NaN, not ±Inf)
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// SafeRatio returns n/d. ok is false when d is zero or either operand is
// non-finite, so callers can tell "unknown" apart from a computed zero.
func SafeRatio(n, d float64) (float64, bool) {
	if d == 0 || !IsFinite(n) || !IsFinite(d) {
		return 0, false
	}
	r := n / d
	if !IsFinite(r) {
		return 0, false
	}
	return r, true
}

// Clamp bounds x to [lo, hi]
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Known unwraps an optional numeric field. ok is false for nil, NaN and ±Inf.
func Known(p *float64) (float64, bool) {
	if p == nil || !IsFinite(*p) {
		return 0, false
	}
	return *p, true
}

// tally accumulates rule points and the tags of the rules that fired
type tally struct {
	score   float64
	reasons []string
}

// add records a rule contribution; non-positive points are ignored
func (t *tally) add(points float64, reason string) {
	if points <= 0 {
		return
	}
	t.score += points
	t.reasons = append(t.reasons, reason)
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}

// stddev is the population standard deviation
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// median returns the median of xs without modifying it
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
