package analysis

import (
	"maps"

	"endurance/internal/store"
)

// Threshold is a magnitude rule: exceeding Limit adds Points
type Threshold struct {
	Limit  float64
	Points float64
}

// SuspicionPoints holds the point value of every plausibility rule
type SuspicionPoints struct {
	ZeroDistance      float64
	InvalidDuration   float64
	NonFiniteSpeed    float64
	NegativeElevation float64

	DistanceKm []Threshold // cumulative
	DurationH  []Threshold // cumulative

	AboveSpeedLimit   float64
	NearSpeedLimit    float64
	NearSpeedFraction float64

	IncoherentFast float64 // > FastDistanceKm in < FastDurationH
	FastDistanceKm float64
	FastDurationH  float64
	IncoherentSlow float64 // < SlowDistanceKm in > SlowDurationH
	SlowDistanceKm float64
	SlowDurationH  float64

	GPSWithoutPolyline float64
	StreamsWithoutData float64

	DistanceHabit         float64
	DistanceHabitMultiple float64
	SpeedHabit            float64
	SpeedHabitMultiple    float64
	DurationHabit         float64
	DurationHabitMultiple float64

	Threshold float64 // score at which an activity is suspicious
}

// SimilarityWeights are the weights of the duplicate-score components
type SimilarityWeights struct {
	Time     float64
	Distance float64
	Duration float64
	Sport    float64
}

// Profile is the immutable set of constants the engine runs with.
// Copies are safe to share; the With* methods return modified copies.
type Profile struct {
	refSpeeds map[store.Sport]float64 // km/h
	exponents map[store.Sport]float64
	maxSpeeds map[store.Sport]float64 // km/h

	DefaultExponent  float64
	GradeCoefficient float64
	GradeCap         float64 // m/km
	VariabilityAlpha float64

	SimilarityWindowS  float64
	RelativeDiffLimit  float64
	Weights            SimilarityWeights
	MergeThreshold     float64
	CandidateWindowSec float64

	Suspicion SuspicionPoints

	PredictionWindowDays int
	MinFlatRunM          float64
	FlatElevationCoef    float64
	DefaultRiegel        float64
	RiegelMin, RiegelMax float64
	FormAlpha            float64
	FormLimit            float64
	MinPowerEffortS      float64
	MaxPowerEffortS      float64
	FTPToP20             float64
	HighConfidenceRuns   int
	HighConfidencePower  int
}

// DefaultProfile returns the documented engine defaults
func DefaultProfile() Profile {
	return Profile{
		refSpeeds: map[store.Sport]float64{
			store.SportWalk: 5,
			store.SportRide: 25,
			store.SportRun:  10,
			store.SportHike: 4,
		},
		exponents: map[store.Sport]float64{
			store.SportWalk: 1.8,
			store.SportRun:  2.6,
			store.SportRide: 2.4,
			store.SportHike: 2.2,
		},
		maxSpeeds: map[store.Sport]float64{
			store.SportRun:   25,
			store.SportRide:  90,
			store.SportWalk:  10,
			store.SportHike:  10,
			store.SportOther: 50,
		},

		DefaultExponent:  2.5,
		GradeCoefficient: 0.005,
		GradeCap:         150,
		VariabilityAlpha: 0.5,

		SimilarityWindowS:  120,
		RelativeDiffLimit:  0.01,
		Weights:            SimilarityWeights{Time: 0.4, Distance: 0.3, Duration: 0.2, Sport: 0.1},
		MergeThreshold:     0.7,
		CandidateWindowSec: 120,

		Suspicion: SuspicionPoints{
			ZeroDistance:      80,
			InvalidDuration:   100,
			NonFiniteSpeed:    100,
			NegativeElevation: 40,

			DistanceKm: []Threshold{{200, 20}, {400, 40}, {800, 70}},
			DurationH:  []Threshold{{12, 15}, {24, 35}, {48, 60}},

			AboveSpeedLimit:   60,
			NearSpeedLimit:    30,
			NearSpeedFraction: 0.85,

			IncoherentFast: 50,
			FastDistanceKm: 100,
			FastDurationH:  2,
			IncoherentSlow: 40,
			SlowDistanceKm: 1,
			SlowDurationH:  2,

			GPSWithoutPolyline: 30,
			StreamsWithoutData: 20,

			DistanceHabit:         30,
			DistanceHabitMultiple: 3,
			SpeedHabit:            40,
			SpeedHabitMultiple:    2,
			DurationHabit:         20,
			DurationHabitMultiple: 3,

			Threshold: 70,
		},

		PredictionWindowDays: 42,
		MinFlatRunM:          3000,
		FlatElevationCoef:    0.03,
		DefaultRiegel:        1.06,
		RiegelMin:            1.04,
		RiegelMax:            1.10,
		FormAlpha:            0.5,
		FormLimit:            0.05,
		MinPowerEffortS:      12 * 60,
		MaxPowerEffortS:      60 * 60,
		FTPToP20:             0.95,
		HighConfidenceRuns:   6,
		HighConfidencePower:  4,
	}
}

// RefSpeed returns the default reference speed (km/h) of a sport
func (p Profile) RefSpeed(sport store.Sport) (float64, bool) {
	v, ok := p.refSpeeds[sport]
	return v, ok && v > 0
}

// Exponent returns the load exponent of a sport, falling back to DefaultExponent
func (p Profile) Exponent(sport store.Sport) float64 {
	if v, ok := p.exponents[sport]; ok {
		return v
	}
	return p.DefaultExponent
}

// MaxSpeed returns the realistic average speed ceiling (km/h) of a sport
func (p Profile) MaxSpeed(sport store.Sport) float64 {
	if v, ok := p.maxSpeeds[sport]; ok {
		return v
	}
	return p.maxSpeeds[store.SportOther]
}

// WithReferenceSpeeds returns a copy whose default reference speeds are
// overridden by refs. Non-positive entries are ignored.
func (p Profile) WithReferenceSpeeds(refs map[store.Sport]float64) Profile {
	p.refSpeeds = mergePositive(p.refSpeeds, refs)
	return p
}

// WithExponents returns a copy with per-sport load exponents overridden
func (p Profile) WithExponents(exps map[store.Sport]float64) Profile {
	p.exponents = mergePositive(p.exponents, exps)
	return p
}

// WithMergeThreshold returns a copy with a different duplicate merge threshold
func (p Profile) WithMergeThreshold(t float64) Profile {
	if IsFinite(t) && t > 0 && t <= 1 {
		p.MergeThreshold = t
	}
	return p
}

func mergePositive(base, over map[store.Sport]float64) map[store.Sport]float64 {
	out := maps.Clone(base)
	for k, v := range over {
		if IsFinite(v) && v > 0 {
			out[k] = v
		}
	}
	return out
}
