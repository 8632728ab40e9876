package analysis

import (
	"errors"
	"math"
	"sort"

	"endurance/internal/store"
)

// ErrMissingIdentity is returned when an activity handed to duplicate
// detection lacks the fields needed to identify it
var ErrMissingIdentity = errors.New("activity is missing identity fields for deduplication")

// SimilarityCandidate is a stored activity scored against an incoming one
type SimilarityCandidate struct {
	ID       string
	Score    float64
	Activity store.ActivitySummary
}

// Score returns the weighted similarity of two activities in [0, 1].
// It is 1 only when start time, distance and duration are equal and the sport matches.
func Score(a, b store.ActivitySummary, p Profile) float64 {
	dt := math.Abs(a.StartDate.Sub(b.StartDate).Seconds())
	timeScore := 0.0
	if r, ok := SafeRatio(dt, p.SimilarityWindowS); ok {
		timeScore = math.Max(0, 1-r)
	}

	sportScore := 0.0
	if a.Sport == b.Sport {
		sportScore = 1
	}

	w := p.Weights
	s := timeScore*w.Time +
		relativeScore(a.DistanceM, b.DistanceM, p.RelativeDiffLimit)*w.Distance +
		relativeScore(a.DurationS, b.DurationS, p.RelativeDiffLimit)*w.Duration +
		sportScore*w.Sport

	return Clamp(s, 0, 1)
}

// relativeScore falls off linearly from 1 to 0 as the relative difference of
// a and b (normalized by their mean magnitude) goes from 0 to limit.
// An undefined ratio scores 0.
func relativeScore(a, b, limit float64) float64 {
	avg := (math.Abs(a) + math.Abs(b)) / 2
	rel, ok := SafeRatio(math.Abs(a-b), avg)
	if !ok {
		return 0
	}
	r, ok := SafeRatio(rel, limit)
	if !ok {
		return 0
	}
	return math.Max(0, 1-r)
}

// FindSimilar scores every pool member against incoming and returns them
// sorted by descending score. Pool members of another user are skipped.
func FindSimilar(incoming store.ActivitySummary, pool []store.ActivitySummary, p Profile) ([]SimilarityCandidate, error) {
	if incoming.UserID == "" {
		return nil, ErrMissingIdentity
	}

	candidates := make([]SimilarityCandidate, 0, len(pool))
	for _, c := range pool {
		if c.ID == "" {
			return nil, ErrMissingIdentity
		}
		if c.UserID != incoming.UserID || c.ID == incoming.ID {
			continue
		}
		candidates = append(candidates, SimilarityCandidate{
			ID:       c.ID,
			Score:    Score(incoming, c, p),
			Activity: c,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates, nil
}

// BestMatch returns the top candidate if it reaches threshold
func BestMatch(candidates []SimilarityCandidate, threshold float64) (SimilarityCandidate, bool) {
	if len(candidates) == 0 || candidates[0].Score < threshold {
		return SimilarityCandidate{}, false
	}
	return candidates[0], true
}
