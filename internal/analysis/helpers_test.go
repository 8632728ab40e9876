package analysis

import (
	"time"

	"endurance/internal/store"
)

var refDay = time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC) // a Wednesday

func activity(sport store.Sport, distanceM, durationS float64) store.ActivitySummary {
	return store.ActivitySummary{
		ID:        "a1",
		UserID:    "u1",
		Source:    store.SourceStrava,
		Sport:     sport,
		StartDate: refDay.Add(8 * time.Hour),
		DistanceM: distanceM,
		DurationS: durationS,
	}
}

func at(a store.ActivitySummary, start time.Time) store.ActivitySummary {
	a.StartDate = start
	return a
}

func withID(a store.ActivitySummary, id string) store.ActivitySummary {
	a.ID = id
	return a
}
