package strava

import (
	"strconv"
	"strings"

	"endurance/internal/store"
)

// NormalizeSport maps a Strava activity type onto the dashboard's sport set.
// Virtual and e-bike rides count as rides, trail runs as runs.
func NormalizeSport(stravaType string) store.Sport {
	switch {
	case stravaType == "":
		return store.SportOther
	case strings.Contains(stravaType, "Ride"):
		return store.SportRide
	case strings.Contains(stravaType, "Run"):
		return store.SportRun
	case strings.Contains(stravaType, "Walk"):
		return store.SportWalk
	case strings.Contains(stravaType, "Hike"):
		return store.SportHike
	default:
		return store.SportOther
	}
}

// ToSummary converts an API activity into a normalized summary for userID
func ToSummary(a Activity, userID string) store.ActivitySummary {
	s := store.ActivitySummary{
		UserID:     userID,
		Source:     store.SourceStrava,
		ExternalID: strconv.FormatInt(a.ID, 10),
		Sport:      NormalizeSport(a.Type),
		StartDate:  a.StartDate.UTC(),

		ElevationM:    a.TotalElevationGain,
		MaxElevationM: a.ElevHigh,
		MinElevationM: a.ElevLow,
		AvgSpeedMS:    a.AverageSpeed,
		MaxSpeedMS:    a.MaxSpeed,
		AvgWatts:      a.AverageWatts,
		EnergyKJ:      a.Kilojoules,
		AvgHR:         a.AverageHeartrate,
		MaxHR:         a.MaxHeartrate,

		HasGPS:   a.Map.SummaryPolyline != "",
		HasPower: a.AverageWatts != nil && *a.AverageWatts != 0,
	}
	if a.MovingTime != nil {
		s.DurationS = float64(*a.MovingTime)
	}
	if a.Distance != nil {
		s.DistanceM = *a.Distance
	}
	return s
}

// ToDetails converts an API activity, and its streams when fetched, into
// the record the import pipeline analyzes
func ToDetails(a Activity, streams *Streams, userID string) store.ActivityDetails {
	d := store.ActivityDetails{
		ActivitySummary: ToSummary(a, userID),
		Name:            a.Name,
		Polyline:        a.Map.SummaryPolyline,
	}
	if streams != nil {
		d.Streams = StreamsToMap(streams)
		d.HasStreams = true
	}
	return d
}

// StreamsToMap flattens the numeric streams keyed by type.
// latlng is skipped since the analytics only need scalar series.
func StreamsToMap(s *Streams) map[string][]float64 {
	if s == nil {
		return nil
	}
	out := make(map[string][]float64)
	add := func(key string, sd *StreamData[float64]) {
		if sd != nil && len(sd.Data) > 0 {
			out[key] = sd.Data
		}
	}
	add("time", s.Time)
	add("altitude", s.Altitude)
	add("velocity_smooth", s.VelocitySmooth)
	add("heartrate", s.Heartrate)
	add("watts", s.Watts)
	add("distance", s.Distance)
	return out
}
