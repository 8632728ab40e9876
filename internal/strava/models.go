package strava

import "time"

// Activity represents a Strava activity from the API.
// Optional metrics are pointers so a missing value stays distinct from zero.
type Activity struct {
	ID                 int64     `json:"id"`
	Athlete            Athlete   `json:"athlete"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	StartDateLocal     time.Time `json:"start_date_local"`
	Timezone           string    `json:"timezone"`
	Distance           *float64  `json:"distance"`             // meters
	MovingTime         *int      `json:"moving_time"`          // seconds
	ElapsedTime        int       `json:"elapsed_time"`         // seconds
	TotalElevationGain *float64  `json:"total_elevation_gain"` // meters
	ElevHigh           *float64  `json:"elev_high"`            // meters
	ElevLow            *float64  `json:"elev_low"`             // meters
	AverageSpeed       *float64  `json:"average_speed"`        // m/s
	MaxSpeed           *float64  `json:"max_speed"`            // m/s
	AverageWatts       *float64  `json:"average_watts"`
	Kilojoules         *float64  `json:"kilojoules"`
	AverageHeartrate   *float64  `json:"average_heartrate"` // bpm
	MaxHeartrate       *float64  `json:"max_heartrate"`     // bpm
	HasHeartrate       bool      `json:"has_heartrate"`
	Map                Map       `json:"map"`
}

// Athlete represents a Strava athlete (minimal info in activity response)
type Athlete struct {
	ID int64 `json:"id"`
}

// Map carries the encoded route of an activity
type Map struct {
	ID              string `json:"id"`
	SummaryPolyline string `json:"summary_polyline"`
}

// Streams represents activity stream data from the API
// Strava returns streams keyed by type when key_by_type=true
type Streams struct {
	Time           *StreamData[float64]    `json:"time"`
	LatLng         *StreamData[[2]float64] `json:"latlng"`
	Altitude       *StreamData[float64]    `json:"altitude"`
	VelocitySmooth *StreamData[float64]    `json:"velocity_smooth"`
	Heartrate      *StreamData[float64]    `json:"heartrate"`
	Watts          *StreamData[float64]    `json:"watts"`
	Distance       *StreamData[float64]    `json:"distance"`
}

// StreamData represents a single stream type
type StreamData[T any] struct {
	Data         []T    `json:"data"`
	SeriesType   string `json:"series_type"`
	OriginalSize int    `json:"original_size"`
	Resolution   string `json:"resolution"`
}

// Len returns the length of the stream, or 0 if nil
func (s *Streams) Len() int {
	if s == nil || s.Time == nil {
		return 0
	}
	return len(s.Time.Data)
}
