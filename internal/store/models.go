package store

import "time"

// Sport is the normalized sport category of an activity
type Sport string

const (
	SportRun   Sport = "Run"
	SportRide  Sport = "Ride"
	SportWalk  Sport = "Walk"
	SportHike  Sport = "Hike"
	SportOther Sport = "Other"
)

// Sports lists every sport category in display order
var Sports = []Sport{SportRun, SportRide, SportWalk, SportHike, SportOther}

// Source identifies the platform an activity was imported from
type Source string

const (
	SourceStrava Source = "strava"
	SourceGarmin Source = "garmin"
	SourceGPX    Source = "gpx"
	SourceFIT    Source = "fit"
	SourceManual Source = "manual"
)

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64     `db:"athlete_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
}

// ActivitySummary is the normalized record stored for every imported activity.
// Optional numeric fields are nil when the source did not report them.
type ActivitySummary struct {
	ID         string `db:"id"` // empty until persisted
	UserID     string `db:"user_id"`
	Source     Source `db:"source"`
	ExternalID string `db:"external_id"`

	Sport     Sport     `db:"sport"`
	StartDate time.Time `db:"start_date"`
	DurationS float64   `db:"duration_s"` // moving time, seconds

	DistanceM     float64  `db:"distance_m"`
	ElevationM    *float64 `db:"elevation_m"` // nil means unknown, not zero
	MaxElevationM *float64 `db:"max_elevation_m"`
	MinElevationM *float64 `db:"min_elevation_m"`

	AvgSpeedMS *float64 `db:"avg_speed_ms"`
	MaxSpeedMS *float64 `db:"max_speed_ms"`
	AvgWatts   *float64 `db:"avg_watts"`
	EnergyKJ   *float64 `db:"energy_kj"`
	AvgHR      *float64 `db:"avg_hr"`
	MaxHR      *float64 `db:"max_hr"`
	Load       *float64 `db:"load"` // nil when it could not be computed

	HasGPS     bool `db:"has_gps"`
	HasStreams bool `db:"has_streams"`
	HasPower   bool `db:"has_power"`

	IsSuspicious     bool     `db:"is_suspicious"`
	SuspicionScore   float64  `db:"suspicion_score"`
	SuspicionReasons []string `db:"suspicion_reasons"` // stored comma-separated

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ActivityDetails carries the auxiliary data an importer sees but the
// summary table does not keep.
type ActivityDetails struct {
	ActivitySummary

	Name     string
	Polyline string
	Streams  map[string][]float64
}

// ObjectiveKind is what an objective measures
type ObjectiveKind string

const (
	ObjectiveSessions   ObjectiveKind = "sessions"
	ObjectiveHours      ObjectiveKind = "hours"
	ObjectiveDistance   ObjectiveKind = "distance"
	ObjectiveTotalHours ObjectiveKind = "totalHours"
	ObjectiveElevation  ObjectiveKind = "elevation"
)

// Period is a calendar bucket used by objectives and comparisons
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Objective is a user-declared training target
type Objective struct {
	ID     string        `db:"id"`
	UserID string        `db:"user_id"`
	Kind   ObjectiveKind `db:"kind"`
	Value  float64       `db:"value"`
	Period Period        `db:"period"` // empty for totalHours
	Unit   string        `db:"unit"`   // "km", "mi", "m", "h"
	Sport  Sport         `db:"sport"`  // empty means any sport
	Note   string        `db:"note"`
}

// Float returns a pointer to v, for populating optional fields
func Float(v float64) *float64 {
	return &v
}
