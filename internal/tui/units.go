package tui

import (
	"fmt"

	"endurance/internal/config"
	"endurance/internal/service"
	"endurance/internal/store"
)

// Units provides unit conversion and formatting based on user preferences
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// IsMiles returns true if distance unit is miles
func (u Units) IsMiles() bool {
	return u.cfg.DistanceUnit == "mi"
}

// Distance converts meters to the user's distance unit
func (u Units) Distance(meters float64) float64 {
	if u.IsMiles() {
		return meters / service.MetersPerMile
	}
	return meters / service.MetersPerKm
}

// DistanceKm converts kilometers to the user's distance unit, for chart series
func (u Units) DistanceKm(km float64) float64 {
	return u.Distance(km * service.MetersPerKm)
}

// FormatDistance formats a distance in meters to the user's preferred unit
func (u Units) FormatDistance(meters float64) string {
	return fmt.Sprintf("%.1f %s", u.Distance(meters), u.DistanceLabel())
}

// FormatPace formats the pace of seconds over meters in the user's pace unit
func (u Units) FormatPace(seconds, meters float64) string {
	if meters <= 0 || seconds <= 0 {
		return "-"
	}
	perUnit := service.MetersPerKm
	if u.cfg.PaceUnit == "min/mi" {
		perUnit = service.MetersPerMile
	}
	return service.FormatPace(seconds / (meters / perUnit))
}

// FormatPaceSecPerKm formats a pace given in seconds per km
func (u Units) FormatPaceSecPerKm(secPerKm float64) string {
	return u.FormatPace(secPerKm, service.MetersPerKm)
}

// FormatSpeed formats an average speed in m/s as km/h or mph
func (u Units) FormatSpeed(ms float64) string {
	if ms <= 0 {
		return "-"
	}
	if u.IsMiles() {
		return fmt.Sprintf("%.1f mph", ms*3600/service.MetersPerMile)
	}
	return fmt.Sprintf("%.1f km/h", ms*3.6)
}

// FormatActivityPace shows pace for foot sports and speed for rides
func (u Units) FormatActivityPace(a store.ActivitySummary) string {
	if a.Sport == store.SportRide {
		if a.DurationS <= 0 {
			return "-"
		}
		return u.FormatSpeed(a.DistanceM / a.DurationS)
	}
	return u.FormatPace(a.DurationS, a.DistanceM)
}

// DistanceLabel returns the short unit label ("mi" or "km")
func (u Units) DistanceLabel() string {
	if u.IsMiles() {
		return "mi"
	}
	return "km"
}

// DistanceLabelLong returns the long unit label ("miles" or "km")
func (u Units) DistanceLabelLong() string {
	if u.IsMiles() {
		return "miles"
	}
	return "km"
}

// PaceSuffix returns the unit appended to a pace ("/mi" or "/km")
func (u Units) PaceSuffix() string {
	if u.cfg.PaceUnit == "min/mi" {
		return "/mi"
	}
	return "/km"
}
