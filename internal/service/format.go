package service

import (
	"fmt"
	"math"
)

// formatDuration formats seconds as "H:MM:SS" or "M:SS"
func formatDuration(seconds float64) string {
	if !(seconds >= 0) || math.IsInf(seconds, 0) {
		return "-"
	}
	total := int(math.Round(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// formatPace formats a pace in seconds per unit as "M:SS"
func formatPace(seconds float64) string {
	if !(seconds > 0) || math.IsInf(seconds, 0) {
		return "-"
	}
	total := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatDuration is formatDuration for the UI
func FormatDuration(seconds float64) string { return formatDuration(seconds) }

// FormatPace is formatPace for the UI
func FormatPace(secondsPerUnit float64) string { return formatPace(secondsPerUnit) }
