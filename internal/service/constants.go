package service

const (
	// Unit conversions
	MetersPerMile = 1609.34
	MetersPerKm   = 1000.0

	// Chart windows
	ChartWeeks  = 12
	ChartMonths = 12
	ChartDays   = 90 // fitness trend history

	// Dashboard
	RecentActivitiesLimit = 8

	// Import
	MaxReportedCandidates = 5 // candidates kept per merge for display
)

// Sync phases reported through SyncProgress
const (
	PhaseFetch   = "fetch"
	PhaseStreams = "streams"
	PhaseAnalyze = "analyze"
	PhaseDecode  = "decode"
)
