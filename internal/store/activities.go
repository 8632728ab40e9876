package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrActivityNotFound is returned when an activity doesn't exist
var ErrActivityNotFound = errors.New("activity not found")

// ErrMissingIdentity is returned when a record lacks the fields needed to key it
var ErrMissingIdentity = errors.New("activity is missing required identity fields")

const activityColumns = `id, user_id, source, external_id, sport, start_date, duration_s,
	distance_m, elevation_m, max_elevation_m, min_elevation_m,
	avg_speed_ms, max_speed_ms, avg_watts, energy_kj, avg_hr, max_hr, load,
	has_gps, has_streams, has_power, is_suspicious, suspicion_score, suspicion_reasons,
	created_at, updated_at`

// ActivityID builds the deterministic document id for an imported activity
func ActivityID(source Source, externalID string) string {
	return fmt.Sprintf("activity_%s_%s", source, externalID)
}

// UpsertActivity inserts or updates an activity and returns its id.
// Activities with an external id are keyed by source and external id;
// others get a random id. created_at is preserved on update.
func (db *DB) UpsertActivity(a *ActivitySummary) (string, error) {
	if a.UserID == "" || a.Source == "" {
		return "", fmt.Errorf("upserting activity: %w", ErrMissingIdentity)
	}

	if a.ID == "" {
		if a.ExternalID != "" {
			a.ID = ActivityID(a.Source, a.ExternalID)
		} else {
			a.ID = "activity_" + string(a.Source) + "_" + uuid.NewString()
		}
	}

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			source = excluded.source,
			external_id = excluded.external_id,
			sport = excluded.sport,
			start_date = excluded.start_date,
			duration_s = excluded.duration_s,
			distance_m = excluded.distance_m,
			elevation_m = excluded.elevation_m,
			max_elevation_m = excluded.max_elevation_m,
			min_elevation_m = excluded.min_elevation_m,
			avg_speed_ms = excluded.avg_speed_ms,
			max_speed_ms = excluded.max_speed_ms,
			avg_watts = excluded.avg_watts,
			energy_kj = excluded.energy_kj,
			avg_hr = excluded.avg_hr,
			max_hr = excluded.max_hr,
			load = excluded.load,
			has_gps = excluded.has_gps,
			has_streams = excluded.has_streams,
			has_power = excluded.has_power,
			is_suspicious = excluded.is_suspicious,
			suspicion_score = excluded.suspicion_score,
			suspicion_reasons = excluded.suspicion_reasons,
			updated_at = excluded.updated_at
	`,
		a.ID, a.UserID, string(a.Source), nullString(a.ExternalID), string(a.Sport),
		formatTime(a.StartDate), a.DurationS,
		a.DistanceM, a.ElevationM, a.MaxElevationM, a.MinElevationM,
		a.AvgSpeedMS, a.MaxSpeedMS, a.AvgWatts, a.EnergyKJ, a.AvgHR, a.MaxHR, a.Load,
		boolToInt(a.HasGPS), boolToInt(a.HasStreams), boolToInt(a.HasPower),
		boolToInt(a.IsSuspicious), a.SuspicionScore, strings.Join(a.SuspicionReasons, ","),
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("upserting activity %s: %w", a.ID, err)
	}
	return a.ID, nil
}

// GetActivity retrieves an activity by ID
func (db *DB) GetActivity(id string) (*ActivitySummary, error) {
	row := db.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// ListActivities returns all of a user's activities ordered by start date descending
func (db *DB) ListActivities(userID string) ([]ActivitySummary, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE user_id = ?
		ORDER BY start_date DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// FindInStartWindow returns the user's activities starting within ±window of start.
// This is the candidate pool for duplicate detection.
func (db *DB) FindInStartWindow(userID string, start time.Time, window time.Duration) ([]ActivitySummary, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE user_id = ? AND start_date >= ? AND start_date <= ?
		ORDER BY start_date
	`, userID, formatTime(start.Add(-window)), formatTime(start.Add(window)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// CountActivities returns how many activities a user has stored
func (db *DB) CountActivities(userID string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM activities WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// UpdateLoad sets the computed training load of an activity; nil stores unknown
func (db *DB) UpdateLoad(id string, load *float64) error {
	return db.execOne(`
		UPDATE activities SET load = ?, updated_at = ? WHERE id = ?
	`, load, formatTime(time.Now()), id)
}

// SetSuspicion records the plausibility verdict of an activity
func (db *DB) SetSuspicion(id string, suspicious bool, score float64, reasons []string) error {
	return db.execOne(`
		UPDATE activities
		SET is_suspicious = ?, suspicion_score = ?, suspicion_reasons = ?, updated_at = ?
		WHERE id = ?
	`, boolToInt(suspicious), score, strings.Join(reasons, ","), formatTime(time.Now()), id)
}

// DeleteActivity removes an activity
func (db *DB) DeleteActivity(id string) error {
	return db.execOne(`DELETE FROM activities WHERE id = ?`, id)
}

func (db *DB) execOne(query string, args ...any) error {
	result, err := db.Exec(query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrActivityNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (*ActivitySummary, error) {
	var a ActivitySummary
	var source, sport, startDate, reasons, createdAt, updatedAt string
	var externalID sql.NullString
	var hasGPS, hasStreams, hasPower, suspicious int

	err := row.Scan(
		&a.ID, &a.UserID, &source, &externalID, &sport, &startDate, &a.DurationS,
		&a.DistanceM, &a.ElevationM, &a.MaxElevationM, &a.MinElevationM,
		&a.AvgSpeedMS, &a.MaxSpeedMS, &a.AvgWatts, &a.EnergyKJ, &a.AvgHR, &a.MaxHR, &a.Load,
		&hasGPS, &hasStreams, &hasPower, &suspicious, &a.SuspicionScore, &reasons,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Source = Source(source)
	a.ExternalID = externalID.String
	a.Sport = Sport(sport)
	a.HasGPS = hasGPS != 0
	a.HasStreams = hasStreams != 0
	a.HasPower = hasPower != 0
	a.IsSuspicious = suspicious != 0
	if reasons != "" {
		a.SuspicionReasons = strings.Split(reasons, ",")
	}

	if a.StartDate, err = parseTime(startDate); err != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at %q: %w", updatedAt, err)
	}

	return &a, nil
}

func scanActivities(rows *sql.Rows) ([]ActivitySummary, error) {
	var activities []ActivitySummary
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
