package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Sync state keys
const (
	SyncKeyLastStrava = "last_strava_sync"
	SyncKeyLastFIT    = "last_fit_import"
)

// GetSyncState retrieves a sync state value by key
// Returns empty string if key doesn't exist
func (db *DB) GetSyncState(key string) (string, error) {
	var value string
	err := db.QueryRow(`
		SELECT value FROM sync_state WHERE key = ?
	`, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetSyncState sets a sync state value
func (db *DB) SetSyncState(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// GetSyncTime reads a timestamp stored under key. The zero time means never.
func (db *DB) GetSyncTime(key string) (time.Time, error) {
	v, err := db.GetSyncState(key)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	t, err := parseTime(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing sync state %s: %w", key, err)
	}
	return t, nil
}

// SetSyncTime stores t under key
func (db *DB) SetSyncTime(key string, t time.Time) error {
	return db.SetSyncState(key, formatTime(t))
}
