package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Normalized activity summaries, one row per (source, external_id)
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			source TEXT NOT NULL,
			external_id TEXT,
			sport TEXT NOT NULL,
			start_date TEXT NOT NULL,
			duration_s REAL NOT NULL,
			distance_m REAL NOT NULL,
			elevation_m REAL,
			max_elevation_m REAL,
			min_elevation_m REAL,
			avg_speed_ms REAL,
			max_speed_ms REAL,
			avg_watts REAL,
			energy_kj REAL,
			avg_hr REAL,
			max_hr REAL,
			load REAL,
			has_gps INTEGER NOT NULL DEFAULT 0,
			has_streams INTEGER NOT NULL DEFAULT 0,
			has_power INTEGER NOT NULL DEFAULT 0,
			is_suspicious INTEGER NOT NULL DEFAULT 0,
			suspicion_score REAL NOT NULL DEFAULT 0,
			suspicion_reasons TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_user_start ON activities(user_id, start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_sport ON activities(sport)`,

		// Sync State (key-value store for sync tracking)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// User objectives
		`CREATE TABLE IF NOT EXISTS objectives (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			value REAL NOT NULL,
			period TEXT NOT NULL DEFAULT '',
			unit TEXT NOT NULL DEFAULT '',
			sport TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_objectives_user ON objectives(user_id)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
