package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrObjectiveNotFound is returned when an objective doesn't exist
var ErrObjectiveNotFound = errors.New("objective not found")

// SaveObjective inserts or replaces an objective and returns its id
func (db *DB) SaveObjective(o *Objective) (string, error) {
	if o.UserID == "" || o.Kind == "" {
		return "", fmt.Errorf("saving objective: %w", ErrMissingIdentity)
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	_, err := db.Exec(`
		INSERT INTO objectives (id, user_id, kind, value, period, unit, sport, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			value = excluded.value,
			period = excluded.period,
			unit = excluded.unit,
			sport = excluded.sport,
			note = excluded.note
	`, o.ID, o.UserID, string(o.Kind), o.Value, string(o.Period), o.Unit, string(o.Sport), o.Note)
	if err != nil {
		return "", fmt.Errorf("saving objective %s: %w", o.ID, err)
	}
	return o.ID, nil
}

// ListObjectives returns a user's objectives in creation order
func (db *DB) ListObjectives(userID string) ([]Objective, error) {
	rows, err := db.Query(`
		SELECT id, user_id, kind, value, period, unit, sport, note
		FROM objectives
		WHERE user_id = ?
		ORDER BY created_at, rowid
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objectives []Objective
	for rows.Next() {
		var o Objective
		var kind, period, sport string
		if err := rows.Scan(&o.ID, &o.UserID, &kind, &o.Value, &period, &o.Unit, &sport, &o.Note); err != nil {
			return nil, err
		}
		o.Kind = ObjectiveKind(kind)
		o.Period = Period(period)
		o.Sport = Sport(sport)
		objectives = append(objectives, o)
	}
	return objectives, rows.Err()
}

// DeleteObjective removes an objective
func (db *DB) DeleteObjective(id string) error {
	result, err := db.Exec(`DELETE FROM objectives WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrObjectiveNotFound
	}
	return nil
}
