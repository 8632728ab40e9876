package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenPath(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func testRun(userID, extID string, start time.Time) *ActivitySummary {
	return &ActivitySummary{
		UserID:     userID,
		Source:     SourceStrava,
		ExternalID: extID,
		Sport:      SportRun,
		StartDate:  start,
		DurationS:  1800,
		DistanceM:  5000,
		ElevationM: Float(42),
		AvgSpeedMS: Float(2.78),
		HasGPS:     true,
	}
}

func TestUpsertActivity_DeterministicID(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC)

	id, err := db.UpsertActivity(testRun("u1", "123", start))
	require.NoError(t, err)
	assert.Equal(t, "activity_strava_123", id)

	got, err := db.GetActivity(id)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, SportRun, got.Sport)
	assert.True(t, got.StartDate.Equal(start))
	assert.InDelta(t, 5000, got.DistanceM, 1e-9)
	require.NotNil(t, got.ElevationM)
	assert.InDelta(t, 42, *got.ElevationM, 1e-9)
	assert.Nil(t, got.MaxHR)
	assert.Nil(t, got.Load)
	assert.True(t, got.HasGPS)
	assert.False(t, got.HasPower)
}

func TestUpsertActivity_PreservesCreatedAt(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC)

	first := testRun("u1", "123", start)
	first.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := db.UpsertActivity(first)
	require.NoError(t, err)

	// re-import of the same external activity with a new distance
	second := testRun("u1", "123", start)
	second.DistanceM = 5100
	second.CreatedAt = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = db.UpsertActivity(second)
	require.NoError(t, err)

	n, err := db.CountActivities("u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := db.GetActivity("activity_strava_123")
	require.NoError(t, err)
	assert.InDelta(t, 5100, got.DistanceM, 1e-9)
	assert.Equal(t, 2024, got.CreatedAt.Year())
	assert.Equal(t, time.January, got.CreatedAt.Month())
}

func TestUpsertActivity_GeneratesIDWithoutExternalID(t *testing.T) {
	db := setupTestDB(t)

	a := testRun("u1", "", time.Now())
	a.Source = SourceManual
	id, err := db.UpsertActivity(a)
	require.NoError(t, err)
	assert.Contains(t, id, "activity_manual_")
	assert.Equal(t, id, a.ID)
}

func TestUpsertActivity_MissingIdentity(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.UpsertActivity(testRun("", "1", time.Now()))
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestGetActivity_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetActivity("nope")
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestListActivities(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	for i, ext := range []string{"a", "b", "c"} {
		_, err := db.UpsertActivity(testRun("u1", ext, base.AddDate(0, 0, i)))
		require.NoError(t, err)
	}
	_, err := db.UpsertActivity(testRun("u2", "z", base))
	require.NoError(t, err)

	all, err := db.ListActivities("u1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ExternalID, "newest first")
	assert.Equal(t, "a", all[2].ExternalID)
}

func TestFindInStartWindow(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	_, err := db.UpsertActivity(testRun("u1", "near", start.Add(5*time.Minute)))
	require.NoError(t, err)
	_, err = db.UpsertActivity(testRun("u1", "far", start.Add(3*time.Hour)))
	require.NoError(t, err)
	_, err = db.UpsertActivity(testRun("u2", "other", start))
	require.NoError(t, err)

	pool, err := db.FindInStartWindow("u1", start, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "near", pool[0].ExternalID)
}

func TestSetSuspicionAndLoad(t *testing.T) {
	db := setupTestDB(t)

	id, err := db.UpsertActivity(testRun("u1", "1", time.Now()))
	require.NoError(t, err)

	require.NoError(t, db.SetSuspicion(id, true, 80, []string{"distance_zero_with_duration", "invalid_duration"}))
	require.NoError(t, db.UpdateLoad(id, Float(57.5)))

	got, err := db.GetActivity(id)
	require.NoError(t, err)
	assert.True(t, got.IsSuspicious)
	assert.InDelta(t, 80, got.SuspicionScore, 1e-9)
	assert.Equal(t, []string{"distance_zero_with_duration", "invalid_duration"}, got.SuspicionReasons)
	require.NotNil(t, got.Load)
	assert.InDelta(t, 57.5, *got.Load, 1e-9)

	assert.ErrorIs(t, db.SetSuspicion("missing", false, 0, nil), ErrActivityNotFound)
}

func TestDeleteActivity(t *testing.T) {
	db := setupTestDB(t)

	id, err := db.UpsertActivity(testRun("u1", "1", time.Now()))
	require.NoError(t, err)
	require.NoError(t, db.DeleteActivity(id))
	assert.ErrorIs(t, db.DeleteActivity(id), ErrActivityNotFound)
}
