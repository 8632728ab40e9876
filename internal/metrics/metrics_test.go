package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := NewRecorder()

	r.Imported("strava", "Run")
	r.Imported("strava", "Run")
	r.Imported("fit", "Ride")
	r.Duplicate("strava")
	r.Suspicious("strava")
	r.ImportError("fit")
	r.Purged(3)
	r.Purged(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.imported.WithLabelValues("strava", "Run")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.imported.WithLabelValues("fit", "Ride")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.duplicates.WithLabelValues("strava")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.suspicious.WithLabelValues("strava")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.importErrs.WithLabelValues("fit")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.purged))
}

func TestRecorderLoadHistogram(t *testing.T) {
	r := NewRecorder()
	r.ObserveLoad("Run", 42)
	r.ObserveLoad("Run", 120)

	assert.Equal(t, 1, testutil.CollectAndCount(r.load))
}

func TestRecorderImportRun(t *testing.T) {
	r := NewRecorder()
	at := time.Date(2024, 6, 12, 8, 0, 0, 0, time.UTC)
	r.ImportRun("strava", at)
	r.ImportRun("strava", time.Time{})

	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(r.lastImport.WithLabelValues("strava")))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.Imported("strava", "Run")
	r.Duplicate("strava")
	r.Suspicious("strava")
	r.ImportError("strava")
	r.Purged(1)
	r.ObserveLoad("Run", 1)
	r.ImportRun("strava", time.Now())
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.Imported("strava", "Run")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body),
		`endurance_import_activities_total{source="strava",sport="Run"} 1`))
}
