// Package fitfile imports activities recorded as Garmin FIT files.
package fitfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tormoder/fit"

	"endurance/internal/store"
)

// ErrNoSession is returned for activity files without a session message
var ErrNoSession = errors.New("activity file has no session message")

// DecodeFile reads the FIT file at path
func DecodeFile(path, userID string) (store.ActivityDetails, error) {
	f, err := os.Open(path)
	if err != nil {
		return store.ActivityDetails{}, fmt.Errorf("opening FIT file: %w", err)
	}
	defer f.Close()

	d, err := Decode(f, userID)
	if err != nil {
		return store.ActivityDetails{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return d, nil
}

// Decode converts the first session of a FIT activity into activity details.
// Session totals win; record samples fill in what the session leaves invalid.
func Decode(r io.Reader, userID string) (store.ActivityDetails, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return store.ActivityDetails{}, fmt.Errorf("decoding FIT file: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return store.ActivityDetails{}, fmt.Errorf("activity FIT expected: %w", err)
	}
	if len(activity.Sessions) == 0 {
		return store.ActivityDetails{}, ErrNoSession
	}

	session := activity.Sessions[0]
	series := buildSeries(activity.Records)

	start := validTime(session.StartTime)
	if start.IsZero() {
		start = series.start
	}

	a := store.ActivitySummary{
		UserID:    userID,
		Source:    store.SourceFIT,
		Sport:     normalizeSport(session.Sport),
		StartDate: start.UTC(),
	}
	a.ExternalID = externalID(decoded.FileId.SerialNumber, start)

	a.DurationS = positive(session.GetTotalMovingTimeScaled())
	if a.DurationS == 0 {
		a.DurationS = positive(session.GetTotalTimerTimeScaled())
	}
	if a.DurationS == 0 {
		a.DurationS = series.durationS
	}

	a.DistanceM = positive(session.GetTotalDistanceScaled())
	if a.DistanceM == 0 {
		a.DistanceM = series.lastDistanceM
	}

	if session.TotalAscent != math.MaxUint16 {
		a.ElevationM = store.Float(float64(session.TotalAscent))
	}
	if series.hasAltitude {
		a.MaxElevationM = store.Float(series.maxAltitude)
		a.MinElevationM = store.Float(series.minAltitude)
	}

	a.AvgSpeedMS = firstPositive(session.GetEnhancedAvgSpeedScaled(), session.GetAvgSpeedScaled())
	a.MaxSpeedMS = firstPositive(session.GetEnhancedMaxSpeedScaled(), session.GetMaxSpeedScaled(), maxOf(series.speed))

	if session.AvgPower != math.MaxUint16 && session.AvgPower > 0 {
		a.AvgWatts = store.Float(float64(session.AvgPower))
	} else if avg := mean(series.power); avg > 0 {
		a.AvgWatts = store.Float(avg)
	}
	if session.TotalWork != math.MaxUint32 && session.TotalWork > 0 {
		a.EnergyKJ = store.Float(float64(session.TotalWork) / 1000)
	}

	if session.AvgHeartRate != math.MaxUint8 && session.AvgHeartRate > 0 {
		a.AvgHR = store.Float(float64(session.AvgHeartRate))
	} else if avg := mean(series.hr); avg > 0 {
		a.AvgHR = store.Float(avg)
	}
	if session.MaxHeartRate != math.MaxUint8 && session.MaxHeartRate > 0 {
		a.MaxHR = store.Float(float64(session.MaxHeartRate))
	} else if m := maxOf(series.hr); m > 0 {
		a.MaxHR = store.Float(m)
	}

	a.HasGPS = len(series.points) > 0
	a.HasPower = a.AvgWatts != nil
	a.HasStreams = len(activity.Records) > 0

	return store.ActivityDetails{
		ActivitySummary: a,
		Polyline:        EncodePolyline(series.points),
		Streams:         series.streams(),
	}, nil
}

// externalID keys a file by device serial and start time so a re-import
// of the same recording lands on the same record
func externalID(serial uint32, start time.Time) string {
	ts := strconv.FormatInt(start.Unix(), 10)
	if serial == 0 || serial == math.MaxUint32 {
		return ts
	}
	return strconv.FormatUint(uint64(serial), 10) + "-" + ts
}

func normalizeSport(s fit.Sport) store.Sport {
	switch s {
	case fit.SportRunning:
		return store.SportRun
	case fit.SportCycling:
		return store.SportRide
	case fit.SportWalking:
		return store.SportWalk
	case fit.SportHiking:
		return store.SportHike
	default:
		return store.SportOther
	}
}

type series struct {
	start         time.Time
	durationS     float64
	lastDistanceM float64

	offsets  []float64
	hr       []float64
	power    []float64
	speed    []float64
	altitude []float64
	distance []float64
	points   [][2]float64

	hasAltitude              bool
	maxAltitude, minAltitude float64
}

func buildSeries(records []*fit.RecordMsg) series {
	var s series
	var end time.Time

	for _, rec := range records {
		ts := validTime(rec.Timestamp)
		if ts.IsZero() {
			continue
		}
		if s.start.IsZero() {
			s.start = ts
		}
		end = ts
		s.offsets = append(s.offsets, ts.Sub(s.start).Seconds())

		if rec.HeartRate != math.MaxUint8 {
			s.hr = append(s.hr, float64(rec.HeartRate))
		}
		if rec.Power != math.MaxUint16 {
			s.power = append(s.power, float64(rec.Power))
		}
		if v := firstPositive(rec.GetEnhancedSpeedScaled(), rec.GetSpeedScaled()); v != nil {
			s.speed = append(s.speed, *v)
		}
		if d := rec.GetDistanceScaled(); isFinite(d) && d >= 0 {
			s.distance = append(s.distance, d)
			s.lastDistanceM = d
		}

		alt := rec.GetEnhancedAltitudeScaled()
		if !isFinite(alt) {
			alt = rec.GetAltitudeScaled()
		}
		if isFinite(alt) {
			s.altitude = append(s.altitude, alt)
			if !s.hasAltitude || alt > s.maxAltitude {
				s.maxAltitude = alt
			}
			if !s.hasAltitude || alt < s.minAltitude {
				s.minAltitude = alt
			}
			s.hasAltitude = true
		}

		if !rec.PositionLat.Invalid() && !rec.PositionLong.Invalid() {
			s.points = append(s.points, [2]float64{rec.PositionLat.Degrees(), rec.PositionLong.Degrees()})
		}
	}

	if !end.IsZero() {
		s.durationS = end.Sub(s.start).Seconds()
	}
	return s
}

func (s series) streams() map[string][]float64 {
	out := make(map[string][]float64)
	add := func(key string, v []float64) {
		if len(v) > 0 {
			out[key] = v
		}
	}
	add("time", s.offsets)
	add("heartrate", s.hr)
	add("watts", s.power)
	add("velocity_smooth", s.speed)
	add("altitude", s.altitude)
	add("distance", s.distance)
	if len(out) == 0 {
		return nil
	}
	return out
}

func validTime(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func positive(x float64) float64 {
	if isFinite(x) && x > 0 {
		return x
	}
	return 0
}

func firstPositive(xs ...float64) *float64 {
	for _, x := range xs {
		if v := positive(x); v > 0 {
			return &v
		}
	}
	return nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func maxOf(xs []float64) float64 {
	var m float64
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}
