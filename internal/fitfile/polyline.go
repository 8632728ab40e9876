package fitfile

import (
	"math"
	"strings"
)

// EncodePolyline encodes lat/lng points with the Google polyline algorithm
// at 1e5 precision, the format Strava uses for summary_polyline
func EncodePolyline(points [][2]float64) string {
	if len(points) == 0 {
		return ""
	}

	var b strings.Builder
	var prevLat, prevLng int64
	for _, p := range points {
		lat := int64(math.Round(p[0] * 1e5))
		lng := int64(math.Round(p[1] * 1e5))
		encodeValue(&b, lat-prevLat)
		encodeValue(&b, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return b.String()
}

func encodeValue(b *strings.Builder, v int64) {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		b.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	b.WriteByte(byte(u + 63))
}
