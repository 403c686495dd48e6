// Package geo holds the spherical helpers shared by the parser, the snapper and
// the response builders.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusMeters = 6_371_000.0

// degToMeters converts degree-scaled equirectangular distances to meters.
const degToMeters = math.Pi / 180 * earthRadiusMeters

// LatLng is a WGS84 position in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Point returns the position as an orb point (lon, lat order).
func (ll LatLng) Point() orb.Point {
	return orb.Point{ll.Lng, ll.Lat}
}

// Valid reports whether the position is finite and within WGS84 bounds.
func (ll LatLng) Valid() bool {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return false
	}
	return ll.Lat >= -90 && ll.Lat <= 90 && ll.Lng >= -180 && ll.Lng <= 180
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b LatLng) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Interpolate returns the point at fraction t along the straight segment a→b.
// Linear in degrees, which matches the projection used by ProjectOntoSegment.
func Interpolate(a, b LatLng, t float64) LatLng {
	return LatLng{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lng: a.Lng + (b.Lng-a.Lng)*t,
	}
}

// ProjectOntoSegment returns the distance in meters from p to segment ab and
// the projection ratio along ab, clamped to [0, 1].
func ProjectOntoSegment(p, a, b LatLng) (dist float64, ratio float64) {
	// Equirectangular projection scaled at the segment's mid latitude; good
	// enough for snap distances of a few hundred meters.
	cosLat := math.Cos((a.Lat + b.Lat) / 2 * math.Pi / 180)

	px, py := p.Lng*cosLat, p.Lat
	ax, ay := a.Lng*cosLat, a.Lat

	// Degenerate segment: compare the raw coordinates so projection noise
	// cannot make identical endpoints look distinct.
	if a == b {
		return math.Hypot(px-ax, py-ay) * degToMeters, 0
	}

	dx := b.Lng*cosLat - ax
	dy := b.Lat - ay

	t := ((px-ax)*dx + (py-ay)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))

	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy)) * degToMeters, t
}
