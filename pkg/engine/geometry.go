package engine

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
	polyline "github.com/twpayne/go-polyline"

	"github.com/azybler/route_engine/pkg/geo"
	"github.com/azybler/route_engine/pkg/value"
)

var (
	polyline5 = polyline.Codec{Dim: 2, Scale: 1e5}
	polyline6 = polyline.Codec{Dim: 2, Scale: 1e6}
)

// simplifyThreshold is the Douglas-Peucker tolerance in degrees (about 5 m).
const simplifyThreshold = 5e-5

func lineString(pts []geo.LatLng) orb.LineString {
	ls := make(orb.LineString, len(pts))
	for i, p := range pts {
		ls[i] = p.Point()
	}
	return ls
}

// simplifyLine reduces pts for the simplified overview, keeping both ends.
func simplifyLine(pts []geo.LatLng) []geo.LatLng {
	if len(pts) <= 2 {
		return pts
	}
	ls, ok := simplify.DouglasPeucker(simplifyThreshold).Simplify(lineString(pts)).(orb.LineString)
	if !ok || len(ls) < 2 {
		return []geo.LatLng{pts[0], pts[len(pts)-1]}
	}
	out := make([]geo.LatLng, len(ls))
	for i, p := range ls {
		out[i] = geo.LatLng{Lat: p.Lat(), Lng: p.Lon()}
	}
	return out
}

// encodeGeometry renders pts in the requested format.
func encodeGeometry(pts []geo.LatLng, kind GeometriesType) value.Value {
	switch kind {
	case GeometriesGeoJSON:
		g := geojson.NewGeometry(lineString(pts))
		coords := value.NewArray()
		for _, p := range g.Coordinates.(orb.LineString) {
			coords.Append(value.NewArray(value.Number(roundCoord(p.Lon())), value.Number(roundCoord(p.Lat()))))
		}
		return value.NewObject().
			Set("type", value.String(g.Type)).
			Set("coordinates", coords)
	case GeometriesPolyline6:
		return value.String(polyline6.EncodeCoords(nil, latLngCoords(pts)))
	default:
		return value.String(polyline5.EncodeCoords(nil, latLngCoords(pts)))
	}
}

// latLngCoords converts pts to the [lat, lon] pairs polylines encode.
func latLngCoords(pts []geo.LatLng) [][]float64 {
	coords := make([][]float64, len(pts))
	for i, p := range pts {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return coords
}

// location renders a point as [lon, lat].
func location(p geo.LatLng) *value.Array {
	return value.NewArray(value.Number(roundCoord(p.Lng)), value.Number(roundCoord(p.Lat)))
}

// roundCoord rounds a coordinate to 6 decimals.
func roundCoord(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}

// round1 rounds x to one decimal.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
