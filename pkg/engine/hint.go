package engine

import (
	"github.com/mmcloughlin/geohash"

	"github.com/azybler/route_engine/pkg/geo"
)

// hintPrecision is the geohash length of generated hints (a few cm).
const hintPrecision = 12

// hintRadius is the snap radius used around a decoded hint.
const hintRadius = 5.0

func encodeHint(p geo.LatLng) string {
	return geohash.EncodeWithPrecision(p.Lat, p.Lng, hintPrecision)
}

// decodeHint returns the location pinned by hint.
func decodeHint(hint string) (geo.LatLng, error) {
	if err := geohash.Validate(hint); err != nil {
		return geo.LatLng{}, err
	}
	lat, lng := geohash.DecodeCenter(hint)
	return geo.LatLng{Lat: lat, Lng: lng}, nil
}
