package engine

import (
	"fmt"
	"strings"
)

// Status is the outcome of a service call.
type Status int

const (
	StatusOk Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusOk {
		return "Ok"
	}
	return "Error"
}

// Algorithm selects the query algorithm.
type Algorithm int

const (
	// CH queries the contraction hierarchy.
	CH Algorithm = iota
	// MLD searches the base graph directly.
	MLD
)

func (a Algorithm) String() string {
	switch a {
	case CH:
		return "CH"
	case MLD:
		return "MLD"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm parses "ch" or "mld", ignoring case.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(s) {
	case "ch":
		return CH, nil
	case "mld":
		return MLD, nil
	}
	return 0, fmt.Errorf("unknown algorithm %q", s)
}

// Coordinate is a WGS84 position in degrees. Its zero value is (0, 0).
type Coordinate struct {
	Lon float64 `validate:"gte=-180,lte=180"`
	Lat float64 `validate:"gte=-90,lte=90"`
}

// NewCoordinate returns the coordinate at lon, lat.
func NewCoordinate(lon, lat float64) Coordinate {
	return Coordinate{Lon: lon, Lat: lat}
}

// AnnotationsType is a set of per-segment annotations.
type AnnotationsType uint8

const (
	AnnotationsNone     AnnotationsType = 0
	AnnotationsDuration AnnotationsType = 1 << (iota - 1)
	AnnotationsNodes
	AnnotationsDistance
	AnnotationsWeight
	AnnotationsSpeed
	AnnotationsAll = AnnotationsDuration | AnnotationsNodes | AnnotationsDistance | AnnotationsWeight | AnnotationsSpeed
)

// Has reports whether all annotations in other are requested.
func (a AnnotationsType) Has(other AnnotationsType) bool {
	return a&other == other && other != 0
}

// GeometriesType selects the route geometry encoding.
type GeometriesType int

const (
	GeometriesPolyline GeometriesType = iota
	GeometriesPolyline6
	GeometriesGeoJSON
)

// OverviewType selects how much route geometry is returned.
type OverviewType int

const (
	OverviewSimplified OverviewType = iota
	OverviewFull
	OverviewFalse
)

// RouteParameters describes a route request. Coordinates are visited in
// order; each consecutive pair is one leg.
type RouteParameters struct {
	Coordinates  []Coordinate `validate:"min=2,dive"`
	Steps        bool
	Alternatives bool
	Annotations  AnnotationsType `validate:"lte=31"`
	Geometries   GeometriesType  `validate:"oneof=0 1 2"`
	Overview     OverviewType    `validate:"oneof=0 1 2"`
	// Radiuses, when set, has one snap radius in meters per coordinate;
	// 0 means the engine default and +Inf means unlimited.
	Radiuses []float64 `validate:"omitempty,dive,gte=0"`
	// Hints, when set, has one hint per coordinate; "" means none.
	Hints         []string
	GenerateHints bool
}

// NewRouteParameters returns parameters with the given options and no
// coordinates.
func NewRouteParameters(steps, alternatives bool, annotations AnnotationsType, geometries GeometriesType, overview OverviewType) *RouteParameters {
	return &RouteParameters{
		Steps:         steps,
		Alternatives:  alternatives,
		Annotations:   annotations,
		Geometries:    geometries,
		Overview:      overview,
		GenerateHints: true,
	}
}

// DefaultRouteParameters returns the service defaults: polyline geometry,
// simplified overview, no steps, no annotations, hints on.
func DefaultRouteParameters() *RouteParameters {
	return NewRouteParameters(false, false, AnnotationsNone, GeometriesPolyline, OverviewSimplified)
}

// NearestParameters describes a nearest request.
type NearestParameters struct {
	Coordinate Coordinate
	Number     int `validate:"gte=1"`
	// Radius in meters; 0 uses the engine default.
	Radius        float64 `validate:"gte=0"`
	GenerateHints bool
}

// NewNearestParameters returns a request for the n segments nearest to c.
func NewNearestParameters(c Coordinate, n int) *NearestParameters {
	return &NearestParameters{Coordinate: c, Number: n, GenerateHints: true}
}

// TableAnnotations selects the matrices computed by Table.
type TableAnnotations uint8

const (
	TableDuration TableAnnotations = 1 << iota
	TableDistance
)

// TableParameters describes a table request. Empty Sources or Destinations
// mean every coordinate.
type TableParameters struct {
	Coordinates   []Coordinate `validate:"min=1,dive"`
	Sources       []int        `validate:"dive,gte=0"`
	Destinations  []int        `validate:"dive,gte=0"`
	Annotations   TableAnnotations
	Radiuses      []float64 `validate:"omitempty,dive,gte=0"`
	GenerateHints bool
}

// NewTableParameters returns a full duration matrix request over coords.
func NewTableParameters(coords ...Coordinate) *TableParameters {
	return &TableParameters{Coordinates: coords, Annotations: TableDuration, GenerateHints: true}
}
