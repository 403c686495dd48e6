package api

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/azybler/route_engine/pkg/engine"
)

// queryError is a malformed query parameter.
type queryError struct {
	param string
	err   error
}

func (e *queryError) Error() string {
	return fmt.Sprintf("query parameter %s: %v", e.param, e.err)
}

func (e *queryError) Unwrap() error { return e.err }

var errEmpty = errors.New("empty value")

// parseCoordinates parses the lon,lat;lon,lat path segment.
func parseCoordinates(s string) ([]engine.Coordinate, error) {
	if s == "" {
		return nil, errEmpty
	}
	parts := strings.Split(s, ";")
	coords := make([]engine.Coordinate, len(parts))
	for i, part := range parts {
		lonStr, latStr, ok := strings.Cut(part, ",")
		if !ok {
			return nil, fmt.Errorf("coordinate %d: expected lon,lat", i)
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i, err)
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i, err)
		}
		coords[i] = engine.NewCoordinate(lon, lat)
	}
	return coords, nil
}

func parseBool(v string) (bool, error) {
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("%q is not true or false", v)
}

var annotationNames = map[string]engine.AnnotationsType{
	"duration": engine.AnnotationsDuration,
	"nodes":    engine.AnnotationsNodes,
	"distance": engine.AnnotationsDistance,
	"weight":   engine.AnnotationsWeight,
	"speed":    engine.AnnotationsSpeed,
}

func parseAnnotations(v string) (engine.AnnotationsType, error) {
	switch v {
	case "true":
		return engine.AnnotationsAll, nil
	case "false":
		return engine.AnnotationsNone, nil
	}
	var a engine.AnnotationsType
	for _, name := range strings.Split(v, ",") {
		bit, ok := annotationNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown annotation %q", name)
		}
		a |= bit
	}
	return a, nil
}

func parseGeometries(v string) (engine.GeometriesType, error) {
	switch v {
	case "polyline":
		return engine.GeometriesPolyline, nil
	case "polyline6":
		return engine.GeometriesPolyline6, nil
	case "geojson":
		return engine.GeometriesGeoJSON, nil
	}
	return 0, fmt.Errorf("unknown geometries %q", v)
}

func parseOverview(v string) (engine.OverviewType, error) {
	switch v {
	case "simplified":
		return engine.OverviewSimplified, nil
	case "full":
		return engine.OverviewFull, nil
	case "false":
		return engine.OverviewFalse, nil
	}
	return 0, fmt.Errorf("unknown overview %q", v)
}

// parseRadiuses parses a ;-separated list. Empty entries use the engine
// default; "unlimited" removes the limit.
func parseRadiuses(v string) ([]float64, error) {
	parts := strings.Split(v, ";")
	out := make([]float64, len(parts))
	for i, part := range parts {
		switch part {
		case "":
		case "unlimited":
			out[i] = math.Inf(1)
		default:
			r, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("radius %d: %w", i, err)
			}
			out[i] = r
		}
	}
	return out, nil
}

// parseIndices parses "all" or a ;-separated list of coordinate indices.
func parseIndices(v string) ([]int, error) {
	if v == "all" {
		return nil, nil
	}
	parts := strings.Split(v, ";")
	out := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

func parseTableAnnotations(v string) (engine.TableAnnotations, error) {
	var a engine.TableAnnotations
	for _, name := range strings.Split(v, ",") {
		switch name {
		case "duration":
			a |= engine.TableDuration
		case "distance":
			a |= engine.TableDistance
		default:
			return 0, fmt.Errorf("unknown annotation %q", name)
		}
	}
	return a, nil
}

// parseQuery splits a raw query on '&' only. url.ParseQuery treats ';' as
// an invalid separator, but list values such as radiuses use it.
func parseQuery(raw string) (url.Values, error) {
	q := url.Values{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, &queryError{param: k, err: err}
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			return nil, &queryError{param: key, err: err}
		}
		q.Add(key, val)
	}
	return q, nil
}

// queryParser applies query parameters, remembering the first failure.
type queryParser struct {
	q   url.Values
	err error
}

func (p *queryParser) each(name string, fn func(string) error) {
	if p.err != nil || !p.q.Has(name) {
		return
	}
	if err := fn(p.q.Get(name)); err != nil {
		p.err = &queryError{param: name, err: err}
	}
}

func (p *queryParser) bool(name string, dst *bool) {
	p.each(name, func(v string) (err error) {
		*dst, err = parseBool(v)
		return err
	})
}

func (p *queryParser) hints(dst *[]string) {
	p.each("hints", func(v string) error {
		*dst = strings.Split(v, ";")
		return nil
	})
}

func (p *queryParser) radiuses(dst *[]float64) {
	p.each("radiuses", func(v string) (err error) {
		*dst, err = parseRadiuses(v)
		return err
	})
}

// routeParameters builds route parameters from a request URL.
func routeParameters(coords []engine.Coordinate, q url.Values) (*engine.RouteParameters, error) {
	params := engine.DefaultRouteParameters()
	params.Coordinates = coords

	p := &queryParser{q: q}
	p.bool("steps", &params.Steps)
	p.bool("alternatives", &params.Alternatives)
	p.bool("generate_hints", &params.GenerateHints)
	p.each("annotations", func(v string) (err error) {
		params.Annotations, err = parseAnnotations(v)
		return err
	})
	p.each("geometries", func(v string) (err error) {
		params.Geometries, err = parseGeometries(v)
		return err
	})
	p.each("overview", func(v string) (err error) {
		params.Overview, err = parseOverview(v)
		return err
	})
	p.radiuses(&params.Radiuses)
	p.hints(&params.Hints)
	return params, p.err
}

func nearestParameters(coords []engine.Coordinate, q url.Values) (*engine.NearestParameters, error) {
	if len(coords) != 1 {
		return nil, &queryError{param: "coordinates", err: fmt.Errorf("nearest takes one coordinate, got %d", len(coords))}
	}
	params := engine.NewNearestParameters(coords[0], 1)

	p := &queryParser{q: q}
	p.each("number", func(v string) (err error) {
		params.Number, err = strconv.Atoi(v)
		return err
	})
	p.bool("generate_hints", &params.GenerateHints)
	var radiuses []float64
	p.radiuses(&radiuses)
	if len(radiuses) > 0 {
		params.Radius = radiuses[0]
	}
	return params, p.err
}

func tableParameters(coords []engine.Coordinate, q url.Values) (*engine.TableParameters, error) {
	params := engine.NewTableParameters(coords...)

	p := &queryParser{q: q}
	p.each("sources", func(v string) (err error) {
		params.Sources, err = parseIndices(v)
		return err
	})
	p.each("destinations", func(v string) (err error) {
		params.Destinations, err = parseIndices(v)
		return err
	})
	p.each("annotations", func(v string) (err error) {
		params.Annotations, err = parseTableAnnotations(v)
		return err
	})
	p.bool("generate_hints", &params.GenerateHints)
	p.radiuses(&params.Radiuses)
	return params, p.err
}
