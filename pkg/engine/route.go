package engine

import (
	"context"

	"github.com/azybler/route_engine/pkg/geo"
	"github.com/azybler/route_engine/pkg/graph"
	"github.com/azybler/route_engine/pkg/routing"
	"github.com/azybler/route_engine/pkg/value"
)

// Route computes the route visiting p.Coordinates in order.
//
// On success the result is {code, routes, waypoints}; on failure it is
// {code, message} and the status is StatusError.
func (e *Engine) Route(ctx context.Context, p *RouteParameters) (status Status, result value.Value) {
	defer recoverResult(&status, &result)
	res, rerr := e.route(ctx, p)
	if rerr != nil {
		return rerr.result()
	}
	return StatusOk, res
}

func (e *Engine) route(ctx context.Context, p *RouteParameters) (*value.Object, *requestError) {
	if p == nil {
		return nil, newRequestError(CodeInvalidOptions, "Missing route parameters")
	}
	if rerr := checkStruct(p); rerr != nil {
		return nil, rerr
	}
	if len(p.Radiuses) > 0 && len(p.Radiuses) != len(p.Coordinates) {
		return nil, newRequestError(CodeInvalidOptions, "Number of radiuses does not match number of coordinates")
	}
	if len(p.Hints) > 0 && len(p.Hints) != len(p.Coordinates) {
		return nil, newRequestError(CodeInvalidOptions, "Number of hints does not match number of coordinates")
	}
	if limit := e.cfg.MaxLocationsRoute; limit > 0 && len(p.Coordinates) > limit {
		return nil, newRequestError(CodeTooBig, "Number of entries %d is higher than current maximum (%d)", len(p.Coordinates), limit)
	}
	if rerr := ctxError(ctx.Err()); rerr != nil {
		return nil, rerr
	}

	snaps, rerr := e.snapAll(p.Coordinates, p.Radiuses, p.Hints)
	if rerr != nil {
		return nil, rerr
	}

	legs := make([]*routing.Leg, len(snaps)-1)
	for i := range legs {
		path, err := e.router.ShortestPath(ctx, snaps[i], snaps[i+1])
		if err != nil {
			return nil, routeError(err)
		}
		legs[i] = path.Leg(e.base)
	}

	root := value.NewObject().
		Set("code", value.String(CodeOk)).
		Set("routes", value.NewArray(e.routeObject(p, legs, snaps))).
		Set("waypoints", e.waypoints(snaps, p.GenerateHints))
	return root, nil
}

// snapAll snaps every coordinate, honouring per-coordinate radiuses and
// hints.
func (e *Engine) snapAll(coords []Coordinate, radiuses []float64, hints []string) ([]routing.SnapResult, *requestError) {
	snaps := make([]routing.SnapResult, len(coords))
	for i, c := range coords {
		if i < len(hints) && hints[i] != "" {
			pinned, err := decodeHint(hints[i])
			if err != nil {
				return nil, newRequestError(CodeInvalidValue, "Hint %d is malformed: %v", i, err)
			}
			if snap, err := e.snapper.Snap(pinned.Lat, pinned.Lng, hintRadius); err == nil {
				snap.Dist = geo.Distance(geo.LatLng{Lat: c.Lat, Lng: c.Lon}, snap.Location)
				snaps[i] = snap
				continue
			}
		}

		radius := e.cfg.DefaultRadius
		if i < len(radiuses) && radiuses[i] > 0 {
			radius = radiuses[i]
		}
		snap, err := e.snapper.Snap(c.Lat, c.Lon, radius)
		if err != nil {
			return nil, newRequestError(CodeNoSegment, "Could not find a matching segment for coordinate %d", i)
		}
		snaps[i] = snap
	}
	return snaps, nil
}

func (e *Engine) routeObject(p *RouteParameters, legs []*routing.Leg, snaps []routing.SnapResult) *value.Object {
	var (
		pts                        []geo.LatLng
		distance, duration, weight float64
	)
	legArr := value.NewArray()
	for i, leg := range legs {
		for j, pt := range leg.Geometry {
			if j == 0 && len(pts) > 0 && pts[len(pts)-1] == pt {
				continue
			}
			pts = append(pts, pt)
		}
		distance += leg.DistanceMeters
		duration += leg.DurationSeconds
		weight += leg.Weight
		legArr.Append(e.legObject(p, leg, snaps[i], snaps[i+1]))
	}

	route := value.NewObject()
	switch p.Overview {
	case OverviewFull:
		route.Set("geometry", encodeGeometry(pts, p.Geometries))
	case OverviewSimplified:
		route.Set("geometry", encodeGeometry(simplifyLine(pts), p.Geometries))
	}
	return route.
		Set("legs", legArr).
		Set("weight_name", value.String(e.base.Metric.String())).
		Set("weight", value.Number(round1(weight))).
		Set("duration", value.Number(round1(duration))).
		Set("distance", value.Number(round1(distance)))
}

func (e *Engine) legObject(p *RouteParameters, leg *routing.Leg, src, dst routing.SnapResult) *value.Object {
	steps := value.NewArray()
	summary := ""
	if p.Steps {
		steps = buildSteps(e.base, leg, src, dst, p.Geometries)
		summary = legSummary(e.base, leg)
	}
	obj := value.NewObject().
		Set("steps", steps).
		Set("summary", value.String(summary)).
		Set("weight", value.Number(round1(leg.Weight))).
		Set("duration", value.Number(round1(leg.DurationSeconds))).
		Set("distance", value.Number(round1(leg.DistanceMeters)))
	if p.Annotations != AnnotationsNone {
		obj.Set("annotation", annotation(e.base, leg, p.Annotations))
	}
	return obj
}

// annotation returns the per-segment arrays selected by kinds.
func annotation(g *graph.Graph, leg *routing.Leg, kinds AnnotationsType) *value.Object {
	segs := leg.Segments
	perSegment := func(f func(routing.Segment) float64) *value.Array {
		arr := value.NewArray()
		for _, s := range segs {
			arr.Append(value.Number(round1(f(s))))
		}
		return arr
	}

	obj := value.NewObject()
	if kinds.Has(AnnotationsDuration) {
		obj.Set("duration", perSegment(func(s routing.Segment) float64 { return s.DurationSeconds }))
	}
	if kinds.Has(AnnotationsNodes) {
		nodes := value.NewArray()
		if len(segs) > 0 {
			nodes.Append(osmNode(g, segs[0].FromNode))
			for _, s := range segs {
				nodes.Append(osmNode(g, s.ToNode))
			}
		}
		obj.Set("nodes", nodes)
	}
	if kinds.Has(AnnotationsDistance) {
		obj.Set("distance", perSegment(func(s routing.Segment) float64 { return s.DistanceMeters }))
	}
	if kinds.Has(AnnotationsWeight) {
		obj.Set("weight", perSegment(func(s routing.Segment) float64 { return s.Weight }))
	}
	if kinds.Has(AnnotationsSpeed) {
		obj.Set("speed", perSegment(func(s routing.Segment) float64 {
			if s.DurationSeconds <= 0 {
				return 0
			}
			return s.DistanceMeters / s.DurationSeconds
		}))
	}
	return obj
}

func (e *Engine) waypoints(snaps []routing.SnapResult, hints bool) *value.Array {
	arr := value.NewArray()
	for _, s := range snaps {
		arr.Append(e.waypoint(s, hints))
	}
	return arr
}

// waypoint renders a snapped input as {hint?, distance, name, location}.
func (e *Engine) waypoint(s routing.SnapResult, hint bool) *value.Object {
	wp := value.NewObject()
	if hint {
		wp.Set("hint", value.String(encodeHint(s.Location)))
	}
	return wp.
		Set("distance", value.Number(round1(s.Dist))).
		Set("name", value.String(e.base.EdgeName(s.EdgeIdx))).
		Set("location", location(s.Location))
}

// osmNode returns the OSM id of node u, or 0 when the dataset has none.
func osmNode(g *graph.Graph, u uint32) value.Number {
	if int(u) >= len(g.NodeID) {
		return 0
	}
	return value.Number(float64(g.NodeID[u]))
}
