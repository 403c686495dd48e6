package routing

import (
	"github.com/azybler/route_engine/pkg/geo"
	"github.com/azybler/route_engine/pkg/graph"
)

// Segment is the traversed part of one base edge.
type Segment struct {
	Edge     uint32
	FromNode uint32 // tail of Edge
	ToNode   uint32 // head of Edge
	Fraction float64

	DistanceMeters  float64
	DurationSeconds float64
	Weight          float64 // metric units / 1000 (meters or seconds)
	NameID          uint32
	Geometry        []geo.LatLng
}

// Leg is a path expanded into segments between two waypoints.
type Leg struct {
	Segments        []Segment
	Geometry        []geo.LatLng
	DistanceMeters  float64
	DurationSeconds float64
	Weight          float64
}

// Leg expands p over g, the graph p was computed on. Partial edges at both
// ends are clipped to the snapped positions; zero-length pieces are dropped.
func (p *Path) Leg(g *graph.Graph) *Leg {
	leg := &Leg{}
	add := func(e uint32, t0, t1 float64) {
		if seg, ok := partialSegment(g, e, t0, t1); ok {
			leg.Segments = append(leg.Segments, seg)
		}
	}

	src, dst := p.Source, p.Target
	switch {
	case p.Direct && dst.Ratio >= src.Ratio:
		add(src.EdgeIdx, src.Ratio, dst.Ratio)
	case p.Direct:
		add(g.FindEdge(src.NodeV, src.NodeU), 1-src.Ratio, 1-dst.Ratio)
	case len(p.Nodes) > 0:
		first, last := p.Nodes[0], p.Nodes[len(p.Nodes)-1]
		if first == src.NodeV {
			add(src.EdgeIdx, src.Ratio, 1)
		} else {
			add(g.FindEdge(src.NodeV, src.NodeU), 1-src.Ratio, 1)
		}
		for i := 0; i+1 < len(p.Nodes); i++ {
			add(g.FindEdge(p.Nodes[i], p.Nodes[i+1]), 0, 1)
		}
		if last == dst.NodeU {
			add(dst.EdgeIdx, 0, dst.Ratio)
		} else {
			add(g.FindEdge(dst.NodeV, dst.NodeU), 0, 1-dst.Ratio)
		}
	}

	for _, seg := range leg.Segments {
		leg.DistanceMeters += seg.DistanceMeters
		leg.DurationSeconds += seg.DurationSeconds
		leg.Weight += seg.Weight
		for i, pt := range seg.Geometry {
			if i == 0 && len(leg.Geometry) > 0 && leg.Geometry[len(leg.Geometry)-1] == pt {
				continue
			}
			leg.Geometry = append(leg.Geometry, pt)
		}
	}
	if len(leg.Geometry) < 2 {
		leg.Geometry = []geo.LatLng{src.Location, dst.Location}
	}
	return leg
}

// partialSegment returns the part of edge e between positions t0 <= t1
// (0 = tail, 1 = head).
func partialSegment(g *graph.Graph, e uint32, t0, t1 float64) (Segment, bool) {
	if e == graph.NoEdge {
		return Segment{}, false
	}
	t0, t1 = clamp01(t0), clamp01(t1)
	frac := t1 - t0
	if frac <= 0 {
		return Segment{}, false
	}

	tail, head := g.Tail(e), g.Head[e]

	pts := make([]geo.LatLng, 0, 2)
	pts = append(pts, g.Coord(tail))
	pts = append(pts, g.Shape(e)...)
	pts = append(pts, g.Coord(head))

	return Segment{
		Edge:            e,
		FromNode:        tail,
		ToNode:          head,
		Fraction:        frac,
		DistanceMeters:  float64(g.Distance[e]) * frac / 1000,
		DurationSeconds: float64(g.Duration[e]) * frac / 1000,
		Weight:          float64(g.Weight[e]) * frac / 1000,
		NameID:          g.NameID[e],
		Geometry:        cutPolyline(pts, t0, t1),
	}, true
}

// cutPolyline returns the part of pts between length fractions t0 and t1.
func cutPolyline(pts []geo.LatLng, t0, t1 float64) []geo.LatLng {
	cum := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		cum[i] = cum[i-1] + geo.Distance(pts[i-1], pts[i])
	}
	total := cum[len(cum)-1]
	if total == 0 {
		return []geo.LatLng{pts[0], pts[len(pts)-1]}
	}

	at := func(t float64) (geo.LatLng, int) {
		target := t * total
		for i := 1; i < len(pts); i++ {
			if cum[i] >= target {
				span := cum[i] - cum[i-1]
				if span == 0 {
					return pts[i], i
				}
				return geo.Interpolate(pts[i-1], pts[i], (target-cum[i-1])/span), i
			}
		}
		return pts[len(pts)-1], len(pts) - 1
	}

	startPt, i0 := at(t0)
	endPt, i1 := at(t1)
	out := []geo.LatLng{startPt}
	for i := i0; i < i1; i++ {
		if pts[i] != out[len(out)-1] {
			out = append(out, pts[i])
		}
	}
	out = append(out, endPt)
	return out
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
