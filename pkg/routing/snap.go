package routing

import (
	"errors"
	"math"
	"sort"

	"github.com/tidwall/rtree"

	"github.com/azybler/route_engine/pkg/geo"
	"github.com/azybler/route_engine/pkg/graph"
)

// DefaultSnapRadius is the snap radius in meters used when none is given.
const DefaultSnapRadius = 500.0

const (
	metersPerDegree = 111_320.0
	maxSearchRadius = 1_000_000.0 // meters, caps unlimited-radius searches
	distEpsilon     = 1e-6        // meters; closer candidates tie
)

// ErrPointTooFar is returned when the query point is too far from any road.
var ErrPointTooFar = errors.New("point too far from road")

// SnapResult represents a point snapped to a road segment.
type SnapResult struct {
	EdgeIdx  uint32     // index into base edge arrays, edge NodeU→NodeV
	NodeU    uint32     // source node of the edge
	NodeV    uint32     // target node of the edge
	Ratio    float64    // 0.0 = at NodeU, 1.0 = at NodeV
	Dist     float64    // meters from the query point to Location
	Location geo.LatLng // projected point on the segment
}

// Snapper provides nearest-road snapping over an R-tree of road segments.
// A road traversable both ways is indexed once, through the direction whose
// source has the lower node index.
type Snapper struct {
	tree rtree.RTreeG[uint32]
	g    *graph.Graph
	size int
}

// NewSnapper indexes every road segment of g.
func NewSnapper(g *graph.Graph) *Snapper {
	s := &Snapper{g: g}
	for u := range g.NumNodes {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			if u == v {
				continue
			}
			if u > v && g.FindEdge(v, u) != graph.NoEdge {
				continue // indexed through v→u
			}
			a, b := g.Coord(u), g.Coord(v)
			s.tree.Insert(
				[2]float64{math.Min(a.Lng, b.Lng), math.Min(a.Lat, b.Lat)},
				[2]float64{math.Max(a.Lng, b.Lng), math.Max(a.Lat, b.Lat)},
				e,
			)
			s.size++
		}
	}
	return s
}

// Len returns the number of indexed segments.
func (s *Snapper) Len() int { return s.size }

// Snap finds the nearest road segment within radius meters of lat/lng.
// A radius <= 0 means DefaultSnapRadius; +Inf searches without a limit.
func (s *Snapper) Snap(lat, lng, radius float64) (SnapResult, error) {
	res := s.Nearest(lat, lng, 1, radius)
	if len(res) == 0 {
		return SnapResult{}, ErrPointTooFar
	}
	return res[0], nil
}

// Nearest returns up to n road segments within radius meters of lat/lng,
// ordered by distance and then edge index.
func (s *Snapper) Nearest(lat, lng float64, n int, radius float64) []SnapResult {
	if n <= 0 || !(geo.LatLng{Lat: lat, Lng: lng}).Valid() {
		return nil
	}
	if radius <= 0 || math.IsNaN(radius) {
		radius = DefaultSnapRadius
	}
	if !math.IsInf(radius, 1) {
		return s.within(lat, lng, n, radius)
	}
	// Unlimited: widen until something is found.
	for r := 1000.0; r <= maxSearchRadius; r *= 4 {
		if res := s.within(lat, lng, n, r); len(res) > 0 {
			return res
		}
	}
	return nil
}

// within collects the n closest segments no farther than radius meters.
func (s *Snapper) within(lat, lng float64, n int, radius float64) []SnapResult {
	p := geo.LatLng{Lat: lat, Lng: lng}
	dLat := radius / metersPerDegree * 1.1
	dLng := dLat / math.Max(math.Cos(lat*math.Pi/180), 0.01)

	var found []SnapResult
	s.tree.Search(
		[2]float64{lng - dLng, lat - dLat},
		[2]float64{lng + dLng, lat + dLat},
		func(_, _ [2]float64, e uint32) bool {
			u, v := s.g.Tail(e), s.g.Head[e]
			a, b := s.g.Coord(u), s.g.Coord(v)
			dist, ratio := geo.ProjectOntoSegment(p, a, b)
			if dist <= radius {
				found = append(found, SnapResult{
					EdgeIdx:  e,
					NodeU:    u,
					NodeV:    v,
					Ratio:    ratio,
					Dist:     dist,
					Location: geo.Interpolate(a, b, ratio),
				})
			}
			return true
		},
	)

	sort.Slice(found, func(i, j int) bool {
		if math.Abs(found[i].Dist-found[j].Dist) > distEpsilon {
			return found[i].Dist < found[j].Dist
		}
		return found[i].EdgeIdx < found[j].EdgeIdx
	})
	if len(found) > n {
		found = found[:n]
	}
	return found
}
