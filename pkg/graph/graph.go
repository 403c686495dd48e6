package graph

import (
	"fmt"
	"sort"

	"github.com/azybler/route_engine/pkg/geo"
)

// Metric selects what edge weights measure.
type Metric uint32

const (
	// MetricDistance weights edges by length in millimeters.
	MetricDistance Metric = iota
	// MetricDuration weights edges by travel time in milliseconds.
	MetricDuration
)

// String returns the weight name reported in route responses.
func (m Metric) String() string {
	switch m {
	case MetricDistance:
		return "distance"
	case MetricDuration:
		return "duration"
	default:
		return fmt.Sprintf("metric(%d)", uint32(m))
	}
}

// ParseMetric parses "distance" or "duration".
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "distance":
		return MetricDistance, nil
	case "duration":
		return MetricDuration, nil
	}
	return 0, fmt.Errorf("unknown metric %q", s)
}

// CHGraph holds the output of contraction hierarchies preprocessing.
type CHGraph struct {
	NumNodes uint32
	Metric   Metric
	NodeLat  []float64
	NodeLon  []float64
	NodeID   []int64 // OSM node ID per node
	Rank     []uint32

	// Forward upward graph (edges where rank[source] < rank[target]).
	FwdFirstOut []uint32
	FwdHead     []uint32
	FwdWeight   []uint32
	FwdMiddle   []int32

	// Backward upward graph (reversed edges where rank[source] < rank[target]).
	BwdFirstOut []uint32
	BwdHead     []uint32
	BwdWeight   []uint32
	BwdMiddle   []int32

	// Base graph edges, used for snapping, unpacking and leg assembly.
	OrigFirstOut []uint32
	OrigHead     []uint32
	OrigWeight   []uint32
	OrigDistance []uint32
	OrigDuration []uint32
	OrigNameID   []uint32
	Names        []string

	// Original edge geometry (carried through from the base graph).
	GeoFirstOut []uint32
	GeoShapeLat []float64
	GeoShapeLon []float64
}

// BaseGraph returns a Graph view over the base edges carried by the CH graph.
// The returned graph shares its slices with chg.
func (chg *CHGraph) BaseGraph() *Graph {
	return &Graph{
		NumNodes:    chg.NumNodes,
		NumEdges:    uint32(len(chg.OrigHead)),
		FirstOut:    chg.OrigFirstOut,
		Head:        chg.OrigHead,
		Weight:      chg.OrigWeight,
		Distance:    chg.OrigDistance,
		Duration:    chg.OrigDuration,
		NameID:      chg.OrigNameID,
		NodeLat:     chg.NodeLat,
		NodeLon:     chg.NodeLon,
		NodeID:      chg.NodeID,
		Names:       chg.Names,
		Metric:      chg.Metric,
		GeoFirstOut: chg.GeoFirstOut,
		GeoShapeLat: chg.GeoShapeLat,
		GeoShapeLon: chg.GeoShapeLon,
	}
}

// Graph represents a directed graph in CSR (Compressed Sparse Row) format.
type Graph struct {
	NumNodes uint32
	NumEdges uint32
	FirstOut []uint32  // len: NumNodes + 1; FirstOut[i]..FirstOut[i+1] are edges from node i
	Head     []uint32  // len: NumEdges; target node for each edge
	Weight   []uint32  // len: NumEdges; routing weight in Metric units
	Distance []uint32  // len: NumEdges; millimeters
	Duration []uint32  // len: NumEdges; milliseconds
	NameID   []uint32  // len: NumEdges; index into Names
	NodeLat  []float64 // len: NumNodes
	NodeLon  []float64 // len: NumNodes
	NodeID   []int64   // len: NumNodes; OSM node ID
	Names    []string  // Names[0] is the empty name
	Metric   Metric

	// Edge geometry: intermediate shape nodes for rendering.
	// GeoFirstOut[i]..GeoFirstOut[i+1] indexes into GeoShapeLat/Lon for edge i.
	GeoFirstOut []uint32  // len: NumEdges + 1
	GeoShapeLat []float64 // flattened intermediate lat coords
	GeoShapeLon []float64 // flattened intermediate lon coords
}

// NoEdge is returned by FindEdge when no edge connects the two nodes.
const NoEdge = ^uint32(0)

// EdgesFrom returns the range of edge indices for edges originating from node u.
func (g *Graph) EdgesFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// FindEdge returns the lowest-weight edge u→v, or NoEdge.
func (g *Graph) FindEdge(u, v uint32) uint32 {
	best := NoEdge
	start, end := g.EdgesFrom(u)
	for e := start; e < end; e++ {
		if g.Head[e] != v {
			continue
		}
		if best == NoEdge || g.Weight[e] < g.Weight[best] {
			best = e
		}
	}
	return best
}

// Tail returns the source node of edge e.
func (g *Graph) Tail(e uint32) uint32 {
	return uint32(sort.Search(int(g.NumNodes), func(i int) bool { return g.FirstOut[i+1] > e }))
}

// Coord returns the position of node u.
func (g *Graph) Coord(u uint32) geo.LatLng {
	return geo.LatLng{Lat: g.NodeLat[u], Lng: g.NodeLon[u]}
}

// EdgeName returns the street name of edge e.
func (g *Graph) EdgeName(e uint32) string {
	if int(e) >= len(g.NameID) {
		return ""
	}
	id := g.NameID[e]
	if int(id) >= len(g.Names) {
		return ""
	}
	return g.Names[id]
}

// Shape returns the intermediate shape points of edge e, in edge direction.
func (g *Graph) Shape(e uint32) []geo.LatLng {
	if g.GeoFirstOut == nil || e+1 >= uint32(len(g.GeoFirstOut)) {
		return nil
	}
	start, end := g.GeoFirstOut[e], g.GeoFirstOut[e+1]
	if end <= start {
		return nil
	}
	pts := make([]geo.LatLng, 0, end-start)
	for k := start; k < end; k++ {
		pts = append(pts, geo.LatLng{Lat: g.GeoShapeLat[k], Lng: g.GeoShapeLon[k]})
	}
	return pts
}
