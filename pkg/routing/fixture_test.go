package routing

import (
	"math"
	"testing"

	"github.com/paulmach/osm"

	"github.com/azybler/route_engine/pkg/ch"
	"github.com/azybler/route_engine/pkg/geo"
	"github.com/azybler/route_engine/pkg/graph"
	osmparser "github.com/azybler/route_engine/pkg/osm"
)

// testNetwork is a 3×4 grid at 0.001° spacing plus a two-node island:
//
//	(2,0) === (2,1) === (2,2) === (2,3)
//	  ‖         ‖         ‖         ‖
//	(1,0) --> (1,1) --> (1,2) --> (1,3)     row 1 is one-way eastbound
//	  ‖         ‖         ‖         ‖
//	(0,0) === (0,1) === (0,2) === (0,3)
//
// Weights are distances in millimeters.
type testNetwork struct {
	g     *graph.Graph
	chg   *graph.CHGraph
	index map[int64]uint32 // OSM node ID → node index
}

func gridID(r, c int) osm.NodeID { return osm.NodeID(100 + r*10 + c) }

const (
	islandA osm.NodeID = 900
	islandB osm.NodeID = 901
)

func buildNetwork(t testing.TB) *testNetwork {
	t.Helper()
	lat := map[osm.NodeID]float64{islandA: 1.400, islandB: 1.400}
	lon := map[osm.NodeID]float64{islandA: 103.800, islandB: 103.801}
	for r := range 3 {
		for c := range 4 {
			lat[gridID(r, c)] = 1.300 + float64(r)*0.001
			lon[gridID(r, c)] = 103.800 + float64(c)*0.001
		}
	}

	var edges []osmparser.RawEdge
	add := func(a, b osm.NodeID, twoWay bool) {
		mm := uint32(math.Round(geo.Haversine(lat[a], lon[a], lat[b], lon[b]) * 1000))
		edges = append(edges, osmparser.RawEdge{FromNodeID: a, ToNodeID: b, Distance: mm, Duration: mm / 10, Name: "Grid Road"})
		if twoWay {
			edges = append(edges, osmparser.RawEdge{FromNodeID: b, ToNodeID: a, Distance: mm, Duration: mm / 10, Name: "Grid Road"})
		}
	}
	for r := range 3 {
		for c := range 4 {
			if c+1 < 4 {
				add(gridID(r, c), gridID(r, c+1), r != 1)
			}
			if r+1 < 3 {
				add(gridID(r, c), gridID(r+1, c), true)
			}
		}
	}
	add(islandA, islandB, true)

	g := graph.Build(&osmparser.ParseResult{Edges: edges, NodeLat: lat, NodeLon: lon})
	n := &testNetwork{g: g, chg: ch.Contract(g), index: map[int64]uint32{}}
	for i, id := range g.NodeID {
		n.index[id] = uint32(i)
	}
	return n
}

func (n *testNetwork) node(id osm.NodeID) uint32 { return n.index[int64(id)] }

// nodeDistances runs a plain Dijkstra from source over the base graph.
func nodeDistances(g *graph.Graph, source uint32) []uint32 {
	dist := make([]uint32, g.NumNodes)
	for i := range dist {
		dist[i] = math.MaxUint32
	}
	dist[source] = 0
	var pq MinHeap
	pq.Push(source, 0)
	for pq.Len() > 0 {
		cur := pq.Pop()
		if cur.Dist > dist[cur.Node] {
			continue
		}
		start, end := g.EdgesFrom(cur.Node)
		for e := start; e < end; e++ {
			v := g.Head[e]
			if nd := cur.Dist + g.Weight[e]; nd < dist[v] {
				dist[v] = nd
				pq.Push(v, nd)
			}
		}
	}
	return dist
}

// bruteForceWeight is the reference shortest path weight between two
// snapped points.
func bruteForceWeight(g *graph.Graph, from, to SnapResult) uint32 {
	best := uint32(math.MaxUint32)
	if w, ok := directWeight(g, from, to); ok {
		best = w
	}
	for _, sp := range sourcePhantoms(g, from) {
		dist := nodeDistances(g, sp.node)
		for _, tp := range targetPhantoms(g, to) {
			if dist[tp.node] == math.MaxUint32 {
				continue
			}
			best = min(best, sp.cost+dist[tp.node]+tp.cost)
		}
	}
	return best
}
