package ch

import (
	"math"
	"testing"

	"github.com/paulmach/osm"

	"github.com/azybler/route_engine/pkg/graph"
	osmparser "github.com/azybler/route_engine/pkg/osm"
)

// buildTestGraph creates a small graph for testing:
//
//	0 ---100--- 1 ---200--- 2
//	|                       |
//	300                    400
//	|                       |
//	3 ---500--- 4 ---600--- 5
//
// All edges are bidirectional.
func buildTestGraph() *graph.Graph {
	var edges []osmparser.RawEdge
	link := func(a, b osm.NodeID, d uint32) {
		edges = append(edges,
			osmparser.RawEdge{FromNodeID: a, ToNodeID: b, Distance: d, Duration: d / 10},
			osmparser.RawEdge{FromNodeID: b, ToNodeID: a, Distance: d, Duration: d / 10},
		)
	}
	link(10, 20, 100)
	link(20, 30, 200)
	link(10, 40, 300)
	link(30, 60, 400)
	link(40, 50, 500)
	link(50, 60, 600)

	return graph.Build(&osmparser.ParseResult{
		Edges:   edges,
		NodeLat: map[osm.NodeID]float64{10: 1.0, 20: 1.0, 30: 1.0, 40: 1.1, 50: 1.1, 60: 1.1},
		NodeLon: map[osm.NodeID]float64{10: 103.0, 20: 103.1, 30: 103.2, 40: 103.0, 50: 103.1, 60: 103.2},
	})
}

// buildGrid creates a size×size grid with uneven weights. Odd rows are
// one-way eastbound.
func buildGrid(size int) *graph.Graph {
	id := func(r, c int) osm.NodeID { return osm.NodeID(r*size + c + 1) }
	lat := map[osm.NodeID]float64{}
	lon := map[osm.NodeID]float64{}
	var edges []osmparser.RawEdge
	for r := range size {
		for c := range size {
			lat[id(r, c)] = 1.30 + float64(r)*0.001
			lon[id(r, c)] = 103.80 + float64(c)*0.001
			w := uint32(100 + ((r*7+c*13)%9)*50)
			if c+1 < size {
				edges = append(edges, osmparser.RawEdge{FromNodeID: id(r, c), ToNodeID: id(r, c+1), Distance: w})
				if r%2 == 0 {
					edges = append(edges, osmparser.RawEdge{FromNodeID: id(r, c+1), ToNodeID: id(r, c), Distance: w + 25})
				}
			}
			if r+1 < size {
				edges = append(edges,
					osmparser.RawEdge{FromNodeID: id(r, c), ToNodeID: id(r+1, c), Distance: w + 10},
					osmparser.RawEdge{FromNodeID: id(r+1, c), ToNodeID: id(r, c), Distance: w + 10},
				)
			}
		}
	}
	return graph.Build(&osmparser.ParseResult{Edges: edges, NodeLat: lat, NodeLon: lon})
}

// plainDijkstra runs standard Dijkstra on the original CSR graph.
func plainDijkstra(g *graph.Graph, source, target uint32) uint32 {
	dist := make([]uint32, g.NumNodes)
	for i := range dist {
		dist[i] = math.MaxUint32
	}
	dist[source] = 0

	type item struct {
		node uint32
		dist uint32
	}
	pq := []item{{source, 0}}

	for len(pq) > 0 {
		minIdx := 0
		for i := 1; i < len(pq); i++ {
			if pq[i].dist < pq[minIdx].dist {
				minIdx = i
			}
		}
		cur := pq[minIdx]
		pq[minIdx] = pq[len(pq)-1]
		pq = pq[:len(pq)-1]

		if cur.dist > dist[cur.node] {
			continue
		}
		if cur.node == target {
			return cur.dist
		}

		start, end := g.EdgesFrom(cur.node)
		for e := start; e < end; e++ {
			v := g.Head[e]
			if nd := cur.dist + g.Weight[e]; nd < dist[v] {
				dist[v] = nd
				pq = append(pq, item{v, nd})
			}
		}
	}
	return dist[target]
}

// chDijkstra runs bidirectional upward Dijkstra on the overlay.
func chDijkstra(chg *graph.CHGraph, source, target uint32) uint32 {
	type side struct {
		dist     []uint32
		firstOut []uint32
		head     []uint32
		weight   []uint32
		pq       []uint32 // nodes; dist looked up on pop
	}
	newSide := func(firstOut, head, weight []uint32, start uint32) *side {
		s := &side{dist: make([]uint32, chg.NumNodes), firstOut: firstOut, head: head, weight: weight}
		for i := range s.dist {
			s.dist[i] = math.MaxUint32
		}
		s.dist[start] = 0
		s.pq = []uint32{start}
		return s
	}
	fwd := newSide(chg.FwdFirstOut, chg.FwdHead, chg.FwdWeight, source)
	bwd := newSide(chg.BwdFirstOut, chg.BwdHead, chg.BwdWeight, target)

	peek := func(s *side) (int, uint32) {
		best, bestDist := -1, uint32(math.MaxUint32)
		for i, n := range s.pq {
			if s.dist[n] < bestDist {
				best, bestDist = i, s.dist[n]
			}
		}
		return best, bestDist
	}

	mu := uint32(math.MaxUint32)
	step := func(s, other *side) {
		idx, d := peek(s)
		if idx < 0 || d >= mu {
			s.pq = nil
			return
		}
		u := s.pq[idx]
		s.pq = append(s.pq[:idx], s.pq[idx+1:]...)
		if other.dist[u] != math.MaxUint32 {
			mu = min(mu, d+other.dist[u])
		}
		for e := s.firstOut[u]; e < s.firstOut[u+1]; e++ {
			v := s.head[e]
			if nd := d + s.weight[e]; nd < s.dist[v] {
				s.dist[v] = nd
				s.pq = append(s.pq, v)
			}
		}
	}

	for len(fwd.pq) > 0 || len(bwd.pq) > 0 {
		step(fwd, bwd)
		step(bwd, fwd)
	}
	return mu
}

func assertAllPairs(t *testing.T, g *graph.Graph, chg *graph.CHGraph) {
	t.Helper()
	for s := range g.NumNodes {
		for d := range g.NumNodes {
			want := plainDijkstra(g, s, d)
			if got := chDijkstra(chg, s, d); got != want {
				t.Errorf("s=%d d=%d: CH=%d, Dijkstra=%d", s, d, got, want)
			}
		}
	}
}

func TestContractSmallGraph(t *testing.T) {
	g := buildTestGraph()
	chg := Contract(g)

	if chg.NumNodes != 6 {
		t.Fatalf("CH has %d nodes, want 6", chg.NumNodes)
	}

	rankSeen := make(map[uint32]bool)
	for _, r := range chg.Rank {
		if r >= chg.NumNodes {
			t.Errorf("rank %d >= NumNodes %d", r, chg.NumNodes)
		}
		rankSeen[r] = true
	}
	if len(rankSeen) != int(chg.NumNodes) {
		t.Errorf("ranks are not a permutation: saw %d unique values, want %d", len(rankSeen), chg.NumNodes)
	}

	// Without a core every overlay edge points upward.
	for u := range chg.NumNodes {
		for e := chg.FwdFirstOut[u]; e < chg.FwdFirstOut[u+1]; e++ {
			if chg.Rank[chg.FwdHead[e]] <= chg.Rank[u] {
				t.Errorf("forward edge %d→%d is not upward", u, chg.FwdHead[e])
			}
		}
		for e := chg.BwdFirstOut[u]; e < chg.BwdFirstOut[u+1]; e++ {
			if chg.Rank[chg.BwdHead[e]] <= chg.Rank[u] {
				t.Errorf("backward edge %d→%d is not upward", u, chg.BwdHead[e])
			}
		}
	}
}

func TestCHCorrectnessAllPairs(t *testing.T) {
	tests := []struct {
		name string
		g    *graph.Graph
		opts Options
	}{
		{"small", buildTestGraph(), Options{}},
		{"small core", buildTestGraph(), Options{MaxShortcutsPerNode: -1}},
		{"grid", buildGrid(6), Options{}},
		{"grid core", buildGrid(6), Options{MaxShortcutsPerNode: -1}},
		{"grid tight core", buildGrid(6), Options{MaxShortcutsPerNode: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertAllPairs(t, tt.g, Contract(tt.g, tt.opts))
		})
	}
}

func TestContractCarriesBaseGraph(t *testing.T) {
	g := buildTestGraph()
	chg := Contract(g)

	base := chg.BaseGraph()
	if base.NumEdges != g.NumEdges {
		t.Fatalf("base NumEdges = %d, want %d", base.NumEdges, g.NumEdges)
	}
	for e := range g.NumEdges {
		if base.Distance[e] != g.Distance[e] || base.Duration[e] != g.Duration[e] {
			t.Errorf("edge %d attributes differ", e)
		}
	}
	if chg.Metric != g.Metric {
		t.Errorf("Metric = %v, want %v", chg.Metric, g.Metric)
	}
	if chg.NodeID[0] != 10 {
		t.Errorf("NodeID[0] = %d, want 10", chg.NodeID[0])
	}
}

func TestContractEmptyGraph(t *testing.T) {
	g := graph.Build(&osmparser.ParseResult{
		NodeLat: map[osm.NodeID]float64{1: 1.0},
		NodeLon: map[osm.NodeID]float64{1: 103.0},
	})
	chg := Contract(g)
	if chg.NumNodes != 0 {
		t.Fatalf("NumNodes = %d, want 0", chg.NumNodes)
	}
	if len(chg.FwdFirstOut) != 1 || len(chg.BwdFirstOut) != 1 || len(chg.OrigFirstOut) != 1 {
		t.Errorf("empty overlay should keep a single FirstOut sentinel")
	}
}

func TestContractLinearGraph(t *testing.T) {
	// One-way chain 1 -> 2 -> 3 -> 4 -> 5.
	result := &osmparser.ParseResult{
		Edges: []osmparser.RawEdge{
			{FromNodeID: 1, ToNodeID: 2, Distance: 100},
			{FromNodeID: 2, ToNodeID: 3, Distance: 200},
			{FromNodeID: 3, ToNodeID: 4, Distance: 300},
			{FromNodeID: 4, ToNodeID: 5, Distance: 400},
		},
		NodeLat: map[osm.NodeID]float64{1: 1.0, 2: 1.1, 3: 1.2, 4: 1.3, 5: 1.4},
		NodeLon: map[osm.NodeID]float64{1: 103.0, 2: 103.1, 3: 103.2, 4: 103.3, 5: 103.4},
	}
	g := graph.Build(result)
	chg := Contract(g)

	if got := chDijkstra(chg, 0, 4); got != 1000 {
		t.Errorf("0→4 = %d, want 1000", got)
	}
	if got := chDijkstra(chg, 4, 0); got != math.MaxUint32 {
		t.Errorf("4→0 = %d, want unreachable", got)
	}
}

func BenchmarkContractGrid(b *testing.B) {
	g := buildGrid(20)
	for b.Loop() {
		Contract(g)
	}
}
