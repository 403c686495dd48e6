package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	// Union by rank.
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// LargestComponent returns the node indices belonging to the largest
// weakly connected component (treating the directed graph as undirected).
func LargestComponent(g *Graph) []uint32 {
	if g.NumNodes == 0 {
		return nil
	}

	uf := NewUnionFind(g.NumNodes)

	// Union all edges (both directions treated as undirected).
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			uf.Union(u, g.Head[e])
		}
	}

	// Find the representative with the largest size.
	bestRoot := uint32(0)
	bestSize := uint32(0)
	for i := uint32(0); i < g.NumNodes; i++ {
		root := uf.Find(i)
		if uf.size[root] > bestSize {
			bestRoot = root
			bestSize = uf.size[root]
		}
	}

	// Collect all nodes in the largest component.
	nodes := make([]uint32, 0, bestSize)
	for i := uint32(0); i < g.NumNodes; i++ {
		if uf.Find(i) == bestRoot {
			nodes = append(nodes, i)
		}
	}

	return nodes
}

// FilterToComponent creates a new graph containing only the specified nodes.
// Per-edge attributes, names and the metric are carried over.
func FilterToComponent(g *Graph, nodes []uint32) *Graph {
	if len(nodes) == 0 {
		return &Graph{FirstOut: []uint32{0}, Names: []string{""}, Metric: g.Metric}
	}

	const dropped = ^uint32(0)
	oldToNew := make([]uint32, g.NumNodes)
	for i := range oldToNew {
		oldToNew[i] = dropped
	}
	for newIdx, oldIdx := range nodes {
		oldToNew[oldIdx] = uint32(newIdx)
	}

	var records []edgeRecord
	for _, oldU := range nodes {
		start, end := g.EdgesFrom(oldU)
		for e := start; e < end; e++ {
			newV := oldToNew[g.Head[e]]
			if newV == dropped {
				continue
			}
			r := edgeRecord{
				from:     oldToNew[oldU],
				to:       newV,
				distance: g.Distance[e],
				duration: g.Duration[e],
				nameID:   g.NameID[e],
			}
			for _, p := range g.Shape(e) {
				r.shapeLats = append(r.shapeLats, p.Lat)
				r.shapeLons = append(r.shapeLons, p.Lng)
			}
			records = append(records, r)
		}
	}

	numNodes := uint32(len(nodes))
	out := assemble(numNodes, records, g.Metric)
	out.Names = g.Names
	out.NodeLat = make([]float64, numNodes)
	out.NodeLon = make([]float64, numNodes)
	out.NodeID = make([]int64, numNodes)
	for newIdx, oldIdx := range nodes {
		out.NodeLat[newIdx] = g.NodeLat[oldIdx]
		out.NodeLon[newIdx] = g.NodeLon[oldIdx]
		if g.NodeID != nil {
			out.NodeID[newIdx] = g.NodeID[oldIdx]
		}
	}
	return out
}
