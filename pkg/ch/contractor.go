package ch

import (
	"container/heap"
	"log"

	"github.com/azybler/route_engine/pkg/graph"
)

// DefaultMaxShortcutsPerNode is the limit on shortcuts a single contraction
// can create. Once a node exceeds it, contraction stops and the remaining
// nodes form an uncontracted core at the top of the hierarchy.
const DefaultMaxShortcutsPerNode = 1000

// Options tunes contraction.
type Options struct {
	// MaxShortcutsPerNode overrides DefaultMaxShortcutsPerNode when > 0.
	// A negative value stops at the first node that needs any shortcut.
	MaxShortcutsPerNode int
}

// adjEntry represents an edge in the mutable adjacency list.
type adjEntry struct {
	to     uint32
	weight uint32
	middle int32 // -1 for original edges, else the contracted node ID
}

// shortcut represents a shortcut edge to be added.
type shortcut struct {
	from, to uint32
	weight   uint32
}

// contractor holds the mutable state of one contraction run.
type contractor struct {
	n      uint32
	outAdj [][]adjEntry
	inAdj  [][]adjEntry

	contracted          []bool
	core                []bool
	rank                []uint32
	contractedNeighbors []int
	level               []int

	ws *witnessState
}

func newContractor(g *graph.Graph) *contractor {
	n := g.NumNodes
	c := &contractor{
		n:                   n,
		outAdj:              make([][]adjEntry, n),
		inAdj:               make([][]adjEntry, n),
		contracted:          make([]bool, n),
		core:                make([]bool, n),
		rank:                make([]uint32, n),
		contractedNeighbors: make([]int, n),
		level:               make([]int, n),
		ws:                  newWitnessState(n),
	}
	for u := range n {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			if v == u {
				continue // self-loops never lie on a shortest path
			}
			w := g.Weight[e]
			c.outAdj[u] = append(c.outAdj[u], adjEntry{to: v, weight: w, middle: -1})
			c.inAdj[v] = append(c.inAdj[v], adjEntry{to: u, weight: w, middle: -1})
		}
	}
	return c
}

// Contract performs Contraction Hierarchies preprocessing on the given graph.
func Contract(g *graph.Graph, opts ...Options) *graph.CHGraph {
	limit := DefaultMaxShortcutsPerNode
	if len(opts) > 0 && opts[0].MaxShortcutsPerNode != 0 {
		limit = max(opts[0].MaxShortcutsPerNode, 0)
	}

	c := newContractor(g)
	n := c.n

	pq := make(priorityQueue, n)
	for i := range n {
		pq[i] = &pqEntry{node: i, priority: c.priority(i), index: int(i)}
	}
	heap.Init(&pq)

	log.Printf("Starting contraction of %d nodes...", n)

	var totalShortcuts int
	order := uint32(0)

	for pq.Len() > 0 {
		entry := heap.Pop(&pq).(*pqEntry)
		node := entry.node
		if c.contracted[node] {
			continue
		}

		// Lazy update: re-insert if the node is no longer the cheapest.
		newPriority := c.priority(node)
		if newPriority > entry.priority && pq.Len() > 0 && newPriority > pq[0].priority {
			entry.priority = newPriority
			heap.Push(&pq, entry)
			continue
		}

		shortcuts := c.findShortcuts(node)
		if len(shortcuts) > limit {
			log.Printf("Stopping contraction: node %d would create %d shortcuts (limit %d). %d nodes remain in core.",
				node, len(shortcuts), limit, n-order)
			break
		}

		c.contract(node, shortcuts)
		c.rank[node] = order
		order++
		totalShortcuts += len(shortcuts)

		if order%logInterval(n-order) == 0 {
			log.Printf("Contracted %d/%d nodes, %d shortcuts so far", order, n, totalShortcuts)
		}
	}

	// Remaining nodes form the core and take the top ranks.
	var coreSize uint32
	for i := range n {
		if !c.contracted[i] {
			c.core[i] = true
			c.rank[i] = order
			order++
			coreSize++
		}
	}

	if g.NumEdges > 0 {
		log.Printf("Contraction complete: %d shortcuts created (%.1fx original edges), %d core nodes",
			totalShortcuts, float64(totalShortcuts)/float64(g.NumEdges), coreSize)
	}

	return c.overlay(g)
}

// logInterval logs more often as contraction approaches the end.
func logInterval(remaining uint32) uint32 {
	switch {
	case remaining < 1000:
		return 100
	case remaining < 10000:
		return 1000
	case remaining < 100000:
		return 10000
	default:
		return 50000
	}
}

// contract removes node from the remaining graph, inserting its shortcuts and
// updating neighbour bookkeeping.
func (c *contractor) contract(node uint32, shortcuts []shortcut) {
	c.contracted[node] = true

	for _, sc := range shortcuts {
		c.outAdj[sc.from] = append(c.outAdj[sc.from], adjEntry{to: sc.to, weight: sc.weight, middle: int32(node)})
		c.inAdj[sc.to] = append(c.inAdj[sc.to], adjEntry{to: sc.from, weight: sc.weight, middle: int32(node)})
	}

	touch := func(v uint32) {
		if c.contracted[v] {
			return
		}
		c.contractedNeighbors[v]++
		c.level[v] = max(c.level[v], c.level[node]+1)
	}
	for _, e := range c.outAdj[node] {
		touch(e.to)
	}
	for _, e := range c.inAdj[node] {
		touch(e.to)
	}
}

// active returns the edges of adj whose far end is still uncontracted.
func (c *contractor) active(adj []adjEntry) []adjEntry {
	var out []adjEntry
	for _, e := range adj {
		if !c.contracted[e.to] {
			out = append(out, e)
		}
	}
	return out
}

// findShortcuts determines which shortcuts are needed when contracting node.
// One witness search runs per incoming neighbour and covers every outgoing one.
func (c *contractor) findShortcuts(node uint32) []shortcut {
	incoming := c.active(c.inAdj[node])
	outgoing := c.active(c.outAdj[node])
	if len(incoming) == 0 || len(outgoing) == 0 {
		return nil
	}

	var shortcuts []shortcut
	for _, in := range incoming {
		var maxOut uint32
		for _, out := range outgoing {
			if out.to != in.to && out.weight > maxOut {
				maxOut = out.weight
			}
		}
		if maxOut == 0 {
			continue // every outgoing edge leads back to in.to
		}

		c.ws.search(c.outAdj, c.contracted, in.to, node, in.weight+maxOut)

		for _, out := range outgoing {
			if out.to == in.to {
				continue
			}
			w := in.weight + out.weight
			if c.ws.dist[out.to] > w {
				shortcuts = append(shortcuts, shortcut{from: in.to, to: out.to, weight: w})
			}
		}
	}
	return shortcuts
}

// priority returns the contraction priority of node (lower = contract first):
// a worst-case edge difference plus contracted-neighbour and level terms.
func (c *contractor) priority(node uint32) int {
	activeIn, activeOut := 0, 0
	for _, e := range c.inAdj[node] {
		if !c.contracted[e.to] {
			activeIn++
		}
	}
	for _, e := range c.outAdj[node] {
		if !c.contracted[e.to] {
			activeOut++
		}
	}
	edgeDifference := activeIn*activeOut - (activeIn + activeOut)
	return edgeDifference + 2*c.contractedNeighbors[node] + c.level[node]
}

// upward reports whether an edge between u and v belongs in an upward overlay
// when searched from u. Core nodes are unordered among themselves, so every
// core-core edge is kept.
func (c *contractor) upward(u, v uint32) bool {
	return c.rank[u] < c.rank[v] || (c.core[u] && c.core[v])
}

type overlayEdge struct {
	from, to uint32
	weight   uint32
	middle   int32
}

// overlay builds the forward and backward upward CSR graphs and attaches the
// base graph arrays.
func (c *contractor) overlay(g *graph.Graph) *graph.CHGraph {
	var fwdEdges, bwdEdges []overlayEdge
	for u := range c.n {
		for _, e := range c.outAdj[u] {
			if c.upward(u, e.to) {
				fwdEdges = append(fwdEdges, overlayEdge{from: u, to: e.to, weight: e.weight, middle: e.middle})
			}
		}
		// Edge e.to→u stored as u→e.to for the search from the target.
		for _, e := range c.inAdj[u] {
			if c.upward(u, e.to) {
				bwdEdges = append(bwdEdges, overlayEdge{from: u, to: e.to, weight: e.weight, middle: e.middle})
			}
		}
	}

	log.Printf("Overlay: %d forward upward edges, %d backward upward edges", len(fwdEdges), len(bwdEdges))

	fwdFirstOut, fwdHead, fwdWeight, fwdMiddle := packOverlay(c.n, fwdEdges)
	bwdFirstOut, bwdHead, bwdWeight, bwdMiddle := packOverlay(c.n, bwdEdges)

	firstOut := g.FirstOut
	if firstOut == nil {
		firstOut = make([]uint32, c.n+1)
	}
	names := g.Names
	if names == nil {
		names = []string{""}
	}

	return &graph.CHGraph{
		NumNodes:     c.n,
		Metric:       g.Metric,
		NodeLat:      g.NodeLat,
		NodeLon:      g.NodeLon,
		NodeID:       g.NodeID,
		Rank:         c.rank,
		FwdFirstOut:  fwdFirstOut,
		FwdHead:      fwdHead,
		FwdWeight:    fwdWeight,
		FwdMiddle:    fwdMiddle,
		BwdFirstOut:  bwdFirstOut,
		BwdHead:      bwdHead,
		BwdWeight:    bwdWeight,
		BwdMiddle:    bwdMiddle,
		OrigFirstOut: firstOut,
		OrigHead:     g.Head,
		OrigWeight:   g.Weight,
		OrigDistance: g.Distance,
		OrigDuration: g.Duration,
		OrigNameID:   g.NameID,
		Names:        names,
		GeoFirstOut:  g.GeoFirstOut,
		GeoShapeLat:  g.GeoShapeLat,
		GeoShapeLon:  g.GeoShapeLon,
	}
}

// packOverlay lays overlay edges out in CSR order by source node.
func packOverlay(n uint32, edges []overlayEdge) (firstOut, head, weight []uint32, middle []int32) {
	firstOut = make([]uint32, n+1)
	head = make([]uint32, len(edges))
	weight = make([]uint32, len(edges))
	middle = make([]int32, len(edges))

	for _, e := range edges {
		firstOut[e.from+1]++
	}
	for i := uint32(1); i <= n; i++ {
		firstOut[i] += firstOut[i-1]
	}

	pos := make([]uint32, n)
	copy(pos, firstOut[:n])
	for _, e := range edges {
		idx := pos[e.from]
		head[idx] = e.to
		weight[idx] = e.weight
		middle[idx] = e.middle
		pos[e.from]++
	}
	return firstOut, head, weight, middle
}

// Priority queue implementation for contraction ordering.

type pqEntry struct {
	node     uint32
	priority int
	index    int
}

type priorityQueue []*pqEntry

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].node < pq[j].node
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	entry := x.(*pqEntry)
	entry.index = len(*pq)
	*pq = append(*pq, entry)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*pq = old[:n-1]
	return entry
}
