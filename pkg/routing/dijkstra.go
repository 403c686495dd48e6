package routing

import (
	"context"

	"github.com/azybler/route_engine/pkg/graph"
)

// DijkstraRouter answers queries with a unidirectional Dijkstra over the
// base graph. It needs no preprocessing beyond the graph itself.
type DijkstraRouter struct {
	g      *graph.Graph
	states *statePool
}

// NewDijkstraRouter creates a router over g. It is safe for concurrent use.
func NewDijkstraRouter(g *graph.Graph) *DijkstraRouter {
	return &DijkstraRouter{g: g, states: newStatePool(g.NumNodes)}
}

// ShortestPath computes the shortest path between two snapped points.
func (r *DijkstraRouter) ShortestPath(ctx context.Context, from, to SnapResult) (*Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g := r.g
	qs := r.states.get()
	defer r.states.put(qs)

	for _, p := range sourcePhantoms(g, from) {
		qs.relaxFwd(p.node, p.cost, noNode)
	}
	targets := targetPhantoms(g, to)

	best := uint32(infinity)
	bestNode := noNode
	if w, ok := directWeight(g, from, to); ok {
		best = w
	}

	iterations := 0
	for qs.FwdPQ.Len() > 0 && qs.FwdPQ.PeekDist() < best {
		iterations++
		if iterations%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		item := qs.FwdPQ.Pop()
		u, d := item.Node, item.Dist
		if d != qs.DistFwd[u] {
			continue
		}
		for _, t := range targets {
			if t.node == u && addWeight(d, t.cost) < best {
				best, bestNode = addWeight(d, t.cost), u
			}
		}

		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			qs.relaxFwd(g.Head[e], addWeight(d, g.Weight[e]), u)
		}
	}

	if best == infinity {
		return nil, ErrNoRoute
	}
	path := &Path{Source: from, Target: to, Weight: best}
	if bestNode == noNode {
		path.Direct = true
		return path, nil
	}
	for n := bestNode; n != noNode; n = qs.PredFwd[n] {
		path.Nodes = append(path.Nodes, n)
	}
	for i, j := 0, len(path.Nodes)-1; i < j; i, j = i+1, j-1 {
		path.Nodes[i], path.Nodes[j] = path.Nodes[j], path.Nodes[i]
	}
	return path, nil
}
