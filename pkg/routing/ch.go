package routing

import (
	"context"

	"github.com/azybler/route_engine/pkg/graph"
)

// CHRouter answers queries with a bidirectional upward search over a
// contraction hierarchy. It is safe for concurrent use.
type CHRouter struct {
	chg    *graph.CHGraph
	base   *graph.Graph
	states *statePool
}

// NewCHRouter creates a router over chg. base must be the graph chg was
// contracted from (see CHGraph.BaseGraph).
func NewCHRouter(chg *graph.CHGraph, base *graph.Graph) *CHRouter {
	return &CHRouter{chg: chg, base: base, states: newStatePool(chg.NumNodes)}
}

// ShortestPath computes the shortest path between two snapped points.
func (r *CHRouter) ShortestPath(ctx context.Context, from, to SnapResult) (*Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	qs := r.states.get()
	defer r.states.put(qs)

	for _, p := range sourcePhantoms(r.base, from) {
		qs.relaxFwd(p.node, p.cost, noNode)
	}
	for _, p := range targetPhantoms(r.base, to) {
		qs.relaxBwd(p.node, p.cost, noNode)
	}

	mu := uint32(infinity)
	if w, ok := directWeight(r.base, from, to); ok {
		mu = w
	}

	meet, err := r.search(ctx, qs, &mu)
	if err != nil {
		return nil, err
	}
	if mu == infinity {
		return nil, ErrNoRoute
	}

	path := &Path{Source: from, Target: to, Weight: mu}
	if meet == noNode {
		path.Direct = true
		return path, nil
	}
	path.Nodes = unpackOverlayPath(r.chg, overlayPath(qs, meet))
	return path, nil
}

// search alternates forward and backward steps until neither queue can
// improve mu, returning the meeting node (noNode if mu was never improved).
func (r *CHRouter) search(ctx context.Context, qs *QueryState, mu *uint32) (uint32, error) {
	chg := r.chg
	meet := noNode
	iterations := 0

	for qs.FwdPQ.Len() > 0 || qs.BwdPQ.Len() > 0 {
		iterations++
		if iterations%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return noNode, err
			}
		}

		if qs.FwdPQ.PeekDist() < *mu {
			item := qs.FwdPQ.Pop()
			u, d := item.Node, item.Dist
			if d == qs.DistFwd[u] {
				if db := qs.DistBwd[u]; db != infinity && addWeight(d, db) < *mu {
					*mu, meet = addWeight(d, db), u
				}
				for e := chg.FwdFirstOut[u]; e < chg.FwdFirstOut[u+1]; e++ {
					qs.relaxFwd(chg.FwdHead[e], addWeight(d, chg.FwdWeight[e]), u)
				}
			}
		}

		if qs.BwdPQ.PeekDist() < *mu {
			item := qs.BwdPQ.Pop()
			u, d := item.Node, item.Dist
			if d == qs.DistBwd[u] {
				if df := qs.DistFwd[u]; df != infinity && addWeight(df, d) < *mu {
					*mu, meet = addWeight(df, d), u
				}
				for e := chg.BwdFirstOut[u]; e < chg.BwdFirstOut[u+1]; e++ {
					qs.relaxBwd(chg.BwdHead[e], addWeight(d, chg.BwdWeight[e]), u)
				}
			}
		}

		if qs.FwdPQ.PeekDist() >= *mu && qs.BwdPQ.PeekDist() >= *mu {
			break
		}
	}
	return meet, nil
}

// overlayPath walks the forward predecessors back from meet to the source
// seed, then the backward predecessors on to the target seed.
func overlayPath(qs *QueryState, meet uint32) []uint32 {
	var path []uint32
	for n := meet; n != noNode; n = qs.PredFwd[n] {
		path = append(path, n)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	// PredBwd[v] = u means the base direction v → u.
	for n := qs.PredBwd[meet]; n != noNode; n = qs.PredBwd[n] {
		path = append(path, n)
	}
	return path
}
