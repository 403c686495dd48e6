package routing

import (
	"context"
	"errors"
	"math"

	"github.com/azybler/route_engine/pkg/graph"
)

// ErrNoRoute is returned when no route exists between the two points.
var ErrNoRoute = errors.New("no route found")

// Router computes shortest paths between snapped points.
type Router interface {
	ShortestPath(ctx context.Context, from, to SnapResult) (*Path, error)
}

// Path is the result of a shortest path query.
type Path struct {
	Source SnapResult
	Target SnapResult
	// Nodes is the base node sequence between the two phantom points.
	// Empty when Direct is set.
	Nodes []uint32
	// Weight includes the partial edges at both ends, in metric units.
	Weight uint32
	// Direct marks travel along the shared segment without visiting a node.
	Direct bool
}

// phantom is a graph node reachable from (or reaching) a snapped point.
type phantom struct {
	node uint32
	cost uint32
}

// scaleWeight returns w·f rounded, f in [0, 1].
func scaleWeight(w uint32, f float64) uint32 {
	return uint32(math.Round(float64(w) * math.Max(0, math.Min(1, f))))
}

// sourcePhantoms lists the nodes a query leaving s can reach first: the
// head of the snapped edge, and its tail when the road is two-way.
func sourcePhantoms(g *graph.Graph, s SnapResult) []phantom {
	out := []phantom{{node: s.NodeV, cost: scaleWeight(g.Weight[s.EdgeIdx], 1-s.Ratio)}}
	if rev := g.FindEdge(s.NodeV, s.NodeU); rev != graph.NoEdge {
		out = append(out, phantom{node: s.NodeU, cost: scaleWeight(g.Weight[rev], s.Ratio)})
	}
	return out
}

// targetPhantoms lists the nodes from which a query can enter t: the tail
// of the snapped edge, and its head when the road is two-way.
func targetPhantoms(g *graph.Graph, t SnapResult) []phantom {
	out := []phantom{{node: t.NodeU, cost: scaleWeight(g.Weight[t.EdgeIdx], t.Ratio)}}
	if rev := g.FindEdge(t.NodeV, t.NodeU); rev != graph.NoEdge {
		out = append(out, phantom{node: t.NodeV, cost: scaleWeight(g.Weight[rev], 1-t.Ratio)})
	}
	return out
}

// directWeight returns the cost of travelling from s to t along their shared
// segment without passing a node.
func directWeight(g *graph.Graph, s, t SnapResult) (uint32, bool) {
	if s.EdgeIdx != t.EdgeIdx {
		return 0, false
	}
	if t.Ratio >= s.Ratio {
		return scaleWeight(g.Weight[s.EdgeIdx], t.Ratio-s.Ratio), true
	}
	if rev := g.FindEdge(s.NodeV, s.NodeU); rev != graph.NoEdge {
		return scaleWeight(g.Weight[rev], s.Ratio-t.Ratio), true
	}
	return 0, false
}

// ctxCheckInterval is how many queue pops pass between context checks.
const ctxCheckInterval = 256
