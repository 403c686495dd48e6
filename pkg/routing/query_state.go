package routing

import (
	"math"
	"sync"
)

const infinity = math.MaxUint32

// addWeight returns a+b, saturating at infinity. Weights are millimetres or
// milliseconds, so a path beyond the uint32 range is treated as unreachable.
func addWeight(a, b uint32) uint32 {
	if s := a + b; s >= a {
		return s
	}
	return infinity
}

// QueryState holds per-query search state. It is sized for one graph and
// reused through a statePool; Reset clears only the touched entries.
type QueryState struct {
	DistFwd []uint32
	DistBwd []uint32
	PredFwd []uint32 // predecessor in forward search (noNode = seed or unreached)
	PredBwd []uint32 // predecessor in backward search (noNode = seed or unreached)
	Touched []uint32
	FwdPQ   MinHeap
	BwdPQ   MinHeap
}

// NewQueryState creates a new QueryState for a graph with n nodes.
func NewQueryState(n uint32) *QueryState {
	qs := &QueryState{
		DistFwd: make([]uint32, n),
		DistBwd: make([]uint32, n),
		PredFwd: make([]uint32, n),
		PredBwd: make([]uint32, n),
		Touched: make([]uint32, 0, 1024),
		FwdPQ:   MinHeap{items: make([]PQItem, 0, 256)},
		BwdPQ:   MinHeap{items: make([]PQItem, 0, 256)},
	}
	for i := range n {
		qs.DistFwd[i] = infinity
		qs.DistBwd[i] = infinity
		qs.PredFwd[i] = noNode
		qs.PredBwd[i] = noNode
	}
	return qs
}

// Reset clears only the touched entries for fast reuse.
func (qs *QueryState) Reset() {
	for _, node := range qs.Touched {
		qs.DistFwd[node] = infinity
		qs.DistBwd[node] = infinity
		qs.PredFwd[node] = noNode
		qs.PredBwd[node] = noNode
	}
	qs.Touched = qs.Touched[:0]
	qs.FwdPQ.Reset()
	qs.BwdPQ.Reset()
}

func (qs *QueryState) touch(node uint32) {
	if qs.DistFwd[node] == infinity && qs.DistBwd[node] == infinity {
		qs.Touched = append(qs.Touched, node)
	}
}

// relaxFwd lowers the forward distance of node, queueing it on improvement.
func (qs *QueryState) relaxFwd(node, dist, pred uint32) bool {
	if dist >= qs.DistFwd[node] {
		return false
	}
	qs.touch(node)
	qs.DistFwd[node] = dist
	qs.PredFwd[node] = pred
	qs.FwdPQ.Push(node, dist)
	return true
}

// relaxBwd lowers the backward distance of node, queueing it on improvement.
func (qs *QueryState) relaxBwd(node, dist, pred uint32) bool {
	if dist >= qs.DistBwd[node] {
		return false
	}
	qs.touch(node)
	qs.DistBwd[node] = dist
	qs.PredBwd[node] = pred
	qs.BwdPQ.Push(node, dist)
	return true
}

// statePool hands out QueryStates sized for one graph.
type statePool struct {
	pool sync.Pool
}

func newStatePool(n uint32) *statePool {
	return &statePool{pool: sync.Pool{New: func() any { return NewQueryState(n) }}}
}

func (p *statePool) get() *QueryState { return p.pool.Get().(*QueryState) }

func (p *statePool) put(qs *QueryState) {
	qs.Reset()
	p.pool.Put(qs)
}
