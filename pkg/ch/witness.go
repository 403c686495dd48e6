package ch

// Witness search bounds. A witness that is not found within them only
// costs an unnecessary shortcut.
const (
	maxSettled = 500
	maxHops    = 5
)

const unreached = ^uint32(0)

type witnessItem struct {
	node uint32
	dist uint32
	hops int
}

// witnessHeap is a binary min-heap on dist using hole sifting.
type witnessHeap []witnessItem

func (h *witnessHeap) push(it witnessItem) {
	*h = append(*h, it)
	items := *h
	i := len(items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if it.dist >= items[parent].dist {
			break
		}
		items[i] = items[parent]
		i = parent
	}
	items[i] = it
}

func (h *witnessHeap) pop() witnessItem {
	items := *h
	top := items[0]
	last := len(items) - 1
	it := items[last]
	items = items[:last]
	*h = items

	i := 0
	for {
		child := 2*i + 1
		if child >= last {
			break
		}
		if right := child + 1; right < last && items[right].dist < items[child].dist {
			child = right
		}
		if it.dist <= items[child].dist {
			break
		}
		items[i] = items[child]
		i = child
	}
	if last > 0 {
		items[i] = it
	}
	return top
}

// witnessState is reused across searches; only touched entries are reset.
type witnessState struct {
	dist    []uint32
	touched []uint32
	heap    witnessHeap
}

func newWitnessState(numNodes uint32) *witnessState {
	dist := make([]uint32, numNodes)
	for i := range dist {
		dist[i] = unreached
	}
	return &witnessState{dist: dist, heap: make(witnessHeap, 0, 256)}
}

func (ws *witnessState) reset() {
	for _, n := range ws.touched {
		ws.dist[n] = unreached
	}
	ws.touched = ws.touched[:0]
	ws.heap = ws.heap[:0]
}

// search runs a bounded Dijkstra from source that avoids excluded and every
// contracted node, leaving tentative distances in ws.dist.
func (ws *witnessState) search(outAdj [][]adjEntry, contracted []bool, source, excluded, maxWeight uint32) {
	ws.reset()
	ws.dist[source] = 0
	ws.touched = append(ws.touched, source)
	ws.heap.push(witnessItem{node: source})

	settled := 0
	for len(ws.heap) > 0 {
		cur := ws.heap.pop()
		if cur.dist > ws.dist[cur.node] {
			continue
		}

		settled++
		if settled >= maxSettled {
			return
		}
		if cur.dist > maxWeight || cur.hops >= maxHops {
			continue
		}

		for _, e := range outAdj[cur.node] {
			if e.to == excluded || contracted[e.to] {
				continue
			}
			d := cur.dist + e.weight
			if d > maxWeight || d >= ws.dist[e.to] {
				continue
			}
			if ws.dist[e.to] == unreached {
				ws.touched = append(ws.touched, e.to)
			}
			ws.dist[e.to] = d
			ws.heap.push(witnessItem{node: e.to, dist: d, hops: cur.hops + 1})
		}
	}
}
