package routing

import "math"

// PQItem is a priority queue entry.
type PQItem struct {
	Node uint32
	Dist uint32
}

// MinHeap is a concrete-typed min-heap for the Dijkstra priority queues.
// Avoids interface boxing overhead of container/heap.
type MinHeap struct {
	items []PQItem
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(node, dist uint32) {
	h.items = append(h.items, PQItem{node, dist})
	i := len(h.items) - 1
	item := h.items[i]
	for i > 0 {
		parent := (i - 1) / 2
		if item.Dist >= h.items[parent].Dist {
			break
		}
		h.items[i] = h.items[parent]
		i = parent
	}
	h.items[i] = item
}

func (h *MinHeap) Pop() PQItem {
	top := h.items[0]
	last := len(h.items) - 1
	item := h.items[last]
	h.items = h.items[:last]
	if last == 0 {
		return top
	}

	i := 0
	for {
		child := 2*i + 1
		if child >= last {
			break
		}
		if right := child + 1; right < last && h.items[right].Dist < h.items[child].Dist {
			child = right
		}
		if item.Dist <= h.items[child].Dist {
			break
		}
		h.items[i] = h.items[child]
		i = child
	}
	h.items[i] = item
	return top
}

// PeekDist returns the smallest queued distance, or math.MaxUint32 when empty.
func (h *MinHeap) PeekDist() uint32 {
	if len(h.items) == 0 {
		return math.MaxUint32
	}
	return h.items[0].Dist
}

func (h *MinHeap) Reset() {
	h.items = h.items[:0]
}
