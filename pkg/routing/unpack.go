package routing

import "github.com/azybler/route_engine/pkg/graph"

const maxUnpackDepth = 200

const noNode = ^uint32(0) // sentinel for "no node"

// unpackOverlayPath expands every overlay hop of overlayNodes into base
// graph nodes.
func unpackOverlayPath(chg *graph.CHGraph, overlayNodes []uint32) []uint32 {
	if len(overlayNodes) < 2 {
		return overlayNodes
	}

	result := []uint32{overlayNodes[0]}
	for i := 0; i < len(overlayNodes)-1; i++ {
		unpacked := unpackHop(chg, overlayNodes[i], overlayNodes[i+1])
		if len(unpacked) > 1 {
			result = append(result, unpacked[1:]...)
		}
	}
	return result
}

// unpackHop iteratively unpacks a single overlay hop from→to into a sequence
// of base nodes, using an explicit stack instead of recursion.
func unpackHop(chg *graph.CHGraph, from, to uint32) []uint32 {
	type item struct {
		from, to uint32
		depth    int
	}

	stack := []item{{from, to, 0}}
	var result []uint32

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		middle := int32(-1)
		if it.depth <= maxUnpackDepth {
			middle = findMiddle(chg, it.from, it.to)
		}
		if middle < 0 {
			if len(result) == 0 || result[len(result)-1] != it.from {
				result = append(result, it.from)
			}
			result = append(result, it.to)
			continue
		}

		// Right half first so the left half is expanded first.
		m := uint32(middle)
		stack = append(stack, item{m, it.to, it.depth + 1}, item{it.from, m, it.depth + 1})
	}
	return result
}

// findMiddle returns the contracted node bypassed by the cheapest overlay
// edge from→to, or -1 when that edge is a base edge.
//
// The edge is stored either as forward overlay edge from→to or as backward
// overlay edge to→from.
func findMiddle(chg *graph.CHGraph, from, to uint32) int32 {
	middle := int32(-1)
	best := uint32(infinity)
	for e := chg.FwdFirstOut[from]; e < chg.FwdFirstOut[from+1]; e++ {
		if chg.FwdHead[e] == to && chg.FwdWeight[e] < best {
			best, middle = chg.FwdWeight[e], chg.FwdMiddle[e]
		}
	}
	for e := chg.BwdFirstOut[to]; e < chg.BwdFirstOut[to+1]; e++ {
		if chg.BwdHead[e] == from && chg.BwdWeight[e] < best {
			best, middle = chg.BwdWeight[e], chg.BwdMiddle[e]
		}
	}
	return middle
}
