package graph

import (
	"sort"

	"github.com/paulmach/osm"

	osmparser "github.com/azybler/route_engine/pkg/osm"
)

// BuildOptions configures graph construction.
type BuildOptions struct {
	Metric Metric
}

// edgeRecord is one directed edge before CSR assembly.
type edgeRecord struct {
	from, to  uint32
	distance  uint32
	duration  uint32
	nameID    uint32
	shapeLats []float64
	shapeLons []float64
}

// Build creates a CSR Graph from parsed OSM edges.
func Build(result *osmparser.ParseResult, opts ...BuildOptions) *Graph {
	var opt BuildOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	// Compact node indices in order of first reference.
	nodeIndex := make(map[osm.NodeID]uint32)
	var nodeIDs []osm.NodeID
	indexOf := func(id osm.NodeID) uint32 {
		if idx, ok := nodeIndex[id]; ok {
			return idx
		}
		idx := uint32(len(nodeIDs))
		nodeIndex[id] = idx
		nodeIDs = append(nodeIDs, id)
		return idx
	}

	names := newNameTable()
	records := make([]edgeRecord, len(result.Edges))
	for i, e := range result.Edges {
		records[i] = edgeRecord{
			from:      indexOf(e.FromNodeID),
			to:        indexOf(e.ToNodeID),
			distance:  e.Distance,
			duration:  e.Duration,
			nameID:    names.intern(e.Name),
			shapeLats: e.ShapeLats,
			shapeLons: e.ShapeLons,
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].from != records[j].from {
			return records[i].from < records[j].from
		}
		return records[i].to < records[j].to
	})

	numNodes := uint32(len(nodeIDs))
	g := assemble(numNodes, records, opt.Metric)
	g.Names = names.list

	g.NodeLat = make([]float64, numNodes)
	g.NodeLon = make([]float64, numNodes)
	g.NodeID = make([]int64, numNodes)
	for idx, id := range nodeIDs {
		g.NodeLat[idx] = result.NodeLat[id]
		g.NodeLon[idx] = result.NodeLon[id]
		g.NodeID[idx] = int64(id)
	}

	return g
}

// assemble lays edge records out in CSR order. Records keep their relative
// order within a source node.
func assemble(numNodes uint32, records []edgeRecord, metric Metric) *Graph {
	numEdges := uint32(len(records))

	g := &Graph{
		NumNodes:    numNodes,
		NumEdges:    numEdges,
		Metric:      metric,
		FirstOut:    make([]uint32, numNodes+1),
		Head:        make([]uint32, numEdges),
		Weight:      make([]uint32, numEdges),
		Distance:    make([]uint32, numEdges),
		Duration:    make([]uint32, numEdges),
		NameID:      make([]uint32, numEdges),
		GeoFirstOut: make([]uint32, numEdges+1),
	}

	for _, r := range records {
		g.FirstOut[r.from+1]++
	}
	for i := uint32(1); i <= numNodes; i++ {
		g.FirstOut[i] += g.FirstOut[i-1]
	}

	pos := make([]uint32, numNodes)
	copy(pos, g.FirstOut[:numNodes])
	placed := make([]edgeRecord, numEdges)
	for _, r := range records {
		placed[pos[r.from]] = r
		pos[r.from]++
	}

	for i, r := range placed {
		g.Head[i] = r.to
		g.Distance[i] = r.distance
		g.Duration[i] = r.duration
		g.NameID[i] = r.nameID
		g.Weight[i] = weightOf(r, metric)
		g.GeoFirstOut[i] = uint32(len(g.GeoShapeLat))
		g.GeoShapeLat = append(g.GeoShapeLat, r.shapeLats...)
		g.GeoShapeLon = append(g.GeoShapeLon, r.shapeLons...)
	}
	g.GeoFirstOut[numEdges] = uint32(len(g.GeoShapeLat))

	return g
}

// weightOf returns the routing weight of r under metric, never zero.
func weightOf(r edgeRecord, metric Metric) uint32 {
	w := r.distance
	if metric == MetricDuration {
		w = r.duration
	}
	if w == 0 {
		w = 1
	}
	return w
}

// nameTable interns street names; index 0 is the empty name.
type nameTable struct {
	index map[string]uint32
	list  []string
}

func newNameTable() *nameTable {
	return &nameTable{index: map[string]uint32{"": 0}, list: []string{""}}
}

func (t *nameTable) intern(name string) uint32 {
	if id, ok := t.index[name]; ok {
		return id
	}
	id := uint32(len(t.list))
	t.index[name] = id
	t.list = append(t.list, name)
	return id
}
