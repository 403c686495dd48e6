// Package storage loads prepared datasets and shares them between engine
// handles in the same process.
package storage

import (
	"fmt"
	"log"
	"time"

	"github.com/azybler/route_engine/pkg/graph"
)

// Dataset is a loaded, read-only routing dataset.
type Dataset struct {
	Path string
	CH   *graph.CHGraph
	Base *graph.Graph
}

// Stats summarises a dataset.
type Stats struct {
	Nodes        int    `json:"nodes"`
	Edges        int    `json:"edges"`
	Shortcuts    int    `json:"shortcuts"`
	OverlayEdges int    `json:"overlay_edges"`
	Names        int    `json:"names"`
	Metric       string `json:"metric"`
}

// Load reads the dataset file at path.
func Load(path string) (*Dataset, error) {
	start := time.Now()
	chg, err := graph.ReadBinary(path)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	ds := &Dataset{Path: path, CH: chg, Base: chg.BaseGraph()}
	st := ds.Stats()
	log.Printf("Loaded %s in %v: %d nodes, %d edges, %d overlay edges (%s)",
		path, time.Since(start).Round(time.Millisecond), st.Nodes, st.Edges, st.OverlayEdges, st.Metric)
	return ds, nil
}

// Stats returns node and edge counts.
func (d *Dataset) Stats() Stats {
	st := Stats{
		Nodes:        int(d.CH.NumNodes),
		Edges:        int(d.Base.NumEdges),
		OverlayEdges: len(d.CH.FwdHead) + len(d.CH.BwdHead),
		Names:        max(len(d.CH.Names)-1, 0),
		Metric:       d.CH.Metric.String(),
	}
	for _, middles := range [][]int32{d.CH.FwdMiddle, d.CH.BwdMiddle} {
		for _, m := range middles {
			if m >= 0 {
				st.Shortcuts++
			}
		}
	}
	return st
}
