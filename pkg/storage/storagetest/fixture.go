// Package storagetest builds a small prepared dataset around Changi for
// tests of the packages above storage.
package storagetest

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/paulmach/osm"

	"github.com/azybler/route_engine/pkg/ch"
	"github.com/azybler/route_engine/pkg/geo"
	"github.com/azybler/route_engine/pkg/graph"
	osmparser "github.com/azybler/route_engine/pkg/osm"
)

// Road names used by the fixture.
const (
	AirportBoulevard    = "Airport Boulevard"
	TanahMerahCoastRoad = "Tanah Merah Coast Road"
	ChangiCoastRoad     = "Changi Coast Road"
)

// Fixture geometry. Row A runs along lat 1.3560 and row B (one-way
// westbound) along lat 1.3600, both from lon 103.950 to 103.995 with a node
// every 0.005°. Connectors join the rows at ConnectorLons.
const (
	RowALat  = 1.3560
	RowBLat  = 1.3600
	WestLon  = 103.950
	EastLon  = 103.995
	LonStep  = 0.005
	rowNodes = 10
)

// ConnectorLons are the longitudes of the two-way links between the rows.
var ConnectorLons = []float64{103.950, 103.970, 103.995}

func rowA(i int) osm.NodeID { return osm.NodeID(1000 + i) }
func rowB(i int) osm.NodeID { return osm.NodeID(2000 + i) }

// ParseResult returns the fixture network as parser output.
func ParseResult() *osmparser.ParseResult {
	lat := map[osm.NodeID]float64{}
	lon := map[osm.NodeID]float64{}
	for i := range rowNodes {
		x := WestLon + float64(i)*LonStep
		lat[rowA(i)], lon[rowA(i)] = RowALat, x
		lat[rowB(i)], lon[rowB(i)] = RowBLat, x
	}

	var edges []osmparser.RawEdge
	add := func(a, b osm.NodeID, kmh float64, name string, twoWay bool) {
		m := geo.Haversine(lat[a], lon[a], lat[b], lon[b])
		e := osmparser.RawEdge{
			FromNodeID: a,
			ToNodeID:   b,
			Distance:   uint32(math.Round(m * 1000)),
			Duration:   uint32(math.Round(m / (kmh / 3.6) * 1000)),
			Name:       name,
		}
		edges = append(edges, e)
		if twoWay {
			e.FromNodeID, e.ToNodeID = b, a
			edges = append(edges, e)
		}
	}

	for i := 0; i+1 < rowNodes; i++ {
		add(rowA(i), rowA(i+1), 70, AirportBoulevard, true)
		add(rowB(i+1), rowB(i), 50, TanahMerahCoastRoad, false)
	}
	for _, x := range ConnectorLons {
		i := int(math.Round((x - WestLon) / LonStep))
		add(rowA(i), rowB(i), 40, ChangiCoastRoad, true)
	}

	return &osmparser.ParseResult{Edges: edges, NodeLat: lat, NodeLon: lon}
}

// Graph builds the fixture base graph weighted by metric.
func Graph(metric graph.Metric) *graph.Graph {
	g := graph.Build(ParseResult(), graph.BuildOptions{Metric: metric})
	return graph.FilterToComponent(g, graph.LargestComponent(g))
}

// WriteDataset contracts the fixture and writes it to a temporary file,
// returning its path.
func WriteDataset(tb testing.TB, metric graph.Metric) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "changi.route")
	if err := graph.WriteBinary(path, ch.Contract(Graph(metric))); err != nil {
		tb.Fatalf("write fixture dataset: %v", err)
	}
	return path
}
