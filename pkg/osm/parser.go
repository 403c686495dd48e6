package osm

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/azybler/route_engine/pkg/geo"
)

// RawEdge represents a directed road segment parsed from OSM data.
type RawEdge struct {
	FromNodeID osm.NodeID
	ToNodeID   osm.NodeID
	Distance   uint32    // millimeters
	Duration   uint32    // milliseconds
	Name       string    // way name, or ref when unnamed
	ShapeLats  []float64 // intermediate shape node latitudes (excluding from/to)
	ShapeLons  []float64 // intermediate shape node longitudes (excluding from/to)
}

// ParseResult holds the output of parsing an OSM PBF file.
type ParseResult struct {
	Edges   []RawEdge
	NodeLat map[osm.NodeID]float64
	NodeLon map[osm.NodeID]float64
}

// defaultSpeeds holds the free-flow speed in km/h for every routable highway
// class. A highway value missing here is not drivable.
var defaultSpeeds = map[string]float64{
	"motorway":       90,
	"motorway_link":  45,
	"trunk":          85,
	"trunk_link":     40,
	"primary":        65,
	"primary_link":   30,
	"secondary":      55,
	"secondary_link": 25,
	"tertiary":       40,
	"tertiary_link":  20,
	"unclassified":   25,
	"residential":    25,
	"living_street":  10,
	"service":        15,
}

const mphToKmh = 1.609344

// isCarAccessible returns true if the way is drivable by car.
func isCarAccessible(tags osm.Tags) bool {
	if _, ok := defaultSpeeds[tags.Find("highway")]; !ok {
		return false
	}

	// Pedestrian plazas are mapped as highway areas.
	if tags.Find("area") == "yes" {
		return false
	}

	switch tags.Find("access") {
	case "no", "private":
		return false
	}
	return tags.Find("motor_vehicle") != "no"
}

// directionFlags returns (forward, backward) based on highway type and oneway tags.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	forward, backward = true, true

	hw := tags.Find("highway")
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward, backward = true, false
	case "-1", "reverse":
		forward, backward = false, true
	case "no":
		forward, backward = true, true
	case "reversible":
		// Direction changes with time of day; not routable.
		forward, backward = false, false
	}

	return forward, backward
}

// speedKmh returns the travel speed for a way: the maxspeed tag when it is a
// plain number (optionally in mph), otherwise the highway class default.
func speedKmh(tags osm.Tags) float64 {
	fallback := defaultSpeeds[tags.Find("highway")]

	raw := strings.TrimSpace(tags.Find("maxspeed"))
	if raw == "" {
		return fallback
	}
	fields := strings.Fields(raw)
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || v <= 0 {
		return fallback
	}
	if len(fields) > 1 && fields[1] == "mph" {
		v *= mphToKmh
	}
	return v
}

// wayName returns the display name for a way.
func wayName(tags osm.Tags) string {
	if name := tags.Find("name"); name != "" {
		return name
	}
	return tags.Find("ref")
}

// travelMillis converts a segment length and speed into milliseconds.
func travelMillis(meters, kmh float64) uint32 {
	ms := uint32(math.Round(meters / (kmh / 3.6) * 1000))
	if ms == 0 {
		ms = 1
	}
	return ms
}

// wayInfo holds parsed way data collected during Pass 1.
type wayInfo struct {
	NodeIDs  []osm.NodeID
	Forward  bool
	Backward bool
	SpeedKmh float64
	Name     string
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only edges with both endpoints inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	BBox BBox // if non-zero, filter edges to this bounding box
}

// Parse reads an OSM PBF file and returns directed edges for car routing.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) (*ParseResult, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	ways, referenced, err := scanWays(ctx, rs)
	if err != nil {
		return nil, err
	}
	log.Printf("Pass 1 complete: %d ways, %d referenced nodes", len(ways), len(referenced))

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}
	nodeLat, nodeLon, err := scanNodes(ctx, rs, referenced)
	if err != nil {
		return nil, err
	}
	log.Printf("Pass 2 complete: %d node coordinates collected", len(nodeLat))

	edges := buildEdges(ways, nodeLat, nodeLon, opt.BBox)
	log.Printf("Built %d directed edges", len(edges))

	return &ParseResult{
		Edges:   edges,
		NodeLat: nodeLat,
		NodeLon: nodeLon,
	}, nil
}

// scanWays collects drivable ways and the set of node IDs they reference.
func scanWays(ctx context.Context, r io.Reader) ([]wayInfo, map[osm.NodeID]struct{}, error) {
	referenced := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, r, 1)
	defer scanner.Close()
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok || len(w.Nodes) < 2 || !isCarAccessible(w.Tags) {
			continue
		}

		fwd, bwd := directionFlags(w.Tags)
		if !fwd && !bwd {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referenced[wn.ID] = struct{}{}
		}

		ways = append(ways, wayInfo{
			NodeIDs:  nodeIDs,
			Forward:  fwd,
			Backward: bwd,
			SpeedKmh: speedKmh(w.Tags),
			Name:     wayName(w.Tags),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	return ways, referenced, nil
}

// scanNodes collects coordinates for the referenced nodes only.
func scanNodes(ctx context.Context, r io.Reader, referenced map[osm.NodeID]struct{}) (map[osm.NodeID]float64, map[osm.NodeID]float64, error) {
	nodeLat := make(map[osm.NodeID]float64, len(referenced))
	nodeLon := make(map[osm.NodeID]float64, len(referenced))

	scanner := osmpbf.New(ctx, r, 1)
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referenced[n.ID]; !needed {
			continue
		}
		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	return nodeLat, nodeLon, nil
}

// buildEdges splits every way into directed node-to-node edges.
func buildEdges(ways []wayInfo, nodeLat, nodeLon map[osm.NodeID]float64, bbox BBox) []RawEdge {
	useBBox := !bbox.IsZero()

	var edges []RawEdge
	var skippedEdges, bboxFiltered int

	for _, w := range ways {
		for i := 0; i < len(w.NodeIDs)-1; i++ {
			fromID := w.NodeIDs[i]
			toID := w.NodeIDs[i+1]

			fromLat, fromOk := nodeLat[fromID]
			toLat, toOk := nodeLat[toID]
			if !fromOk || !toOk {
				skippedEdges++
				continue
			}
			fromLon := nodeLon[fromID]
			toLon := nodeLon[toID]

			if useBBox && (!bbox.Contains(fromLat, fromLon) || !bbox.Contains(toLat, toLon)) {
				bboxFiltered++
				continue
			}

			meters := geo.Haversine(fromLat, fromLon, toLat, toLon)
			distMM := uint32(math.Round(meters * 1000))
			if distMM == 0 {
				distMM = 1 // zero-weight edges break the witness search
			}
			durMS := travelMillis(meters, w.SpeedKmh)

			if w.Forward {
				edges = append(edges, RawEdge{
					FromNodeID: fromID,
					ToNodeID:   toID,
					Distance:   distMM,
					Duration:   durMS,
					Name:       w.Name,
				})
			}
			if w.Backward {
				edges = append(edges, RawEdge{
					FromNodeID: toID,
					ToNodeID:   fromID,
					Distance:   distMM,
					Duration:   durMS,
					Name:       w.Name,
				})
			}
		}
	}

	if skippedEdges > 0 {
		log.Printf("Warning: skipped %d edges due to missing node coordinates", skippedEdges)
	}
	if bboxFiltered > 0 {
		log.Printf("Filtered %d edges outside bounding box", bboxFiltered)
	}
	return edges
}
