package engine

import (
	"math"
	"sort"
	"strings"

	orbgeo "github.com/paulmach/orb/geo"

	"github.com/azybler/route_engine/pkg/geo"
	"github.com/azybler/route_engine/pkg/graph"
	"github.com/azybler/route_engine/pkg/routing"
	"github.com/azybler/route_engine/pkg/value"
)

// stretch is a run of consecutive segments on the same street.
type stretch struct {
	nameID   uint32
	geometry []geo.LatLng
	distance float64
	duration float64
	weight   float64
}

func stretches(leg *routing.Leg) []stretch {
	var out []stretch
	for _, seg := range leg.Segments {
		if len(out) == 0 || out[len(out)-1].nameID != seg.NameID {
			out = append(out, stretch{nameID: seg.NameID})
		}
		st := &out[len(out)-1]
		for i, pt := range seg.Geometry {
			if i == 0 && len(st.geometry) > 0 && st.geometry[len(st.geometry)-1] == pt {
				continue
			}
			st.geometry = append(st.geometry, pt)
		}
		st.distance += seg.DistanceMeters
		st.duration += seg.DurationSeconds
		st.weight += seg.Weight
	}
	return out
}

// buildSteps turns leg into depart, one step per street change, and arrive.
func buildSteps(g *graph.Graph, leg *routing.Leg, src, dst routing.SnapResult, kind GeometriesType) *value.Array {
	steps := value.NewArray()
	parts := stretches(leg)

	if len(parts) == 0 {
		start, end := leg.Geometry[0], leg.Geometry[len(leg.Geometry)-1]
		name := g.EdgeName(src.EdgeIdx)
		steps.Append(stepObject([]geo.LatLng{start, end}, maneuver("depart", "", start, 0, bearing(start, end)), name, stretch{}, kind))
		steps.Append(stepObject([]geo.LatLng{end, end}, maneuver("arrive", "", end, bearing(start, end), 0), g.EdgeName(dst.EdgeIdx), stretch{}, kind))
		return steps
	}

	var before int
	for i, st := range parts {
		name := nameOf(g, st.nameID)
		after := initialBearing(st.geometry)
		var m *value.Object
		if i == 0 {
			m = maneuver("depart", "", st.geometry[0], 0, after)
		} else {
			mod := modifier(before, after)
			typ := "turn"
			if mod == "straight" {
				typ = "new name"
			}
			m = maneuver(typ, mod, st.geometry[0], before, after)
		}
		steps.Append(stepObject(st.geometry, m, name, st, kind))
		before = finalBearing(st.geometry)
	}

	last := parts[len(parts)-1]
	end := last.geometry[len(last.geometry)-1]
	steps.Append(stepObject([]geo.LatLng{end, end}, maneuver("arrive", "", end, before, 0), nameOf(g, last.nameID), stretch{}, kind))
	return steps
}

func stepObject(pts []geo.LatLng, m *value.Object, name string, st stretch, kind GeometriesType) *value.Object {
	return value.NewObject().
		Set("geometry", encodeGeometry(pts, kind)).
		Set("maneuver", m).
		Set("mode", value.String("driving")).
		Set("name", value.String(name)).
		Set("weight", value.Number(round1(st.weight))).
		Set("duration", value.Number(round1(st.duration))).
		Set("distance", value.Number(round1(st.distance)))
}

func maneuver(typ, mod string, at geo.LatLng, before, after int) *value.Object {
	m := value.NewObject().
		Set("bearing_after", value.Number(after)).
		Set("bearing_before", value.Number(before)).
		Set("location", location(at))
	if mod != "" {
		m.Set("modifier", value.String(mod))
	}
	return m.Set("type", value.String(typ))
}

func nameOf(g *graph.Graph, id uint32) string {
	if int(id) >= len(g.Names) {
		return ""
	}
	return g.Names[id]
}

// bearing returns the compass bearing from a to b in whole degrees [0, 360).
func bearing(a, b geo.LatLng) int {
	if a == b {
		return 0
	}
	deg := math.Mod(orbgeo.Bearing(a.Point(), b.Point())+360, 360)
	return int(math.Round(deg)) % 360
}

func initialBearing(pts []geo.LatLng) int {
	for i := 0; i+1 < len(pts); i++ {
		if pts[i] != pts[i+1] {
			return bearing(pts[i], pts[i+1])
		}
	}
	return 0
}

func finalBearing(pts []geo.LatLng) int {
	for i := len(pts) - 1; i > 0; i-- {
		if pts[i-1] != pts[i] {
			return bearing(pts[i-1], pts[i])
		}
	}
	return 0
}

// modifier names the turn from heading before to heading after.
func modifier(before, after int) string {
	delta := ((after-before)%360 + 360) % 360
	switch {
	case delta < 20 || delta > 340:
		return "straight"
	case delta <= 60:
		return "slight right"
	case delta <= 140:
		return "right"
	case delta < 170:
		return "sharp right"
	case delta <= 190:
		return "uturn"
	case delta < 220:
		return "sharp left"
	case delta < 300:
		return "left"
	}
	return "slight left"
}

// legSummary names the two longest streets of leg in travel order.
func legSummary(g *graph.Graph, leg *routing.Leg) string {
	type named struct {
		name  string
		first int
		dist  float64
	}
	byName := map[string]*named{}
	var all []*named
	for i, seg := range leg.Segments {
		name := nameOf(g, seg.NameID)
		if name == "" {
			continue
		}
		n, ok := byName[name]
		if !ok {
			n = &named{name: name, first: i}
			byName[name] = n
			all = append(all, n)
		}
		n.dist += seg.DistanceMeters
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].dist > all[j].dist })
	if len(all) > 2 {
		all = all[:2]
	}
	sort.Slice(all, func(i, j int) bool { return all[i].first < all[j].first })

	names := make([]string, len(all))
	for i, n := range all {
		names[i] = n.name
	}
	return strings.Join(names, ", ")
}
