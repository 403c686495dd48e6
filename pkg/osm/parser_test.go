package osm

import (
	"math"
	"testing"

	"github.com/paulmach/osm"
)

func TestIsCarAccessible(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want bool
	}{
		{
			name: "residential road",
			tags: osm.Tags{{Key: "highway", Value: "residential"}},
			want: true,
		},
		{
			name: "motorway",
			tags: osm.Tags{{Key: "highway", Value: "motorway"}},
			want: true,
		},
		{
			name: "footway",
			tags: osm.Tags{{Key: "highway", Value: "footway"}},
			want: false,
		},
		{
			name: "private access",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "access", Value: "private"},
			},
			want: false,
		},
		{
			name: "motor_vehicle=no",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "motor_vehicle", Value: "no"},
			},
			want: false,
		},
		{
			name: "area=yes (pedestrian plaza)",
			tags: osm.Tags{
				{Key: "highway", Value: "service"},
				{Key: "area", Value: "yes"},
			},
			want: false,
		},
		{
			name: "no highway tag",
			tags: osm.Tags{{Key: "name", Value: "Some Street"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCarAccessible(tt.tags); got != tt.want {
				t.Errorf("isCarAccessible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirectionFlags(t *testing.T) {
	tests := []struct {
		name         string
		tags         osm.Tags
		wantForward  bool
		wantBackward bool
	}{
		{
			name:         "default bidirectional",
			tags:         osm.Tags{{Key: "highway", Value: "residential"}},
			wantForward:  true,
			wantBackward: true,
		},
		{
			name:         "motorway implied oneway",
			tags:         osm.Tags{{Key: "highway", Value: "motorway"}},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name: "roundabout implied oneway",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "junction", Value: "roundabout"},
			},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name: "explicit oneway=-1",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "-1"},
			},
			wantForward:  false,
			wantBackward: true,
		},
		{
			name: "explicit oneway=no overrides implied",
			tags: osm.Tags{
				{Key: "highway", Value: "motorway"},
				{Key: "oneway", Value: "no"},
			},
			wantForward:  true,
			wantBackward: true,
		},
		{
			name: "oneway=reversible skips entirely",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "reversible"},
			},
			wantForward:  false,
			wantBackward: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd, bwd := directionFlags(tt.tags)
			if fwd != tt.wantForward || bwd != tt.wantBackward {
				t.Errorf("directionFlags() = (%v, %v), want (%v, %v)", fwd, bwd, tt.wantForward, tt.wantBackward)
			}
		})
	}
}

func TestSpeedKmh(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want float64
	}{
		{
			name: "class default",
			tags: osm.Tags{{Key: "highway", Value: "primary"}},
			want: 65,
		},
		{
			name: "numeric maxspeed",
			tags: osm.Tags{{Key: "highway", Value: "primary"}, {Key: "maxspeed", Value: "70"}},
			want: 70,
		},
		{
			name: "maxspeed in mph",
			tags: osm.Tags{{Key: "highway", Value: "primary"}, {Key: "maxspeed", Value: "30 mph"}},
			want: 30 * mphToKmh,
		},
		{
			name: "symbolic maxspeed falls back",
			tags: osm.Tags{{Key: "highway", Value: "residential"}, {Key: "maxspeed", Value: "SG:urban"}},
			want: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := speedKmh(tt.tags); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("speedKmh() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestWayName(t *testing.T) {
	named := osm.Tags{{Key: "name", Value: "Airport Boulevard"}, {Key: "ref", Value: "ECP"}}
	if got := wayName(named); got != "Airport Boulevard" {
		t.Errorf("wayName(named) = %q", got)
	}
	refOnly := osm.Tags{{Key: "ref", Value: "PIE"}}
	if got := wayName(refOnly); got != "PIE" {
		t.Errorf("wayName(refOnly) = %q, want PIE", got)
	}
}

func TestBuildEdges(t *testing.T) {
	ways := []wayInfo{
		{NodeIDs: []osm.NodeID{1, 2, 3}, Forward: true, Backward: true, SpeedKmh: 36, Name: "Main"},
		{NodeIDs: []osm.NodeID{3, 4}, Forward: true, Backward: false, SpeedKmh: 36, Name: "Oneway"},
		{NodeIDs: []osm.NodeID{4, 99}, Forward: true, Backward: true, SpeedKmh: 36},
	}
	nodeLat := map[osm.NodeID]float64{1: 1.300, 2: 1.301, 3: 1.302, 4: 1.303}
	nodeLon := map[osm.NodeID]float64{1: 103.8, 2: 103.8, 3: 103.8, 4: 103.8}

	edges := buildEdges(ways, nodeLat, nodeLon, BBox{})

	// 2 bidirectional segments + 1 oneway; the edge to node 99 has no coordinates.
	if len(edges) != 5 {
		t.Fatalf("got %d edges, want 5", len(edges))
	}
	for _, e := range edges {
		// 0.001 deg latitude is ~111 m; at 36 km/h (10 m/s) that is ~11.1 s.
		if e.Distance < 110_000 || e.Distance > 112_000 {
			t.Errorf("edge %d->%d distance = %d mm, want ~111195", e.FromNodeID, e.ToNodeID, e.Distance)
		}
		if e.Duration < 11_000 || e.Duration > 11_200 {
			t.Errorf("edge %d->%d duration = %d ms, want ~11120", e.FromNodeID, e.ToNodeID, e.Duration)
		}
	}
	if edges[4].FromNodeID != 3 || edges[4].ToNodeID != 4 || edges[4].Name != "Oneway" {
		t.Errorf("oneway edge = %+v", edges[4])
	}

	bbox := BBox{MinLat: 1.2995, MaxLat: 1.3015, MinLng: 103.7, MaxLng: 103.9}
	if got := buildEdges(ways, nodeLat, nodeLon, bbox); len(got) != 2 {
		t.Errorf("bbox filtered edges = %d, want 2", len(got))
	}
}
