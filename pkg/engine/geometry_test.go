package engine

import (
	"math"
	"testing"

	"github.com/azybler/route_engine/pkg/geo"
	"github.com/azybler/route_engine/pkg/value"
)

func TestEncodePolyline(t *testing.T) {
	pts := []geo.LatLng{{Lat: 38.5, Lng: -120.2}, {Lat: 40.7, Lng: -120.95}, {Lat: 43.252, Lng: -126.453}}
	got, err := value.AsString(encodeGeometry(pts, GeometriesPolyline))
	if err != nil {
		t.Fatal(err)
	}
	if want := "_p~iF~ps|U_ulLnnqC_mqNvxq`@"; got != want {
		t.Errorf("polyline = %q, want %q", got, want)
	}
}

func TestEncodeGeoJSON(t *testing.T) {
	pts := []geo.LatLng{{Lat: 1.5, Lng: 103.25}, {Lat: 1.6, Lng: 103.3}}
	g := encodeGeometry(pts, GeometriesGeoJSON)
	if typ, _ := value.Read(g).Key("type").AsString(); typ != "LineString" {
		t.Errorf("type = %q", typ)
	}
	lon, _ := value.Read(g).Key("coordinates").Index(1).Index(0).AsNumber()
	lat, _ := value.Read(g).Key("coordinates").Index(1).Index(1).AsNumber()
	if lon != 103.3 || lat != 1.6 {
		t.Errorf("second point = [%v, %v], want [103.3, 1.6]", lon, lat)
	}
}

func TestSimplifyLineKeepsCorners(t *testing.T) {
	pts := []geo.LatLng{
		{Lat: 1.30, Lng: 103.80},
		{Lat: 1.30, Lng: 103.81},
		{Lat: 1.30, Lng: 103.82},
		{Lat: 1.31, Lng: 103.82},
		{Lat: 1.32, Lng: 103.82},
	}
	got := simplifyLine(pts)
	want := []geo.LatLng{pts[0], pts[2], pts[4]}
	if len(got) != len(want) {
		t.Fatalf("simplified = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestModifier(t *testing.T) {
	tests := []struct {
		before, after int
		want          string
	}{
		{90, 95, "straight"},
		{350, 5, "straight"},
		{0, 45, "slight right"},
		{0, 90, "right"},
		{0, 150, "sharp right"},
		{90, 270, "uturn"},
		{0, 200, "sharp left"},
		{270, 180, "left"},
		{0, 320, "slight left"},
	}
	for _, tt := range tests {
		if got := modifier(tt.before, tt.after); got != tt.want {
			t.Errorf("modifier(%d, %d) = %q, want %q", tt.before, tt.after, got, tt.want)
		}
	}
}

func TestBearing(t *testing.T) {
	origin := geo.LatLng{Lat: 1.3, Lng: 103.8}
	tests := []struct {
		to   geo.LatLng
		want int
	}{
		{geo.LatLng{Lat: 1.31, Lng: 103.8}, 0},
		{geo.LatLng{Lat: 1.3, Lng: 103.81}, 90},
		{geo.LatLng{Lat: 1.29, Lng: 103.8}, 180},
		{geo.LatLng{Lat: 1.3, Lng: 103.79}, 270},
		{origin, 0},
	}
	for _, tt := range tests {
		if got := bearing(origin, tt.to); got != tt.want {
			t.Errorf("bearing to %v = %d, want %d", tt.to, got, tt.want)
		}
	}
}

func TestHintRoundTrip(t *testing.T) {
	p := geo.LatLng{Lat: 1.3559871, Lng: 103.9876543}
	got, err := decodeHint(encodeHint(p))
	if err != nil {
		t.Fatal(err)
	}
	if d := geo.Distance(p, got); d > 0.1 {
		t.Errorf("decoded hint is %v m away", d)
	}
	if _, err := decodeHint("abc!"); err == nil {
		t.Error("expected error for malformed hint")
	}
}

func TestRound(t *testing.T) {
	if got := round1(1234.5678); got != 1234.6 {
		t.Errorf("round1 = %v", got)
	}
	if got := roundCoord(103.98765432); math.Abs(got-103.987654) > 1e-9 {
		t.Errorf("roundCoord = %v", got)
	}
}
