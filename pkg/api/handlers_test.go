package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/azybler/route_engine/pkg/engine"
	"github.com/azybler/route_engine/pkg/graph"
	"github.com/azybler/route_engine/pkg/storage"
	"github.com/azybler/route_engine/pkg/storage/storagetest"
	"github.com/azybler/route_engine/pkg/value"
)

// mockService implements Service for testing.
type mockService struct {
	status engine.Status
	result value.Value
	stats  storage.Stats
	panic  bool

	route   *engine.RouteParameters
	nearest *engine.NearestParameters
	table   *engine.TableParameters
}

func (m *mockService) respond() (engine.Status, value.Value) {
	if m.panic {
		panic("boom")
	}
	if m.result == nil {
		return engine.StatusOk, value.NewObject().Set("code", value.String("Ok"))
	}
	return m.status, m.result
}

func (m *mockService) Route(ctx context.Context, p *engine.RouteParameters) (engine.Status, value.Value) {
	m.route = p
	return m.respond()
}

func (m *mockService) Nearest(ctx context.Context, p *engine.NearestParameters) (engine.Status, value.Value) {
	m.nearest = p
	return m.respond()
}

func (m *mockService) Table(ctx context.Context, p *engine.TableParameters) (engine.Status, value.Value) {
	m.table = p
	return m.respond()
}

func (m *mockService) Stats() storage.Stats { return m.stats }

func serve(t *testing.T, svc Service, cfg ServerConfig, target string) *httptest.ResponseRecorder {
	t.Helper()
	srv := NewServer(cfg, NewHandlers(svc))
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestHandleRoute_Success(t *testing.T) {
	mock := &mockService{}
	w := serve(t, mock, DefaultConfig(":0"),
		"/route/v1/driving/103.988,1.3556;103.9554,1.3562?steps=true&geometries=geojson&overview=full&annotations=nodes,distance&radiuses=100;unlimited&hints=;abc")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	p := mock.route
	if p == nil {
		t.Fatal("service not called")
	}
	if len(p.Coordinates) != 2 || p.Coordinates[0] != engine.NewCoordinate(103.988, 1.3556) {
		t.Errorf("Coordinates = %v", p.Coordinates)
	}
	if !p.Steps || p.Geometries != engine.GeometriesGeoJSON || p.Overview != engine.OverviewFull {
		t.Errorf("options = %+v", p)
	}
	if p.Annotations != engine.AnnotationsNodes|engine.AnnotationsDistance {
		t.Errorf("Annotations = %b", p.Annotations)
	}
	if len(p.Radiuses) != 2 || p.Radiuses[0] != 100 || !math.IsInf(p.Radiuses[1], 1) {
		t.Errorf("Radiuses = %v", p.Radiuses)
	}
	if len(p.Hints) != 2 || p.Hints[0] != "" || p.Hints[1] != "abc" {
		t.Errorf("Hints = %q", p.Hints)
	}
	if !p.GenerateHints {
		t.Error("GenerateHints should default to true")
	}
}

func TestHandleRoute_Defaults(t *testing.T) {
	mock := &mockService{}
	serve(t, mock, DefaultConfig(":0"), "/route/v1/car/103.9,1.3;103.8,1.4")
	want := engine.DefaultRouteParameters()
	p := mock.route
	if p.Steps != want.Steps || p.Geometries != want.Geometries || p.Overview != want.Overview || p.Annotations != want.Annotations {
		t.Errorf("params = %+v, want defaults %+v", p, want)
	}
}

func TestHandleRoute_EngineError(t *testing.T) {
	mock := &mockService{
		status: engine.StatusError,
		result: value.NewObject().
			Set("code", value.String("NoSegment")).
			Set("message", value.String("Could not find a matching segment for coordinate 0")),
	}
	w := serve(t, mock, DefaultConfig(":0"), "/route/v1/driving/0,0;1,1")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != "NoSegment" || resp.Message == "" {
		t.Errorf("body = %+v", resp)
	}
}

func TestHandleRoute_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
		code   string
	}{
		{"not a number", "/route/v1/driving/abc,1;2,3", CodeInvalidURL},
		{"missing latitude", "/route/v1/driving/103.9;103.8,1.3", CodeInvalidURL},
		{"bad geometries", "/route/v1/driving/103.9,1.3;103.8,1.4?geometries=wkt", CodeInvalidQuery},
		{"bad bool", "/route/v1/driving/103.9,1.3;103.8,1.4?steps=yes", CodeInvalidQuery},
		{"bad annotation", "/route/v1/driving/103.9,1.3;103.8,1.4?annotations=nodes,color", CodeInvalidQuery},
		{"bad radius", "/route/v1/driving/103.9,1.3;103.8,1.4?radiuses=10;far", CodeInvalidQuery},
		{"bad overview", "/route/v1/driving/103.9,1.3;103.8,1.4?overview=some", CodeInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockService{}
			w := serve(t, mock, DefaultConfig(":0"), tt.target)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if resp := decodeError(t, w); resp.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", resp.Code, tt.code, resp.Message)
			}
			if mock.route != nil {
				t.Error("service called for a malformed request")
			}
		})
	}
}

func TestHandleRoute_WrongMethod(t *testing.T) {
	srv := NewServer(DefaultConfig(":0"), NewHandlers(&mockService{}))
	req := httptest.NewRequest("POST", "/route/v1/driving/103.9,1.3;103.8,1.4", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestHandleNearest(t *testing.T) {
	mock := &mockService{}
	w := serve(t, mock, DefaultConfig(":0"), "/nearest/v1/driving/103.988,1.3556?number=3")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if mock.nearest == nil || mock.nearest.Number != 3 || mock.nearest.Coordinate.Lat != 1.3556 {
		t.Errorf("params = %+v", mock.nearest)
	}

	w = serve(t, &mockService{}, DefaultConfig(":0"), "/nearest/v1/driving/103.988,1.3556;103.9,1.3")
	if w.Code != http.StatusBadRequest || decodeError(t, w).Code != CodeInvalidQuery {
		t.Errorf("two coordinates: status %d body %s", w.Code, w.Body.String())
	}
}

func TestHandleTable(t *testing.T) {
	mock := &mockService{}
	w := serve(t, mock, DefaultConfig(":0"),
		"/table/v1/driving/103.9,1.3;103.8,1.4;103.7,1.35?sources=0;2&destinations=all&annotations=duration,distance")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	p := mock.table
	if p == nil {
		t.Fatal("service not called")
	}
	if len(p.Sources) != 2 || p.Sources[1] != 2 || p.Destinations != nil {
		t.Errorf("sources %v destinations %v", p.Sources, p.Destinations)
	}
	if p.Annotations != engine.TableDuration|engine.TableDistance {
		t.Errorf("Annotations = %b", p.Annotations)
	}

	w = serve(t, &mockService{}, DefaultConfig(":0"), "/table/v1/driving/103.9,1.3?sources=first")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad sources: status = %d", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	h := NewHandlers(&mockService{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp HealthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want 'ok'", resp.Status)
	}
}

func TestHandleStats(t *testing.T) {
	h := NewHandlers(&mockService{stats: storage.Stats{Nodes: 500000, Edges: 1000000, Metric: "duration"}})

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()

	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["nodes"] != 500000.0 || resp["metric"] != "duration" {
		t.Errorf("body = %v", resp)
	}
}

func TestMiddleware(t *testing.T) {
	cfg := DefaultConfig(":0")
	cfg.CORSOrigin = "https://maps.example.com"
	w := serve(t, &mockService{}, cfg, "/api/v1/health")

	for header, want := range map[string]string{
		"X-Content-Type-Options":      "nosniff",
		"X-Frame-Options":             "DENY",
		"Access-Control-Allow-Origin": cfg.CORSOrigin,
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if id := w.Header().Get("X-Request-Id"); len(id) != 36 {
		t.Errorf("X-Request-Id = %q, want a UUID", id)
	}
}

func TestMiddleware_KeepsRequestID(t *testing.T) {
	const id = "0b6b5a0e-3c52-4d3f-9f0e-2f1c8d7e6a5b"
	srv := NewServer(DefaultConfig(":0"), NewHandlers(&mockService{}))
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set("X-Request-Id", id)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-Id"); got != id {
		t.Errorf("X-Request-Id = %q, want %q", got, id)
	}
}

func TestMiddleware_ConcurrencyLimit(t *testing.T) {
	cfg := DefaultConfig(":0")
	cfg.MaxConcurrent = 0
	w := serve(t, &mockService{}, cfg, "/api/v1/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestMiddleware_Recovery(t *testing.T) {
	w := serve(t, &mockService{panic: true}, DefaultConfig(":0"), "/route/v1/driving/103.9,1.3;103.8,1.4")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != CodeInternalError {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestServerWithEngine(t *testing.T) {
	e, err := engine.New(engine.DefaultConfig(storagetest.WriteDataset(t, graph.MetricDuration)))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	w := serve(t, e, DefaultConfig(":0"), "/route/v1/driving/103.9880,1.3556;103.9554,1.3562?overview=false")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	res, err := value.Parse(w.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if keys, _ := value.AsObject(res); keys.Keys()[0] != "code" {
		t.Errorf("first key = %q, want code", keys.Keys()[0])
	}
	d, err := value.Read(res).Key("routes").Index(0).Key("distance").AsNumber()
	if err != nil || d <= 0 {
		t.Errorf("distance = %v (%v)", d, err)
	}

	w = serve(t, e, DefaultConfig(":0"), "/route/v1/driving/104.5,1.0;103.9554,1.3562")
	if w.Code != http.StatusBadRequest || decodeError(t, w).Code != engine.CodeNoSegment {
		t.Errorf("offshore: status %d body %s", w.Code, w.Body.String())
	}
}
