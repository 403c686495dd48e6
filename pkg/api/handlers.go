package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"github.com/azybler/route_engine/pkg/engine"
	"github.com/azybler/route_engine/pkg/storage"
	"github.com/azybler/route_engine/pkg/value"
)

// Service is the engine surface the handlers call. *engine.Engine
// implements it.
type Service interface {
	Route(ctx context.Context, p *engine.RouteParameters) (engine.Status, value.Value)
	Nearest(ctx context.Context, p *engine.NearestParameters) (engine.Status, value.Value)
	Table(ctx context.Context, p *engine.TableParameters) (engine.Status, value.Value)
	Stats() storage.Stats
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	svc Service
}

// NewHandlers creates handlers over svc.
func NewHandlers(svc Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleRoute handles GET /route/v1/{profile}/{coordinates}.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	coords, q, ok := requestInput(w, r)
	if !ok {
		return
	}
	params, err := routeParameters(coords, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidQuery, err.Error())
		return
	}
	status, result := h.svc.Route(r.Context(), params)
	writeResult(w, status, result)
}

// HandleNearest handles GET /nearest/v1/{profile}/{coordinates}.
func (h *Handlers) HandleNearest(w http.ResponseWriter, r *http.Request) {
	coords, q, ok := requestInput(w, r)
	if !ok {
		return
	}
	params, err := nearestParameters(coords, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidQuery, err.Error())
		return
	}
	status, result := h.svc.Nearest(r.Context(), params)
	writeResult(w, status, result)
}

// HandleTable handles GET /table/v1/{profile}/{coordinates}.
func (h *Handlers) HandleTable(w http.ResponseWriter, r *http.Request) {
	coords, q, ok := requestInput(w, r)
	if !ok {
		return
	}
	params, err := tableParameters(coords, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidQuery, err.Error())
		return
	}
	status, result := h.svc.Table(r.Context(), params)
	writeResult(w, status, result)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{Stats: h.svc.Stats()})
}

// requestInput parses the coordinates path segment and the query. On
// failure it writes the 400 response and returns false.
func requestInput(w http.ResponseWriter, r *http.Request) ([]engine.Coordinate, url.Values, bool) {
	coords, err := parseCoordinates(r.PathValue("coordinates"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidURL, "invalid coordinates: "+err.Error())
		return nil, nil, false
	}
	q, err := parseQuery(r.URL.RawQuery)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidQuery, err.Error())
		return nil, nil, false
	}
	return coords, q, true
}

// writeResult writes an engine result: 200 for Ok, 400 otherwise.
func writeResult(w http.ResponseWriter, status engine.Status, result value.Value) {
	code := http.StatusOK
	if status != engine.StatusOk {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("encode response: %v", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Code: CodeInternalError, Message: "could not encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
