package api

import (
	"github.com/azybler/route_engine/pkg/storage"
)

// ErrorResponse is the JSON body of requests rejected before reaching the
// engine. Engine errors use the same {code, message} shape.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	storage.Stats
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// Error codes for malformed requests.
const (
	CodeInvalidURL    = "InvalidUrl"
	CodeInvalidQuery  = "InvalidQuery"
	CodeInternalError = "InternalError"
	CodeUnavailable   = "ServiceUnavailable"
)
