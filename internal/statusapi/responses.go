// Package statusapi exposes the small read-only HTTP surface a running
// ingestion or scheduler daemon needs for operability: a liveness/readiness
// check, a Prometheus scrape endpoint, and a handful of JSON status
// endpoints for the registry and worker queues. It is deliberately not a
// general query API — that is a named non-goal (spec §4.7 Non-goals).
//
// Shape and middleware stack are grounded on
// internal/api/{server.go,health.go,responses.go,middleware.go}, trimmed
// to the subset this daemon needs: no auth, upload, or web UI surface.
package statusapi

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
