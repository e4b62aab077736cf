package statusapi

import (
	"context"
	"net/http"
	"time"

	"github.com/snarg/chalkline/internal/database"
)

// busChecker is satisfied by bus.Bus; declared locally to avoid a
// statusapi -> bus import for what is otherwise a one-method dependency.
type busChecker interface {
	IsConnected() bool
}

// HealthResponse mirrors the teacher's health payload shape, trimmed to
// this daemon's checks (no MQTT/transcription/update-checker fields).
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

// HealthHandler reports liveness of the database and message bus
// connections (spec §10 "Metrics and health" — ambient operability, not
// a named feature).
type HealthHandler struct {
	db        *database.DB
	bus       busChecker
	version   string
	startTime time.Time
}

// NewHealthHandler builds a health handler. bus may be nil for daemons
// that don't hold a bus connection (e.g. the results CLI never runs this
// server at all, but eventsched has no bus either).
func NewHealthHandler(db *database.DB, bus busChecker, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{db: db, bus: bus, version: version, startTime: startTime}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		checks["database"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.bus != nil {
		if h.bus.IsConnected() {
			checks["bus"] = "ok"
		} else {
			checks["bus"] = "disconnected"
			if status == "healthy" {
				status = "degraded"
			}
		}
	} else {
		checks["bus"] = "not_configured"
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}
