package statusapi

import (
	"net/http"

	"github.com/snarg/chalkline/internal/database"
	"github.com/snarg/chalkline/internal/metrics"
)

// StatusResponse summarizes live ingestion and scheduler state for
// operators, without exposing a general query surface (spec §4.7
// Non-goals: "a general-purpose query API over historical positions").
type StatusResponse struct {
	ActiveLines       int   `json:"active_lines"`
	RecordsProcessed  int64 `json:"records_processed,omitempty"`
	PendingRetrievals int   `json:"pending_retrievals,omitempty"`
}

// statusHandler serves a point-in-time snapshot built from whichever of
// the ingest/scheduler stats interfaces the running process provides.
// Any of them may be nil and then leaves its fields zeroed: chatrelay
// provides none of them, eventsched only the scheduler stats.
type statusHandler struct {
	ingest    metrics.IngestStats
	scheduler metrics.SchedulerStats
	processed processedCounter
}

// processedCounter is satisfied by *ingest.Pipeline.
type processedCounter interface {
	ProcessedCount() int64
}

func (h *statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{}
	if h.ingest != nil {
		resp.ActiveLines = h.ingest.ActiveLineCount()
	}
	if h.processed != nil {
		resp.RecordsProcessed = h.processed.ProcessedCount()
	}
	if h.scheduler != nil {
		resp.PendingRetrievals = h.scheduler.PendingRetrievals()
	}
	writeJSON(w, http.StatusOK, resp)
}

// chalklinesHandler lists the registry's persisted (line, name) pairs,
// grounded on database.ListChalklines, the same read used to rebuild the
// in-memory registry at startup (spec §8).
type chalklinesHandler struct {
	db *database.DB
}

func (h *chalklinesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.ListChalklines(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list chalklines")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
