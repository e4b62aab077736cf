package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeIngestStats struct{ active int }

func (f fakeIngestStats) ActiveLineCount() int { return f.active }

type fakeProcessedCounter struct{ n int64 }

func (f fakeProcessedCounter) ProcessedCount() int64 { return f.n }

type fakeSchedulerStats struct{ pending int }

func (f fakeSchedulerStats) PendingRetrievals() int { return f.pending }

func TestStatusHandler_AllSourcesPresent(t *testing.T) {
	h := &statusHandler{
		ingest:    fakeIngestStats{active: 3},
		processed: fakeProcessedCounter{n: 42},
		scheduler: fakeSchedulerStats{pending: 7},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ActiveLines != 3 || resp.RecordsProcessed != 42 || resp.PendingRetrievals != 7 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStatusHandler_AllSourcesNil(t *testing.T) {
	h := &statusHandler{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ActiveLines != 0 || resp.RecordsProcessed != 0 || resp.PendingRetrievals != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
