package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chalkline"

// HTTP metrics (counter/histogram — incremented by middleware) for the
// small statusapi read surface.
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed.",
	}, []string{"method", "path_pattern", "status_code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path_pattern"})
)

// Ingest counters (incremented directly by ingest.Pipeline).
var (
	RecordsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_records_processed_total",
		Help:      "Total ingestion records processed, by event kind.",
	}, []string{"kind"})

	MalformedRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_malformed_records_total",
		Help:      "Total records dropped for failing to parse.",
	})
)

// Bus counters (incremented directly by bus.Bus).
var (
	BusReconnectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bus_reconnects_total",
		Help:      "Total times the bus connection was re-established.",
	})

	BusPublishDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bus_publish_dropped_total",
		Help:      "Total publishes dropped after exhausting retries.",
	})
)

// Chat dedup counters (incremented directly by chatdedup.Deduper).
var (
	ChatDedupEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_dedup_evictions_total",
		Help:      "Total chat messages dropped as duplicates within the dedup window.",
	})
)

// EventsScheduler counters, incremented by scheduler.Scheduler and
// riderprofile.WorkerPool.
var (
	SchedulerJobsDispatchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_jobs_dispatched_total",
		Help:      "Total rider-profile retrieval jobs dispatched to the worker pool.",
	})

	SchedulerJobsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_jobs_failed_total",
		Help:      "Total rider-profile retrieval jobs that failed after retry.",
	})
)

// ResultsRunDuration times a full ResultsEngine.Run pass end to end.
var ResultsRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "results_run_duration_seconds",
	Help:      "Duration of a full results-engine run.",
	Buckets:   prometheus.DefBuckets,
})

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RecordsProcessedTotal,
		MalformedRecordsTotal,
		BusReconnectsTotal,
		BusPublishDroppedTotal,
		ChatDedupEvictionsTotal,
		SchedulerJobsDispatchedTotal,
		SchedulerJobsFailedTotal,
		ResultsRunDuration,
	)
}

// InstrumentHandler returns middleware that records HTTP request metrics.
// It uses chi's route pattern as the path label to avoid cardinality explosion.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(sw, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unknown"
		}
		method := r.Method
		status := strconv.Itoa(sw.status)
		duration := time.Since(start).Seconds()

		HTTPRequestsTotal.WithLabelValues(method, pattern, status).Inc()
		HTTPRequestDuration.WithLabelValues(method, pattern).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture status code and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// Unwrap supports http.ResponseController and middleware that check for
// wrapped writers (e.g. http.Flusher for SSE streaming).
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
