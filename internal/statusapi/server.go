package statusapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/snarg/chalkline/internal/config"
	"github.com/snarg/chalkline/internal/database"
	"github.com/snarg/chalkline/internal/metrics"
)

// Server is the small operability HTTP surface every long-running daemon
// (ingestd, chatrelay, eventsched) mounts alongside its main loop.
type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// ServerOptions configures the status server. DB is required; Bus,
// Ingest, and Scheduler are optional per-daemon capabilities and may be
// left nil.
type ServerOptions struct {
	Config    *config.Config
	DB        *database.DB
	Bus       busChecker
	Ingest    metrics.IngestStats
	Processed processedCounter
	Scheduler metrics.SchedulerStats
	Version   string
	StartTime time.Time
	Log       zerolog.Logger
}

// NewServer builds the router: unauthenticated /healthz and /metrics,
// plus a small set of read-only JSON status endpoints. There is no
// write surface and no bearer-token auth — this is an operator-facing
// sidecar, not the public API the teacher's tr-engine exposed.
func NewServer(opts ServerOptions) *Server {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(recoverer)
	r.Use(requestLogger(opts.Log))
	r.Use(metrics.InstrumentHandler)

	health := NewHealthHandler(opts.DB, opts.Bus, opts.Version, opts.StartTime)
	r.Get("/healthz", health.ServeHTTP)

	collector := metrics.NewCollector(opts.DB.Pool, opts.Ingest, opts.Scheduler)
	prometheus.MustRegister(collector)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	status := &statusHandler{ingest: opts.Ingest, scheduler: opts.Scheduler, processed: opts.Processed}
	chalklines := &chalklinesHandler{db: opts.DB}
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", status.ServeHTTP)
		r.Get("/chalklines", chalklines.ServeHTTP)
	})

	srv := &http.Server{
		Addr:        opts.Config.HTTPAddr,
		Handler:     r,
		ReadTimeout: opts.Config.ReadTimeout,
		// WriteTimeout left at 0: no streaming endpoints today, but a
		// non-zero value would also cap /metrics scrapes under load.
	}

	return &Server{http: srv, log: opts.Log}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("status http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("status http server shutting down")
	return s.http.Shutdown(ctx)
}
