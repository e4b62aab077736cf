// Command eventsched runs the EventsScheduler daemon: it walks upcoming
// Zwift event subgroups and dispatches rider-profile retrieval jobs onto
// a bounded worker pool at computed offsets around each subgroup's start
// (spec §4.8).
//
// Grounded on original_source/get_ridersnewmysql.py's run_server being
// its own long-lived process, and on cmd/tr-engine/main.go's wiring
// sequence for the other daemons in this module.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/chalkline/internal/config"
	"github.com/snarg/chalkline/internal/database"
	"github.com/snarg/chalkline/internal/riderprofile"
	"github.com/snarg/chalkline/internal/scheduler"
	"github.com/snarg/chalkline/internal/statusapi"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var overrides config.Overrides
	var showVersion bool
	var startAt string
	flag.StringVar(&overrides.EnvFile, "env-file", "", "Path to .env file (default: .env)")
	flag.StringVar(&overrides.HTTPAddr, "listen", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flag.StringVar(&overrides.DatabaseURL, "database-url", "", "PostgreSQL connection URL (overrides DATABASE_URL)")
	flag.StringVar(&startAt, "time", "", "RFC3339 timestamp to seed the scheduler's last-processed point (default: now)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("eventsched %s (commit=%s)\n", version, commit)
		os.Exit(0)
	}

	startTime := time.Now()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.ZwiftUsername == "" || cfg.ZwiftPassword == "" {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Msg("ZWIFT_USERNAME and ZWIFT_PASSWORD must be set")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Str("commit", commit).Msg("eventsched starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbLog := log.With().Str("component", "database").Logger()
	db, err := database.Connect(ctx, cfg.DatabaseURL, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	provider := riderprofile.NewZwiftClient(cfg.ZwiftUsername, cfg.ZwiftPassword, cfg.ProfileHTTPTimeout)
	if err := provider.Login(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to authenticate against upstream profile API")
	}

	pool := riderprofile.NewWorkerPool(riderprofile.WorkerPoolOptions{
		DB:            db,
		Provider:      provider,
		Workers:       cfg.ProfileWorkers,
		QueueSize:     cfg.ProfileQueueSize,
		RatePerSecond: cfg.ProfileRateLimitRPS,
		Burst:         cfg.ProfileRateLimitBurst,
		Log:           log.With().Str("component", "riderprofile").Logger(),
	})
	pool.Start()
	defer pool.Stop()

	sched := scheduler.New(db, pool, log.With().Str("component", "scheduler").Logger(),
		cfg.SchedulerHorizon, cfg.SchedulerMaxSleep)

	startAtMs := startTime.UnixMilli()
	if startAt != "" {
		t, err := time.Parse(time.RFC3339, startAt)
		if err != nil {
			log.Fatal().Err(err).Str("time", startAt).Msg("invalid -time value")
		}
		startAtMs = t.UnixMilli()
	}

	httpLog := log.With().Str("component", "http").Logger()
	srv := statusapi.NewServer(statusapi.ServerOptions{
		Config:    cfg,
		DB:        db,
		Scheduler: pool,
		Version:   fmt.Sprintf("%s (commit=%s)", version, commit),
		StartTime: startTime,
		Log:       httpLog,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- sched.Run(ctx, startAtMs) }()

	log.Info().Dur("startup_ms", time.Since(startTime)).Msg("eventsched ready")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-runErrCh:
		if err != nil {
			log.Error().Err(err).Msg("scheduler stopped")
		}
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("eventsched stopped")
}
