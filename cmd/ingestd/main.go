// Command ingestd runs the ingestion daemon: it tails the timing log,
// maintains the LineRegistry, persists positions/telemetry/chat, and
// republishes position, telemetry and chat events onto the message bus
// (spec §4.1-§4.5).
//
// Grounded on cmd/tr-engine/main.go's wiring sequence and
// graceful-shutdown pattern.
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

	chalklineroot "github.com/snarg/chalkline"
	"github.com/snarg/chalkline/internal/bus"
	"github.com/snarg/chalkline/internal/chalkline"
	"github.com/snarg/chalkline/internal/chatdedup"
	"github.com/snarg/chalkline/internal/config"
	"github.com/snarg/chalkline/internal/database"
	"github.com/snarg/chalkline/internal/ingest"
	"github.com/snarg/chalkline/internal/logtail"
	"github.com/snarg/chalkline/internal/statusapi"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var overrides config.Overrides
	var showVersion bool
	flag.StringVar(&overrides.EnvFile, "env-file", "", "Path to .env file (default: .env)")
	flag.StringVar(&overrides.HTTPAddr, "listen", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flag.StringVar(&overrides.DatabaseURL, "database-url", "", "PostgreSQL connection URL (overrides DATABASE_URL)")
	flag.StringVar(&overrides.AMQPURL, "amqp-url", "", "AMQP broker URL (overrides AMQP_URL)")
	flag.StringVar(&overrides.LogPath, "log-path", "", "Timing log path to tail (overrides LOG_PATH)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("ingestd %s (commit=%s)\n", version, commit)
		os.Exit(0)
	}

	startTime := time.Now()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Str("commit", commit).Msg("ingestd starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbLog := log.With().Str("component", "database").Logger()
	db, err := database.Connect(ctx, cfg.DatabaseURL, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(ctx, chalklineroot.SchemaSQL); err != nil {
		log.Fatal().Err(err).Msg("schema initialization failed")
	}

	busLog := log.With().Str("component", "bus").Logger()
	busConn, err := bus.Connect(bus.Options{
		URL:            cfg.AMQPURL,
		Log:            busLog,
		PublishRetries: cfg.BusPublishRetries,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to message bus")
	}
	defer busConn.Close()

	registry := chalkline.New()
	rows, err := db.ListChalklines(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load chalkline registry")
	}
	for _, row := range rows {
		registry.AddDest(row.Line, row.Name)
	}
	log.Info().Int("lines", registry.Len()).Msg("chalkline registry rebuilt from database")

	dedup := chatdedup.New(cfg.ChatDedupWindow)

	pipeline := ingest.New(ingest.Options{
		DB:                db,
		Registry:          registry,
		Bus:               busConn,
		Dedup:             dedup,
		Log:               log.With().Str("component", "ingest").Logger(),
		UpdateInterval:    cfg.UpdateInterval,
		StorageRetryDelay: cfg.StorageRetryDelay,
		LogPath:           cfg.LogPath,
		RenameOnShutdown:  true,
	})
	defer pipeline.Close()

	tailer, err := logtail.Open(cfg.LogPath, cfg.LogPollInterval, log.With().Str("component", "logtail").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open timing log")
	}
	defer tailer.Close()

	httpLog := log.With().Str("component", "http").Logger()
	srv := statusapi.NewServer(statusapi.ServerOptions{
		Config:    cfg,
		DB:        db,
		Bus:       busConn,
		Ingest:    pipeline,
		Processed: pipeline,
		Version:   fmt.Sprintf("%s (commit=%s)", version, commit),
		StartTime: startTime,
		Log:       httpLog,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- pipeline.Run(ctx, tailer) }()

	log.Info().Str("log_path", cfg.LogPath).Dur("startup_ms", time.Since(startTime)).Msg("ingestd ready")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-runErrCh:
		if err != nil {
			log.Error().Err(err).Msg("ingest pipeline stopped")
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

	log.Info().Msg("ingestd stopped")
}
