// Command chatrelay runs the standalone raw-chat relay: it consumes the
// raw chat exchange, deduplicates messages through its own window (spec
// §3/§4.5), and republishes unique messages onto the main exchange while
// persisting them to the chat table.
//
// Grounded on original_source/chat_processor.py, which is its own OS
// process with its own independent dedup state — distinct from the
// tailed-log ingestion path in cmd/ingestd, which dedupes CHAT rows
// arriving through the timing log instead of through AMQP.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/chalkline/internal/bus"
	"github.com/snarg/chalkline/internal/chatdedup"
	"github.com/snarg/chalkline/internal/config"
	"github.com/snarg/chalkline/internal/database"
	"github.com/snarg/chalkline/internal/ingest"
	"github.com/snarg/chalkline/internal/model"
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
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("chatrelay %s (commit=%s)\n", version, commit)
		os.Exit(0)
	}

	startTime := time.Now()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.AMQPURL == "" {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Msg("AMQP_URL must be set")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Str("commit", commit).Msg("chatrelay starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbLog := log.With().Str("component", "database").Logger()
	db, err := database.Connect(ctx, cfg.DatabaseURL, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

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

	dedup := chatdedup.New(cfg.ChatDedupWindow)
	relay := &relay{
		db:       db,
		bus:      busConn,
		dedup:    dedup,
		log:      log.With().Str("component", "chatrelay").Logger(),
		delay:    cfg.StorageRetryDelay,
		exchange: cfg.AMQPExchange,
	}

	httpLog := log.With().Str("component", "http").Logger()
	srv := statusapi.NewServer(statusapi.ServerOptions{
		Config:    cfg,
		DB:        db,
		Bus:       busConn,
		Version:   fmt.Sprintf("%s (commit=%s)", version, commit),
		StartTime: startTime,
		Log:       httpLog,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	subErrCh := make(chan error, 1)
	go func() {
		subErrCh <- busConn.Subscribe(ctx, cfg.AMQPRawChatExchange, []string{"CHAT"}, relay.handle)
	}()

	log.Info().Str("exchange", cfg.AMQPRawChatExchange).Dur("startup_ms", time.Since(startTime)).
		Msg("chatrelay ready")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-subErrCh:
		if err != nil {
			log.Error().Err(err).Msg("chatrelay subscription stopped")
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

	log.Info().Msg("chatrelay stopped")
}

// relay holds the state a single subscription handler closes over:
// its own dedup window, the outbound bus, and storage.
type relay struct {
	db       *database.DB
	bus      *bus.Bus
	dedup    *chatdedup.Deduper
	log      zerolog.Logger
	delay    time.Duration
	exchange string
}

// handle decodes one raw-chat delivery, dedupes it, and on uniqueness
// both persists and republishes it onto the main exchange with a
// rider-scoped routing key — the two outbound actions
// chat_processor.py's callback() takes for every non-duplicate message.
func (r *relay) handle(_ string, body []byte) {
	var v ingest.ChatPayload
	if err := json.Unmarshal(body, &v); err != nil {
		r.log.Warn().Err(err).Msg("chatrelay: malformed delivery, skipping")
		return
	}

	at, err := ingest.ParseEventClock(v.Time)
	if err != nil {
		r.log.Warn().Err(err).Str("time", v.Time).Msg("chatrelay: unparseable time, skipping")
		return
	}

	if !r.dedup.Forward(at, v.RiderID, v.Msg) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chat := model.ChatEvent{Time: v.Time, RiderID: v.RiderID, PartialName: v.PartialName, Msg: v.Msg}
	if err := r.retryInsert(ctx, chat); err != nil {
		r.log.Error().Err(err).Uint64("riderid", v.RiderID).Msg("chatrelay: insert failed, message dropped")
		return
	}

	routingKey := fmt.Sprintf("CHAT.%d", v.RiderID)
	payload, _ := json.Marshal(chat)
	if err := r.bus.Publish(ctx, r.exchange, routingKey, payload); err != nil {
		r.log.Warn().Err(err).Str("routing_key", routingKey).Msg("chatrelay: republish failed")
	}
}

// retryInsert wraps a single storage write in a small bounded retry loop
// (unlike ingest.Pipeline's retryStorage, which retries until the write
// succeeds or ctx is cancelled), since a transient database
// hiccup should not silently drop an already-deduplicated message.
func (r *relay) retryInsert(ctx context.Context, chat model.ChatEvent) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if err := r.db.InsertChat(ctx, chat); err == nil {
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay):
		}
	}
	return lastErr
}
