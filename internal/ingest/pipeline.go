package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/chalkline/internal/bus"
	"github.com/snarg/chalkline/internal/chalkline"
	"github.com/snarg/chalkline/internal/chatdedup"
	"github.com/snarg/chalkline/internal/database"
	"github.com/snarg/chalkline/internal/logtail"
	"github.com/snarg/chalkline/internal/metrics"
	"github.com/snarg/chalkline/internal/model"
)

// ErrShutdown is returned by Run when a SHUTDOWN record is processed and
// the pipeline is not configured to stay running past it (spec §4.5).
var ErrShutdown = errors.New("ingest: shutdown condition raised")

const (
	busExchange    = "zlogger"
	rawChatRouting = "CHAT"
)

// Options configures a Pipeline.
type Options struct {
	DB       *database.DB
	Registry *chalkline.Registry
	Bus      *bus.Bus
	Dedup    *chatdedup.Deduper
	Log      zerolog.Logger

	// UpdateInterval is how stale a line's last-active stamp must be
	// before a POS touch re-marks it active (spec §4.5 default 30s); NEARBY
	// re-marks its line active on every record.
	UpdateInterval time.Duration

	// StorageRetryDelay is the sleep between storage retry attempts
	// (spec §4.5/§7 default 3s).
	StorageRetryDelay time.Duration

	// LogPath is the ingestion log being tailed; used for the optional
	// SHUTDOWN rename.
	LogPath string
	// RenameOnShutdown triggers the date-suffixed rename described in
	// spec §4.5/§5 when a SHUTDOWN record is seen.
	RenameOnShutdown bool
	// StayRunningAfterShutdown suppresses ErrShutdown entirely — SHUTDOWN
	// still deactivates chalklines but the loop keeps tailing.
	StayRunningAfterShutdown bool
}

// Pipeline is the Ingestor: the single-threaded loop that decodes records,
// dispatches by kind, and drives the LineRegistry, database, and bus.
//
// Grounded on internal/ingest/pipeline.go's Pipeline struct (dependency
// fields, a dispatch method, batched archival) and on
// original_source/parse_log.py's literal if/elif chain keyed on
// record["e"].
type Pipeline struct {
	db       *database.DB
	registry *chalkline.Registry
	busConn  *bus.Bus
	dedup    *chatdedup.Deduper
	log      zerolog.Logger

	updateInterval    time.Duration
	storageRetryDelay time.Duration

	logPath                  string
	renameOnShutdown         bool
	stayRunningAfterShutdown bool

	mu          sync.Mutex
	lastActive  map[uint32]time.Time
	activeLines map[uint32]bool

	statsBatcher *Batcher[string]
	processed    int64
}

// New builds a Pipeline. The stats Batcher (spec §9's resolved "per-record
// commits, batch only archival/stats" decision — see DESIGN.md) flushes a
// throughput line every 5s or 200 records, whichever comes first; it never
// touches position/telemetry/chat rows, which are always committed one at
// a time.
func New(opts Options) *Pipeline {
	updateInterval := opts.UpdateInterval
	if updateInterval <= 0 {
		updateInterval = 30 * time.Second
	}
	retryDelay := opts.StorageRetryDelay
	if retryDelay <= 0 {
		retryDelay = 3 * time.Second
	}

	p := &Pipeline{
		db:                       opts.DB,
		registry:                 opts.Registry,
		busConn:                  opts.Bus,
		dedup:                    opts.Dedup,
		log:                      opts.Log,
		updateInterval:           updateInterval,
		storageRetryDelay:        retryDelay,
		logPath:                  opts.LogPath,
		renameOnShutdown:         opts.RenameOnShutdown,
		stayRunningAfterShutdown: opts.StayRunningAfterShutdown,
		lastActive:               make(map[uint32]time.Time),
		activeLines:              make(map[uint32]bool),
	}
	p.statsBatcher = NewBatcher(200, 5*time.Second, func(kinds []string) {
		p.log.Info().Int("count", len(kinds)).Msg("ingest: throughput")
	})
	return p
}

// Close releases the stats batcher's background timer.
func (p *Pipeline) Close() {
	p.statsBatcher.Stop()
}

// ActiveLineCount implements metrics.IngestStats for the scrape-time
// active-chalkline gauge.
func (p *Pipeline) ActiveLineCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.activeLines)
}

// ProcessedCount reports the total records decoded and dispatched so
// far, for internal/statusapi's read surface.
func (p *Pipeline) ProcessedCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed
}

// Run tails path via tailer, decoding and dispatching each line until ctx
// is cancelled or a SHUTDOWN record ends the loop.
func (p *Pipeline) Run(ctx context.Context, tailer *logtail.Tailer) error {
	for {
		line, err := tailer.Next(ctx)
		if err != nil {
			return err
		}

		if err := p.processLine(ctx, line); err != nil {
			return err
		}
	}
}

func (p *Pipeline) processLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	var rec RawRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		metrics.MalformedRecordsTotal.Inc()
		p.log.Warn().Err(err).Str("line", truncate(line, 200)).Msg("ingest: malformed JSON, skipping")
		return nil
	}

	p.mu.Lock()
	p.processed++
	p.mu.Unlock()
	metrics.RecordsProcessedTotal.WithLabelValues(string(rec.Kind)).Inc()
	p.statsBatcher.Add(string(rec.Kind))

	switch rec.Kind {
	case KindLine:
		return p.handleLine(ctx, rec)
	case KindNearby:
		return p.handleNearby(ctx, rec)
	case KindPos:
		return p.handlePos(ctx, rec)
	case KindTele:
		return p.handleTele(ctx, rec)
	case KindShutdown:
		return p.handleShutdown(ctx)
	case KindChat:
		return p.handleChat(ctx, rec)
	default:
		p.log.Warn().Str("kind", string(rec.Kind)).Msg("ingest: unrecognized event kind, skipping")
		return nil
	}
}

// handleLine implements spec §4.5's LINE row: add_source; if the registry
// does not yet know this name, insert a chalkline row, read back its
// canonical id, and install the mapping in the opposite direction.
func (p *Pipeline) handleLine(ctx context.Context, rec RawRecord) error {
	var v LinePayload
	if err := json.Unmarshal(rec.V, &v); err != nil {
		p.log.Warn().Err(err).Msg("ingest: LINE missing required field, skipping")
		return nil
	}

	if p.registry.AddSource(v.Line, v.Name) {
		return nil
	}

	// AddSource returned false, so the registry has no canonical id for
	// this name yet: insert a new chalkline row and install the mapping.
	var canonicalID uint32
	err := p.retryStorage(ctx, func(ctx context.Context) error {
		id, err := p.db.InsertChalkline(ctx, v.Name, []byte(v.Data))
		if err != nil {
			return err
		}
		canonicalID = id
		return nil
	})
	if err != nil {
		return err
	}

	p.registry.AddDest(canonicalID, v.Name)
	p.registry.AddSource(v.Line, v.Name)
	return nil
}

// handleNearby implements spec §4.5's NEARBY row: resolve, mark active,
// stamp last_monitored.
func (p *Pipeline) handleNearby(ctx context.Context, rec RawRecord) error {
	var v NearbyPayload
	if err := json.Unmarshal(rec.V, &v); err != nil {
		p.log.Warn().Err(err).Msg("ingest: NEARBY missing required field, skipping")
		return nil
	}

	canonicalID, err := p.registry.Resolve(v.Data)
	if err != nil {
		p.log.Warn().Uint32("local_id", v.Data).Msg("ingest: NEARBY references unmapped line, skipping")
		return nil
	}

	return p.markActive(ctx, canonicalID)
}

// handlePos implements spec §4.5's POS row.
func (p *Pipeline) handlePos(ctx context.Context, rec RawRecord) error {
	var v PosPayload
	if err := json.Unmarshal(rec.V, &v); err != nil {
		p.log.Warn().Err(err).Msg("ingest: POS missing required field, skipping")
		return nil
	}

	canonicalID, err := p.registry.Resolve(v.Line)
	var lineIDPtr *uint32
	if err != nil {
		p.log.Warn().Uint32("local_id", v.Line).Msg("ingest: POS references unmapped line, skipping")
		return nil
	}
	lineIDPtr = &canonicalID
	if err := p.markActiveIfStale(ctx, canonicalID); err != nil {
		return err
	}

	pos := model.PositionRecord{
		TimeMs:              rec.Msec,
		RiderID:             v.ID,
		LineID:              lineIDPtr,
		Forward:             v.Fwd,
		Meters:              v.M,
		Mwh:                 v.Mwh,
		DurationMs:          v.Dur,
		Elevation:           v.Ele,
		SpeedMphThousandths: v.Spd,
		HR:                  v.HR,
		MonitorID:           v.Obs,
		Lpup:                v.Lpup,
		Pup:                 v.Pup,
		Cadence:             v.Cad,
		GroupID:             v.Group,
	}

	if err := p.retryStorage(ctx, func(ctx context.Context) error {
		return p.db.UpsertLiveResult(ctx, pos)
	}); err != nil {
		return err
	}

	lineName := ""
	if lineIDPtr != nil {
		lineName = strconv.FormatUint(uint64(*lineIDPtr), 10)
	}
	routingKey := fmt.Sprintf("POS.%s.%d", lineName, v.ID)
	payload, _ := json.Marshal(pos)
	if err := p.busConn.Publish(ctx, busExchange, routingKey, payload); err != nil {
		p.log.Warn().Err(err).Str("routing_key", routingKey).Msg("ingest: bus publish failed")
	}
	return nil
}

// handleTele implements spec §4.5's TELE row: same shape as POS, persisted
// to telemetry with rad instead of lineid, and no line_id on the bus.
func (p *Pipeline) handleTele(ctx context.Context, rec RawRecord) error {
	var v TelePayload
	if err := json.Unmarshal(rec.V, &v); err != nil {
		p.log.Warn().Err(err).Msg("ingest: TELE missing required field, skipping")
		return nil
	}

	rad := v.Rad
	tele := model.TelemetryRecord{
		TimeMs:              rec.Msec,
		RiderID:             v.ID,
		Rad:                 &rad,
		Forward:             v.Fwd,
		Meters:              v.M,
		Mwh:                 v.Mwh,
		DurationMs:          v.Dur,
		Elevation:           v.Ele,
		SpeedMphThousandths: v.Spd,
		HR:                  v.HR,
		MonitorID:           v.Obs,
		Lpup:                v.Lpup,
		Pup:                 v.Pup,
		Cadence:             v.Cad,
		GroupID:             v.Group,
	}

	if err := p.retryStorage(ctx, func(ctx context.Context) error {
		return p.db.UpsertTelemetry(ctx, tele)
	}); err != nil {
		return err
	}

	routingKey := fmt.Sprintf("TELE.%d", v.ID)
	payload, _ := json.Marshal(tele)
	if err := p.busConn.Publish(ctx, busExchange, routingKey, payload); err != nil {
		p.log.Warn().Err(err).Str("routing_key", routingKey).Msg("ingest: bus publish failed")
	}
	return nil
}

// handleChat implements spec §4.5's CHAT row: delegate to ChatDeduper;
// unique messages are published and inserted.
func (p *Pipeline) handleChat(ctx context.Context, rec RawRecord) error {
	var v ChatPayload
	if err := json.Unmarshal(rec.V, &v); err != nil {
		p.log.Warn().Err(err).Msg("ingest: CHAT missing required field, skipping")
		return nil
	}

	at, err := ParseEventClock(v.Time)
	if err != nil {
		p.log.Warn().Err(err).Str("time", v.Time).Msg("ingest: CHAT has unparseable time, skipping")
		return nil
	}

	if !p.dedup.Forward(at, v.RiderID, v.Msg) {
		return nil
	}

	chat := model.ChatEvent{Time: v.Time, RiderID: v.RiderID, PartialName: v.PartialName, Msg: v.Msg}
	if err := p.retryStorage(ctx, func(ctx context.Context) error {
		return p.db.InsertChat(ctx, chat)
	}); err != nil {
		return err
	}

	routingKey := fmt.Sprintf("CHAT.%d", v.RiderID)
	payload, _ := json.Marshal(chat)
	if err := p.busConn.Publish(ctx, busExchange, routingKey, payload); err != nil {
		p.log.Warn().Err(err).Str("routing_key", routingKey).Msg("ingest: bus publish failed")
	}
	return nil
}

// handleShutdown implements spec §4.5/§5's SHUTDOWN row: deactivate every
// active chalkline, then either raise ErrShutdown (optionally renaming the
// consumed log file) or, under StayRunningAfterShutdown, continue.
func (p *Pipeline) handleShutdown(ctx context.Context) error {
	if err := p.retryStorage(ctx, func(ctx context.Context) error {
		return p.db.DeactivateAllChalklines(ctx)
	}); err != nil {
		return err
	}

	p.mu.Lock()
	for id := range p.activeLines {
		delete(p.activeLines, id)
	}
	p.mu.Unlock()

	p.log.Info().Msg("ingest: shutdown condition raised, all chalklines deactivated")

	if p.stayRunningAfterShutdown {
		return nil
	}

	if p.renameOnShutdown && p.logPath != "" {
		if err := renameWithSuffix(p.logPath); err != nil {
			p.log.Warn().Err(err).Msg("ingest: shutdown log rename failed")
		}
	}
	return ErrShutdown
}

func (p *Pipeline) markActive(ctx context.Context, canonicalID uint32) error {
	p.mu.Lock()
	p.lastActive[canonicalID] = time.Now()
	p.activeLines[canonicalID] = true
	p.mu.Unlock()

	return p.retryStorage(ctx, func(ctx context.Context) error {
		return p.db.SetChalklineActive(ctx, canonicalID, true)
	})
}

// markActiveIfStale only touches the database when the line's last-active
// stamp is older than UpdateInterval (spec §4.5 POS: "if last update for
// this line older than update_interval (default 30s), mark active and
// stamp").
func (p *Pipeline) markActiveIfStale(ctx context.Context, canonicalID uint32) error {
	p.mu.Lock()
	last, ok := p.lastActive[canonicalID]
	stale := !ok || time.Since(last) >= p.updateInterval
	p.mu.Unlock()

	if !stale {
		return nil
	}
	return p.markActive(ctx, canonicalID)
}

// retryStorage runs fn; on error it sleeps StorageRetryDelay and retries
// the same call indefinitely until it succeeds or ctx is cancelled (spec
// §4.5/§7: "any storage-layer error triggers a 3-second sleep and
// reconnection; the failing record is retried from the top of the inner
// loop").
func (p *Pipeline) retryStorage(ctx context.Context, fn func(context.Context) error) error {
	for {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		p.log.Warn().Err(err).Msg("ingest: storage error, backing off")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.storageRetryDelay):
		}
	}
}

// ParseEventClock parses the event's own hh:mm:ss time field against
// today's date, since CHAT records carry no date component (spec §3
// ChatEvent: "time: hh:mm:ss"). Exported for reuse by cmd/chatrelay, which
// dedupes the same CHAT shape arriving over AMQP instead of the tailed log.
func ParseEventClock(hhmmss string) (time.Time, error) {
	t, err := time.Parse("15:04:05", hhmmss)
	if err != nil {
		return time.Time{}, err
	}
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location()), nil
}

// renameWithSuffix renames path to path.YYYY-MM-DD, disambiguating
// collisions with a numeric suffix (spec §4.5/§5).
func renameWithSuffix(path string) error {
	date := time.Now().Format("2006-01-02")
	base := path + "." + date
	target := base
	for n := 1; ; n++ {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			break
		}
		target = fmt.Sprintf("%s.%d", base, n)
	}
	return os.Rename(path, target)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
