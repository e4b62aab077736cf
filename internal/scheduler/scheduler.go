// Package scheduler walks upcoming Zwift event subgroups and triggers
// rider-profile retrieval jobs at computed offsets around each
// subgroup's start (spec §4.8 EventsScheduler), grounded on
// original_source/get_ridersnewmysql.py's get_subgroup_retrieval_times
// and run_server.
package scheduler

import (
	"container/heap"
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/chalkline/internal/database"
	"github.com/snarg/chalkline/internal/metrics"
	"github.com/snarg/chalkline/internal/model"
	"github.com/snarg/chalkline/internal/riderprofile"
)

const (
	startDelayMs    = 60_000
	defaultHorizon  = 2 * time.Hour
	defaultMaxSleep = 60 * time.Second
)

// retrievalOffsetsMs are the seconds-past-start retrieval points for a
// race-named subgroup, in ms, following the original's literal
// [0, 900, 1800, 2700, 3600, 4500, 5400] list.
var retrievalOffsetsMs = []int64{0, 900_000, 1_800_000, 2_700_000, 3_600_000, 4_500_000, 5_400_000}

// retrieval is one min-heap entry: a rider-profile retrieval due at DueAtMs.
type retrieval struct {
	DueAtMs      int64
	SubgroupID   uint64
	EventName    string
	ZwiftEventID uint64
}

// retrievalHeap implements container/heap.Interface, ordered by DueAtMs.
type retrievalHeap []retrieval

func (h retrievalHeap) Len() int            { return len(h) }
func (h retrievalHeap) Less(i, j int) bool  { return h[i].DueAtMs < h[j].DueAtMs }
func (h retrievalHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *retrievalHeap) Push(x any)         { *h = append(*h, x.(retrieval)) }
func (h *retrievalHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler owns the min-heap and drives the worker pool. It is
// single-threaded (spec §5): the heap is never accessed concurrently,
// only the retrieval jobs it dispatches run on separate goroutines.
type Scheduler struct {
	db       *database.DB
	pool     *riderprofile.WorkerPool
	log      zerolog.Logger
	horizon  time.Duration
	maxSleep time.Duration

	h retrievalHeap
}

// New builds a Scheduler backed by the given database and dispatching
// onto the given worker pool. A zero horizon or maxSleep falls back to
// the package defaults (2h lookahead, 60s poll ceiling).
func New(db *database.DB, pool *riderprofile.WorkerPool, log zerolog.Logger, horizon, maxSleep time.Duration) *Scheduler {
	if horizon <= 0 {
		horizon = defaultHorizon
	}
	if maxSleep <= 0 {
		maxSleep = defaultMaxSleep
	}
	return &Scheduler{db: db, pool: pool, log: log, horizon: horizon, maxSleep: maxSleep}
}

// subgroupRetrievalTimes enumerates event subgroups whose start falls in
// a window of length s.horizon that opens one full retrieval schedule
// (last offset plus start delay, 91 minutes) before lastMs, so subgroups
// already under way still yield their later retrievals, and returns
// retrieval entries whose due time is still in the future relative to
// lastMs (spec §4.8, grounded on get_subgroup_retrieval_times).
func (s *Scheduler) subgroupRetrievalTimes(ctx context.Context, lastMs int64) ([]retrieval, error) {
	windowFrom := lastMs - (retrievalOffsetsMs[len(retrievalOffsetsMs)-1] + startDelayMs)
	windowTo := windowFrom + int64(s.horizon/time.Millisecond)

	subgroups, err := s.db.UpcomingSubgroups(ctx, windowFrom, windowTo)
	if err != nil {
		return nil, err
	}
	return computeRetrievals(subgroups, lastMs), nil
}

// computeRetrievals is the pure offset-expansion step of
// subgroupRetrievalTimes, split out so the offset arithmetic and the
// race-name check can be tested without a database (spec §8 scenario 6).
func computeRetrievals(subgroups []model.EventSubgroup, lastMs int64) []retrieval {
	var out []retrieval
	for _, sg := range subgroups {
		if isRaceEvent(sg.EventName) {
			for _, off := range retrievalOffsetsMs {
				due := sg.StartMs + startDelayMs + off
				if due > lastMs {
					out = append(out, retrieval{
						DueAtMs: due, SubgroupID: sg.SubgroupID,
						EventName: sg.EventName, ZwiftEventID: sg.ZwiftEventID,
					})
				}
			}
		} else {
			due := sg.StartMs + startDelayMs
			if due > lastMs {
				out = append(out, retrieval{
					DueAtMs: due, SubgroupID: sg.SubgroupID,
					EventName: sg.EventName, ZwiftEventID: sg.ZwiftEventID,
				})
			}
		}
	}
	return out
}

func isRaceEvent(name string) bool {
	return strings.Contains(strings.ToLower(name), "race")
}

// Run drives the single-threaded pop-drain-then-sleep main loop until
// ctx is cancelled. startAtMs seeds the initial lastProcessed point, in
// epoch milliseconds (the CLI's -time flag, or now if unset).
func (s *Scheduler) Run(ctx context.Context, startAtMs int64) error {
	lastRetrieval := startAtMs
	s.h = nil

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		now := nowMs()
		fresh, err := s.subgroupRetrievalTimes(ctx, lastRetrieval)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to enumerate upcoming subgroups, retrying after backoff")
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		for _, r := range fresh {
			heap.Push(&s.h, r)
		}

		sleep := s.maxSleep
		var lastProcessed int64
		var processedAny bool
		for s.h.Len() > 0 && s.h[0].DueAtMs <= now {
			item := heap.Pop(&s.h).(retrieval)
			s.log.Info().Str("event_name", item.EventName).Uint64("subgroup_id", item.SubgroupID).Msg("dispatching rider profile retrieval")
			s.pool.Enqueue(riderprofile.Job{
				DueAtMs: item.DueAtMs, SubgroupID: item.SubgroupID,
				EventName: item.EventName, ZwiftEventID: item.ZwiftEventID,
			})
			metrics.SchedulerJobsDispatchedTotal.Inc()
			lastProcessed = item.DueAtMs
			processedAny = true
		}

		if processedAny {
			lastRetrieval = lastProcessed
		} else {
			lastRetrieval = now
		}

		if s.h.Len() > 0 {
			until := time.Duration(s.h[0].DueAtMs-now) * time.Millisecond
			if until < sleep {
				sleep = until
			}
			s.log.Debug().Dur("sleep", sleep).Str("next_event", s.h[0].EventName).Msg("sleeping until next retrieval")
		} else {
			s.log.Debug().Dur("sleep", sleep).Msg("no subgroups in the near future, sleeping")
		}

		if sleep > 0 {
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
