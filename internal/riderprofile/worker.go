package riderprofile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/snarg/chalkline/internal/database"
	"github.com/snarg/chalkline/internal/metrics"
)

// Job is one retrieval dispatched by the scheduler once its due time has
// passed (spec §4.8).
type Job struct {
	DueAtMs      int64
	SubgroupID   uint64
	EventName    string
	ZwiftEventID uint64
}

// QueueStats reports the current state of the retrieval queue.
type QueueStats struct {
	Pending   int   `json:"pending"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// WorkerPoolOptions configures the retrieval worker pool.
type WorkerPoolOptions struct {
	DB        *database.DB
	Provider  Provider
	Workers   int
	QueueSize int
	// RatePerSecond bounds outbound requests to the upstream API across
	// all workers combined.
	RatePerSecond float64
	// Burst allows short bursts above RatePerSecond before throttling
	// kicks in. Zero means a burst of 1 (no bursting).
	Burst int
	Log   zerolog.Logger
}

// WorkerPool dispatches rider-profile retrieval jobs onto a bounded set
// of goroutines so a slow upstream fetch never stalls the scheduler's
// heap sleep/pop cycle (spec §4.8).
type WorkerPool struct {
	jobs     chan Job
	db       *database.DB
	provider Provider
	limiter  *rate.Limiter
	opts     WorkerPoolOptions
	log      zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	completed atomic.Int64
	failed    atomic.Int64
}

// NewWorkerPool creates a new retrieval worker pool.
func NewWorkerPool(opts WorkerPoolOptions) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	rps := opts.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &WorkerPool{
		jobs:     make(chan Job, opts.QueueSize),
		db:       opts.DB,
		provider: opts.Provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		opts:     opts,
		log:      opts.Log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.opts.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.log.Info().Int("workers", wp.opts.Workers).Msg("rider profile worker pool started")
}

// Stop signals workers to drain and waits for completion.
func (wp *WorkerPool) Stop() {
	close(wp.jobs)
	wp.wg.Wait()
	wp.cancel()
	wp.log.Info().
		Int64("completed", wp.completed.Load()).
		Int64("failed", wp.failed.Load()).
		Msg("rider profile worker pool stopped")
}

// Enqueue adds a job to the retrieval queue. Returns false if the queue
// is full.
func (wp *WorkerPool) Enqueue(j Job) bool {
	select {
	case wp.jobs <- j:
		return true
	default:
		return false
	}
}

// Stats returns current queue statistics.
func (wp *WorkerPool) Stats() QueueStats {
	return QueueStats{
		Pending:   len(wp.jobs),
		Completed: wp.completed.Load(),
		Failed:    wp.failed.Load(),
	}
}

// PendingRetrievals implements metrics.SchedulerStats.
func (wp *WorkerPool) PendingRetrievals() int {
	return len(wp.jobs)
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.log.With().Int("worker", id).Logger()

	for job := range wp.jobs {
		if err := wp.processJob(log, job); err != nil {
			wp.failed.Add(1)
			metrics.SchedulerJobsFailedTotal.Inc()
			log.Warn().Err(err).
				Uint64("subgroup_id", job.SubgroupID).
				Str("event_name", job.EventName).
				Msg("rider profile retrieval failed")
		} else {
			wp.completed.Add(1)
		}
	}
}

func (wp *WorkerPool) processJob(log zerolog.Logger, job Job) error {
	if err := wp.limiter.Wait(wp.ctx); err != nil {
		return err
	}

	riders, err := wp.provider.FetchSubgroupRiders(wp.ctx, job.SubgroupID, job.ZwiftEventID)
	if errors.Is(err, ErrAuthFailure) {
		log.Warn().Msg("upstream session rejected, re-logging in")
		if loginErr := wp.provider.Login(wp.ctx); loginErr != nil {
			return loginErr
		}
		riders, err = wp.provider.FetchSubgroupRiders(wp.ctx, job.SubgroupID, job.ZwiftEventID)
		if errors.Is(err, ErrAuthFailure) {
			return err
		}
	}
	if errors.Is(err, ErrRateLimited) {
		wait := timeUntilNextQuarterHour(time.Now())
		log.Warn().Dur("sleep", wait).Msg("upstream rate limited, sleeping to next quarter hour")
		select {
		case <-time.After(wait):
		case <-wp.ctx.Done():
			return wp.ctx.Err()
		}
		riders, err = wp.provider.FetchSubgroupRiders(wp.ctx, job.SubgroupID, job.ZwiftEventID)
	}
	if err != nil {
		return err
	}

	for _, r := range riders {
		if err := wp.db.UpsertRiderProfile(wp.ctx, riderRow(r)); err != nil {
			return err
		}
	}

	log.Debug().
		Uint64("subgroup_id", job.SubgroupID).
		Str("event_name", job.EventName).
		Int("riders", len(riders)).
		Msg("rider profile retrieval complete")
	return nil
}

// timeUntilNextQuarterHour returns the duration until the next :00, :15,
// :30, or :45 wall-clock boundary after t.
func timeUntilNextQuarterHour(t time.Time) time.Duration {
	next := t.Truncate(15 * time.Minute).Add(15 * time.Minute)
	return next.Sub(t)
}
