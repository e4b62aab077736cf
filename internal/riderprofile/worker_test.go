package riderprofile

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestPool(workers, queueSize int) *WorkerPool {
	return NewWorkerPool(WorkerPoolOptions{
		Workers:   workers,
		QueueSize: queueSize,
		Log:       zerolog.Nop(),
	})
}

func TestNewWorkerPool(t *testing.T) {
	wp := newTestPool(4, 100)
	if wp == nil {
		t.Fatal("NewWorkerPool returned nil")
	}
	if cap(wp.jobs) != 100 {
		t.Errorf("queue capacity = %d, want 100", cap(wp.jobs))
	}
}

func TestWorkerPool_EnqueueBeforeStart(t *testing.T) {
	wp := newTestPool(2, 5)
	ok := wp.Enqueue(Job{SubgroupID: 1})
	if !ok {
		t.Error("Enqueue should return true when queue has space")
	}
}

func TestWorkerPool_EnqueueFull(t *testing.T) {
	wp := newTestPool(0, 2) // 0 workers = nobody draining

	wp.Enqueue(Job{SubgroupID: 1})
	wp.Enqueue(Job{SubgroupID: 2})

	ok := wp.Enqueue(Job{SubgroupID: 3})
	if ok {
		t.Error("Enqueue should return false when queue is full")
	}
}

func TestWorkerPool_Stats(t *testing.T) {
	wp := newTestPool(0, 10)

	wp.Enqueue(Job{SubgroupID: 1})
	wp.Enqueue(Job{SubgroupID: 2})

	stats := wp.Stats()
	if stats.Pending != 2 {
		t.Errorf("Pending = %d, want 2", stats.Pending)
	}
	if stats.Completed != 0 || stats.Failed != 0 {
		t.Errorf("expected zero completed/failed before any worker drains, got %+v", stats)
	}
}

// fakeProvider lets tests drive auth-failure and rate-limit branches
// deterministically without a real upstream.
type fakeProvider struct {
	fetchErr   error
	loginErr   error
	loginCalls int
	riders     []Rider
}

func (f *fakeProvider) Login(ctx context.Context) error {
	f.loginCalls++
	return f.loginErr
}

func (f *fakeProvider) FetchSubgroupRiders(ctx context.Context, subgroupID, zwiftEventID uint64) ([]Rider, error) {
	return f.riders, f.fetchErr
}

func (f *fakeProvider) Name() string { return "fake" }

func TestWorkerPool_StopDrains(t *testing.T) {
	wp := newTestPool(2, 10)
	wp.Start()

	done := make(chan struct{})
	go func() {
		wp.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return within 5 seconds")
	}
}

func TestTimeUntilNextQuarterHour(t *testing.T) {
	cases := []struct {
		t    string
		want time.Duration
	}{
		{"2026-07-30T10:00:00Z", 15 * time.Minute},
		{"2026-07-30T10:05:00Z", 10 * time.Minute},
		{"2026-07-30T10:14:59Z", time.Second},
	}
	for _, c := range cases {
		parsed, err := time.Parse(time.RFC3339, c.t)
		if err != nil {
			t.Fatalf("bad fixture time %q: %v", c.t, err)
		}
		got := timeUntilNextQuarterHour(parsed)
		if got != c.want {
			t.Errorf("timeUntilNextQuarterHour(%s) = %s, want %s", c.t, got, c.want)
		}
	}
}
