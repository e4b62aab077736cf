// Package chatdedup implements ChatDeduper: a sliding-window set keyed by
// (rider_id, message_text) over a fixed 3-second horizon, driven by the
// event's own timestamp rather than wall clock so that replay is
// deterministic.
//
// Grounded on original_source/chat_processor.py's ChatCallback class:
// _seen_messages (a heapq of (timestamp, {riderid, msg})) and
// _message_signatures (a dict keyed by str(riderid)+msg), with
// timeout_messages evicting stale entries before each membership test.
package chatdedup

import (
	"container/heap"
	"sync"
	"time"

	"github.com/snarg/chalkline/internal/metrics"
)

type signature struct {
	riderID uint64
	msg     string
}

type entry struct {
	atMs int64
	sig  signature
}

// minHeap orders entries by timestamp ascending, oldest first — the same
// shape as the original's heapq of (timestamp, payload) tuples.
type minHeap []entry

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].atMs < h[j].atMs }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Deduper is the process-wide chat deduplication window (spec §3
// "Ownership": process-wide state with explicit init at startup).
type Deduper struct {
	mu     sync.Mutex
	h      minHeap
	seen   map[signature]struct{}
	window time.Duration
}

// New returns an empty Deduper with the given retention window (spec
// default: 3 seconds).
func New(window time.Duration) *Deduper {
	return &Deduper{
		seen:   make(map[signature]struct{}),
		window: window,
	}
}

// Forward evicts entries older than at-window, then tests the
// (riderID, msg) signature for membership. It returns true and records
// the message if it is new within the window; false if it is a duplicate
// and should be dropped. at is the event's own timestamp, not wall clock.
func (d *Deduper) Forward(at time.Time, riderID uint64, msg string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.evict(at)

	sig := signature{riderID: riderID, msg: msg}
	if _, dup := d.seen[sig]; dup {
		metrics.ChatDedupEvictionsTotal.Inc()
		return false
	}

	d.seen[sig] = struct{}{}
	heap.Push(&d.h, entry{atMs: at.UnixMilli(), sig: sig})
	return true
}

func (d *Deduper) evict(at time.Time) {
	cutoff := at.Add(-d.window).UnixMilli()
	for len(d.h) > 0 && d.h[0].atMs < cutoff {
		e := heap.Pop(&d.h).(entry)
		delete(d.seen, e.sig)
	}
}

// Len reports the number of messages currently held in the window —
// used by internal/statusapi for operational visibility.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.h)
}
