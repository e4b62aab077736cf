// Package chalkline implements the LineRegistry: a bidirectional mapping
// between an observer's local line identifiers and the canonical line
// identifiers stored in the shared chalkline table.
//
// Grounded on internal/ingest/identity.go's IdentityResolver (cache +
// auto-create pattern) and original_source/parse_log.py's LineMapper class,
// whose add_source_line/add_dest_line/get_mapping contract this mirrors
// exactly.
package chalkline

import (
	"errors"
	"sync"
)

// ErrMissingLine is returned by Resolve when a local id has never been
// registered via AddSource. The Ingestor treats this as a warning and
// skips the offending row rather than treating it as fatal.
var ErrMissingLine = errors.New("chalkline: local line id not resolved")

// Registry is the process-wide bidirectional local<->canonical line
// mapping. It is per-process state (spec §5, §9): never shared across
// processes, and in this implementation it is a field of the owning
// ingest.Pipeline, passed into handlers rather than a package-level global.
//
// Every method takes an internal RWMutex, so read-only calls (Snapshot,
// Len, HasName) are safe from goroutines other than the single-threaded
// ingestion loop that writes it.
type Registry struct {
	mu          sync.RWMutex
	sourceLines map[string]uint32 // name -> local id
	destLines   map[string]uint32 // name -> canonical id
	mapping     map[uint32]uint32 // local id -> canonical id
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		sourceLines: make(map[string]uint32),
		destLines:   make(map[string]uint32),
		mapping:     make(map[uint32]uint32),
	}
}

// AddSource registers a local line id under name, as seen in a LINE event.
// It returns true if the registry already knew the canonical id for name
// (via a prior AddDest), in which case the mapping is installed immediately.
func (r *Registry) AddSource(localID uint32, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sourceLines[name] = localID
	if canonicalID, ok := r.destLines[name]; ok {
		r.mapping[localID] = canonicalID
		return true
	}
	return false
}

// AddDest registers a canonical line id under name, as read back from a
// chalkline row. It returns true if the registry already knew a local id
// for name (via a prior AddSource), in which case the mapping is installed
// immediately.
func (r *Registry) AddDest(canonicalID uint32, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.destLines[name] = canonicalID
	if localID, ok := r.sourceLines[name]; ok {
		r.mapping[localID] = canonicalID
		return true
	}
	return false
}

// Resolve returns the canonical id for a local id previously seen in a LINE
// event. It returns ErrMissingLine if localID has never been registered.
func (r *Registry) Resolve(localID uint32) (uint32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	canonicalID, ok := r.mapping[localID]
	if !ok {
		return 0, ErrMissingLine
	}
	return canonicalID, nil
}

// HasName reports whether name has been installed via AddDest.
func (r *Registry) HasName(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.destLines[name]
	return ok
}

// Snapshot returns a copy of the local->canonical mapping for diagnostics.
func (r *Registry) Snapshot() map[uint32]uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uint32]uint32, len(r.mapping))
	for k, v := range r.mapping {
		out[k] = v
	}
	return out
}

// Len returns the number of resolved mappings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mapping)
}
