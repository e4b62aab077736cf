package chalkline

import (
	"errors"
	"testing"
)

func TestRegistrySourceThenDest(t *testing.T) {
	r := New()

	if mapped := r.AddSource(7, "SLStart"); mapped {
		t.Fatal("AddSource should not report mapped before the dest side is known")
	}

	if _, err := r.Resolve(7); !errors.Is(err, ErrMissingLine) {
		t.Fatalf("Resolve before AddDest: got %v, want ErrMissingLine", err)
	}

	if mapped := r.AddDest(42, "SLStart"); !mapped {
		t.Fatal("AddDest should report mapped once the source side is known")
	}

	canonical, err := r.Resolve(7)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if canonical != 42 {
		t.Fatalf("Resolve(7) = %d, want 42", canonical)
	}
}

func TestRegistryDestThenSource(t *testing.T) {
	r := New()

	if mapped := r.AddDest(99, "Finish"); mapped {
		t.Fatal("AddDest should not report mapped before the source side is known")
	}
	if mapped := r.AddSource(3, "Finish"); !mapped {
		t.Fatal("AddSource should report mapped once the dest side is known")
	}

	canonical, err := r.Resolve(3)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if canonical != 99 {
		t.Fatalf("Resolve(3) = %d, want 99", canonical)
	}
}

func TestRegistryResolveMissing(t *testing.T) {
	r := New()
	if _, err := r.Resolve(123); !errors.Is(err, ErrMissingLine) {
		t.Fatalf("Resolve(123) = %v, want ErrMissingLine", err)
	}
}

func TestRegistryHasNameAndSnapshot(t *testing.T) {
	r := New()
	if r.HasName("SLStart") {
		t.Fatal("HasName should be false before AddDest")
	}
	r.AddDest(1, "SLStart")
	if !r.HasName("SLStart") {
		t.Fatal("HasName should be true after AddDest")
	}

	r.AddSource(2, "SLStart")
	snap := r.Snapshot()
	if snap[2] != 1 {
		t.Fatalf("Snapshot()[2] = %d, want 1", snap[2])
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}

// Rebuilding the registry from persisted chalkline rows (AddDest for each
// row) and then replaying LINE events (AddSource) must reproduce the same
// mapping as a live session that saw AddSource first — spec.md's own
// stability invariant (section 8).
func TestRegistryRebuildIsStable(t *testing.T) {
	live := New()
	live.AddSource(7, "SLStart")
	live.AddDest(42, "SLStart")

	rebuilt := New()
	rebuilt.AddDest(42, "SLStart") // from persisted chalkline rows
	rebuilt.AddSource(7, "SLStart") // from replayed LINE events

	liveCanonical, _ := live.Resolve(7)
	rebuiltCanonical, _ := rebuilt.Resolve(7)
	if liveCanonical != rebuiltCanonical {
		t.Fatalf("live resolve = %d, rebuilt resolve = %d, want equal", liveCanonical, rebuiltCanonical)
	}
}
