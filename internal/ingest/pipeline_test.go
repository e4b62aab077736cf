package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseEventClock(t *testing.T) {
	at, err := ParseEventClock("14:30:05")
	if err != nil {
		t.Fatalf("parseEventClock returned error: %v", err)
	}
	if at.Hour() != 14 || at.Minute() != 30 || at.Second() != 5 {
		t.Fatalf("ParseEventClock(%q) = %v, want 14:30:05", "14:30:05", at)
	}

	now := time.Now()
	if at.Year() != now.Year() || at.Month() != now.Month() || at.Day() != now.Day() {
		t.Fatalf("parseEventClock should stamp today's date, got %v", at)
	}
}

func TestParseEventClockInvalid(t *testing.T) {
	if _, err := ParseEventClock("not-a-time"); err == nil {
		t.Fatal("expected error for malformed time")
	}
}

func TestRenameWithSuffixDisambiguates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "race.log")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := renameWithSuffix(path); err != nil {
		t.Fatalf("first rename failed: %v", err)
	}

	date := time.Now().Format("2006-01-02")
	first := path + "." + date
	if _, err := os.Stat(first); err != nil {
		t.Fatalf("expected %s to exist: %v", first, err)
	}

	// Recreate the original path and rename again — this must collide with
	// the first rename and pick up a numeric suffix.
	if err := os.WriteFile(path, []byte("more"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := renameWithSuffix(path); err != nil {
		t.Fatalf("second rename failed: %v", err)
	}
	second := first + ".1"
	if _, err := os.Stat(second); err != nil {
		t.Fatalf("expected disambiguated %s to exist: %v", second, err)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Fatalf("truncate should leave short strings untouched, got %q", got)
	}
	if got := truncate("hello world", 5); got != "hello" {
		t.Fatalf("truncate(%q, 5) = %q, want %q", "hello world", got, "hello")
	}
}
