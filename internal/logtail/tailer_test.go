package logtail

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTailerReadsCompleteLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zlogger.log")
	if err := os.WriteFile(path, []byte("line one\nline two\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tail, err := Open(path, 10*time.Millisecond, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tail.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	first, err := tail.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first != "line one" {
		t.Fatalf("first = %q, want %q", first, "line one")
	}

	second, err := tail.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second != "line two" {
		t.Fatalf("second = %q, want %q", second, "line two")
	}
}

func TestTailerNeverReturnsPartialLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zlogger.log")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.WriteString("partial-no-newline-yet"); err != nil {
		t.Fatal(err)
	}

	tail, err := Open(path, 15*time.Millisecond, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tail.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := make(chan string, 1)
	go func() {
		line, err := tail.Next(ctx)
		if err == nil {
			result <- line
		}
	}()

	select {
	case <-result:
		t.Fatal("Next returned before the line was terminated with a newline")
	case <-time.After(60 * time.Millisecond):
	}

	if _, err := f.WriteString(" now complete\n"); err != nil {
		t.Fatal(err)
	}

	select {
	case line := <-result:
		if line != "partial-no-newline-yet now complete" {
			t.Fatalf("line = %q, want the fully accumulated line", line)
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not return after the line was completed")
	}
}

func TestTailerSurvivesGrowth(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zlogger.log")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	tail, err := Open(path, 10*time.Millisecond, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tail.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			if _, err := tail.Next(ctx); err != nil {
				t.Errorf("Next(%d): %v", i, err)
				return
			}
		}
	}()

	time.Sleep(20 * time.Millisecond)
	f.WriteString("a\nb\nc\n")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tailer did not observe appended lines")
	}
}
