package results

import (
	"testing"

	"github.com/snarg/chalkline/internal/model"
	"github.com/snarg/chalkline/internal/raceconfig"
)

const (
	testStartLine  = uint32(1)
	testCorralLine = uint32(2)
	testFinishLine = uint32(3)
)

func baseCfg() *raceconfig.RaceConfig {
	return &raceconfig.RaceConfig{
		StartMs:      100000,
		StartForward: true,
	}
}

// TestFilterStartLastCrossingWins covers the boundary case (spec §8): a
// rider who crosses the start line, reverses, and re-crosses within the
// window keeps only the last crossing.
func TestFilterStartLastCrossingWins(t *testing.T) {
	cfg := baseCfg()
	r := &Rider{Pos: []model.PositionRecord{
		mkposLine(95000, 0, testStartLine, true),   // first crossing
		mkposLine(96000, -5, testStartLine, false), // rolls back (reverse direction, ignored)
		mkposLine(98000, 0, testStartLine, true),   // second (last) crossing in window
		mkpos(110000, 2000, 0),                     // subsequent trajectory, not a start-line crossing
	}}

	ok := FilterStart(r, cfg, testStartLine, testCorralLine, false)
	if !ok {
		t.Fatal("expected FilterStart to succeed")
	}
	if r.Pos[0].TimeMs != 98000 {
		t.Fatalf("expected last crossing at 98000 to win, trimmed to %d", r.Pos[0].TimeMs)
	}
}

func TestFilterStartNoCrossingFails(t *testing.T) {
	cfg := baseCfg()
	r := &Rider{Pos: []model.PositionRecord{
		mkposLine(95000, 0, testFinishLine, true),
	}}
	if FilterStart(r, cfg, testStartLine, testCorralLine, false) {
		t.Fatal("expected FilterStart to fail when rider never crosses the start line")
	}
}

func TestFilterStartEarlyDQ(t *testing.T) {
	cfg := baseCfg() // StartMs = 100000
	// crosses 35s (35000ms) before the gun, past the 30s grace window
	r := &Rider{Pos: []model.PositionRecord{
		mkposLine(65000, 0, testStartLine, true),
	}}
	if !FilterStart(r, cfg, testStartLine, testCorralLine, false) {
		t.Fatal("expected FilterStart to succeed despite early DQ")
	}
	if r.DQReason != "Early: -00:35" {
		t.Fatalf("got DQ reason %q, want zero-padded 'Early: -00:35'", r.DQReason)
	}
}

func TestFilterStartCorralPaceDQ(t *testing.T) {
	cfg := baseCfg()
	cfg.CorralLine = "corral"
	r := &Rider{Pos: []model.PositionRecord{
		mkposLine(99000, 5000, testCorralLine, true), // 10m to the start line in 500ms: 72 km/h, an absurd corral pace
		mkposLine(99500, 5010, testStartLine, true),  // starts 500ms later, inside the late-starter window
	}}
	ok := FilterStart(r, cfg, testStartLine, testCorralLine, true)
	if !ok {
		t.Fatal("expected FilterStart to succeed")
	}
	if r.DQReason == "" {
		t.Fatal("expected a corral pace DQ")
	}
}

func TestTrimCourseWrongDirectionTruncates(t *testing.T) {
	cfg := baseCfg()
	cfg.FinishForward = true
	r := &Rider{Pos: []model.PositionRecord{
		mkposLine(100000, 0, testStartLine, true),
		mkposLine(105000, 1000, testFinishLine, false), // wrong direction
		mkposLine(110000, 2000, testFinishLine, true),
	}}
	TrimCourse(r, cfg, testFinishLine)
	if len(r.Pos) != 2 {
		t.Fatalf("expected trajectory truncated at the wrong-direction crossing, got %d positions", len(r.Pos))
	}
	if r.DQReason != "WRONG COURSE" {
		t.Fatalf("got DQ reason %q, want WRONG COURSE", r.DQReason)
	}
}

func TestTrimCourseAlternateFlipsEachCrossing(t *testing.T) {
	cfg := baseCfg()
	cfg.FinishForward = true
	cfg.Alternate = true
	r := &Rider{Pos: []model.PositionRecord{
		mkposLine(100000, 0, testStartLine, true),
		mkposLine(105000, 1000, testFinishLine, true),  // first crossing forward -> matches, expectation flips to reverse
		mkposLine(110000, 2000, testFinishLine, false), // reverse -> matches
	}}
	TrimCourse(r, cfg, testFinishLine)
	if len(r.Pos) != 3 {
		t.Fatalf("expected no truncation under correctly-alternating crossings, got %d positions", len(r.Pos))
	}
}

func TestTrimCrashComparesConsecutivePositions(t *testing.T) {
	r := &Rider{Pos: []model.PositionRecord{
		mkpos(0, 0, 0),
		mkpos(1000, 500, 100),
		mkpos(2000, 1000, 200), // true previous is 500/100, not the start 0/0
		mkpos(3000, 900, 300),  // drop vs previous (1000) -> crash
	}}
	TrimCrash(r)
	if len(r.Pos) != 4 {
		t.Fatalf("expected the crash position itself kept as the final entry, got %d positions", len(r.Pos))
	}
	if r.DQReason != "----CRASHED---" {
		t.Fatalf("got DQ reason %q", r.DQReason)
	}
	if r.Distance != 1000 {
		t.Fatalf("got distance %d, want 1000 (max observed before crash)", r.Distance)
	}
}
