package results

import (
	"fmt"

	"github.com/snarg/chalkline/internal/model"
	"github.com/snarg/chalkline/internal/raceconfig"
)

// startWindowMinutes bounds how far past the official start time a start-
// line crossing may still count as the start (spec §4.7.1; grounded on
// mkresults.py's START_WINDOW = 10.0, a hardcoded constant in the original
// rather than a configuration field).
const startWindowMinutes = 10.0

// earlyStartMinutes is how far before start_ms a rider may cross the
// start line without being flagged early (spec §4.7.1: 30 seconds).
const earlyStartMinutes = 0.5

// lateStarterSeconds: corral pace checks are skipped for riders who start
// more than this long after the gun (spec §4.7.1).
const lateStarterSeconds = 20

// corralPaceLimitKmh is the average-pace threshold above which a corral
// crossing earns a DQ (spec §4.7.1).
const corralPaceLimitKmh = 18

// avgPaceKmh returns average speed between two positions in km/h.
// Grounded on avg_pace: (meters/ms) scaled by 3600 is exactly km/h.
func avgPaceKmh(start, end model.PositionRecord) float64 {
	msec := float64(end.TimeMs - start.TimeMs)
	dist := float64(end.Meters - start.Meters)
	if msec == 0 {
		return 0
	}
	return (dist / msec) * 3600
}

// FilterStart finds the rider's start-line crossing and trims everything
// before it. It returns false if the rider never crosses the start line
// in the expected direction within the window (spec §4.7.1).
//
// Grounded on filter_start, including the "last crossing wins" rule for
// riders who cross, reverse, and re-cross within the window (spec §8's
// boundary case).
func FilterStart(r *Rider, cfg *raceconfig.RaceConfig, startLineID uint32, corralLineID uint32, hasCorral bool) bool {
	windowEndMs := cfg.StartMs + int64(startWindowMinutes*msecPerMin)

	start := -1
	for idx, p := range r.Pos {
		if p.TimeMs > windowEndMs {
			break
		}
		if p.LineID != nil && *p.LineID == startLineID && p.Forward == cfg.StartForward {
			start = idx
		}
	}
	if start == -1 {
		return false
	}

	s := r.Pos[start]

	if hasCorral && s.TimeMs < cfg.StartMs+lateStarterSeconds*msecPerSec {
		for idx := start; idx >= 0; idx-- {
			p := r.Pos[idx]
			if p.LineID == nil || *p.LineID != corralLineID {
				continue
			}
			pace := avgPaceKmh(p, s)
			if pace > corralPaceLimitKmh {
				r.SetDQ(p.TimeMs, fmt.Sprintf("Corral: %2d km/h", int(pace)))
			}
			break
		}
	}

	r.Pos = r.Pos[start:]

	if r.Pos[0].TimeMs < cfg.StartMs-int64(earlyStartMinutes*msecPerMin) {
		t := newMsecTime(cfg.StartMs - r.Pos[0].TimeMs)
		r.SetDQ(r.Pos[0].TimeMs, fmt.Sprintf("Early: -%02d:%02d", t.min, t.sec))
	}
	return true
}

// TrimCourse walks the trajectory from the second position onward and
// truncates it at the first finish-line crossing made in the wrong
// direction (spec §4.7.2).
//
// The expected direction is seeded from cfg.FinishForward (not
// cfg.StartForward — see DESIGN.md's resolved Open Question on ALTERNATE
// seeding): the first finish-line crossing after the start is expected in
// that direction and, under ALTERNATE, each later crossing in the opposite
// direction of the one before (spec §9's resolved open question: the flip
// sequence begins at the finish line's first post-start crossing,
// unaffected by the start-line crossing itself).
func TrimCourse(r *Rider, cfg *raceconfig.RaceConfig, finishLineID uint32) {
	forward := cfg.FinishForward
	for idx := 1; idx < len(r.Pos); idx++ {
		p := r.Pos[idx]
		if p.LineID == nil || *p.LineID != finishLineID {
			continue
		}
		if p.Forward != forward {
			r.SetDQ(p.TimeMs, "WRONG COURSE")
			r.Pos = r.Pos[:idx+1]
			return
		}
		if cfg.Alternate {
			forward = !forward
		}
	}
}

// TrimCrash scans forward from the start and truncates the trajectory at
// the first drop in meters, mwh, or duration between consecutive
// positions, recording the maximum distance observed (spec §4.7.3).
//
// This compares each position against its immediate predecessor, not a
// frozen start position — the original's trim_crash never reassigns its
// "previous" pointer after initialization, which spec.md's explicit
// "between consecutive positions" language corrects; see DESIGN.md.
func TrimCrash(r *Rider) {
	if len(r.Pos) == 0 {
		return
	}
	s := r.Pos[0]
	prev := s
	r.Distance = 0

	for idx := 1; idx < len(r.Pos); idx++ {
		p := r.Pos[idx]

		if p.Meters < prev.Meters {
			r.SetDQ(p.TimeMs, "----CRASHED---")
			if p.Meters > r.Distance {
				r.Distance = p.Meters
			}
			r.Pos = r.Pos[:idx+1]
			return
		}

		r.Distance = p.Meters - s.Meters

		if p.Mwh < prev.Mwh {
			r.SetDQ(p.TimeMs, "----CRASHED---")
			r.Pos = r.Pos[:idx+1]
			return
		}
		if p.DurationMs < prev.DurationMs {
			r.SetDQ(p.TimeMs, "----CRASHED---")
			r.Pos = r.Pos[:idx+1]
			return
		}

		prev = p
	}
}
