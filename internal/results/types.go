// Package results implements the ResultsEngine: start filtering, course and
// crash trimming, candidate finish-group construction, weighted finish
// selection, ride summaries, category inference, placement, and text/JSON
// output.
//
// Grounded line-for-line on original_source/mkresults.py's rider, pos,
// grp_finish, and module-level filter_start/trim_course/trim_crash/
// select_finish/summarize_ride/place functions; see DESIGN.md for the
// handful of points where spec.md's text is followed instead of the
// Python's apparent bugs.
package results

import (
	"github.com/snarg/chalkline/internal/model"
	"github.com/snarg/chalkline/internal/raceconfig"
)

// Rider is one rider's reconstructed trajectory and, once SelectFinish has
// run, its ride summary (spec §3 Rider).
type Rider struct {
	ID        uint64
	FName     string
	LName     string
	Cat       string // letter in ABCDWX, or a group name once no_cat folds it in
	WeightG   int32
	HeightMM  int32
	Male      bool
	PowerType int8

	Pos []model.PositionRecord

	Finishes []*GroupFinish
	Selected *GroupFinish

	End       *model.PositionRecord
	EndTimeMs int64

	DQTimeMs *int64
	DQReason string

	DNF bool
	DQ  bool

	Distance int64
	Mwh      int64
	Msec     int64
	Watts    int32
	Wkg      float64
	Ecat     byte

	Place   int
	Timepos string
}

// SetDQ records a disqualification, keeping the earliest one recorded
// (spec §4.7: a later, already-completed DQ condition never overrides an
// earlier one). Grounded on rider.set_dq.
func (r *Rider) SetDQ(timeMs int64, reason string) {
	if r.DQTimeMs == nil || timeMs < *r.DQTimeMs {
		t := timeMs
		r.DQTimeMs = &t
		r.DQReason = reason
	}
}

// GroupFinish is one category group's candidate finish for a rider (spec
// §3 GroupFinish). Grounded on grp_finish.
type GroupFinish struct {
	Group    *raceconfig.GroupSpec
	EndPos   *model.PositionRecord
	DQTimeMs *int64
	DQReason string
}

// Weight scores this candidate for SelectFinish: closer starts score
// higher, a completed distance adds 10, and carrying a DQ subtracts 3
// (spec §4.7.5, preserved exactly per spec §9's design note).
func (gf *GroupFinish) Weight(startTimeMs int64) float64 {
	w := -absF(float64(gf.Group.StartMs-startTimeMs) / 1000)
	if gf.DQReason != "" {
		w -= 3
	}
	if gf.EndPos != nil {
		w += 10
	}
	return w
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
