package results

import (
	"fmt"
	"strings"

	"github.com/snarg/chalkline/internal/raceconfig"
)

// earlyGroupJumpSeconds allows a rider whose trajectory starts less than
// this many seconds before a group's computed start time to still be
// considered on-time for that group (spec §4.7.4: "8 s jump").
const earlyGroupJumpSeconds = 8

// NewGroupFinish builds one rider's candidate finish for grp: the first
// position whose distance from the rider's own start meets or exceeds
// grp.DistanceM, or nil (a DNF/crash candidate) if none does.
//
// Grounded on grp_finish.__init__.
func NewGroupFinish(r *Rider, grp *raceconfig.GroupSpec) *GroupFinish {
	gf := &GroupFinish{Group: grp}
	r.Finishes = append(r.Finishes, gf)

	if len(r.Pos) == 0 {
		return gf
	}
	s := r.Pos[0]
	for idx := 1; idx < len(r.Pos); idx++ {
		p := r.Pos[idx]
		if p.Meters-s.Meters >= int64(grp.DistanceM) {
			pp := p
			gf.EndPos = &pp
			break
		}
	}

	if gf.EndPos == nil {
		return gf
	}
	if s.TimeMs > grp.StartMs {
		return gf
	}

	d := (grp.StartMs - s.TimeMs) / 1000
	if d < earlyGroupJumpSeconds {
		return gf
	}

	t := newMsecTime(d * 1000)
	dq := grp.StartMs
	gf.DQTimeMs = &dq
	gf.DQReason = fmt.Sprintf("Early:  %02d:%02d", t.min, t.sec)
	return gf
}

// SelectFinish picks the best-weighted candidate finish, restricting to
// candidates whose group name contains the rider's category letter when
// any do, and fixes the rider's group, end position, DQ, and DNF status
// (spec §4.7.5).
//
// Grounded on select_finish, including its no_cat special case (folding
// the rider into the winning candidate's own group name) and its DQ/DNF
// exclusivity rule.
func SelectFinish(r *Rider, noCat bool) {
	finish := bestWeighted(r.Finishes, r.Pos[0].TimeMs)

	if r.Cat == "X" && noCat {
		r.Cat = finish.Group.Name
	} else {
		var matching []*GroupFinish
		for _, f := range r.Finishes {
			if strings.Contains(f.Group.Name, r.Cat) {
				matching = append(matching, f)
			}
		}
		if len(matching) > 0 {
			finish = bestWeighted(matching, r.Pos[0].TimeMs)
		}
	}

	if finish.DQReason != "" && r.DQReason == "" {
		r.SetDQ(*finish.DQTimeMs, finish.DQReason)
	}
	r.Selected = finish
	r.End = finish.EndPos
	if r.End != nil {
		r.EndTimeMs = r.End.TimeMs
	}

	r.DNF = r.End == nil
	if r.DQTimeMs != nil && !r.DNF && *r.DQTimeMs <= r.EndTimeMs {
		r.DQ = true
	} else {
		r.DQ = false
	}

	SummarizeRide(r)
}

func bestWeighted(candidates []*GroupFinish, startTimeMs int64) *GroupFinish {
	best := candidates[0]
	bestWeight := best.Weight(startTimeMs)
	for _, c := range candidates[1:] {
		w := c.Weight(startTimeMs)
		if w > bestWeight {
			best = c
			bestWeight = w
		}
	}
	return best
}
