package results

import (
	"testing"

	"github.com/snarg/chalkline/internal/raceconfig"
)

func TestSetDQKeepsEarliest(t *testing.T) {
	r := &Rider{}
	r.SetDQ(5000, "first")
	r.SetDQ(9000, "later") // later timestamp must not override
	if r.DQReason != "first" || *r.DQTimeMs != 5000 {
		t.Fatalf("got reason=%q time=%d, want first/5000", r.DQReason, *r.DQTimeMs)
	}
	r.SetDQ(1000, "earlier")
	if r.DQReason != "earlier" || *r.DQTimeMs != 1000 {
		t.Fatalf("earlier DQ should win, got reason=%q time=%d", r.DQReason, *r.DQTimeMs)
	}
}

func TestGroupFinishWeight(t *testing.T) {
	grp := &raceconfig.GroupSpec{StartMs: 10000}

	finished := &GroupFinish{Group: grp, EndPos: posPtr(mkpos(0, 0, 0))}
	if w := finished.Weight(10000); w != 10 {
		t.Errorf("on-time finisher weight = %v, want 10", w)
	}

	dqFinished := &GroupFinish{Group: grp, EndPos: posPtr(mkpos(0, 0, 0)), DQReason: "x"}
	if w := dqFinished.Weight(10000); w != 7 {
		t.Errorf("dq'd finisher weight = %v, want 7", w)
	}

	dnf := &GroupFinish{Group: grp}
	if w := dnf.Weight(15000); w != -5 {
		t.Errorf("dnf weight = %v, want -5", w)
	}
}
