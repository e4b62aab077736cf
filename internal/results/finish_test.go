package results

import (
	"testing"

	"github.com/snarg/chalkline/internal/model"
	"github.com/snarg/chalkline/internal/raceconfig"
)

func TestNewGroupFinishDNFWhenDistanceNeverReached(t *testing.T) {
	grp := &raceconfig.GroupSpec{Name: "A", DistanceM: 40000, StartMs: 0}
	r := &Rider{Pos: []model.PositionRecord{
		mkpos(0, 0, 0),
		mkpos(1000, 5000, 100),
	}}
	gf := NewGroupFinish(r, grp)
	if gf.EndPos != nil {
		t.Fatal("expected no end position: rider never reaches the group distance")
	}
}

func TestNewGroupFinishReachesDistance(t *testing.T) {
	grp := &raceconfig.GroupSpec{Name: "A", DistanceM: 1000, StartMs: 0}
	r := &Rider{Pos: []model.PositionRecord{
		mkpos(0, 0, 0),
		mkpos(1000, 500, 0),
		mkpos(2000, 1000, 0),
	}}
	gf := NewGroupFinish(r, grp)
	if gf.EndPos == nil || gf.EndPos.TimeMs != 2000 {
		t.Fatalf("expected finish at t=2000, got %+v", gf.EndPos)
	}
}

func TestNewGroupFinishEarlyJumpToleration(t *testing.T) {
	// rider's own start is 5s before the group's start: within the 8s grace, no DQ.
	grp := &raceconfig.GroupSpec{Name: "A", DistanceM: 1000, StartMs: 5000}
	r := &Rider{Pos: []model.PositionRecord{
		mkpos(0, 0, 0),
		mkpos(1000, 1000, 0),
	}}
	gf := NewGroupFinish(r, grp)
	if gf.DQReason != "" {
		t.Fatalf("expected no early DQ within the 8s grace window, got %q", gf.DQReason)
	}
}

func TestNewGroupFinishEarlyJumpBeyondGrace(t *testing.T) {
	// rider's own start is 30s before the group's start: past the 8s grace.
	grp := &raceconfig.GroupSpec{Name: "A", DistanceM: 1000, StartMs: 30000}
	r := &Rider{Pos: []model.PositionRecord{
		mkpos(0, 0, 0),
		mkpos(1000, 1000, 0),
	}}
	gf := NewGroupFinish(r, grp)
	if gf.DQReason != "Early:  00:30" {
		t.Fatalf("got DQ reason %q, want zero-padded double-space 'Early:  00:30'", gf.DQReason)
	}
}

func TestSelectFinishPrefersMatchingCategory(t *testing.T) {
	grpA := &raceconfig.GroupSpec{Name: "A", DistanceM: 1000, StartMs: 0}
	grpAll := &raceconfig.GroupSpec{Name: "ALL", DistanceM: 1000, StartMs: 100000} // far worse weight
	r := &Rider{
		Cat: "A",
		Pos: []model.PositionRecord{
			mkpos(0, 0, 0),
			mkpos(1000, 1000, 0),
		},
	}
	fA := NewGroupFinish(r, grpA)
	fAll := NewGroupFinish(r, grpAll)
	_ = fAll

	SelectFinish(r, false)
	if r.Selected != fA {
		t.Fatalf("expected category-matching group A to be selected")
	}
	if r.DNF {
		t.Fatal("rider reached the distance, should not be DNF")
	}
}

func TestSelectFinishNoCatFoldsIntoWinningGroup(t *testing.T) {
	grp := &raceconfig.GroupSpec{Name: "ALL", DistanceM: 1000, StartMs: 0}
	r := &Rider{
		Cat: "X",
		Pos: []model.PositionRecord{
			mkpos(0, 0, 0),
			mkpos(1000, 1000, 0),
		},
	}
	NewGroupFinish(r, grp)
	SelectFinish(r, true)
	if r.Cat != "ALL" {
		t.Fatalf("got Cat %q, want it folded into the winning group's name", r.Cat)
	}
}

func TestSelectFinishDNFWhenNoFinish(t *testing.T) {
	grp := &raceconfig.GroupSpec{Name: "A", DistanceM: 1000000, StartMs: 0}
	r := &Rider{
		Cat: "A",
		Pos: []model.PositionRecord{
			mkpos(0, 0, 0),
			mkpos(1000, 10, 0),
		},
	}
	NewGroupFinish(r, grp)
	SelectFinish(r, false)
	if !r.DNF {
		t.Fatal("expected DNF when no candidate reaches the distance")
	}
	if r.DQ {
		t.Fatal("DNF and DQ must be mutually exclusive")
	}
}
