package results

import (
	"testing"

	"github.com/snarg/chalkline/internal/model"
)

func TestSummarizeRideBasic(t *testing.T) {
	s := mkpos(0, 0, 0)
	e := mkpos(3600000, 40000, 200) // 1 hour, 40km, 200 mWh
	r := &Rider{
		Male:    true,
		WeightG: 70000, // 70kg
		Pos:     []model.PositionRecord{s, e},
		End:     &e,
	}
	SummarizeRide(r)

	if r.Distance != 40000 {
		t.Errorf("distance = %d, want 40000", r.Distance)
	}
	if r.Mwh != 200 {
		t.Errorf("mwh = %d, want 200", r.Mwh)
	}
	// 200 mWh over 3600000 ms = 200*3600/3600000 = 0.2W -> truncates to 0
	if r.Watts != 0 {
		t.Errorf("watts = %d, want 0", r.Watts)
	}
}

func TestSummarizeRideDNFUsesLastPosition(t *testing.T) {
	s := mkpos(0, 0, 0)
	mid := mkpos(1000, 500, 50)
	r := &Rider{
		DNF: true,
		Pos: []model.PositionRecord{s, mid},
	}
	SummarizeRide(r)
	if r.Distance != 500 {
		t.Errorf("distance = %d, want 500 (last observed position)", r.Distance)
	}
}

func TestSummarizeRideZeroWeightAvoidsDivideByZero(t *testing.T) {
	s := mkpos(0, 0, 0)
	e := mkpos(1000, 100, 10)
	r := &Rider{
		WeightG: 0,
		Pos:     []model.PositionRecord{s, e},
		End:     &e,
	}
	SummarizeRide(r)
	if r.Wkg != 0 {
		t.Errorf("wkg = %v, want 0 when weight is unknown", r.Wkg)
	}
	if r.Ecat != 'X' {
		t.Errorf("ecat = %c, want X when wkg is 0", r.Ecat)
	}
}

func TestInferCategoryPatternsInOrder(t *testing.T) {
	cases := []struct {
		lname string
		want  byte
	}{
		{"Smith (B)", 'B'},     // NAME (X)
		{"Smith C", 'C'},       // NAME X
		{"Smith-A", 'A'},       // NAME RACE-X
		{"Smith RACE D)", 'D'}, // NAME (RACE X)
		{"Smith RACE-A info", 'A'}, // NAME RACE-X INFO
		{"Smith (C) info", 'C'},    // NAME (X) INFO
		{"Smith RACE B) info", 'B'}, // NAME RACE X) INFO
		{"Smith", 'X'},              // no pattern matches
		{"Smith Z", 'X'},            // matched letter not in ABCDW
	}
	for _, c := range cases {
		got := InferCategory(c.lname)
		if got != string(c.want) {
			t.Errorf("InferCategory(%q) = %q, want %q", c.lname, got, string(c.want))
		}
	}
}
