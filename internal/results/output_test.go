package results

import (
	"strings"
	"testing"

	"github.com/snarg/chalkline/internal/model"
	"github.com/snarg/chalkline/internal/raceconfig"
)

func finisherFixture(id uint64, cat string, place int) *Rider {
	grp := &raceconfig.GroupSpec{Name: cat, StartMs: 0}
	s := mkpos(0, 0, 0)
	e := mkpos(3600000, 40000, 400)
	r := &Rider{
		ID:        id,
		FName:     "Test",
		LName:     "Rider",
		Cat:       cat,
		Pos:       []model.PositionRecord{s, e},
		End:       &e,
		EndTimeMs: e.TimeMs,
		Place:     place,
		Timepos:   "--- ST ---",
		Selected:  &GroupFinish{Group: grp, EndPos: &e},
	}
	SummarizeRide(r)
	return r
}

func TestWriteTextRendersCategoryBlock(t *testing.T) {
	cfg := &raceconfig.RaceConfig{ID: "R1", Name: "Test Race", Date: "2026-07-30", StartMs: 0, FinishMs: 7200000}
	rr := &RaceResult{
		Config: cfg,
		Categories: []CategoryResult{
			{Name: "CAT A", Finishers: []*Rider{finisherFixture(1, "A", 1)}},
		},
	}

	var sb strings.Builder
	WriteText(&sb, rr)
	out := sb.String()

	if !strings.Contains(out, "Test Race") {
		t.Errorf("expected race name in output, got:\n%s", out)
	}
	if !strings.Contains(out, "RESULTS for CAT A") {
		t.Errorf("expected category header in output, got:\n%s", out)
	}
	if !strings.Contains(out, "Test Rider") {
		t.Errorf("expected rider name in output, got:\n%s", out)
	}
}

func TestBuildRaceJSONGroupsPerCategory(t *testing.T) {
	cfg := &raceconfig.RaceConfig{ID: "R1", Name: "Test Race", Date: "2026-07-30"}
	rr := &RaceResult{
		Config: cfg,
		Categories: []CategoryResult{
			{Name: "CAT A", Finishers: []*Rider{finisherFixture(1, "A", 1)}},
		},
	}

	race := BuildRaceJSON("Test Race", rr, false)
	if race.Race != "Test Race" || race.Date != "2026-07-30" {
		t.Fatalf("unexpected race header: %+v", race)
	}
	if len(race.Group) != 1 || race.Group[0].Name != "CAT A" {
		t.Fatalf("expected one CAT A group, got %+v", race.Group)
	}
	if len(race.Group[0].Results) != 1 || race.Group[0].Results[0].Rider.ID != 1 {
		t.Fatalf("expected rider 1 in CAT A results, got %+v", race.Group[0].Results)
	}
	if race.Group[0].Results[0].Finish.Cross != nil {
		t.Fatalf("expected no cross records without -split, got %+v", race.Group[0].Results[0].Finish.Cross)
	}
}

func TestBuildRaceJSONSplitIncludesCrossRecords(t *testing.T) {
	cfg := &raceconfig.RaceConfig{ID: "R1", Name: "Test Race", Date: "2026-07-30"}
	rr := &RaceResult{
		Config: cfg,
		Categories: []CategoryResult{
			{Name: "CAT A", Finishers: []*Rider{finisherFixture(1, "A", 1)}},
		},
	}

	race := BuildRaceJSON("Test Race", rr, true)
	cross := race.Group[0].Results[0].Finish.Cross
	if len(cross) != 2 {
		t.Fatalf("expected 2 cross records (start..end inclusive), got %d: %+v", len(cross), cross)
	}
	if cross[0].TimeMs != 0 || cross[1].TimeMs != 3600000 {
		t.Fatalf("unexpected cross record timestamps: %+v", cross)
	}
}
