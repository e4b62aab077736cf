package results

import (
	"testing"

	"github.com/snarg/chalkline/internal/model"
)

func riderFinishing(id uint64, startMs, endMs int64) *Rider {
	s := mkpos(startMs, 0, 0)
	e := mkpos(endMs, 1000, 0)
	return &Rider{
		ID:        id,
		Pos:       []model.PositionRecord{s},
		End:       &e,
		EndTimeMs: endMs,
	}
}

func TestPlaceSortsByEndTimeAscending(t *testing.T) {
	r1 := riderFinishing(1, 0, 5000)
	r2 := riderFinishing(2, 0, 3000)
	r3 := riderFinishing(3, 0, 4000)

	placed := Place([]*Rider{r1, r2, r3})

	if placed[0].ID != 2 || placed[1].ID != 3 || placed[2].ID != 1 {
		t.Fatalf("unexpected placement order: %d, %d, %d", placed[0].ID, placed[1].ID, placed[2].ID)
	}
	if placed[0].Place != 1 || placed[1].Place != 2 || placed[2].Place != 3 {
		t.Fatalf("unexpected place numbers: %d, %d, %d", placed[0].Place, placed[1].Place, placed[2].Place)
	}
}

func TestPlaceStableOnTies(t *testing.T) {
	r1 := riderFinishing(1, 0, 5000)
	r2 := riderFinishing(2, 0, 5000)

	placed := Place([]*Rider{r1, r2})
	if placed[0].ID != 1 || placed[1].ID != 2 {
		t.Fatalf("expected stable sort to preserve input order on ties, got %d, %d", placed[0].ID, placed[1].ID)
	}
}

func TestPlaceWinnerGetsTimepos(t *testing.T) {
	r1 := riderFinishing(1, 0, 5000)
	placed := Place([]*Rider{r1})
	if placed[0].Timepos == "" {
		t.Fatal("expected a non-empty timepos for the winner")
	}
}
