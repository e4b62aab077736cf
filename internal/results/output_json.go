package results

import (
	"strings"

	"github.com/snarg/chalkline/internal/model"
)

// riderJSON mirrors rider.data() (spec §4.7.8 JSON variant): only the
// fields a downstream consumer needs to identify and classify a rider,
// never the internal pipeline state.
type riderJSON struct {
	ID       uint64  `json:"id"`
	FName    string  `json:"fname"`
	LName    string  `json:"lname"`
	Cat      string  `json:"cat"`
	HeightCm float64 `json:"height"`
	WeightKg float64 `json:"weight"`
	Power    string  `json:"power"`
	Male     bool    `json:"male"`
}

// finishJSON mirrors json_cat's per-finish record. Unlike json_cat, every
// field here is read from the rider's own already-computed summary
// (r.Mwh/r.Distance/r.Watts/...), not from module-level globals the
// original leaves unset outside of summarize_ride's local scope — see
// DESIGN.md's divergence note.
type finishJSON struct {
	Timepos   string      `json:"timepos"`
	Meters    int64       `json:"meters"`
	Mwh       int64       `json:"mwh"`
	Duration  int64       `json:"duration"`
	StartMsec int64       `json:"start_msec"`
	EndMsec   int64       `json:"end_msec"`
	Watts     int32       `json:"watts"`
	EstCat    string      `json:"est_cat"`
	Pos       int         `json:"pos"`
	Wkg       float64     `json:"wkg"`
	BegHR     int16       `json:"beg_hr"`
	EndHR     int16       `json:"end_hr"`
	Cross     []crossJSON `json:"cross,omitempty"`
}

// crossJSON mirrors pos.data(): one retained position record, present only
// when split output was requested (spec.md:120 "split records included
// when requested"; grounded on json_cat's `if args.split` block).
type crossJSON struct {
	TimeMs   int64   `json:"time_ms"`
	Mwh      int64   `json:"mwh"`
	Line     *uint32 `json:"line"`
	Duration int64   `json:"duration"`
	Meters   int64   `json:"meters"`
	HR       int16   `json:"hr"`
	Speed    float64 `json:"speed"`
	Forward  bool    `json:"forward"`
}

func newCrossJSON(p model.PositionRecord) crossJSON {
	return crossJSON{
		TimeMs:   p.TimeMs,
		Mwh:      p.Mwh,
		Line:     p.LineID,
		Duration: p.DurationMs,
		Meters:   p.Meters,
		HR:       p.HR,
		Speed:    float64(p.SpeedMphThousandths) / 1000,
		Forward:  p.Forward,
	}
}

type entryJSON struct {
	Rider  riderJSON  `json:"rider"`
	Finish finishJSON `json:"finish"`
}

type catJSON struct {
	Name    string      `json:"name"`
	Results []entryJSON `json:"results"`
}

type raceJSON struct {
	Race  string    `json:"race"`
	Date  string    `json:"date"`
	Group []catJSON `json:"group"`
}

// buildCatJSON renders one named group's finishers (spec §4.7.8). When
// useLastPos is set (the DQ-<cat>/DNF-<cat> groups), each rider's last
// observed position stands in for its end regardless of any selected
// finish, per dump_json's "take last record as finish pos" handling. When
// split is set, each entry also carries its full cross-position list from
// the rider's start through its end record, inclusive (json_cat's
// `if args.split` block).
func buildCatJSON(name string, riders []*Rider, useLastPos, split bool) catJSON {
	var lastMs int64
	var st timeposState
	entries := make([]entryJSON, 0, len(riders))
	for i, r := range riders {
		s := r.Pos[0]
		e := r.End
		if e == nil || useLastPos {
			last := r.Pos[len(r.Pos)-1]
			e = &last
		}

		timepos := st.makeTimepos(lastMs, s.TimeMs, e.TimeMs)
		lastMs = e.TimeMs

		var cross []crossJSON
		if split {
			endIdx := len(r.Pos) - 1
			for idx, p := range r.Pos {
				if p.TimeMs == e.TimeMs {
					endIdx = idx
					break
				}
			}
			cross = make([]crossJSON, 0, endIdx+1)
			for _, p := range r.Pos[:endIdx+1] {
				cross = append(cross, newCrossJSON(p))
			}
		}

		entries = append(entries, entryJSON{
			Rider: riderJSON{
				ID:       r.ID,
				FName:    r.FName,
				LName:    r.LName,
				Cat:      r.Cat,
				HeightCm: float64(r.HeightMM) / 10,
				WeightKg: float64(r.WeightG) / 1000,
				Power:    string(powerChar(r.PowerType)),
				Male:     r.Male,
			},
			Finish: finishJSON{
				Timepos:   timepos,
				Meters:    r.Distance,
				Mwh:       r.Mwh,
				Duration:  e.DurationMs - s.DurationMs,
				StartMsec: s.TimeMs,
				EndMsec:   e.TimeMs,
				Watts:     r.Watts,
				EstCat:    string(r.Ecat),
				Pos:       i + 1,
				Wkg:       r.Wkg,
				BegHR:     s.HR,
				EndHR:     e.HR,
				Cross:     cross,
			},
		})
	}
	return catJSON{Name: name, Results: entries}
}

// BuildRaceJSON assembles the full race document: one group per category
// plus a DQ-<cat>/DNF-<cat> group for each category that has any (spec
// §4.7.8). split requests per-entry cross-position records, the
// `-split`/`--split` CLI flag from the original's argparse surface.
// Grounded on dump_json.
func BuildRaceJSON(raceName string, rr *RaceResult, split bool) raceJSON {
	var groups []catJSON
	for _, cr := range rr.Categories {
		groups = append(groups, buildCatJSON(cr.Name, cr.Finishers, false, split))

		catLetter := strings.TrimPrefix(cr.Name, "CAT ")
		if len(cr.DQs) > 0 {
			groups = append(groups, buildCatJSON("DQ-"+catLetter, cr.DQs, true, split))
		}
		if len(cr.DNFs) > 0 {
			groups = append(groups, buildCatJSON("DNF-"+catLetter, cr.DNFs, true, split))
		}
	}

	return raceJSON{Race: raceName, Date: rr.Config.Date, Group: groups}
}
