package results

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/snarg/chalkline/internal/database"
	"github.com/snarg/chalkline/internal/metrics"
	"github.com/snarg/chalkline/internal/model"
	"github.com/snarg/chalkline/internal/positions"
	"github.com/snarg/chalkline/internal/raceconfig"
)

const lookbackMinutes = 2.0

// CategoryResult is one category's placed finisher list (spec §4.7.8
// output: "one section per known category").
type CategoryResult struct {
	Name      string
	Finishers []*Rider
	DQs       []*Rider
	DNFs      []*Rider
}

// RaceResult is the complete output of one results run (spec §4.7 output
// variants share this shape before rendering).
type RaceResult struct {
	Config     *raceconfig.RaceConfig
	Categories []CategoryResult
	DQs        []*Rider
	DNFs       []*Rider
}

// Engine runs the full results pipeline against a PositionStore and
// database rider profiles. Grounded on main()'s driving sequence:
// get_riders -> filter_start -> trim_course -> trim_crash -> grp_finish ->
// select_finish -> results/dump_json.
type Engine struct {
	store *positions.Store
	db    *database.DB
	cfg   *raceconfig.RaceConfig
	noCat bool
}

// New builds an Engine for one race configuration.
func New(store *positions.Store, db *database.DB, cfg *raceconfig.RaceConfig, noCat bool) *Engine {
	return &Engine{store: store, db: db, cfg: cfg, noCat: noCat}
}

// Run executes the full pipeline and returns the placed, categorized
// result set.
func (e *Engine) Run(ctx context.Context) (*RaceResult, error) {
	start := time.Now()
	defer func() { metrics.ResultsRunDuration.Observe(time.Since(start).Seconds()) }()

	startLineID, ok, err := e.store.LineIDByName(ctx, e.cfg.StartLine)
	if err != nil {
		return nil, fmt.Errorf("results: resolve start line %q: %w", e.cfg.StartLine, err)
	}
	if !ok {
		return nil, fmt.Errorf("results: could not find line {%s}", e.cfg.StartLine)
	}
	finishLineID, ok, err := e.store.LineIDByName(ctx, e.cfg.FinishLine)
	if err != nil {
		return nil, fmt.Errorf("results: resolve finish line %q: %w", e.cfg.FinishLine, err)
	}
	if !ok {
		return nil, fmt.Errorf("results: could not find line {%s}", e.cfg.FinishLine)
	}

	var corralLineID uint32
	hasCorral := e.cfg.CorralLine != ""
	if hasCorral {
		corralLineID, ok, err = e.store.LineIDByName(ctx, e.cfg.CorralLine)
		if err != nil {
			return nil, fmt.Errorf("results: resolve corral line %q: %w", e.cfg.CorralLine, err)
		}
		if !ok {
			return nil, fmt.Errorf("results: could not find line {%s}", e.cfg.CorralLine)
		}
	}

	// Look back before the official start to catch riders who cross the
	// line really early (spec §4.7: "from start_ms - 2 min to finish_ms").
	byRider, err := e.store.RidersByTime(ctx, e.cfg.StartMs-int64(lookbackMinutes*msecPerMin), e.cfg.FinishMs)
	if err != nil {
		return nil, fmt.Errorf("results: range query positions: %w", err)
	}

	ids := make([]uint64, 0, len(byRider))
	for id := range byRider {
		ids = append(ids, id)
	}
	profiles, err := e.db.RiderProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("results: fetch rider profiles: %w", err)
	}

	riders := make([]*Rider, 0, len(byRider))
	for id, pos := range byRider {
		r := newRider(id, pos, profiles[id])
		if !FilterStart(r, e.cfg, startLineID, corralLineID, hasCorral) {
			continue
		}
		riders = append(riders, r)
	}

	for _, r := range riders {
		TrimCourse(r, e.cfg, finishLineID)
		TrimCrash(r)
	}

	byID := make(map[uint64]*Rider, len(riders))
	for _, r := range riders {
		byID[r.ID] = r
	}

	for gi := range e.cfg.Groups {
		grp := &e.cfg.Groups[gi]
		switch {
		case grp.LeadRiderID != nil:
			if lead, ok := byID[*grp.LeadRiderID]; ok && len(lead.Pos) > 0 {
				grp.StartMs = lead.Pos[0].TimeMs
				grp.LeadRiderName = strings.TrimSpace(lead.FName + " " + lead.LName)
			}
		case grp.DelayMs != nil:
			grp.StartMs = e.cfg.StartMs + *grp.DelayMs
		default:
			grp.StartMs = e.cfg.StartMs
		}

		for _, r := range riders {
			NewGroupFinish(r, grp)
		}
	}

	for _, r := range riders {
		SelectFinish(r, e.noCat)
	}

	return e.categorize(riders), nil
}

func newRider(id uint64, pos []model.PositionRecord, profile model.RiderProfile) *Rider {
	r := &Rider{ID: id, Pos: pos, Cat: "X"}

	if profile.RiderID == id {
		r.FName = profile.FName
		r.LName = profile.LName
		r.WeightG = profile.WeightG
		r.HeightMM = profile.HeightMM
		r.Male = profile.Male
		r.PowerType = profile.PowerType
		if profile.Cat != nil {
			r.Cat = string(*profile.Cat)
		} else {
			r.Cat = InferCategory(r.LName)
		}
	} else {
		r.FName = "Rider"
		r.LName = fmt.Sprintf("%d", id)
	}

	return r
}

// categorize groups placed finishers per category, and builds the
// combined DQ/DNF sections (spec §4.7.8, grounded on results()).
func (e *Engine) categorize(riders []*Rider) *RaceResult {
	catSet := make(map[string]bool)
	for _, r := range riders {
		catSet[r.Cat] = true
	}
	cats := make([]string, 0, len(catSet))
	for c := range catSet {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	done := make(map[uint64]bool)
	result := &RaceResult{Config: e.cfg}

	for _, cat := range cats {
		var finish []*Rider
		for _, r := range riders {
			if r.Cat != cat {
				continue
			}
			if r.DNF || r.DQ {
				continue
			}
			finish = append(finish, r)
		}
		if len(finish) == 0 {
			continue
		}
		placed := Place(finish)
		for _, r := range placed {
			done[r.ID] = true
		}

		var catDQ, catDNF []*Rider
		for _, r := range riders {
			if r.Cat != cat {
				continue
			}
			if r.DNF {
				catDNF = append(catDNF, r)
			} else if r.DQ {
				catDQ = append(catDQ, r)
			}
		}

		result.Categories = append(result.Categories, CategoryResult{
			Name:      fmt.Sprintf("CAT %s", cat),
			Finishers: placed,
			DQs:       sortByDistanceAsc(catDQ),
			DNFs:      sortByDistanceAsc(catDNF),
		})
	}

	var dqs, dnfs []*Rider
	for _, r := range riders {
		if done[r.ID] {
			continue
		}
		if r.DNF {
			dnfs = append(dnfs, r)
		} else if r.DQ {
			dqs = append(dqs, r)
		}
	}

	result.DQs = sortByDistanceDesc(dqs)
	result.DNFs = sortByDistanceDesc(dnfs)
	return result
}

// sortByDistanceDesc orders riders by distance reached, descending,
// dropping zero-distance entries (spec §4.7.8: "excluding zero-distance
// entries").
func sortByDistanceDesc(riders []*Rider) []*Rider {
	var out []*Rider
	for _, r := range riders {
		if r.Distance > 0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance > out[j].Distance })
	return out
}

// sortByDistanceAsc is the per-category counterpart used by the JSON
// DQ-<cat>/DNF-<cat> groups, which the original sorts ascending rather
// than descending (spec §4.7.8; grounded on dump_json's plain sorted()
// call, unlike results()'s reverse=True combined section).
func sortByDistanceAsc(riders []*Rider) []*Rider {
	var out []*Rider
	for _, r := range riders {
		if r.Distance > 0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}
