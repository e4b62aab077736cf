package results

import (
	"fmt"
	"strings"
)

// powerChar renders the rider's power-source marker used in the text
// listing: unknown readings get '?', zPower estimates get '*', and a
// smart trainer or power meter get a blank (spec §4.7.8).
//
// Grounded on rider.set_info's self.power table.
func powerChar(powerType int8) byte {
	switch powerType {
	case 1:
		return '*'
	case 2, 3:
		return ' '
	default:
		return '?'
	}
}

// WriteText renders the classic fixed-width results listing: one block
// per category, followed by combined DQ and DNF sections (spec §4.7.8).
// Grounded on results/show_results/show_nf.
func WriteText(w *strings.Builder, rr *RaceResult) {
	cfg := rr.Config

	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "%s %s: %s\n", cfg.Date, cfg.ID, cfg.Name)
	fmt.Fprintf(w, "    start: %s   cutoff: %s  %s\n", hms(cfg.StartMs), hms(cfg.FinishMs), tzOffset())
	fmt.Fprintln(w, strings.Repeat("=", 80))

	for _, cr := range rr.Categories {
		writeResultsBlock(w, cr)
	}

	if len(rr.DQs) > 0 {
		writeNonFinishBlock(w, "DQ, all", rr.DQs)
	}
	if len(rr.DNFs) > 0 {
		writeNonFinishBlock(w, "DNF, all", rr.DNFs)
	}
}

const blockWidth = 28

func writeResultsBlock(w *strings.Builder, cr CategoryResult) {
	if len(cr.Finishers) == 0 {
		return
	}
	grp := cr.Finishers[0].Selected.Group

	starter := "clock"
	if grp.LeadRiderID != nil && grp.LeadRiderName != "" {
		starter = grp.LeadRiderName
	}
	h0 := fmt.Sprintf("== START @ %8.8s by %s", hms(grp.StartMs), starter)
	if pad := blockWidth + 18 - len(h0); pad > 0 {
		h0 += " " + strings.Repeat("=", pad)
	}
	h1 := fmt.Sprintf("== RESULTS for %s ", cr.Name)
	if pad := blockWidth + 19 - len(h1); pad > 0 {
		h1 += strings.Repeat("=", pad)
	}
	h1 += "  km  avgW  W/kg cat  cm"

	fmt.Fprintln(w)
	fmt.Fprintln(w, h0)
	fmt.Fprintln(w, h1)

	for _, r := range cr.Finishers {
		km := float64(r.Distance) / 1000
		heightCm := r.HeightMM / 10
		fmt.Fprintf(w, "%2d. %s%c  %-28.28s  %5.1f  %3d  %4.2f  %c  %3d\n",
			r.Place, r.Timepos, powerChar(r.PowerType),
			r.FName+" "+r.LName, km, r.Watts, r.Wkg, r.Ecat, heightCm)
	}
}

func writeNonFinishBlock(w *strings.Builder, tag string, riders []*Rider) {
	h1 := fmt.Sprintf("==== %s ", tag)
	if pad := 54 - len(h1); pad > 0 {
		h1 += strings.Repeat("=", pad)
	}
	h1 += "  km"

	fmt.Fprintln(w)
	fmt.Fprintln(w, h1)

	for _, r := range riders {
		km := float64(r.Distance) / 1000
		fmt.Fprintf(w, "%-15.15s  %-35.35s  %5.1f\n", r.DQReason, r.FName+" "+r.LName, km)
	}
}
