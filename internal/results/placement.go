package results

import "sort"

// Place sorts finishers by end time ascending, assigns 1-based placement,
// and renders each rider's timepos relative to the category winner (spec
// §4.7.8). Grounded on place().
func Place(riders []*Rider) []*Rider {
	sorted := make([]*Rider, len(riders))
	copy(sorted, riders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EndTimeMs < sorted[j].EndTimeMs
	})

	var st timeposState
	var lastMs int64
	for i, r := range sorted {
		r.Place = i + 1
		r.Timepos = st.makeTimepos(lastMs, r.Pos[0].TimeMs, r.End.TimeMs)
		lastMs = r.End.TimeMs
	}
	return sorted
}
