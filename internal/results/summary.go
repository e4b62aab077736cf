package results

import (
	"math"
	"regexp"
)

// SummarizeRide computes the rider's elapsed time, average power, W/kg,
// and estimated category from its selected finish (spec §4.7.6).
//
// Grounded on summarize_ride, including the DNF special case of using the
// last observed position as the effective end.
func SummarizeRide(r *Rider) {
	s := r.Pos[0]
	e := r.End
	if r.DNF {
		last := r.Pos[len(r.Pos)-1]
		e = &last
	}

	r.Mwh = e.Mwh - s.Mwh
	r.Distance = e.Meters - s.Meters
	r.Msec = e.TimeMs - s.TimeMs

	var watts float64
	if r.Msec != 0 {
		watts = (float64(r.Mwh) * 3600) / float64(r.Msec)
	}
	r.Watts = int32(watts)

	var wkg float64
	if r.WeightG != 0 {
		wkg = (watts * 1000) / float64(r.WeightG)
		wkg = math.Round(wkg*100) / 100
	}
	r.Wkg = wkg

	switch {
	case wkg == 0:
		r.Ecat = 'X'
	case !r.Male:
		r.Ecat = 'W'
	case wkg > 4:
		r.Ecat = 'A'
	case wkg > 3.2:
		r.Ecat = 'B'
	case wkg > 2.5:
		r.Ecat = 'C'
	default:
		r.Ecat = 'D'
	}
}

// categoryPatterns is the ordered regex cascade used to infer a rider's
// category from their last name when the database has none on file (spec
// §4.7.7, §9: "order is the contract"). Grounded on rider.set_info's
// seven-pattern match chain.
var categoryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\((.)\)$`),
	regexp.MustCompile(`\s(.)$`),
	regexp.MustCompile(`-(.)$`),
	regexp.MustCompile(`\s(.)\)$`),
	regexp.MustCompile(`-(.)[ )]`),
	regexp.MustCompile(`\((.)\)`),
	regexp.MustCompile(`\s(.)\)`),
}

// allowedCats is the sanity filter applied to any inferred letter (spec
// §4.7.7: "only letters in ABCDW survive").
const allowedCats = "ABCDW"

// InferCategory derives a category letter from lname via the ordered
// pattern cascade; it returns "X" (unknown) if no pattern matches or the
// matched letter fails the ABCDW sanity check.
func InferCategory(lname string) string {
	for _, re := range categoryPatterns {
		m := re.FindStringSubmatch(lname)
		if m == nil {
			continue
		}
		letter := []byte(m[1])[0]
		if letter >= 'a' && letter <= 'z' {
			letter -= 'a' - 'A'
		}
		for i := 0; i < len(allowedCats); i++ {
			if allowedCats[i] == letter {
				return string(letter)
			}
		}
		return "X"
	}
	return "X"
}
