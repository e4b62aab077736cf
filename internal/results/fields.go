package results

import "strconv"

// FieldValues exposes a rider's fields by name, the same set __getitem__
// reaches via getattr in the original (spec §4.7 "HTML / SQL-template"
// output variant: field descriptors name a rider attribute to read). Only
// placed finishers carry a meaningful Place/Timepos/Distance — call this
// after Place has run.
//
// Most keys are the Go struct's own field names, lowercased. height,
// weight and power use the same keys as output_json.go and carry derived
// values (centimetres, kilograms and the power marker character), and
// dq_reason carries DQReason.
func (r *Rider) FieldValues() map[string]string {
	return map[string]string{
		"id":         strconv.FormatUint(r.ID, 10),
		"fname":      r.FName,
		"lname":      r.LName,
		"cat":        r.Cat,
		"height":     strconv.FormatInt(int64(r.HeightMM)/10, 10),
		"weight":     strconv.FormatInt(int64(r.WeightG)/1000, 10),
		"male":       strconv.FormatBool(r.Male),
		"power":      string(powerChar(r.PowerType)),
		"place":      strconv.Itoa(r.Place),
		"timepos":    r.Timepos,
		"distance":   strconv.FormatInt(r.Distance, 10),
		"mwh":        strconv.FormatInt(r.Mwh, 10),
		"msec":       strconv.FormatInt(r.Msec, 10),
		"watts":      strconv.FormatInt(int64(r.Watts), 10),
		"wkg":        strconv.FormatFloat(r.Wkg, 'f', 2, 64),
		"ecat":       string(r.Ecat),
		"dq_reason":  r.DQReason,
	}
}
