package database

import (
	"context"

	"github.com/snarg/chalkline/internal/model"
)

// RiderProfiles returns the known rider_names rows for the given ids,
// keyed by rider id. Riders absent from the map have no profile on file
// and the results engine falls back to name-based category inference
// (spec §4.7.7).
func (db *DB) RiderProfiles(ctx context.Context, ids []uint64) (map[uint64]model.RiderProfile, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT riderid, fname, lname, cat, weight_g, height_mm, male, power_type
		FROM rider_names
		WHERE riderid = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64]model.RiderProfile)
	for rows.Next() {
		var p model.RiderProfile
		var cat *string
		if err := rows.Scan(&p.RiderID, &p.FName, &p.LName, &cat, &p.WeightG, &p.HeightMM, &p.Male, &p.PowerType); err != nil {
			return nil, err
		}
		if cat != nil && len(*cat) == 1 {
			b := (*cat)[0]
			p.Cat = &b
		}
		out[p.RiderID] = p
	}
	return out, rows.Err()
}

// UpsertRiderProfile writes one rider_names row, keyed by rider id, from
// a freshly-retrieved upstream profile (internal/riderprofile).
func (db *DB) UpsertRiderProfile(ctx context.Context, p model.RiderProfile) error {
	var cat *string
	if p.Cat != nil {
		s := string(*p.Cat)
		cat = &s
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO rider_names (riderid, fname, lname, cat, weight_g, height_mm, male, power_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (riderid) DO UPDATE SET
			fname = EXCLUDED.fname,
			lname = EXCLUDED.lname,
			cat = EXCLUDED.cat,
			weight_g = EXCLUDED.weight_g,
			height_mm = EXCLUDED.height_mm,
			male = EXCLUDED.male,
			power_type = EXCLUDED.power_type
	`, p.RiderID, p.FName, p.LName, cat, p.WeightG, p.HeightMM, p.Male, p.PowerType)
	return err
}
