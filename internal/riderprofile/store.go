package riderprofile

import "github.com/snarg/chalkline/internal/model"

func riderRow(r Rider) model.RiderProfile {
	return model.RiderProfile{
		RiderID:   r.RiderID,
		FName:     r.FName,
		LName:     r.LName,
		Cat:       r.Cat,
		WeightG:   r.WeightG,
		HeightMM:  r.HeightMM,
		Male:      r.Male,
		PowerType: r.PowerType,
	}
}
