package results

import "github.com/snarg/chalkline/internal/model"

// mkpos builds one position record for test fixtures; fields not listed
// default to zero.
func mkpos(timeMs, meters, mwh int64) model.PositionRecord {
	return model.PositionRecord{TimeMs: timeMs, Meters: meters, Mwh: mwh}
}

func mkposLine(timeMs, meters int64, lineID uint32, forward bool) model.PositionRecord {
	l := lineID
	return model.PositionRecord{TimeMs: timeMs, Meters: meters, LineID: &l, Forward: forward}
}

func posPtr(p model.PositionRecord) *model.PositionRecord {
	return &p
}
