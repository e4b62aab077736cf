package database

import (
	"context"

	"github.com/snarg/chalkline/internal/model"
)

// UpsertLiveResult inserts one position row, or updates it in place if a
// row already exists for the same (msec, riderid, monitorid) key — spec §6:
// "live_results(...) with unique key (msec, riderid, monitorid)", and §8's
// idempotence invariant that re-ingesting an already-persisted row leaves
// the row count unchanged.
func (db *DB) UpsertLiveResult(ctx context.Context, p model.PositionRecord) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO live_results
			(msec, riderid, lineid, fwd, meters, mwh, duration, elevation, speed, hr, monitorid, lpup, pup, cad, grp, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
		ON CONFLICT (msec, riderid, monitorid) DO UPDATE SET
			lineid = EXCLUDED.lineid, fwd = EXCLUDED.fwd, meters = EXCLUDED.meters,
			mwh = EXCLUDED.mwh, duration = EXCLUDED.duration, elevation = EXCLUDED.elevation,
			speed = EXCLUDED.speed, hr = EXCLUDED.hr, lpup = EXCLUDED.lpup, pup = EXCLUDED.pup,
			cad = EXCLUDED.cad, grp = EXCLUDED.grp
	`,
		p.TimeMs, p.RiderID, p.LineID, p.Forward, p.Meters, p.Mwh, p.DurationMs,
		p.Elevation, p.SpeedMphThousandths, p.HR, p.MonitorID, p.Lpup, p.Pup, p.Cadence, p.GroupID,
	)
	return err
}

// UpsertTelemetry is UpsertLiveResult's telemetry-table counterpart, with
// rad in place of lineid (spec §3 TelemetryRecord).
func (db *DB) UpsertTelemetry(ctx context.Context, t model.TelemetryRecord) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO telemetry
			(msec, riderid, rad, fwd, meters, mwh, duration, elevation, speed, hr, monitorid, lpup, pup, cad, grp, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
		ON CONFLICT (msec, riderid, monitorid) DO UPDATE SET
			rad = EXCLUDED.rad, fwd = EXCLUDED.fwd, meters = EXCLUDED.meters,
			mwh = EXCLUDED.mwh, duration = EXCLUDED.duration, elevation = EXCLUDED.elevation,
			speed = EXCLUDED.speed, hr = EXCLUDED.hr, lpup = EXCLUDED.lpup, pup = EXCLUDED.pup,
			cad = EXCLUDED.cad, grp = EXCLUDED.grp
	`,
		t.TimeMs, t.RiderID, t.Rad, t.Forward, t.Meters, t.Mwh, t.DurationMs,
		t.Elevation, t.SpeedMphThousandths, t.HR, t.MonitorID, t.Lpup, t.Pup, t.Cadence, t.GroupID,
	)
	return err
}

// RangePositions returns every live_results row with msec in
// [startMs, endMs], ordered by rider then time — the range query the
// results engine opens each race run with (spec §4.7: "range-querying
// positions from start_ms - 2 min to finish_ms").
func (db *DB) RangePositions(ctx context.Context, startMs, endMs int64) ([]model.PositionRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT msec, riderid, lineid, fwd, meters, mwh, duration, elevation, speed, hr, monitorid, lpup, pup, cad, grp
		FROM live_results
		WHERE msec BETWEEN $1 AND $2
		ORDER BY riderid, msec
	`, startMs, endMs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PositionRecord
	for rows.Next() {
		var p model.PositionRecord
		if err := rows.Scan(
			&p.TimeMs, &p.RiderID, &p.LineID, &p.Forward, &p.Meters, &p.Mwh, &p.DurationMs,
			&p.Elevation, &p.SpeedMphThousandths, &p.HR, &p.MonitorID, &p.Lpup, &p.Pup, &p.Cadence, &p.GroupID,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
