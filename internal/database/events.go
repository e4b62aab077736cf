package database

import (
	"context"

	"github.com/snarg/chalkline/internal/model"
)

// UpcomingSubgroups returns event subgroups starting strictly between
// fromMs and toMs, ordered by start time ascending — the window the
// scheduler walks on each pass (spec §4.8, grounded on
// get_subgroup_retrieval_times's own windowed select).
func (db *DB) UpcomingSubgroups(ctx context.Context, fromMs, toMs int64) ([]model.EventSubgroup, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT zes.id, zes.start_ms, ze.name, ze.id
		FROM zwift_event_subgroups zes
		JOIN zwift_events ze ON zes.zwift_event_id = ze.id
		WHERE zes.start_ms > $1 AND zes.start_ms < $2
		ORDER BY zes.start_ms ASC
	`, fromMs, toMs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EventSubgroup
	for rows.Next() {
		var s model.EventSubgroup
		if err := rows.Scan(&s.SubgroupID, &s.StartMs, &s.EventName, &s.ZwiftEventID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
