package database

import (
	"context"
	"time"
)

// InsertChalkline creates a new chalkline row for a name the registry has
// never seen, returning its assigned canonical line id (spec §4.5 LINE
// handling: "insert a new chalkline(data, name) row, read back the
// assigned canonical id").
func (db *DB) InsertChalkline(ctx context.Context, name string, data []byte) (uint32, error) {
	var id uint32
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO chalkline (name, data, active) VALUES ($1, $2, false) RETURNING line`,
		name, data,
	).Scan(&id)
	return id, err
}

// SetChalklineActive flips a chalkline's active flag and, when activating,
// stamps lastmonitored (spec §3: NEARBY/POS proximity sets active true and
// records last_monitored_at; SHUTDOWN sets active false).
func (db *DB) SetChalklineActive(ctx context.Context, lineID uint32, active bool) error {
	if active {
		_, err := db.Pool.Exec(ctx,
			`UPDATE chalkline SET active = true, last_monitored = $2 WHERE line = $1`,
			lineID, time.Now().UTC(),
		)
		return err
	}
	_, err := db.Pool.Exec(ctx, `UPDATE chalkline SET active = false WHERE line = $1`, lineID)
	return err
}

// DeactivateAllChalklines is the SHUTDOWN handler's bulk flip (spec §4.5:
// "Mark all previously-active chalklines inactive").
func (db *DB) DeactivateAllChalklines(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `UPDATE chalkline SET active = false WHERE active = true`)
	return err
}

// ChalklineRow is one persisted chalkline, used to rebuild the in-memory
// registry at startup (spec §8: "rebuilding the registry from persisted
// chalkline rows and replaying LINE events yields the same mapping").
type ChalklineRow struct {
	Line uint32
	Name string
}

// ListChalklines returns every known (line, name) pair.
func (db *DB) ListChalklines(ctx context.Context) ([]ChalklineRow, error) {
	rows, err := db.Pool.Query(ctx, `SELECT line, name FROM chalkline`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChalklineRow
	for rows.Next() {
		var r ChalklineRow
		if err := rows.Scan(&r.Line, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LineIDByName resolves a chalkline by name, exact match first and then
// prefix match, for PositionStore's line-lookup-by-name contract (spec
// §2 PositionStore: "line lookup by name (exact then prefix)").
func (db *DB) LineIDByName(ctx context.Context, name string) (uint32, bool, error) {
	var id uint32
	err := db.Pool.QueryRow(ctx, `SELECT line FROM chalkline WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, true, nil
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT line FROM chalkline WHERE name LIKE $1 ORDER BY line LIMIT 1`,
		name+"%",
	).Scan(&id)
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}
