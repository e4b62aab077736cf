// Package positions implements PositionStore: the read-only view over
// persisted position records that the results engine opens each race run
// against (spec §2, §4.7).
//
// Grounded on internal/database/query.go's read-only-query wrapper shape;
// here the query surface is narrowed to the two operations the spec
// actually names (range query by time, line lookup by name) instead of
// exposing arbitrary SQL.
package positions

import (
	"context"

	"github.com/snarg/chalkline/internal/database"
	"github.com/snarg/chalkline/internal/model"
)

// Store is a thin read-only facade over the database for the results
// engine; it never mutates rows.
type Store struct {
	db *database.DB
}

// New wraps db as a PositionStore.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// RangeByTime returns every position in [startMs, endMs], ordered by rider
// then time (spec §4.7: "range-querying positions from start_ms - 2 min
// to finish_ms").
func (s *Store) RangeByTime(ctx context.Context, startMs, endMs int64) ([]model.PositionRecord, error) {
	return s.db.RangePositions(ctx, startMs, endMs)
}

// LineIDByName resolves a chalkline by name, exact match first and then
// prefix match (spec §2: "line lookup by name (exact then prefix)").
func (s *Store) LineIDByName(ctx context.Context, name string) (uint32, bool, error) {
	return s.db.LineIDByName(ctx, name)
}

// RidersByTime groups RangeByTime's flat rows by rider id, the shape the
// results engine actually consumes.
func (s *Store) RidersByTime(ctx context.Context, startMs, endMs int64) (map[uint64][]model.PositionRecord, error) {
	rows, err := s.RangeByTime(ctx, startMs, endMs)
	if err != nil {
		return nil, err
	}
	out := make(map[uint64][]model.PositionRecord)
	for _, r := range rows {
		out[r.RiderID] = append(out[r.RiderID], r)
	}
	return out, nil
}
