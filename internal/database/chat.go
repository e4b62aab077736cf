package database

import (
	"context"

	"github.com/snarg/chalkline/internal/model"
)

// InsertChat persists one deduplicated chat message (spec §4.5 CHAT
// handling: "unique messages ... inserted into the chat table").
func (db *DB) InsertChat(ctx context.Context, c model.ChatEvent) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO chat (riderid, msg, time) VALUES ($1, $2, $3)`,
		c.RiderID, c.Msg, c.Time,
	)
	return err
}
