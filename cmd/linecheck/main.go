// Command linecheck is an operator diagnostic CLI over the chalkline
// registry and the rest of the persisted telemetry tables: table counts
// by default, and a dry-run/apply subcommand for clearing chalklines
// left active after a crash that never reached the SHUTDOWN handler.
//
// Grounded on cmd/dbcheck's subcommand dispatch via os.Args, its
// default table-count listing, and fixunresolved.go's
// dry-run-by-default/"apply" opt-in pattern for a corrective write.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var tables = []string{
	"chalkline", "live_results", "telemetry", "chat",
	"rider_names", "athlete_names", "event_detail",
	"zwift_events", "zwift_event_subgroups",
}

func main() {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "linecheck: connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if len(os.Args) > 1 && os.Args[1] == "active" {
		listActive(ctx, pool)
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "fix-stale" {
		dryRun := !(len(os.Args) > 2 && os.Args[2] == "apply")
		fixStaleActive(ctx, pool, dryRun)
		return
	}

	// Default: table counts.
	fmt.Println("Table                    Count")
	fmt.Println("─────────────────────────────────")
	for _, t := range tables {
		var count int64
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM "+t).Scan(&count); err != nil {
			fmt.Printf("%-25s error: %v\n", t, err)
			continue
		}
		fmt.Printf("%-25s %d\n", t, count)
	}
}

// listActive prints every chalkline currently marked active, newest
// last_monitored first, so an operator can eyeball whether a line
// stuck active across a restart.
func listActive(ctx context.Context, pool *pgxpool.Pool) {
	rows, err := pool.Query(ctx,
		`SELECT line, name, last_monitored FROM chalkline WHERE active = true ORDER BY last_monitored DESC NULLS LAST`)
	if err != nil {
		fmt.Printf("Error listing active chalklines: %v\n", err)
		return
	}
	defer rows.Close()

	fmt.Println("Line       Name                           Last monitored")
	fmt.Println("─────────────────────────────────────────────────────────")
	for rows.Next() {
		var line uint32
		var name string
		var lastMonitored *time.Time
		if err := rows.Scan(&line, &name, &lastMonitored); err != nil {
			fmt.Printf("Error scanning row: %v\n", err)
			return
		}
		stamp := "never"
		if lastMonitored != nil {
			stamp = lastMonitored.Format(time.RFC3339)
		}
		fmt.Printf("%-10d %-30s %s\n", line, name, stamp)
	}
}

// staleAfter is how long a chalkline can sit active with no fresh
// NEARBY/POS crossing before it is considered abandoned by a crashed
// ingestd rather than a genuinely ongoing session.
const staleAfter = 6 * time.Hour

// fixStaleActive deactivates active chalklines whose last_monitored stamp
// is missing or older than staleAfter, mirroring fix-unresolved's dry-run-then-apply
// shape: list what would change, only write under "apply".
func fixStaleActive(ctx context.Context, pool *pgxpool.Pool, dryRun bool) {
	fmt.Println("── Chalklines active past the stale threshold ──")

	cutoff := time.Now().Add(-staleAfter)
	rows, err := pool.Query(ctx,
		`SELECT line, name, last_monitored FROM chalkline
		 WHERE active = true AND (last_monitored IS NULL OR last_monitored < $1)
		 ORDER BY line`, cutoff)
	if err != nil {
		fmt.Printf("Error finding stale chalklines: %v\n", err)
		return
	}

	type stale struct {
		line uint32
		name string
	}
	var found []stale
	for rows.Next() {
		var s stale
		var lastMonitored *time.Time
		if err := rows.Scan(&s.line, &s.name, &lastMonitored); err != nil {
			fmt.Printf("Error scanning row: %v\n", err)
			rows.Close()
			return
		}
		found = append(found, s)
	}
	rows.Close()

	fmt.Printf("Found %d stale active chalklines\n", len(found))
	if len(found) == 0 {
		return
	}

	if dryRun {
		fmt.Println("Dry run — no changes made. Run with 'fix-stale apply' to fix.")
		for _, s := range found {
			fmt.Printf("  line=%d name=%q would be deactivated\n", s.line, s.name)
		}
		return
	}

	cleared := 0
	for _, s := range found {
		if _, err := pool.Exec(ctx, `UPDATE chalkline SET active = false WHERE line = $1`, s.line); err != nil {
			fmt.Printf("  error deactivating line=%d: %v\n", s.line, err)
			continue
		}
		cleared++
	}
	fmt.Printf("Deactivated %d of %d stale chalklines\n", cleared, len(found))
}
