// Command results runs the results engine once against a race
// configuration file and a populated positions database, then writes the
// placed, categorized result set in one of several output formats (spec
// §4.7).
//
// Grounded on original_source/mkresults.py's argparse surface: a
// positional configuration file plus flags selecting JSON vs text output
// and an optional external output-template file, and on
// cmd/tr-engine/main.go's flag-then-config-then-connect wiring order.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/chalkline/internal/config"
	"github.com/snarg/chalkline/internal/database"
	"github.com/snarg/chalkline/internal/outputtemplate"
	"github.com/snarg/chalkline/internal/positions"
	"github.com/snarg/chalkline/internal/raceconfig"
	"github.com/snarg/chalkline/internal/results"
)

func main() {
	var (
		jsonOut     bool
		split       bool
		noCat       bool
		outputTmpl  string
		databaseURL string
		showVersion bool
	)
	flag.BoolVar(&jsonOut, "json", false, "Write JSON instead of the fixed-width text listing")
	flag.BoolVar(&split, "split", false, "Include each rider's full cross-position list in JSON output")
	flag.BoolVar(&noCat, "no-cat", false, "Fold unrecognized-category riders into their winning group")
	flag.StringVar(&outputTmpl, "output", "", "Path to an output-template file (html or sql) to render instead of text/json")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (overrides DATABASE_URL)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println("results dev")
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: results [flags] <config_file>")
		os.Exit(2)
	}
	configFile := flag.Arg(0)

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(config.Overrides{DatabaseURL: databaseURL})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	raceCfg, err := raceconfig.Parse(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse race configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL, log.With().Str("component", "database").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	store := positions.New(db)
	engine := results.New(store, db, raceCfg, noCat)

	rr, err := engine.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("results run failed")
	}

	if outputTmpl != "" {
		if err := renderTemplate(outputTmpl, rr); err != nil {
			log.Fatal().Err(err).Msg("template rendering failed")
		}
		return
	}

	if jsonOut {
		if err := writeJSON(raceCfg.Name, rr, split); err != nil {
			log.Fatal().Err(err).Msg("json rendering failed")
		}
		return
	}

	var sb strings.Builder
	results.WriteText(&sb, rr)
	fmt.Print(sb.String())
}

func renderTemplate(path string, rr *results.RaceResult) error {
	doc, err := outputtemplate.Load(path)
	if err != nil {
		return fmt.Errorf("load output template: %w", err)
	}

	switch doc.Output {
	case "html":
		out, err := outputtemplate.RenderHTML(doc, rr)
		if err != nil {
			return fmt.Errorf("render html: %w", err)
		}
		fmt.Print(out)
	case "sql":
		stmt := outputtemplate.BuildSQL(doc, rr)
		fmt.Println(stmt.CreateTable + ";")
		for _, row := range stmt.Rows {
			fmt.Printf("-- insert %v via %s\n", row, stmt.InsertSQL)
		}
	default:
		return fmt.Errorf("unsupported output template kind %q", doc.Output)
	}
	return nil
}

func writeJSON(raceName string, rr *results.RaceResult, split bool) error {
	raceJSON := results.BuildRaceJSON(raceName, rr, split)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(raceJSON)
}
