// Package raceconfig implements ConfigParser: a keyword-directed parser
// for the line-oriented race-configuration file format (spec §4.6).
//
// Grounded directly on original_source/mkresults.py's config class: the
// same keyword set (ID, NAME, ALTERNATE, START, CORRAL, FINISH, BEGIN,
// CUTOFF, CAT), the same `{ line name }` brace syntax, and the same
// cutoff/pace/default-2h derivation order for finish_ms.
package raceconfig

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// GroupSpec is one category/cohort within a race (spec §3).
type GroupSpec struct {
	Name        string
	DistanceM   float64
	LeadRiderID *uint64
	DelayMs     *int64
	// StartMs defaults to the race start time, adjusted by DelayMs if set.
	// When LeadRiderID is set instead, the results engine overwrites this
	// once the lead rider's actual start crossing is known.
	StartMs int64
	// LeadRiderName is filled in by the results engine once the lead rider
	// is resolved, for the "== START @ ... by <name>" text header; empty
	// when LeadRiderID is nil or the lead rider was never admitted.
	LeadRiderName string
}

// RaceConfig is a fully parsed race configuration (spec §3).
type RaceConfig struct {
	ID   string
	Name string
	Date string // YYYY-MM-DD, derived from StartMs in the BEGIN line's zone

	StartMs  int64
	FinishMs int64

	StartLine    string
	StartForward bool

	CorralLine    string
	CorralForward bool

	FinishLine    string
	FinishForward bool

	Alternate bool

	PaceKmh  int64
	CutoffMs *int64

	Groups []GroupSpec
}

var lineBraceRe = regexp.MustCompile(`^\{\s*(.*?)\s*\}$`)
var zoneOffsetRe = regexp.MustCompile(`^([+-]?)(\d{2}):?(\d{2})?$`)
var catRe = regexp.MustCompile(`^\{\s*(.*?)\s*\}\s+(\S+)\s+(\S+)$`)

// Parse reads a race configuration file from path (spec §4.6). Unknown
// keywords are silently skipped; blank lines and `#` comments are ignored.
func Parse(path string) (*RaceConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raceconfig: %w", err)
	}
	defer f.Close()

	cfg := &RaceConfig{}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.SplitN(line, " ", 2)
		key := fields[0]
		var val string
		if len(fields) > 1 {
			val = strings.TrimSpace(fields[1])
		}

		var err error
		switch key {
		case "ID":
			cfg.ID = val
		case "NAME":
			cfg.Name = val
		case "ALTERNATE":
			cfg.Alternate = true
		case "START":
			err = parseDirLine(val, &cfg.StartForward, &cfg.StartLine)
		case "CORRAL":
			err = parseDirLine(val, &cfg.CorralForward, &cfg.CorralLine)
		case "FINISH":
			err = parseDirLine(val, &cfg.FinishForward, &cfg.FinishLine)
		case "BEGIN":
			err = parseBegin(cfg, val)
		case "CUTOFF":
			err = parseCutoff(cfg, val)
		case "CAT":
			err = parseCat(cfg, val)
		default:
			// Unknown keyword: silently skipped per spec §4.6.
		}
		if err != nil {
			return nil, fmt.Errorf("raceconfig: line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("raceconfig: %w", err)
	}

	if cfg.StartMs == 0 && cfg.Date == "" {
		return nil, fmt.Errorf("raceconfig: missing BEGIN line")
	}

	deriveFinish(cfg)
	for i := range cfg.Groups {
		if cfg.Groups[i].LeadRiderID == nil && cfg.Groups[i].DelayMs == nil {
			cfg.Groups[i].StartMs = cfg.StartMs
		} else if cfg.Groups[i].DelayMs != nil {
			cfg.Groups[i].StartMs = cfg.StartMs + *cfg.Groups[i].DelayMs
		}
	}

	return cfg, nil
}

// parseDirLine handles START/CORRAL/FINISH: "<fwd|rev> { line name }".
func parseDirLine(val string, forward *bool, lineName *string) error {
	fields := strings.SplitN(val, " ", 2)
	if len(fields) != 2 {
		return fmt.Errorf("expected '<fwd|rev> { name }', got %q", val)
	}
	*forward = fields[0] == "fwd"

	m := lineBraceRe.FindStringSubmatch(strings.TrimSpace(fields[1]))
	if m == nil {
		return fmt.Errorf("could not parse line name from %q", fields[1])
	}
	*lineName = m[1]
	return nil
}

// parseBegin handles "BEGIN time=HH:MM [date=YYYY-MM-DD] [zone=local|zulu|±HH[:MM]]".
func parseBegin(cfg *RaceConfig, val string) error {
	d := splitKV(val)

	timeStr, ok := d["time"]
	if !ok {
		return fmt.Errorf("BEGIN must specify time=HH:MM")
	}

	loc := time.Local
	if zone, ok := d["zone"]; ok && zone != "local" {
		if zone == "zulu" {
			loc = time.UTC
		} else {
			m := zoneOffsetRe.FindStringSubmatch(zone)
			if m == nil {
				return fmt.Errorf("invalid timezone syntax %q", zone)
			}
			hh, _ := strconv.Atoi(m[2])
			mm := 0
			if m[3] != "" {
				mm, _ = strconv.Atoi(m[3])
			}
			offset := hh*3600 + mm*60
			if m[1] == "-" {
				offset = -offset
			}
			loc = time.FixedZone(zone, offset)
		}
	}

	now := time.Now().In(loc)
	year, month, day := now.Date()
	if dateStr, ok := d["date"]; ok {
		parsedDate, err := time.ParseInLocation("2006-01-02", dateStr, loc)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
		year, month, day = parsedDate.Date()
	}

	t, err := time.ParseInLocation("15:04", timeStr, loc)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", timeStr, err)
	}

	start := time.Date(year, month, day, t.Hour(), t.Minute(), 0, 0, loc)
	cfg.StartMs = start.UnixMilli()
	cfg.Date = start.Format("2006-01-02")
	return nil
}

// parseCutoff handles "CUTOFF pace=<kmh>" and/or "CUTOFF time=<MM:SS|minutes>".
func parseCutoff(cfg *RaceConfig, val string) error {
	d := splitKV(val)
	if pace, ok := d["pace"]; ok {
		n, err := strconv.ParseInt(pace, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid pace %q: %w", pace, err)
		}
		cfg.PaceKmh = n
	}
	if t, ok := d["time"]; ok {
		sec, err := parseMinSec(t)
		if err != nil {
			return err
		}
		if !strings.Contains(t, ":") {
			sec *= 60 // a bare number is minutes
		}
		ms := sec * 1000
		cfg.CutoffMs = &ms
	}
	return nil
}

// parseCat handles "CAT name { [id=<lead>] [delay=<MM:SS|sec>] } <km|mi> <distance>".
func parseCat(cfg *RaceConfig, val string) error {
	fields := strings.SplitN(val, " ", 2)
	if len(fields) != 2 {
		return fmt.Errorf("expected 'CAT name { ... } <km|mi> <distance>', got %q", val)
	}
	name := fields[0]

	m := catRe.FindStringSubmatch(strings.TrimSpace(fields[1]))
	if m == nil {
		return fmt.Errorf("unable to parse category info %q", val)
	}
	d := splitKV(m[1])
	unit, distStr := m[2], m[3]

	dist, err := strconv.ParseFloat(distStr, 64)
	if err != nil {
		return fmt.Errorf("invalid distance %q: %w", distStr, err)
	}
	switch unit {
	case "km":
		// no conversion
	case "mi":
		dist = dist * 1.60934
	default:
		return fmt.Errorf("unknown distance specifier %q for cat %s", unit, name)
	}

	grp := GroupSpec{Name: name, DistanceM: math.Round(dist * 1000)}
	if id, ok := d["id"]; ok {
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid lead rider id %q: %w", id, err)
		}
		grp.LeadRiderID = &n
	}
	if delay, ok := d["delay"]; ok {
		sec, err := parseMinSec(delay)
		if err != nil {
			return err
		}
		ms := sec * 1000
		grp.DelayMs = &ms
	}

	cfg.Groups = append(cfg.Groups, grp)
	return nil
}

// deriveFinish computes finish_ms once all keywords are parsed: cutoff
// wins; else pace applied to the longest group distance; else 2 hours
// (spec §4.6).
func deriveFinish(cfg *RaceConfig) {
	switch {
	case cfg.CutoffMs != nil:
		cfg.FinishMs = cfg.StartMs + *cfg.CutoffMs
	case cfg.PaceKmh != 0:
		longest := 0.0
		for _, g := range cfg.Groups {
			if g.DistanceM > longest {
				longest = g.DistanceM
			}
		}
		cfg.FinishMs = cfg.StartMs + int64((longest*36)/(float64(cfg.PaceKmh)*10))*1000
	default:
		cfg.FinishMs = cfg.StartMs + 2*3600*1000
	}
}

// parseMinSec parses "MM:SS" or a bare integer count of seconds.
func parseMinSec(val string) (int64, error) {
	if m, s, ok := strings.Cut(val, ":"); ok {
		mm, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid time %q: %w", val, err)
		}
		ss, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid time %q: %w", val, err)
		}
		return mm*60 + ss, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse time %q", val)
	}
	return n, nil
}

// splitKV splits a "key=val key2=val2" token sequence into a map, matching
// the original's `dict(zip(iter, iter))` over whitespace-split tokens.
func splitKV(s string) map[string]string {
	out := make(map[string]string)
	for _, tok := range strings.Fields(s) {
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}
