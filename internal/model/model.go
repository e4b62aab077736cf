// Package model holds the data shapes shared across the ingestion and
// results subsystems (spec.md §3 "Data Model"), so that internal/ingest,
// internal/database, internal/positions, and internal/results all speak
// the same types without importing one another.
package model

import "time"

// ChalklineRef is the registry's view of one timing line.
type ChalklineRef struct {
	LocalID         uint32
	CanonicalID     uint32
	Name            string
	Data            []byte
	Active          bool
	LastMonitoredAt time.Time
}

// PositionRecord is one rider position sample, keyed by (TimeMs, RiderID,
// MonitorID). LineID is nil when the stored row carries no line id (the
// lineid column is nullable); the ingest pipeline skips POS records whose
// local line fails to resolve rather than storing them without one.
type PositionRecord struct {
	TimeMs              int64
	RiderID             uint64
	LineID              *uint32
	Forward             bool
	Meters              int64
	Mwh                 int64
	DurationMs          int64
	Elevation           int32
	SpeedMphThousandths int32
	HR                  int16
	MonitorID           uint32
	Lpup                *int32
	Pup                 *string
	Cadence             *int16
	GroupID             *uint32
}

// TelemetryRecord has the same shape as PositionRecord but carries a
// radial distance to the nearest observer instead of a line id, and never
// participates in chalkline mapping.
type TelemetryRecord struct {
	TimeMs              int64
	RiderID             uint64
	Rad                 *int32
	Forward             bool
	Meters              int64
	Mwh                 int64
	DurationMs          int64
	Elevation           int32
	SpeedMphThousandths int32
	HR                  int16
	MonitorID           uint32
	Lpup                *int32
	Pup                 *string
	Cadence             *int16
	GroupID             *uint32
}

// ChatEvent is one chat message as received on the ingestion log.
type ChatEvent struct {
	Time        string
	RiderID     uint64
	PartialName string
	Msg         string
}

// RiderProfile is the subset of rider_names used by the results engine
// when a category is known ahead of time (spec §4.7.7: "Rider category is
// taken from the database if present; otherwise derived from the last name").
type RiderProfile struct {
	RiderID   uint64
	FName     string
	LName     string
	Cat       *byte // nil if not recorded; letter in ABCDWX otherwise
	WeightG   int32
	HeightMM  int32
	Male      bool
	PowerType int8
}

// EventSubgroup is one zwift_event_subgroups row joined to its parent
// zwift_events row, the unit the scheduler walks to compute rider-profile
// retrieval times (spec §4.8).
type EventSubgroup struct {
	SubgroupID   uint64
	StartMs      int64
	EventName    string
	ZwiftEventID uint64
}
