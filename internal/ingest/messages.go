// Package ingest implements Ingestor: the main ingestion loop that decodes
// each log record, dispatches by event kind, applies the LineRegistry,
// updates chalkline liveness, persists position/telemetry/chat rows, and
// re-publishes rider events on the bus.
//
// The typed-payload-per-kind shape (an Envelope-style outer record plus one
// struct per event kind) is grounded on internal/ingest/messages.go's
// CallData/Envelope pattern; the dispatch table itself comes from
// original_source/parse_log.py's if/elif chain on record["e"].
package ingest

import "encoding/json"

// Kind enumerates the six event kinds a log record can carry (spec §6).
type Kind string

const (
	KindLine     Kind = "LINE"
	KindNearby   Kind = "NEARBY"
	KindPos      Kind = "POS"
	KindTele     Kind = "TELE"
	KindShutdown Kind = "SHUTDOWN"
	KindChat     Kind = "CHAT"
)

// RawRecord is the outer shape of every ingestion log line: an event kind,
// an attribute map whose fields vary by kind, and (for POS/TELE) a
// top-level msec. It is decoded first so dispatch can pick the right
// typed payload before a second unmarshal.
type RawRecord struct {
	Kind Kind            `json:"e"`
	Msec int64           `json:"msec"`
	V    json.RawMessage `json:"v"`
}

// LinePayload is the v-payload of a LINE record.
type LinePayload struct {
	Line uint32 `json:"line"`
	Name string `json:"name"`
	Data string `json:"data"`
}

// NearbyPayload is the v-payload of a NEARBY record: v.data holds the
// source observer's local line id (spec §6: "v.data = source line id").
type NearbyPayload struct {
	Data uint32 `json:"data"`
}

// PosPayload is the v-payload of a POS record. lpup, pup, cad, and grp are
// optional per spec §6.
type PosPayload struct {
	ID    uint64  `json:"id"`
	Line  uint32  `json:"line"`
	Fwd   bool    `json:"fwd"`
	M     int64   `json:"m"`
	Mwh   int64   `json:"mwh"`
	Dur   int64   `json:"dur"`
	Ele   int32   `json:"ele"`
	Spd   int32   `json:"spd"`
	HR    int16   `json:"hr"`
	Obs   uint32  `json:"obs"`
	Lpup  *int32  `json:"lpup,omitempty"`
	Pup   *string `json:"pup,omitempty"`
	Cad   *int16  `json:"cad,omitempty"`
	Group *uint32 `json:"grp,omitempty"`
}

// TelePayload has the same shape as PosPayload but carries a radial
// distance (rad) instead of a line id (spec §6).
type TelePayload struct {
	ID    uint64  `json:"id"`
	Rad   int32   `json:"rad"`
	Fwd   bool    `json:"fwd"`
	M     int64   `json:"m"`
	Mwh   int64   `json:"mwh"`
	Dur   int64   `json:"dur"`
	Ele   int32   `json:"ele"`
	Spd   int32   `json:"spd"`
	HR    int16   `json:"hr"`
	Obs   uint32  `json:"obs"`
	Lpup  *int32  `json:"lpup,omitempty"`
	Pup   *string `json:"pup,omitempty"`
	Cad   *int16  `json:"cad,omitempty"`
	Group *uint32 `json:"grp,omitempty"`
}

// ChatPayload is the v-payload of a CHAT record. PartialName is optional.
type ChatPayload struct {
	RiderID     uint64 `json:"riderid"`
	Msg         string `json:"msg"`
	Time        string `json:"time"`
	PartialName string `json:"partialName,omitempty"`
}

// SHUTDOWN records carry no v payload.
