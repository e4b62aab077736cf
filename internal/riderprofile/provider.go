// Package riderprofile fetches rider roster data for an event subgroup
// from the upstream cycling platform and persists it to rider_names
// (spec §4.8, §11 "HTTP API clients that pull rider profiles"): the
// Provider interface, the worker pool that drives it, and ZwiftClient,
// the concrete upstream client in zwiftapi.go.
package riderprofile

import (
	"context"
	"errors"
)

// ErrAuthFailure means the upstream session expired or was rejected;
// the caller should re-login and retry the current item once (spec §7).
var ErrAuthFailure = errors.New("riderprofile: authentication failure")

// ErrRateLimited means the upstream throttled the request; the caller
// should sleep until the next quarter-hour boundary before retrying
// (spec §7).
var ErrRateLimited = errors.New("riderprofile: rate limited")

// Rider is one roster entry as returned by the upstream profile API.
type Rider struct {
	RiderID   uint64
	FName     string
	LName     string
	Cat       *byte
	WeightG   int32
	HeightMM  int32
	Male      bool
	PowerType int8
}

// Provider is the upstream rider-profile API client, implemented by
// ZwiftClient; this interface is the contract the scheduler's worker pool
// dispatches against.
type Provider interface {
	// Login authenticates against the upstream platform, replacing any
	// prior session.
	Login(ctx context.Context) error

	// FetchSubgroupRiders returns the roster for one event subgroup.
	// Returns an error wrapping ErrAuthFailure or ErrRateLimited for
	// those specific conditions so the worker pool can branch on them
	// with errors.Is.
	FetchSubgroupRiders(ctx context.Context, subgroupID, zwiftEventID uint64) ([]Rider, error)

	// Name identifies the provider for logs ("zwiftapi").
	Name() string
}
