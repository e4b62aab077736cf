package riderprofile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	authURL    = "https://secure.zwift.com/auth/realms/zwift/tokens/access/codes"
	apiBaseURL = "https://us-or-rly101.zwift.com/api"
)

// ZwiftClient is the upstream rider-profile provider: a thin net/http
// wrapper around the Zwift mobile API's password grant and entrants
// endpoints.
//
// Grounded on original_source/get_ridersnewmysql.py's post_credentials
// and query_subgroup_profiles, and on the teacher's
// internal/transcribe/deepinfra.go for the shape of an outbound API
// client (package-level base URL constant, *http.Client with a fixed
// timeout, JSON response structs private to the file).
type ZwiftClient struct {
	username string
	password string
	client   *http.Client

	mu          sync.Mutex
	accessToken string
}

// NewZwiftClient builds a client for the given account credentials.
func NewZwiftClient(username, password string, timeout time.Duration) *ZwiftClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ZwiftClient{
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name implements Provider.
func (z *ZwiftClient) Name() string { return "zwiftapi" }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Login implements Provider: it posts the password grant and stashes
// the bearer token used by subsequent requests.
func (z *ZwiftClient) Login(ctx context.Context) error {
	form := url.Values{
		"client_id":  {"Zwift_Mobile_Link"},
		"username":   {z.username},
		"password":   {z.password},
		"grant_type": {"password"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("riderprofile: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "*/*")

	resp, err := z.client.Do(req)
	if err != nil {
		return fmt.Errorf("riderprofile: login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("riderprofile: login rejected: %w", ErrAuthFailure)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("riderprofile: login returned status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("riderprofile: decode login response: %w", err)
	}

	z.mu.Lock()
	z.accessToken = tok.AccessToken
	z.mu.Unlock()
	return nil
}

// entrantProfile mirrors the fields updateRider reads off each entrant.
type entrantProfile struct {
	ID               uint64 `json:"id"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Male             bool   `json:"male"`
	Weight           int32  `json:"weight"`
	Height           int32  `json:"height"`
	PowerSourceModel string `json:"powerSourceModel"`
}

// FetchSubgroupRiders implements Provider: one GET against the entrants
// endpoint for subgroupID, mapped into the package's Rider shape.
// zwiftEventID is accepted for interface symmetry with the scheduler's
// dispatch but unused here — the upstream entrants endpoint is keyed
// purely by subgroup.
func (z *ZwiftClient) FetchSubgroupRiders(ctx context.Context, subgroupID, zwiftEventID uint64) ([]Rider, error) {
	z.mu.Lock()
	token := z.accessToken
	z.mu.Unlock()
	if token == "" {
		return nil, fmt.Errorf("riderprofile: %w: no session, call Login first", ErrAuthFailure)
	}

	endpoint := fmt.Sprintf("%s/events/subgroups/entrants/%d?participation=signed_up&registered_before=0&start=0&limit=0&type=all",
		apiBaseURL, subgroupID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("riderprofile: build entrants request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := z.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("riderprofile: fetch entrants: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("riderprofile: entrants request rejected: %w", ErrAuthFailure)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("riderprofile: entrants request throttled: %w", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("riderprofile: entrants request returned status %d", resp.StatusCode)
	}

	var entrants []entrantProfile
	if err := json.NewDecoder(resp.Body).Decode(&entrants); err != nil {
		return nil, fmt.Errorf("riderprofile: decode entrants response: %w", err)
	}

	riders := make([]Rider, 0, len(entrants))
	for _, e := range entrants {
		riders = append(riders, Rider{
			RiderID:   e.ID,
			FName:     strings.TrimSpace(e.FirstName),
			LName:     strings.TrimSpace(e.LastName),
			WeightG:   e.Weight,
			HeightMM:  e.Height,
			Male:      e.Male,
			PowerType: powerSourceType(e.PowerSourceModel),
		})
	}
	return riders, nil
}

// powerSourceType maps the upstream powerSourceModel string onto the
// package's numeric power-source marker (spec §3 Rider.power_type),
// mirroring updateRider's zPower/Smart Trainer/else branch.
func powerSourceType(model string) int8 {
	switch model {
	case "zPower":
		return 1
	case "Smart Trainer":
		return 2
	default:
		return 3
	}
}
