package luma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/trevyn/lumabot/internal/config"
	"github.com/trevyn/lumabot/internal/httputil"
)

// ErrNoAPIKey is returned when a command that needs the Luma API runs
// without a configured credential.
var ErrNoAPIKey = errors.New("no Luma API key configured (set LUMA_API_KEY)")

// LookupError reports a failed slug lookup. Failures are per-slug and never
// abort a batch.
type LookupError struct {
	Slug   string
	Status int
	Reason string
}

func (e *LookupError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("lookup for slug %q failed with status %d", e.Slug, e.Status)
	}
	return fmt.Sprintf("lookup for slug %q failed: %s", e.Slug, e.Reason)
}

// Client talks to the Luma public API.
type Client struct {
	httpClient       *http.Client
	apiKey           string
	lookupEndpoint   string
	addEventEndpoint string
	log              *zap.Logger
}

// NewClient creates a Luma API client from configuration.
func NewClient(cfg *config.Luma, log *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	return &Client{
		httpClient:       httputil.NewClient(timeout),
		apiKey:           cfg.APIKey,
		lookupEndpoint:   cfg.LookupEndpoint,
		addEventEndpoint: cfg.AddEventEndpoint,
		log:              log,
	}
}

// HasAPIKey reports whether a credential is configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// lookupResponse mirrors the nested path carrying the external identifier.
type lookupResponse struct {
	Entity struct {
		Event struct {
			APIID string `json:"api_id"`
		} `json:"event"`
	} `json:"entity"`
}

// LookupEventID resolves a slug to the external event identifier at
// entity.event.api_id. Any other response shape or a non-success status is a
// lookup failure for that slug.
func (c *Client) LookupEventID(ctx context.Context, slug string) (string, error) {
	if !c.HasAPIKey() {
		return "", ErrNoAPIKey
	}

	endpoint := c.lookupEndpoint + "?slug=" + url.QueryEscape(slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &LookupError{Slug: slug, Status: resp.StatusCode}
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &LookupError{Slug: slug, Reason: "failed to parse response body"}
	}

	apiID := body.Entity.Event.APIID
	if apiID == "" {
		return "", &LookupError{Slug: slug, Reason: "api_id not found in response"}
	}

	c.log.Debug("Resolved slug", zap.String("slug", slug), zap.String("api_id", apiID))
	return apiID, nil
}

// addEventRequest is the submission body: the platform tag, the external
// identifier, and a manual-address placeholder the API requires for events
// without a resolved venue.
type addEventRequest struct {
	Platform   string     `json:"platform"`
	EventAPIID string     `json:"event_api_id"`
	GeoAddress geoAddress `json:"geo_address_json"`
}

type geoAddress struct {
	Type    string `json:"type"`
	Address string `json:"address"`
}

type addEventResponse struct {
	CalendarEventID string `json:"calendar_event_id"`
}

// AddEvent submits an externally-identified event to the caller's Luma
// calendar. Returns the remote-side calendar event ID when the response
// carries one. The call is not guaranteed idempotent by the remote service.
func (c *Client) AddEvent(ctx context.Context, apiID string) (string, error) {
	if !c.HasAPIKey() {
		return "", ErrNoAPIKey
	}

	payload, err := json.Marshal(addEventRequest{
		Platform:   "luma",
		EventAPIID: apiID,
		GeoAddress: geoAddress{Type: "manual", Address: "TBD"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal add-event payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.addEventEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build add-event request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("add-event request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("add-event for %s failed with status %d", apiID, resp.StatusCode)
	}

	var body addEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// A success status with an unreadable body still counts as submitted.
		return "", nil
	}

	return body.CalendarEventID, nil
}
