// Package maps is the upstream mapping-provider client. It speaks the
// Google Maps Web Service API and returns the provider's raw JSON body so
// the format layer can pass it through or reshape it. No retries — every
// upstream call is billable.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mapgrid-network/mapgrid/internal/domain"
)

// DefaultBaseURL is the production Google Maps Web Service endpoint.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

// Config controls the upstream client.
type Config struct {
	APIKey  string
	BaseURL string        // overridable for tests
	Timeout time.Duration // 0 = DefaultTimeout
}

// DefaultTimeout bounds the single blocking upstream call.
const DefaultTimeout = 10 * time.Second

// Client calls the mapping provider over HTTP.
type Client struct {
	http *resty.Client
}

// NewClient builds a provider client from config.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	http := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetQueryParam("key", cfg.APIKey)

	return &Client{http: http}
}

// LatLng is a coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocodeParams — address → coordinates.
type GeocodeParams struct {
	Address string
}

// ReverseGeocodeParams — coordinates → address.
type ReverseGeocodeParams struct {
	Lat float64
	Lng float64
}

// DirectionsParams — route between two locations.
type DirectionsParams struct {
	Origin      string
	Destination string
	Mode        string
}

// PlacesSearchParams — free-text place search, optionally biased to a
// location and radius.
type PlacesSearchParams struct {
	Query    string
	Location *LatLng
	Radius   int
}

// PlaceDetailsParams — details for one place.
type PlaceDetailsParams struct {
	PlaceID string
}

// DistanceMatrixParams — travel distance/time between point sets.
type DistanceMatrixParams struct {
	Origins      []string
	Destinations []string
	Mode         string
}

// Geocode converts an address into coordinates.
func (c *Client) Geocode(ctx context.Context, p GeocodeParams) (json.RawMessage, error) {
	return c.get(ctx, "/geocode/json", map[string]string{"address": p.Address})
}

// ReverseGeocode converts coordinates into addresses.
func (c *Client) ReverseGeocode(ctx context.Context, p ReverseGeocodeParams) (json.RawMessage, error) {
	return c.get(ctx, "/geocode/json", map[string]string{
		"latlng": fmt.Sprintf("%v,%v", p.Lat, p.Lng),
	})
}

// Directions fetches a route between origin and destination.
func (c *Client) Directions(ctx context.Context, p DirectionsParams) (json.RawMessage, error) {
	return c.get(ctx, "/directions/json", map[string]string{
		"origin":      p.Origin,
		"destination": p.Destination,
		"mode":        p.Mode,
	})
}

// PlacesSearch runs a text search for places.
func (c *Client) PlacesSearch(ctx context.Context, p PlacesSearchParams) (json.RawMessage, error) {
	q := map[string]string{"query": p.Query}
	if p.Location != nil {
		q["location"] = fmt.Sprintf("%v,%v", p.Location.Lat, p.Location.Lng)
		q["radius"] = fmt.Sprintf("%d", p.Radius)
	}
	return c.get(ctx, "/place/textsearch/json", q)
}

// PlaceDetails fetches details for a single place.
func (c *Client) PlaceDetails(ctx context.Context, p PlaceDetailsParams) (json.RawMessage, error) {
	return c.get(ctx, "/place/details/json", map[string]string{"place_id": p.PlaceID})
}

// DistanceMatrix computes travel distance and time between point sets.
// Origins and destinations are pipe-joined per the provider's convention.
func (c *Client) DistanceMatrix(ctx context.Context, p DistanceMatrixParams) (json.RawMessage, error) {
	return c.get(ctx, "/distancematrix/json", map[string]string{
		"origins":      strings.Join(p.Origins, "|"),
		"destinations": strings.Join(p.Destinations, "|"),
		"mode":         p.Mode,
	})
}

// Ping checks transport-level reachability of the provider endpoint. The
// response status is ignored — only a network failure counts as unhealthy.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.http.R().SetContext(ctx).Get("/"); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return nil
}

// get performs one upstream call and validates the provider envelope.
// Every Maps Web Service response carries a top-level "status"; anything
// other than OK is a provider-side rejection.
func (c *Client) get(ctx context.Context, path string, query map[string]string) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return nil, &domain.UpstreamError{Message: err.Error()}
	}

	body := resp.Body()
	var envelope struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &domain.UpstreamError{
			Message: fmt.Sprintf("malformed provider response (HTTP %d)", resp.StatusCode()),
		}
	}

	if !resp.IsSuccess() || envelope.Status != "OK" {
		return nil, &domain.UpstreamError{
			Status:  envelope.Status,
			Message: envelope.ErrorMessage,
		}
	}

	return json.RawMessage(body), nil
}

