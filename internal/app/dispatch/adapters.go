package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mapgrid-network/mapgrid/internal/domain"
	"github.com/mapgrid-network/mapgrid/internal/infra/maps"
)

// Adapter translates a task's normalized input into one upstream operation.
// Run must validate required fields before touching the network — upstream
// calls are billable and never wasted on bad input.
type Adapter interface {
	Type() domain.TaskType
	Run(ctx context.Context, input json.RawMessage) (json.RawMessage, error)
}

const defaultTravelMode = "driving"

// defaultSearchRadius is applied when a places search is location-biased
// without an explicit radius, in meters.
const defaultSearchRadius = 5000

func decodeParams(input json.RawMessage, v any) error {
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// ─── geocode ────────────────────────────────────────────────────────────────

type geocodeAdapter struct {
	maps *maps.Client
}

func (geocodeAdapter) Type() domain.TaskType { return domain.TaskGeocode }

func (a geocodeAdapter) Run(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var p struct {
		Address string `json:"address"`
	}
	if err := decodeParams(input, &p); err != nil {
		return nil, err
	}
	if p.Address == "" {
		return nil, fmt.Errorf("%w: address is required", domain.ErrValidation)
	}
	return a.maps.Geocode(ctx, maps.GeocodeParams{Address: p.Address})
}

// ─── reverse_geocode ────────────────────────────────────────────────────────

type reverseGeocodeAdapter struct {
	maps *maps.Client
}

func (reverseGeocodeAdapter) Type() domain.TaskType { return domain.TaskReverseGeocode }

func (a reverseGeocodeAdapter) Run(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var p struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := decodeParams(input, &p); err != nil {
		return nil, err
	}
	if p.Lat == nil || p.Lng == nil {
		return nil, fmt.Errorf("%w: lat and lng are required", domain.ErrValidation)
	}
	return a.maps.ReverseGeocode(ctx, maps.ReverseGeocodeParams{Lat: *p.Lat, Lng: *p.Lng})
}

// ─── directions ─────────────────────────────────────────────────────────────

type directionsAdapter struct {
	maps *maps.Client
}

func (directionsAdapter) Type() domain.TaskType { return domain.TaskDirections }

func (a directionsAdapter) Run(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var p struct {
		Origin      string `json:"origin"`
		Destination string `json:"destination"`
		Mode        string `json:"mode"`
	}
	if err := decodeParams(input, &p); err != nil {
		return nil, err
	}
	if p.Origin == "" || p.Destination == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", domain.ErrValidation)
	}
	if p.Mode == "" {
		p.Mode = defaultTravelMode
	}
	return a.maps.Directions(ctx, maps.DirectionsParams{
		Origin:      p.Origin,
		Destination: p.Destination,
		Mode:        p.Mode,
	})
}

// ─── places_search ──────────────────────────────────────────────────────────

type placesSearchAdapter struct {
	maps *maps.Client
}

func (placesSearchAdapter) Type() domain.TaskType { return domain.TaskPlacesSearch }

func (a placesSearchAdapter) Run(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var p struct {
		Query    string       `json:"query"`
		Location *maps.LatLng `json:"location"`
		Radius   int          `json:"radius"`
	}
	if err := decodeParams(input, &p); err != nil {
		return nil, err
	}
	if p.Query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if p.Location != nil && p.Radius == 0 {
		p.Radius = defaultSearchRadius
	}
	return a.maps.PlacesSearch(ctx, maps.PlacesSearchParams{
		Query:    p.Query,
		Location: p.Location,
		Radius:   p.Radius,
	})
}

// ─── place_details ──────────────────────────────────────────────────────────

type placeDetailsAdapter struct {
	maps *maps.Client
}

func (placeDetailsAdapter) Type() domain.TaskType { return domain.TaskPlaceDetails }

func (a placeDetailsAdapter) Run(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var p struct {
		PlaceID string `json:"place_id"`
	}
	if err := decodeParams(input, &p); err != nil {
		return nil, err
	}
	if p.PlaceID == "" {
		return nil, fmt.Errorf("%w: place_id is required", domain.ErrValidation)
	}
	return a.maps.PlaceDetails(ctx, maps.PlaceDetailsParams{PlaceID: p.PlaceID})
}

// ─── distance_matrix ────────────────────────────────────────────────────────

type distanceMatrixAdapter struct {
	maps *maps.Client
}

func (distanceMatrixAdapter) Type() domain.TaskType { return domain.TaskDistanceMatrix }

func (a distanceMatrixAdapter) Run(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var p struct {
		Origins      []string `json:"origins"`
		Destinations []string `json:"destinations"`
		Mode         string   `json:"mode"`
	}
	if err := decodeParams(input, &p); err != nil {
		return nil, err
	}
	if len(p.Origins) == 0 || len(p.Destinations) == 0 {
		return nil, fmt.Errorf("%w: origins and destinations must be non-empty", domain.ErrValidation)
	}
	if p.Mode == "" {
		p.Mode = defaultTravelMode
	}
	return a.maps.DistanceMatrix(ctx, maps.DistanceMatrixParams{
		Origins:      p.Origins,
		Destinations: p.Destinations,
		Mode:         p.Mode,
	})
}
