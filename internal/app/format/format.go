// Package format converts between the three interchange formats — plain
// text, structured JSON, and GeoJSON — for task input and output. It also
// owns the per-task-type format catalogs that back creation-time validation
// and the agent card.
package format

import (
	"encoding/json"
	"fmt"

	"github.com/mapgrid-network/mapgrid/internal/domain"
)

var inputFormats = map[domain.TaskType][]domain.Format{
	domain.TaskGeocode:        {domain.FormatText, domain.FormatJSON},
	domain.TaskReverseGeocode: {domain.FormatJSON},
	domain.TaskDirections:     {domain.FormatJSON},
	domain.TaskPlacesSearch:   {domain.FormatText, domain.FormatJSON},
	domain.TaskPlaceDetails:   {domain.FormatJSON},
	domain.TaskDistanceMatrix: {domain.FormatJSON},
}

var outputFormats = map[domain.TaskType][]domain.Format{
	domain.TaskGeocode:        {domain.FormatJSON, domain.FormatGeoJSON},
	domain.TaskReverseGeocode: {domain.FormatJSON, domain.FormatText},
	domain.TaskDirections:     {domain.FormatJSON, domain.FormatText},
	domain.TaskPlacesSearch:   {domain.FormatJSON, domain.FormatGeoJSON},
	domain.TaskPlaceDetails:   {domain.FormatJSON},
	domain.TaskDistanceMatrix: {domain.FormatJSON},
}

// InputFormats returns the legal input formats for a task type.
func InputFormats(t domain.TaskType) []domain.Format { return inputFormats[t] }

// OutputFormats returns the supported output formats for a task type.
// The first entry is the default when a client requests none.
func OutputFormats(t domain.TaskType) []domain.Format { return outputFormats[t] }

// SupportsInput reports whether f is a legal input format for t.
func SupportsInput(t domain.TaskType, f domain.Format) bool {
	return contains(inputFormats[t], f)
}

// SupportsOutput reports whether f is a supported output format for t.
func SupportsOutput(t domain.TaskType, f domain.Format) bool {
	return contains(outputFormats[t], f)
}

func contains(fs []domain.Format, f domain.Format) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}

// DecodeInput normalizes a task's input payload into the JSON object shape
// the task type's adapter consumes. Text input is wrapped into the
// per-type object ({address} for geocode, {query} for places_search);
// JSON input passes through.
func DecodeInput(t domain.TaskType, in domain.Payload) (json.RawMessage, error) {
	switch in.Format {
	case domain.FormatText:
		s, err := in.Text()
		if err != nil {
			return nil, err
		}
		switch t {
		case domain.TaskGeocode:
			return json.Marshal(map[string]string{"address": s})
		case domain.TaskPlacesSearch:
			return json.Marshal(map[string]string{"query": s})
		default:
			return nil, fmt.Errorf("%w: %s requires %s input", domain.ErrValidation, t, domain.FormatJSON)
		}

	case domain.FormatJSON:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(in.Content, &obj); err != nil {
			return nil, fmt.Errorf("%w: input content must be a JSON object", domain.ErrValidation)
		}
		return in.Content, nil

	default:
		return nil, fmt.Errorf("%w: %q is not a task input format", domain.ErrValidation, in.Format)
	}
}

// ValidateInput checks an input payload against the task type's required
// shape. Called at creation so malformed tasks never reach the upstream
// provider.
func ValidateInput(t domain.TaskType, in domain.Payload) error {
	if !SupportsInput(t, in.Format) {
		return fmt.Errorf("%w: %s does not accept %s input", domain.ErrValidation, t, in.Format)
	}

	decoded, err := DecodeInput(t, in)
	if err != nil {
		return err
	}

	switch t {
	case domain.TaskGeocode:
		var p struct {
			Address string `json:"address"`
		}
		if err := json.Unmarshal(decoded, &p); err != nil {
			return fmt.Errorf("%w: malformed geocode input", domain.ErrValidation)
		}
		if p.Address == "" {
			return fmt.Errorf("%w: address is required", domain.ErrValidation)
		}

	case domain.TaskReverseGeocode:
		var p struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		}
		if err := json.Unmarshal(decoded, &p); err != nil {
			return fmt.Errorf("%w: lat and lng must be numeric", domain.ErrValidation)
		}
		if p.Lat == nil || p.Lng == nil {
			return fmt.Errorf("%w: lat and lng are required", domain.ErrValidation)
		}

	case domain.TaskDirections:
		var p struct {
			Origin      string `json:"origin"`
			Destination string `json:"destination"`
		}
		if err := json.Unmarshal(decoded, &p); err != nil {
			return fmt.Errorf("%w: malformed directions input", domain.ErrValidation)
		}
		if p.Origin == "" || p.Destination == "" {
			return fmt.Errorf("%w: origin and destination are required", domain.ErrValidation)
		}

	case domain.TaskPlacesSearch:
		var p struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(decoded, &p); err != nil {
			return fmt.Errorf("%w: malformed places_search input", domain.ErrValidation)
		}
		if p.Query == "" {
			return fmt.Errorf("%w: query is required", domain.ErrValidation)
		}

	case domain.TaskPlaceDetails:
		var p struct {
			PlaceID string `json:"place_id"`
		}
		if err := json.Unmarshal(decoded, &p); err != nil {
			return fmt.Errorf("%w: malformed place_details input", domain.ErrValidation)
		}
		if p.PlaceID == "" {
			return fmt.Errorf("%w: place_id is required", domain.ErrValidation)
		}

	case domain.TaskDistanceMatrix:
		var p struct {
			Origins      []string `json:"origins"`
			Destinations []string `json:"destinations"`
		}
		if err := json.Unmarshal(decoded, &p); err != nil {
			return fmt.Errorf("%w: malformed distance_matrix input", domain.ErrValidation)
		}
		if len(p.Origins) == 0 || len(p.Destinations) == 0 {
			return fmt.Errorf("%w: origins and destinations must be non-empty", domain.ErrValidation)
		}

	default:
		return fmt.Errorf("%w: unknown task type %q", domain.ErrValidation, t)
	}

	return nil
}
