package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mapgrid-network/mapgrid/internal/domain"
)

// Render converts a raw provider result into the task's requested output
// format. application/json passes the provider body through unchanged;
// text is a lossy human-readable summary; application/geo+json projects
// coordinate-bearing results into a FeatureCollection of Points.
func Render(t domain.TaskType, result json.RawMessage, f domain.Format) (domain.Payload, error) {
	switch f {
	case domain.FormatJSON:
		return domain.Payload{Format: domain.FormatJSON, Content: result}, nil
	case domain.FormatGeoJSON:
		return renderGeoJSON(t, result)
	case domain.FormatText:
		return renderText(t, result)
	default:
		return domain.Payload{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, f)
	}
}

// geoResult is the coordinate-bearing subset of a provider result entry,
// shared by geocode and places_search responses.
type geoResult struct {
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formatted_address"`
	PlaceID          string  `json:"place_id"`
	Rating           float64 `json:"rating"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func renderGeoJSON(t domain.TaskType, result json.RawMessage) (domain.Payload, error) {
	switch t {
	case domain.TaskGeocode, domain.TaskPlacesSearch:
	default:
		return domain.Payload{}, fmt.Errorf("%w: %s has no coordinate-bearing results to project", domain.ErrUnsupportedFormat, t)
	}

	var body struct {
		Results []geoResult `json:"results"`
	}
	if err := json.Unmarshal(result, &body); err != nil {
		return domain.Payload{}, fmt.Errorf("parse provider results: %w", err)
	}

	fc := geojson.NewFeatureCollection()
	for _, r := range body.Results {
		f := geojson.NewFeature(orb.Point{r.Geometry.Location.Lng, r.Geometry.Location.Lat})
		if r.FormattedAddress != "" {
			f.Properties["formatted_address"] = r.FormattedAddress
		}
		if r.PlaceID != "" {
			f.Properties["place_id"] = r.PlaceID
		}
		if r.Name != "" {
			f.Properties["name"] = r.Name
		}
		if r.Rating != 0 {
			f.Properties["rating"] = r.Rating
		}
		fc.Append(f)
	}

	raw, err := fc.MarshalJSON()
	if err != nil {
		return domain.Payload{}, fmt.Errorf("encode feature collection: %w", err)
	}
	return domain.Payload{Format: domain.FormatGeoJSON, Content: raw}, nil
}

func renderText(t domain.TaskType, result json.RawMessage) (domain.Payload, error) {
	switch t {
	case domain.TaskReverseGeocode:
		return reverseGeocodeText(result)
	case domain.TaskDirections:
		return directionsText(result)
	default:
		return domain.Payload{}, fmt.Errorf("%w: %s has no text rendering", domain.ErrUnsupportedFormat, t)
	}
}

func reverseGeocodeText(result json.RawMessage) (domain.Payload, error) {
	var body struct {
		Results []struct {
			FormattedAddress string `json:"formatted_address"`
		} `json:"results"`
	}
	if err := json.Unmarshal(result, &body); err != nil {
		return domain.Payload{}, fmt.Errorf("parse provider results: %w", err)
	}

	if len(body.Results) == 0 || body.Results[0].FormattedAddress == "" {
		return domain.TextPayload("Address not found"), nil
	}
	return domain.TextPayload(body.Results[0].FormattedAddress), nil
}

// tagStripper drops the HTML markup the provider embeds in step
// instructions.
var tagStripper = strings.NewReplacer("<b>", "", "</b>", "", "<div>", ". ", "</div>", "")

func directionsText(result json.RawMessage) (domain.Payload, error) {
	var body struct {
		Routes []struct {
			Legs []struct {
				Duration struct {
					Text string `json:"text"`
				} `json:"duration"`
				Distance struct {
					Text string `json:"text"`
				} `json:"distance"`
				Steps []struct {
					HTMLInstructions string `json:"html_instructions"`
				} `json:"steps"`
			} `json:"legs"`
		} `json:"routes"`
	}
	if err := json.Unmarshal(result, &body); err != nil {
		return domain.Payload{}, fmt.Errorf("parse provider results: %w", err)
	}

	if len(body.Routes) == 0 {
		return domain.TextPayload("No route found"), nil
	}

	var lines []string
	for _, leg := range body.Routes[0].Legs {
		if leg.Duration.Text != "" && leg.Distance.Text != "" {
			lines = append(lines, fmt.Sprintf("%s (%s)", leg.Duration.Text, leg.Distance.Text))
		}
		for i, step := range leg.Steps {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, tagStripper.Replace(step.HTMLInstructions)))
		}
	}
	return domain.TextPayload(strings.Join(lines, "\n")), nil
}
