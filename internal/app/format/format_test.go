package format

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/mapgrid-network/mapgrid/internal/domain"
)

const geocodeBody = `{
	"status": "OK",
	"results": [{
		"formatted_address": "1600 Amphitheatre Pkwy, Mountain View, CA 94043, USA",
		"place_id": "ChIJ2eUgeAK6j4ARbn5u_wAGqWA",
		"geometry": {"location": {"lat": 37.4224764, "lng": -122.0842499}}
	}]
}`

func TestDecodeInput_TextWrapping(t *testing.T) {
	tests := []struct {
		taskType domain.TaskType
		text     string
		wantKey  string
	}{
		{domain.TaskGeocode, "Mountain View, CA", "address"},
		{domain.TaskPlacesSearch, "coffee near campus", "query"},
	}

	for _, tt := range tests {
		t.Run(string(tt.taskType), func(t *testing.T) {
			decoded, err := DecodeInput(tt.taskType, domain.TextPayload(tt.text))
			if err != nil {
				t.Fatalf("DecodeInput: %v", err)
			}
			var obj map[string]string
			if err := json.Unmarshal(decoded, &obj); err != nil {
				t.Fatalf("decoded not an object: %v", err)
			}
			if obj[tt.wantKey] != tt.text {
				t.Errorf("obj[%q] = %q, want %q", tt.wantKey, obj[tt.wantKey], tt.text)
			}
		})
	}
}

func TestDecodeInput_TextRejectedForJSONOnlyTypes(t *testing.T) {
	_, err := DecodeInput(domain.TaskDirections, domain.TextPayload("to the office"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestDecodeInput_JSONPassthrough(t *testing.T) {
	in, _ := domain.JSONPayload(map[string]any{"lat": 37.4, "lng": -122.1})
	decoded, err := DecodeInput(domain.TaskReverseGeocode, in)
	if err != nil {
		t.Fatalf("DecodeInput: %v", err)
	}
	if string(decoded) != string(in.Content) {
		t.Errorf("decoded = %s, want passthrough of %s", decoded, in.Content)
	}
}

func TestValidateInput(t *testing.T) {
	jsonOf := func(v any) domain.Payload {
		p, err := domain.JSONPayload(v)
		if err != nil {
			t.Fatalf("JSONPayload: %v", err)
		}
		return p
	}

	tests := []struct {
		name     string
		taskType domain.TaskType
		input    domain.Payload
		wantErr  bool
	}{
		{"geocode text", domain.TaskGeocode, domain.TextPayload("Mountain View"), false},
		{"geocode json", domain.TaskGeocode, jsonOf(map[string]string{"address": "Mountain View"}), false},
		{"geocode empty address", domain.TaskGeocode, jsonOf(map[string]string{}), true},
		{"reverse_geocode ok", domain.TaskReverseGeocode, jsonOf(map[string]float64{"lat": 37.4, "lng": -122.1}), false},
		{"reverse_geocode missing lat/lng", domain.TaskReverseGeocode, jsonOf(map[string]any{}), true},
		{"reverse_geocode text illegal", domain.TaskReverseGeocode, domain.TextPayload("37.4,-122.1"), true},
		{"directions ok", domain.TaskDirections, jsonOf(map[string]string{"origin": "SF", "destination": "MV"}), false},
		{"directions missing destination", domain.TaskDirections, jsonOf(map[string]string{"origin": "SF"}), true},
		{"places_search text", domain.TaskPlacesSearch, domain.TextPayload("pizza"), false},
		{"places_search empty query", domain.TaskPlacesSearch, jsonOf(map[string]string{}), true},
		{"place_details ok", domain.TaskPlaceDetails, jsonOf(map[string]string{"place_id": "abc"}), false},
		{"place_details missing id", domain.TaskPlaceDetails, jsonOf(map[string]string{}), true},
		{"distance_matrix ok", domain.TaskDistanceMatrix, jsonOf(map[string][]string{"origins": {"A"}, "destinations": {"B"}}), false},
		{"distance_matrix empty origins", domain.TaskDistanceMatrix, jsonOf(map[string][]string{"origins": {}, "destinations": {"B"}}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(tt.taskType, tt.input)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Errorf("err = %v, want ErrValidation", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRender_JSONPassthrough(t *testing.T) {
	out, err := Render(domain.TaskGeocode, json.RawMessage(geocodeBody), domain.FormatJSON)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Format != domain.FormatJSON {
		t.Errorf("format = %q, want %q", out.Format, domain.FormatJSON)
	}
	if string(out.Content) != geocodeBody {
		t.Error("json output was not passed through unchanged")
	}
}

func TestRender_GeoJSON_CoordinateRoundTrip(t *testing.T) {
	out, err := Render(domain.TaskGeocode, json.RawMessage(geocodeBody), domain.FormatGeoJSON)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Format != domain.FormatGeoJSON {
		t.Errorf("format = %q, want %q", out.Format, domain.FormatGeoJSON)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(out.Content, &fc); err != nil {
		t.Fatalf("output not valid GeoJSON: %v", err)
	}

	if fc.Type != "FeatureCollection" {
		t.Errorf("type = %q, want FeatureCollection", fc.Type)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("len(features) = %d, want 1", len(fc.Features))
	}

	geom := fc.Features[0].Geometry
	if geom.Type != "Point" {
		t.Errorf("geometry type = %q, want Point", geom.Type)
	}
	// GeoJSON order is [lng, lat].
	if math.Abs(geom.Coordinates[0]-(-122.0842499)) > 1e-9 {
		t.Errorf("lng = %v, want -122.0842499", geom.Coordinates[0])
	}
	if math.Abs(geom.Coordinates[1]-37.4224764) > 1e-9 {
		t.Errorf("lat = %v, want 37.4224764", geom.Coordinates[1])
	}

	props := fc.Features[0].Properties
	if props["place_id"] != "ChIJ2eUgeAK6j4ARbn5u_wAGqWA" {
		t.Errorf("place_id property = %v, unexpected", props["place_id"])
	}
}

func TestRender_GeoJSON_Unsupported(t *testing.T) {
	_, err := Render(domain.TaskPlaceDetails, json.RawMessage(`{"status":"OK","result":{}}`), domain.FormatGeoJSON)
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRender_Text_ReverseGeocode(t *testing.T) {
	out, err := Render(domain.TaskReverseGeocode, json.RawMessage(geocodeBody), domain.FormatText)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s, err := out.Text()
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if s != "1600 Amphitheatre Pkwy, Mountain View, CA 94043, USA" {
		t.Errorf("text = %q, unexpected", s)
	}
}

func TestRender_Text_Directions(t *testing.T) {
	body := `{
		"status": "OK",
		"routes": [{
			"legs": [{
				"duration": {"text": "25 mins"},
				"distance": {"text": "12.4 mi"},
				"steps": [
					{"html_instructions": "Head <b>south</b> on Main St"},
					{"html_instructions": "Merge onto <b>US-101 S</b><div>Toll road</div>"}
				]
			}]
		}]
	}`

	out, err := Render(domain.TaskDirections, json.RawMessage(body), domain.FormatText)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s, err := out.Text()
	if err != nil {
		t.Fatalf("Text: %v", err)
	}

	if !strings.Contains(s, "25 mins (12.4 mi)") {
		t.Errorf("summary line missing: %q", s)
	}
	if !strings.Contains(s, "1. Head south on Main St") {
		t.Errorf("step 1 missing or tags not stripped: %q", s)
	}
	if strings.Contains(s, "<b>") || strings.Contains(s, "<div>") {
		t.Errorf("html tags not stripped: %q", s)
	}
}

func TestOutputFormats_DefaultIsJSON(t *testing.T) {
	for _, typ := range domain.TaskTypes {
		fs := OutputFormats(typ)
		if len(fs) == 0 || fs[0] != domain.FormatJSON {
			t.Errorf("OutputFormats(%s)[0] = %v, want application/json first", typ, fs)
		}
	}
}
