// Package card serves the agent capability descriptor: a static, versioned
// declaration of supported task types, formats, and the auth scheme. Built
// once at startup, pure data from then on.
package card

import (
	"github.com/mapgrid-network/mapgrid/internal/app/format"
	"github.com/mapgrid-network/mapgrid/internal/domain"
)

// SchemaVersion is the agent-card schema revision served to clients.
const SchemaVersion = "v1"

// AuthHeader is the shared-secret header clients must present.
const AuthHeader = "X-API-Key"

// Info identifies this agent in the card.
type Info struct {
	Name        string
	Description string
	Version     string
	Contact     string
}

var taskDescriptions = map[domain.TaskType]string{
	domain.TaskGeocode:        "Convert addresses to latitude and longitude coordinates",
	domain.TaskReverseGeocode: "Convert coordinates to addresses",
	domain.TaskDirections:     "Get directions between locations",
	domain.TaskPlacesSearch:   "Search for places by free-text query",
	domain.TaskPlaceDetails:   "Get detailed information about a specific place",
	domain.TaskDistanceMatrix: "Calculate travel distance and time between points",
}

// Provider holds the immutable card.
type Provider struct {
	card domain.AgentCard
}

// NewProvider builds the capability descriptor from the format catalogs.
func NewProvider(info Info) *Provider {
	c := domain.AgentCard{
		SchemaVersion: SchemaVersion,
		Name:          info.Name,
		Description:   info.Description,
		Version:       info.Version,
		Contact:       info.Contact,
		Auth: domain.AgentAuth{
			Type:       "api_key",
			HeaderName: AuthHeader,
		},
		InputFormats: []domain.FormatInfo{
			{Format: domain.FormatText, Description: "Natural language query for maps operations"},
			{Format: domain.FormatJSON, Description: "Structured parameters for maps operations"},
		},
		OutputFormats: []domain.FormatInfo{
			{Format: domain.FormatText, Description: "Human-readable summary of maps results"},
			{Format: domain.FormatJSON, Description: "Structured maps data as returned by the provider"},
			{Format: domain.FormatGeoJSON, Description: "GeoJSON FeatureCollection of result locations"},
		},
	}

	for _, typ := range domain.TaskTypes {
		c.Tasks = append(c.Tasks, domain.TaskCapability{
			Type:          typ,
			Description:   taskDescriptions[typ],
			InputFormats:  format.InputFormats(typ),
			OutputFormats: format.OutputFormats(typ),
		})
	}

	return &Provider{card: c}
}

// Card returns the process-wide descriptor. Pure read, no side effects;
// slices are copied so callers cannot mutate the shared card.
func (p *Provider) Card() domain.AgentCard {
	c := p.card
	c.InputFormats = append([]domain.FormatInfo(nil), p.card.InputFormats...)
	c.OutputFormats = append([]domain.FormatInfo(nil), p.card.OutputFormats...)
	c.Tasks = append([]domain.TaskCapability(nil), p.card.Tasks...)
	return c
}
