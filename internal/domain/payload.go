package domain

import (
	"encoding/json"
	"fmt"
)

// Format names an interchange format for task input and output.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "application/json"
	FormatGeoJSON Format = "application/geo+json"
)

// Payload is a tagged content envelope. For FormatText the content is a
// JSON-encoded string; for the JSON formats it is a structured document.
type Payload struct {
	Format  Format          `json:"format"`
	Content json.RawMessage `json:"content"`
}

// TextPayload builds a text-format payload from a plain string.
func TextPayload(s string) Payload {
	b, _ := json.Marshal(s)
	return Payload{Format: FormatText, Content: b}
}

// JSONPayload builds an application/json payload from any marshalable value.
func JSONPayload(v any) (Payload, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Payload{}, fmt.Errorf("encode payload: %w", err)
	}
	return Payload{Format: FormatJSON, Content: b}, nil
}

// Text extracts the string content of a text-format payload.
func (p Payload) Text() (string, error) {
	if p.Format != FormatText {
		return "", fmt.Errorf("%w: payload is %s, not text", ErrValidation, p.Format)
	}
	var s string
	if err := json.Unmarshal(p.Content, &s); err != nil {
		return "", fmt.Errorf("%w: text content must be a JSON string", ErrValidation)
	}
	return s, nil
}
