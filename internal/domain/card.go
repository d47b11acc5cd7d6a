package domain

// AgentCard is the static capability descriptor served for discovery.
// Built once at startup, never mutated afterwards.
type AgentCard struct {
	SchemaVersion string           `json:"schema_version"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Version       string           `json:"version"`
	Contact       string           `json:"contact"`
	Auth          AgentAuth        `json:"auth"`
	InputFormats  []FormatInfo     `json:"input_formats"`
	OutputFormats []FormatInfo     `json:"output_formats"`
	Tasks         []TaskCapability `json:"tasks"`
}

// AgentAuth declares the authentication scheme clients must present.
type AgentAuth struct {
	Type       string `json:"type"`
	HeaderName string `json:"header_name"`
}

// FormatInfo describes one entry in the global format catalogs.
type FormatInfo struct {
	Format      Format `json:"format"`
	Description string `json:"description"`
}

// TaskCapability declares one supported task type and its legal formats.
type TaskCapability struct {
	Type          TaskType `json:"type"`
	Description   string   `json:"description"`
	InputFormats  []Format `json:"input_formats"`
	OutputFormats []Format `json:"output_formats"`
}
