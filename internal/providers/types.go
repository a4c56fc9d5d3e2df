// Package providers dispatches LLM generation requests to Ollama or
// OpenAI-compatible backends. Providers share one interface; the registry
// picks the first available one unless a preference is given.
package providers

import "context"

// Request is a single generation call.
type Request struct {
	Prompt        string
	Model         string
	Temperature   float64
	MaxTokens     int
	SystemMessage string
	Context       string
	Options       map[string]any
}

// Response is the provider's answer.
type Response struct {
	Content  string
	Usage    map[string]any
	Metadata map[string]any
}

// Provider is one LLM backend.
type Provider interface {
	Name() string

	// Generate runs one completion. Transport and API failures come back
	// as errors; the Response is only non-nil on success.
	Generate(ctx context.Context, req Request) (*Response, error)

	// IsAvailable probes the backend cheaply. Never blocks longer than a
	// few seconds.
	IsAvailable(ctx context.Context) bool
}

// Info describes a configured provider for diagnostics endpoints.
type Info struct {
	Name         string `json:"name"`
	BaseURL      string `json:"base_url"`
	DefaultModel string `json:"default_model"`
	HasAPIKey    bool   `json:"has_api_key,omitempty"`
}
