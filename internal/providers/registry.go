package providers

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/bk25/internal/config"
)

// Registry holds the configured providers in priority order and rate
// limits outgoing generation calls.
type Registry struct {
	order   []string
	byName  map[string]Provider
	limiter *rate.Limiter
}

// NewRegistry builds the provider set from config. Ollama registers first
// when a URL is set, then OpenAI when a key is set.
func NewRegistry(cfg config.LLMConfig) *Registry {
	r := &Registry{byName: make(map[string]Provider)}

	if cfg.OllamaURL != "" {
		r.register(NewOllama(cfg.OllamaURL, cfg.Model))
	}
	if cfg.OpenAIKey != "" {
		r.register(NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel))
	}

	if cfg.RequestsPerMinute > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), cfg.RequestsPerMinute)
	}

	slog.Info("llm.registry_initialized", "providers", r.order)
	return r
}

func (r *Registry) register(p Provider) {
	r.byName[p.Name()] = p
	r.order = append(r.order, p.Name())
}

// Names returns the configured provider names in priority order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Get returns a provider by name, or nil.
func (r *Registry) Get(name string) Provider {
	return r.byName[name]
}

// Generate dispatches to the preferred provider when it is available,
// otherwise to the first available one in registration order.
func (r *Registry) Generate(ctx context.Context, req Request, preferred string) (*Response, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	if preferred != "" {
		if p, ok := r.byName[preferred]; ok && p.IsAvailable(ctx) {
			slog.Info("llm.provider_selected", "provider", preferred, "preferred", true)
			return p.Generate(ctx, req)
		}
	}

	for _, name := range r.order {
		p := r.byName[name]
		if !p.IsAvailable(ctx) {
			continue
		}
		slog.Info("llm.provider_selected", "provider", name)
		return p.Generate(ctx, req)
	}

	return nil, fmt.Errorf("no LLM providers available")
}

// Probe tests every configured provider and reports availability.
func (r *Registry) Probe(ctx context.Context) map[string]bool {
	results := make(map[string]bool, len(r.order))
	for _, name := range r.order {
		results[name] = r.byName[name].IsAvailable(ctx)
	}
	return results
}

// ProviderInfo describes one configured provider, or nil for unknown names.
func (r *Registry) ProviderInfo(name string) *Info {
	switch p := r.byName[name].(type) {
	case *Ollama:
		info := p.Info()
		return &info
	case *OpenAI:
		info := p.Info()
		return &info
	default:
		return nil
	}
}
