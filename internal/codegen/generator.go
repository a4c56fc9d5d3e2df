package codegen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nextlevelbuilder/bk25/internal/config"
	"github.com/nextlevelbuilder/bk25/internal/prompt"
	"github.com/nextlevelbuilder/bk25/internal/providers"
	"github.com/nextlevelbuilder/bk25/internal/tracing"
)

// LLM is the slice of the provider registry the generator needs.
type LLM interface {
	Generate(ctx context.Context, req providers.Request, preferred string) (*providers.Response, error)
}

// Result is the outcome of one generation request.
type Result struct {
	Success       bool           `json:"success"`
	Script        string         `json:"script,omitempty"`
	Filename      string         `json:"filename,omitempty"`
	Documentation string         `json:"documentation,omitempty"`
	Validation    *Validation    `json:"validation,omitempty"`
	Error         string         `json:"error,omitempty"`
	Metadata      map[string]any `json:"metadata"`
}

// Generator turns descriptions into scripts. The LLM is tried first at a
// low temperature; template matching and a basic skeleton back it up.
type Generator struct {
	llm         LLM
	temperature float64
	maxTokens   int

	mu     sync.Mutex
	counts map[string]int
}

// generationTemperature keeps script output deterministic-ish regardless
// of the chat temperature in config.
const generationTemperature = 0.1

// NewGenerator wires the generator to an LLM dispatcher.
func NewGenerator(llm LLM, cfg config.LLMConfig) *Generator {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Generator{
		llm:         llm,
		temperature: generationTemperature,
		maxTokens:   maxTokens,
		counts:      make(map[string]int),
	}
}

// Generate runs the full pipeline: platform resolution, LLM attempt,
// parse, static validation, then template and skeleton fallbacks.
func (g *Generator) Generate(ctx context.Context, description, platform string, pctx prompt.Context, opts *prompt.Options) *Result {
	if platform == "" {
		platform = PlatformAuto
	}
	resolved := DetectPlatform(description, platform)
	if !IsSupported(resolved) {
		return &Result{
			Error:    fmt.Sprintf("unsupported platform: %s", resolved),
			Metadata: map[string]any{"platform": resolved},
		}
	}

	ctx, span := tracing.Tracer("codegen").Start(ctx, "generate")
	span.SetAttributes(attribute.String("platform", resolved))
	defer span.End()

	maxTokens := g.maxTokens
	if opts != nil && opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	p := prompt.ForGeneration(description, resolved, pctx, opts)
	resp, err := g.llm.Generate(ctx, providers.Request{
		Prompt:        p.UserPrompt + "\n\n" + p.OutputFormat,
		SystemMessage: p.SystemMessage,
		Context:       p.Context,
		Temperature:   g.temperature,
		MaxTokens:     maxTokens,
	}, "")
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		if err != nil {
			slog.Warn("codegen.llm_failed", "platform", resolved, "error", err)
		}
		return g.fallback(description, resolved)
	}

	parsed := parseScript(resp.Content, resolved)
	if parsed.Script == "" {
		return g.fallback(description, resolved)
	}

	validation := validateScript(parsed.Script, resolved)
	result := &Result{
		Success:       validation.IsValid,
		Script:        parsed.Script,
		Filename:      parsed.Filename,
		Documentation: parsed.Documentation,
		Validation:    &validation,
		Metadata: map[string]any{
			"generation_method": "llm",
			"platform":          resolved,
			"provider":          resp.Metadata["provider"],
			"model":             resp.Metadata["model"],
			"token_usage":       resp.Usage,
		},
	}
	if !validation.IsValid {
		result.Error = strings.Join(validation.Issues, "; ")
	}
	g.count("llm")
	slog.Info("codegen.generated", "platform", resolved, "method", "llm", "valid", validation.IsValid)
	return result
}

// fallback tries a template match, then the basic skeleton.
func (g *Generator) fallback(description, platform string) *Result {
	if tpl, score := matchTemplate(description, platform); tpl != nil {
		validation := validateScript(tpl.Script, platform)
		g.count("template")
		slog.Info("codegen.generated", "platform", platform, "method", "template", "template", tpl.Name)
		return &Result{
			Success:       true,
			Script:        tpl.Script,
			Filename:      tpl.Name + fileExtensions[platform],
			Documentation: tpl.Description,
			Validation:    &validation,
			Metadata: map[string]any{
				"generation_method": "template",
				"platform":          platform,
				"template_name":     tpl.Name,
				"match_score":       score,
			},
		}
	}

	script := basicSkeleton(platform, description)
	validation := validateScript(script, platform)
	g.count("basic_skeleton")
	slog.Info("codegen.generated", "platform", platform, "method", "basic_skeleton")
	return &Result{
		Success:       true,
		Script:        script,
		Filename:      platform + "_automation" + fileExtensions[platform],
		Documentation: description,
		Validation:    &validation,
		Metadata: map[string]any{
			"generation_method": "basic_skeleton",
			"platform":          platform,
		},
	}
}

// ImproveScript asks the LLM for a revision that keeps the original
// behavior. There is no template fallback; without an LLM the original
// script comes back unchanged.
func (g *Generator) ImproveScript(ctx context.Context, script, feedback, platform string, pctx prompt.Context) *Result {
	if !IsSupported(platform) {
		return &Result{
			Error:    fmt.Sprintf("unsupported platform: %s", platform),
			Metadata: map[string]any{"platform": platform},
		}
	}

	p := prompt.ForImprovement(script, feedback, platform, pctx)
	resp, err := g.llm.Generate(ctx, providers.Request{
		Prompt:        p.UserPrompt + "\n\n" + p.OutputFormat,
		SystemMessage: p.SystemMessage,
		Context:       p.Context,
		Temperature:   g.temperature,
		MaxTokens:     g.maxTokens,
	}, "")
	if err != nil {
		return &Result{
			Script:   script,
			Error:    fmt.Sprintf("improvement unavailable: %v", err),
			Metadata: map[string]any{"platform": platform},
		}
	}

	parsed := parseScript(resp.Content, platform)
	if parsed.Script == "" {
		parsed.Script = script
	}
	validation := validateScript(parsed.Script, platform)
	return &Result{
		Success:       validation.IsValid,
		Script:        parsed.Script,
		Filename:      parsed.Filename,
		Documentation: parsed.Documentation,
		Validation:    &validation,
		Metadata: map[string]any{
			"generation_method": "llm",
			"platform":          platform,
			"improved":          true,
		},
	}
}

// Review is an LLM-written script assessment plus the static checklist.
type Review struct {
	Success bool       `json:"success"`
	Review  string     `json:"review,omitempty"`
	Static  Validation `json:"static_validation"`
	Error   string     `json:"error,omitempty"`
}

// ValidateScript runs the static checklist and, when an LLM is reachable,
// attaches its structured review of the script.
func (g *Generator) ValidateScript(ctx context.Context, script, platform string, pctx prompt.Context) Review {
	static := validateScript(script, platform)
	review := Review{Success: true, Static: static}

	p := prompt.ForValidation(script, platform, pctx)
	resp, err := g.llm.Generate(ctx, providers.Request{
		Prompt:        p.UserPrompt,
		SystemMessage: p.SystemMessage,
		Context:       p.Context,
		Temperature:   g.temperature,
		MaxTokens:     g.maxTokens,
	}, "")
	if err != nil {
		review.Error = fmt.Sprintf("review unavailable: %v", err)
		return review
	}
	review.Review = strings.TrimSpace(resp.Content)
	return review
}

func (g *Generator) count(method string) {
	g.mu.Lock()
	g.counts[method]++
	g.mu.Unlock()
}

// Statistics reports how many scripts each method produced.
func (g *Generator) Statistics() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]int, len(g.counts)+1)
	total := 0
	for method, n := range g.counts {
		out[method] = n
		total += n
	}
	out["total"] = total
	return out
}
