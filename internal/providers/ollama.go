package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	ollamaGenerateTimeout = 60 * time.Second
	ollamaProbeTimeout    = 5 * time.Second
)

// Ollama talks to a local Ollama daemon over its REST API.
type Ollama struct {
	baseURL      string
	defaultModel string
	client       *http.Client
}

// NewOllama creates a provider against the given base URL.
func NewOllama(baseURL, defaultModel string) *Ollama {
	if defaultModel == "" {
		defaultModel = "llama3.1:8b"
	}
	return &Ollama{
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: ollamaGenerateTimeout},
	}
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Info() Info {
	return Info{Name: "ollama", BaseURL: o.baseURL, DefaultModel: o.defaultModel}
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

type ollamaResponse struct {
	Response        string `json:"response"`
	EvalCount       int    `json:"eval_count"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	TotalDuration   int64  `json:"total_duration"`
}

func (o *Ollama) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = o.defaultModel
	}

	options := map[string]any{
		"temperature": req.Temperature,
		"num_predict": req.MaxTokens,
	}
	for k, v := range req.Options {
		options[k] = v
	}

	body, err := json.Marshal(ollamaRequest{
		Model:   model,
		Prompt:  buildOllamaPrompt(req),
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}

	slog.Info("llm.generate", "provider", "ollama", "model", model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("llm.api_error", "provider", "ollama", "status", resp.StatusCode, "body", string(msg))
		return nil, fmt.Errorf("ollama API error: %d", resp.StatusCode)
	}

	var result ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}

	usage := map[string]any{}
	if result.EvalCount > 0 {
		usage["tokens_generated"] = result.EvalCount
	}
	if result.PromptEvalCount > 0 {
		usage["tokens_prompt"] = result.PromptEvalCount
	}

	return &Response{
		Content: result.Response,
		Usage:   usage,
		Metadata: map[string]any{
			"provider":      "ollama",
			"model":         model,
			"response_time": result.TotalDuration,
		},
	}, nil
}

// buildOllamaPrompt flattens the request into the completion format the
// /api/generate endpoint expects.
func buildOllamaPrompt(req Request) string {
	var parts []string
	if req.SystemMessage != "" {
		parts = append(parts, "System: "+req.SystemMessage)
	}
	if req.Context != "" {
		parts = append(parts, "Context: "+req.Context)
	}
	parts = append(parts, "User: "+req.Prompt)
	parts = append(parts, "Assistant: ")
	return strings.Join(parts, "\n\n")
}

func (o *Ollama) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, ollamaProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
