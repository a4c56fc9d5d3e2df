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

const openaiTimeout = 30 * time.Second

// OpenAI talks to the OpenAI chat completions API, or any compatible
// endpoint behind a custom base URL.
type OpenAI struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
}

// NewOpenAI creates a provider for the given key and base URL.
// An empty baseURL uses the public API.
func NewOpenAI(apiKey, baseURL, defaultModel string) *OpenAI {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if defaultModel == "" {
		defaultModel = "gpt-4o"
	}
	return &OpenAI{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: openaiTimeout},
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Info() Info {
	return Info{Name: "openai", BaseURL: o.baseURL, DefaultModel: o.defaultModel, HasAPIKey: o.apiKey != ""}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage map[string]any `json:"usage"`
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (*Response, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	model := req.Model
	if model == "" {
		model = o.defaultModel
	}

	var messages []chatMessage
	if req.SystemMessage != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemMessage})
	}
	if req.Context != "" {
		messages = append(messages, chatMessage{Role: "user", Content: "Context: " + req.Context})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal openai request: %w", err)
	}

	slog.Info("llm.generate", "provider", "openai", "model", model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("llm.api_error", "provider", "openai", "status", resp.StatusCode, "body", string(msg))
		return nil, fmt.Errorf("OpenAI API error: %d", resp.StatusCode)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return &Response{
		Content: result.Choices[0].Message.Content,
		Usage:   result.Usage,
		Metadata: map[string]any{
			"provider":      "openai",
			"model":         model,
			"finish_reason": result.Choices[0].FinishReason,
		},
	}, nil
}

// IsAvailable only checks that a key is configured; the API itself is not
// probed to avoid burning quota.
func (o *OpenAI) IsAvailable(ctx context.Context) bool {
	return o.apiKey != ""
}
