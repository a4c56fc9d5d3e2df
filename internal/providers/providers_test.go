package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/bk25/internal/config"
)

func TestBuildOllamaPrompt(t *testing.T) {
	got := buildOllamaPrompt(Request{
		Prompt:        "list files",
		SystemMessage: "You are helpful.",
		Context:       "Channel: web",
	})
	want := "System: You are helpful.\n\nContext: Channel: web\n\nUser: list files\n\nAssistant: "
	if got != want {
		t.Errorf("prompt mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestBuildOllamaPromptMinimal(t *testing.T) {
	got := buildOllamaPrompt(Request{Prompt: "hi"})
	if got != "User: hi\n\nAssistant: " {
		t.Errorf("prompt = %q", got)
	}
}

func TestOllamaGenerate(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{
			"response":          "echo hello",
			"eval_count":        12,
			"prompt_eval_count": 34,
			"total_duration":    1000,
		})
	}))
	defer srv.Close()

	p := NewOllama(srv.URL, "llama3.1:8b")
	resp, err := p.Generate(context.Background(), Request{
		Prompt:      "say hello",
		Temperature: 0.1,
		MaxTokens:   2048,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Content != "echo hello" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage["tokens_generated"] != 12 {
		t.Errorf("usage = %v", resp.Usage)
	}

	if captured["model"] != "llama3.1:8b" {
		t.Errorf("model = %v", captured["model"])
	}
	if captured["stream"] != false {
		t.Errorf("stream = %v", captured["stream"])
	}
	options := captured["options"].(map[string]any)
	if options["temperature"] != 0.1 || options["num_predict"] != float64(2048) {
		t.Errorf("options = %v", options)
	}
}

func TestOllamaGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllama(srv.URL, "")
	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "ollama API error: 404") {
		t.Errorf("err = %v", err)
	}
}

func TestOllamaIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if !NewOllama(srv.URL, "").IsAvailable(context.Background()) {
		t.Error("expected available")
	}
	srv.Close()
	if NewOllama(srv.URL, "").IsAvailable(context.Background()) {
		t.Error("expected unavailable after close")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var captured chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "done"},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"total_tokens": 42},
		})
	}))
	defer srv.Close()

	p := NewOpenAI("sk-test", srv.URL, "gpt-4o")
	resp, err := p.Generate(context.Background(), Request{
		Prompt:        "do it",
		SystemMessage: "be brief",
		Temperature:   0.1,
		MaxTokens:     100,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Content != "done" {
		t.Errorf("content = %q", resp.Content)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("auth = %q", auth)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", captured.Messages)
	}
	if resp.Metadata["finish_reason"] != "stop" {
		t.Errorf("metadata = %v", resp.Metadata)
	}
}

func TestOpenAIRequiresKey(t *testing.T) {
	p := NewOpenAI("", "", "")
	if p.IsAvailable(context.Background()) {
		t.Error("keyless provider should be unavailable")
	}
	if _, err := p.Generate(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Error("expected error without key")
	}
}

func TestRegistryOrderAndFallback(t *testing.T) {
	// Ollama URL points nowhere, so dispatch falls through to OpenAI.
	openaiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{"content": "from openai"},
			}},
		})
	}))
	defer openaiSrv.Close()

	r := NewRegistry(config.LLMConfig{
		OllamaURL:     "http://127.0.0.1:1",
		OpenAIKey:     "sk-test",
		OpenAIBaseURL: openaiSrv.URL,
	})
	if names := r.Names(); len(names) != 2 || names[0] != "ollama" || names[1] != "openai" {
		t.Fatalf("names = %v", names)
	}

	resp, err := r.Generate(context.Background(), Request{Prompt: "hi"}, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Content != "from openai" {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestRegistryNoProviders(t *testing.T) {
	r := NewRegistry(config.LLMConfig{})
	_, err := r.Generate(context.Background(), Request{Prompt: "hi"}, "")
	if err == nil || !strings.Contains(err.Error(), "no LLM providers available") {
		t.Errorf("err = %v", err)
	}
}

func TestRegistryProbe(t *testing.T) {
	r := NewRegistry(config.LLMConfig{
		OllamaURL: "http://127.0.0.1:1",
		OpenAIKey: "sk-test",
	})
	got := r.Probe(context.Background())
	if got["ollama"] {
		t.Error("dead ollama reported available")
	}
	if !got["openai"] {
		t.Error("keyed openai reported unavailable")
	}
}

func TestRegistryProviderInfo(t *testing.T) {
	r := NewRegistry(config.LLMConfig{OllamaURL: "http://localhost:11434", Model: "m"})
	info := r.ProviderInfo("ollama")
	if info == nil || info.DefaultModel != "m" {
		t.Fatalf("info = %+v", info)
	}
	if r.ProviderInfo("openai") != nil {
		t.Error("unconfigured provider should have nil info")
	}
}
