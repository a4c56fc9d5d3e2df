package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/titanous/json5"
)

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error; defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	envFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	envStr("BK25_HOST", &c.Server.Host)
	envInt("BK25_PORT", &c.Server.Port)

	envStr("OLLAMA_URL", &c.LLM.OllamaURL)
	envStr("OPENAI_API_KEY", &c.LLM.OpenAIKey)
	envStr("OPENAI_BASE_URL", &c.LLM.OpenAIBaseURL)
	envStr("BK25_MODEL", &c.LLM.Model)
	envStr("BK25_OPENAI_MODEL", &c.LLM.OpenAIModel)
	envFloat("BK25_TEMPERATURE", &c.LLM.Temperature)
	envInt("BK25_MAX_TOKENS", &c.LLM.MaxTokens)

	envStr("BK25_PERSONAS_PATH", &c.Personas.Path)
	envStr("BK25_SQLITE_PATH", &c.Memory.SQLitePath)

	envInt("BK25_MAX_CONCURRENT_TASKS", &c.Execution.MaxConcurrentTasks)

	envStr("BK25_OTLP_ENDPOINT", &c.Tracing.Endpoint)
	if c.Tracing.Endpoint != "" {
		c.Tracing.Enabled = true
	}
}

// HasAnyProvider reports whether at least one LLM provider is configured.
func (c *Config) HasAnyProvider() bool {
	return c.LLM.OllamaURL != "" || c.LLM.OpenAIKey != ""
}
