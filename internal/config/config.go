// Package config holds the BK25 runtime configuration.
// Config is loaded once at startup and injected into core.New; packages
// never read files or environment variables on their own.
package config

// Config is the top-level BK25 configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	LLM       LLMConfig       `json:"llm"`
	Personas  PersonasConfig  `json:"personas"`
	Memory    MemoryConfig    `json:"memory"`
	Execution ExecutionConfig `json:"execution"`
	Tracing   TracingConfig   `json:"tracing"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LLMConfig configures the provider registry.
// Providers are registered in fixed order: ollama first, then openai.
type LLMConfig struct {
	OllamaURL     string  `json:"ollamaUrl"`
	OpenAIKey     string  `json:"openaiApiKey"`
	OpenAIBaseURL string  `json:"openaiBaseUrl"`
	Model         string  `json:"model"`
	OpenAIModel   string  `json:"openaiModel"`
	Temperature   float64 `json:"temperature"`
	MaxTokens     int     `json:"maxTokens"`

	// RequestsPerMinute caps dispatch rate per provider. 0 = unlimited.
	RequestsPerMinute int `json:"requestsPerMinute"`
}

// PersonasConfig configures the persona registry.
type PersonasConfig struct {
	Path string `json:"path"`

	// Watch reloads descriptors when files under Path change.
	Watch bool `json:"watch"`
}

// MemoryConfig bounds the conversation store.
type MemoryConfig struct {
	MaxConversations           int `json:"maxConversations"`
	MaxMessagesPerConversation int `json:"maxMessagesPerConversation"`

	// SQLitePath enables the persistent conversation store when non-empty.
	// Empty = in-memory store (the default).
	SQLitePath string `json:"sqlitePath"`
}

// ExecutionConfig configures the execution supervisor.
type ExecutionConfig struct {
	MaxConcurrentTasks int     `json:"maxConcurrentTasks"`
	DefaultTimeoutSecs int     `json:"defaultTimeoutSecs"`
	MetricsInterval    float64 `json:"metricsIntervalSecs"`

	// RetentionDays is how long terminal tasks are kept before the sweeper
	// removes them. The sweeper itself runs on SweepSchedule (cron syntax).
	RetentionDays int    `json:"retentionDays"`
	SweepSchedule string `json:"sweepSchedule"`
}

// TracingConfig configures OTLP trace export. Disabled when Endpoint is empty.
type TracingConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"` // e.g. "localhost:4318"
	Insecure bool   `json:"insecure"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3003,
		},
		LLM: LLMConfig{
			OllamaURL:   "http://localhost:11434",
			Model:       "llama3.1:8b",
			OpenAIModel: "gpt-4o",
			Temperature: 0.1,
			MaxTokens:   2048,
		},
		Personas: PersonasConfig{
			Path: "./personas",
		},
		Memory: MemoryConfig{
			MaxConversations:           100,
			MaxMessagesPerConversation: 50,
		},
		Execution: ExecutionConfig{
			MaxConcurrentTasks: 5,
			DefaultTimeoutSecs: 300,
			MetricsInterval:    1.0,
			RetentionDays:      7,
			SweepSchedule:      "0 * * * *",
		},
	}
}
