package config

import "time"

type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `json:"addr" yaml:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `json:"max_request_bytes" yaml:"max_request_bytes"`

	// CORSOrigins lists browser origins allowed to call the JSON API.
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
}

type EngineConfig struct {
	// Type is one of "mock", "oai_http" or "openai_sdk".
	Type string `json:"type" yaml:"type"`

	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey may be set inline; otherwise it is read from the env var named by APIKeyEnv.
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`

	ChatCompletionsPath string `json:"chat_completions_path,omitempty" yaml:"chat_completions_path,omitempty"`

	// Timeout bounds a single upstream attempt.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// MaxRetries is the number of extra attempts for retryable upstream failures.
	// Total attempts = 1 + MaxRetries. Unset means 2; 0 disables retries.
	MaxRetries *int `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`

	// RateLimit caps requests per second to the upstream; 0 disables limiting.
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	Burst     int     `json:"burst,omitempty" yaml:"burst,omitempty"`
}

// Retries returns MaxRetries, or 0 when it is unset.
func (e EngineConfig) Retries() int {
	if e.MaxRetries == nil {
		return 0
	}
	return *e.MaxRetries
}

// IntPtr returns a pointer to v, for literal configs.
func IntPtr(v int) *int { return &v }

type ModelConfig struct {
	ID string `json:"id" yaml:"id"`

	// UpstreamModel overrides the model name sent to the engine. Defaults to ID.
	UpstreamModel string `json:"upstream_model,omitempty" yaml:"upstream_model,omitempty"`

	Engine EngineConfig `json:"engine" yaml:"engine"`
}

type ExplainerConfig struct {
	// Mode is "single_shot" or "two_stage".
	Mode string `json:"mode" yaml:"mode"`

	Model        string `json:"model" yaml:"model"`
	DiagramModel string `json:"diagram_model,omitempty" yaml:"diagram_model,omitempty"`

	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

type KnowledgeBaseConfig struct {
	// Dir holds the prompt documents. Empty means built-in defaults only.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

type RedisConfig struct {
	Addr      string   `json:"addr" yaml:"addr"`
	Password  string   `json:"password,omitempty" yaml:"password,omitempty"`
	DB        int      `json:"db,omitempty" yaml:"db,omitempty"`
	KeyPrefix string   `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	TTL       Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

type BoltConfig struct {
	Path string `json:"path" yaml:"path"`
}

type SQLConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

type HistoryConfig struct {
	// Backend is one of "none", "memory", "redis", "bolt", "sql".
	Backend  string      `json:"backend" yaml:"backend"`
	Capacity int         `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Redis    RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
	Bolt     BoltConfig  `json:"bolt,omitempty" yaml:"bolt,omitempty"`
	SQL      SQLConfig   `json:"sql,omitempty" yaml:"sql,omitempty"`
}

type KrokiConfig struct {
	BaseURL        string   `json:"base_url" yaml:"base_url"`
	HealthInterval Duration `json:"health_interval,omitempty" yaml:"health_interval,omitempty"`
	Timeout        Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

type DiagramConfig struct {
	// Renderer is "browser" (mermaid.js in the page) or "kroki" (server-side SVG).
	Renderer     string      `json:"renderer" yaml:"renderer"`
	PollInterval Duration    `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`
	MaxAttempts  int         `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	WaitTimeout  Duration    `json:"wait_timeout,omitempty" yaml:"wait_timeout,omitempty"`
	Kroki        KrokiConfig `json:"kroki,omitempty" yaml:"kroki,omitempty"`
}

type OtelConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	ServiceName string  `json:"service_name,omitempty" yaml:"service_name,omitempty"`
	Endpoint    string  `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Insecure    bool    `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	SampleRatio float64 `json:"sample_ratio,omitempty" yaml:"sample_ratio,omitempty"`
}

type Config struct {
	Env           string              `json:"env" yaml:"env"`
	HTTP          HTTPConfig          `json:"http" yaml:"http"`
	Explainer     ExplainerConfig     `json:"explainer" yaml:"explainer"`
	Models        []ModelConfig       `json:"models" yaml:"models"`
	KnowledgeBase KnowledgeBaseConfig `json:"knowledge_base" yaml:"knowledge_base"`
	History       HistoryConfig       `json:"history" yaml:"history"`
	Diagram       DiagramConfig       `json:"diagram" yaml:"diagram"`
	Otel          OtelConfig          `json:"otel" yaml:"otel"`
}
