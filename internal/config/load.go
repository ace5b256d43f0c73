package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		return d.parse(u)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a JSON string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got kind %d", value.Kind)
	}
	if value.Tag == "!!int" {
		n, err := strconv.ParseInt(value.Value, 10, 64)
		if err != nil {
			return err
		}
		d.Duration = time.Duration(n)
		return nil
	}
	return d.parse(value.Value)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		d.Duration = 0
		return nil
	}
	dd, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	d.Duration = dd
	return nil
}

const (
	ModeSingleShot = "single_shot"
	ModeTwoStage   = "two_stage"

	EngineMock      = "mock"
	EngineOAIHTTP   = "oai_http"
	EngineOpenAISDK = "openai_sdk"

	HistoryNone   = "none"
	HistoryMemory = "memory"
	HistoryRedis  = "redis"
	HistoryBolt   = "bolt"
	HistorySQL    = "sql"

	RendererBrowser = "browser"
	RendererKroki   = "kroki"
)

func Default() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":3001",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			MaxRequestBytes:   1 << 20,
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
		},
		Explainer: ExplainerConfig{
			Mode:      ModeSingleShot,
			Model:     "mistral-large-latest",
			MaxTokens: 2500,
		},
		Models: []ModelConfig{
			{
				ID: "mistral-large-latest",
				Engine: EngineConfig{
					Type:      EngineOAIHTTP,
					BaseURL:   "https://api.mistral.ai",
					APIKeyEnv: "MISTRAL_API_KEY",
				},
			},
		},
		History: HistoryConfig{
			Backend:  HistoryMemory,
			Capacity: 50,
		},
		Diagram: DiagramConfig{
			Renderer:     RendererBrowser,
			PollInterval: Duration{Duration: 200 * time.Millisecond},
			MaxAttempts:  15,
			WaitTimeout:  Duration{Duration: 5 * time.Second},
		},
		Otel: OtelConfig{
			ServiceName: "breakdown",
			SampleRatio: 0.1,
		},
	}
}

// Load reads the config file named by BREAKDOWN_CONFIG_PATH (or
// ./config/config.{json,yaml,yml}), overlays it on the defaults, applies env
// overrides and validates the result.
func Load() (*Config, error) {
	return LoadFile(strings.TrimSpace(os.Getenv("BREAKDOWN_CONFIG_PATH")))
}

// LoadFile is Load with an explicit path. An empty path falls back to the
// working-directory lookup.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findDefaultPath()
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Decoding a JSON array into a non-empty slice merges element fields,
		// so the default models are only restored when the file has none.
		defaults := cfg.Models
		cfg.Models = nil
		if err := decode(path, b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if len(cfg.Models) == 0 {
			cfg.Models = defaults
		}
	}

	applyEnv(cfg)
	if err := Normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findDefaultPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		p := filepath.Join(wd, "config", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

func applyEnv(cfg *Config) {
	if v := env("LOG_MODE"); v != "" {
		cfg.Env = v
	}
	if v := env("PORT"); v != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := env("BREAKDOWN_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := env("BREAKDOWN_EXPLAINER_MODE"); v != "" {
		cfg.Explainer.Mode = v
	}
	if v := env("BREAKDOWN_HISTORY_BACKEND"); v != "" {
		cfg.History.Backend = v
	}
	if v := env("REDIS_ADDR"); v != "" {
		cfg.History.Redis.Addr = v
	}
	if v := env("KROKI_URL"); v != "" {
		cfg.Diagram.Kroki.BaseURL = v
	}
	if v := env("OTEL_ENABLED"); v != "" {
		cfg.Otel.Enabled = parseBool(v)
	}
	if v := env("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Otel.Endpoint = v
	}
	if v := env("OTEL_EXPORTER_OTLP_INSECURE"); v != "" {
		cfg.Otel.Insecure = parseBool(v)
	}
	if v := env("OTEL_SAMPLER_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Otel.SampleRatio = f
		}
	}
}

// Normalize fills defaults, resolves API keys from the environment and
// rejects inconsistent configurations.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":3001"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 1 << 20
	}
	if cfg.HTTP.ShutdownTimeout.Duration <= 0 {
		cfg.HTTP.ShutdownTimeout = Duration{Duration: 15 * time.Second}
	}

	if len(cfg.Models) == 0 {
		return errors.New("config must define at least one model")
	}
	seen := map[string]bool{}
	for i := range cfg.Models {
		if err := normalizeModel(&cfg.Models[i]); err != nil {
			return err
		}
		if seen[cfg.Models[i].ID] {
			return fmt.Errorf("duplicate model id %q", cfg.Models[i].ID)
		}
		seen[cfg.Models[i].ID] = true
	}

	if err := normalizeExplainer(&cfg.Explainer, seen); err != nil {
		return err
	}
	if err := normalizeHistory(&cfg.History); err != nil {
		return err
	}
	if err := normalizeDiagram(&cfg.Diagram); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Otel.ServiceName) == "" {
		cfg.Otel.ServiceName = "breakdown"
	}
	if cfg.Otel.SampleRatio < 0 {
		cfg.Otel.SampleRatio = 0
	}
	if cfg.Otel.SampleRatio > 1 {
		cfg.Otel.SampleRatio = 1
	}
	return nil
}

func normalizeModel(m *ModelConfig) error {
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		return errors.New("model id is required")
	}
	if strings.TrimSpace(m.UpstreamModel) == "" {
		m.UpstreamModel = m.ID
	}

	e := &m.Engine
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	e.ChatCompletionsPath = strings.TrimSpace(e.ChatCompletionsPath)

	switch strings.ToLower(strings.TrimSpace(e.Type)) {
	case "":
		return fmt.Errorf("model %q missing engine.type", m.ID)
	case EngineMock:
		e.Type = EngineMock
		return nil
	case "openai_http", EngineOAIHTTP:
		e.Type = EngineOAIHTTP
		if e.BaseURL == "" {
			return fmt.Errorf("model %q (oai_http) missing engine.base_url", m.ID)
		}
		if e.ChatCompletionsPath == "" {
			e.ChatCompletionsPath = "/v1/chat/completions"
		}
	case "sdk", EngineOpenAISDK:
		e.Type = EngineOpenAISDK
	default:
		return fmt.Errorf("model %q has unsupported engine.type %q", m.ID, e.Type)
	}

	if e.Timeout.Duration <= 0 {
		e.Timeout = Duration{Duration: 60 * time.Second}
	}
	if e.MaxRetries == nil {
		e.MaxRetries = IntPtr(2)
	}
	if *e.MaxRetries < 0 {
		return fmt.Errorf("model %q invalid engine.max_retries", m.ID)
	}
	if e.RateLimit < 0 {
		return fmt.Errorf("model %q invalid engine.rate_limit", m.ID)
	}
	if e.RateLimit > 0 && e.Burst <= 0 {
		e.Burst = 1
	}

	e.APIKey = strings.TrimSpace(e.APIKey)
	if e.APIKey == "" && strings.TrimSpace(e.APIKeyEnv) != "" {
		e.APIKey = env(strings.TrimSpace(e.APIKeyEnv))
	}
	if e.APIKey == "" {
		if e.APIKeyEnv != "" {
			return fmt.Errorf("model %q: API key not set (export %s)", m.ID, strings.TrimSpace(e.APIKeyEnv))
		}
		return fmt.Errorf("model %q: API key not set (engine.api_key or engine.api_key_env)", m.ID)
	}
	return nil
}

func normalizeExplainer(x *ExplainerConfig, models map[string]bool) error {
	switch strings.ToLower(strings.TrimSpace(x.Mode)) {
	case "", ModeSingleShot:
		x.Mode = ModeSingleShot
	case ModeTwoStage:
		x.Mode = ModeTwoStage
	default:
		return fmt.Errorf("invalid explainer.mode %q", x.Mode)
	}
	x.Model = strings.TrimSpace(x.Model)
	if x.Model == "" {
		return errors.New("explainer.model is required")
	}
	if !models[x.Model] {
		return fmt.Errorf("explainer.model %q is not a configured model", x.Model)
	}
	x.DiagramModel = strings.TrimSpace(x.DiagramModel)
	if x.DiagramModel == "" {
		x.DiagramModel = x.Model
	}
	if !models[x.DiagramModel] {
		return fmt.Errorf("explainer.diagram_model %q is not a configured model", x.DiagramModel)
	}
	if x.MaxTokens < 0 {
		return errors.New("invalid explainer.max_tokens")
	}
	return nil
}

func normalizeHistory(h *HistoryConfig) error {
	h.Backend = strings.ToLower(strings.TrimSpace(h.Backend))
	if h.Backend == "" {
		h.Backend = HistoryMemory
	}
	if h.Capacity <= 0 {
		h.Capacity = 50
	}
	switch h.Backend {
	case HistoryNone, HistoryMemory:
	case HistoryRedis:
		if strings.TrimSpace(h.Redis.Addr) == "" {
			return errors.New("history.redis.addr is required (or REDIS_ADDR)")
		}
		if strings.TrimSpace(h.Redis.KeyPrefix) == "" {
			h.Redis.KeyPrefix = "breakdown:history"
		}
		if h.Redis.TTL.Duration <= 0 {
			h.Redis.TTL = Duration{Duration: 7 * 24 * time.Hour}
		}
	case HistoryBolt:
		if strings.TrimSpace(h.Bolt.Path) == "" {
			return errors.New("history.bolt.path is required")
		}
	case HistorySQL:
		h.SQL.Driver = strings.ToLower(strings.TrimSpace(h.SQL.Driver))
		if h.SQL.Driver != "sqlite" && h.SQL.Driver != "postgres" {
			return fmt.Errorf("history.sql.driver must be sqlite or postgres, got %q", h.SQL.Driver)
		}
		if strings.TrimSpace(h.SQL.DSN) == "" {
			return errors.New("history.sql.dsn is required")
		}
	default:
		return fmt.Errorf("invalid history.backend %q", h.Backend)
	}
	return nil
}

func normalizeDiagram(d *DiagramConfig) error {
	d.Renderer = strings.ToLower(strings.TrimSpace(d.Renderer))
	if d.Renderer == "" {
		d.Renderer = RendererBrowser
	}
	if d.PollInterval.Duration <= 0 {
		d.PollInterval = Duration{Duration: 200 * time.Millisecond}
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = 15
	}
	if d.WaitTimeout.Duration <= 0 {
		d.WaitTimeout = Duration{Duration: 5 * time.Second}
	}
	switch d.Renderer {
	case RendererBrowser:
	case RendererKroki:
		d.Kroki.BaseURL = strings.TrimRight(strings.TrimSpace(d.Kroki.BaseURL), "/")
		if d.Kroki.BaseURL == "" {
			return errors.New("diagram.kroki.base_url is required (or KROKI_URL)")
		}
		if d.Kroki.HealthInterval.Duration <= 0 {
			d.Kroki.HealthInterval = Duration{Duration: 2 * time.Second}
		}
		if d.Kroki.Timeout.Duration <= 0 {
			d.Kroki.Timeout = Duration{Duration: 10 * time.Second}
		}
	default:
		return fmt.Errorf("invalid diagram.renderer %q", d.Renderer)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}
