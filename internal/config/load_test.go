package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadFileJSONMockModel(t *testing.T) {
	p := writeFile(t, "config.json", `{
		"env": "test",
		"http": {"addr": ":9999", "shutdown_timeout": "3s"},
		"explainer": {"mode": "two_stage", "model": "mock-1"},
		"models": [{"id": "mock-1", "engine": {"type": "mock"}}],
		"history": {"backend": "memory", "capacity": 5}
	}`)

	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Fatalf("addr=%q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.ShutdownTimeout.Duration != 3*time.Second {
		t.Fatalf("shutdown=%v", cfg.HTTP.ShutdownTimeout.Duration)
	}
	if cfg.Explainer.Mode != ModeTwoStage || cfg.Explainer.DiagramModel != "mock-1" {
		t.Fatalf("explainer=%+v", cfg.Explainer)
	}
	if len(cfg.Models) != 1 || cfg.Models[0].Engine.APIKeyEnv != "" {
		t.Fatalf("models merged with defaults: %+v", cfg.Models)
	}
	if cfg.Diagram.MaxAttempts != 15 || cfg.Diagram.PollInterval.Duration != 200*time.Millisecond {
		t.Fatalf("diagram defaults not applied: %+v", cfg.Diagram)
	}
}

func TestLoadFileYAML(t *testing.T) {
	p := writeFile(t, "config.yaml", `
env: test
explainer:
  model: groq
models:
  - id: groq
    upstream_model: llama-3.3-70b-versatile
    engine:
      type: openai_http
      base_url: https://api.groq.com/openai/
      api_key: gsk-test
      timeout: 5s
diagram:
  renderer: kroki
  kroki:
    base_url: http://kroki:8000/
  poll_interval: 100000000
`)
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	m := cfg.Models[0]
	if m.Engine.Type != EngineOAIHTTP {
		t.Fatalf("type=%q", m.Engine.Type)
	}
	if m.Engine.BaseURL != "https://api.groq.com/openai" {
		t.Fatalf("base_url=%q", m.Engine.BaseURL)
	}
	if m.Engine.ChatCompletionsPath != "/v1/chat/completions" {
		t.Fatalf("path=%q", m.Engine.ChatCompletionsPath)
	}
	if m.Engine.Timeout.Duration != 5*time.Second || m.Engine.Retries() != 2 {
		t.Fatalf("engine=%+v", m.Engine)
	}
	if cfg.Diagram.PollInterval.Duration != 100*time.Millisecond {
		t.Fatalf("poll=%v", cfg.Diagram.PollInterval.Duration)
	}
	if cfg.Diagram.Kroki.BaseURL != "http://kroki:8000" {
		t.Fatalf("kroki=%q", cfg.Diagram.Kroki.BaseURL)
	}
}

func TestLoadKeepsExplicitZeroRetries(t *testing.T) {
	p := writeFile(t, "config.yaml", `
env: test
explainer:
  model: once
models:
  - id: once
    engine:
      type: oai_http
      base_url: http://upstream
      api_key: sk-test
      max_retries: 0
  - id: default
    engine:
      type: oai_http
      base_url: http://upstream
      api_key: sk-test
`)
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := cfg.Models[0].Engine.Retries(); got != 0 {
		t.Fatalf("explicit max_retries=%d", got)
	}
	if got := cfg.Models[1].Engine.Retries(); got != 2 {
		t.Fatalf("default max_retries=%d", got)
	}

	bad := writeFile(t, "bad.json", `{"env":"test","explainer":{"model":"m"},"models":[{"id":"m","engine":{"type":"oai_http","base_url":"http://u","api_key":"k","max_retries":-1}}]}`)
	if _, err := LoadFile(bad); err == nil {
		t.Fatalf("expected error for negative max_retries")
	}
}

func TestLoadFailsFastWithoutAPIKey(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	p := writeFile(t, "config.json", `{"env": "test"}`)
	_, err := LoadFile(p)
	if err == nil {
		t.Fatalf("expected error for missing API key")
	}
	if !strings.Contains(err.Error(), "MISTRAL_API_KEY") {
		t.Fatalf("error should name the env var: %v", err)
	}
}

func TestLoadResolvesAPIKeyFromEnv(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "mk-test")
	t.Setenv("PORT", "4000")
	p := writeFile(t, "config.json", `{"env": "test"}`)
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Models[0].Engine.APIKey != "mk-test" {
		t.Fatalf("api key not resolved")
	}
	if cfg.HTTP.Addr != ":4000" {
		t.Fatalf("addr=%q", cfg.HTTP.Addr)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown model":    func(c *Config) { c.Explainer.Model = "nope" },
		"bad mode":         func(c *Config) { c.Explainer.Mode = "three_stage" },
		"bad history":      func(c *Config) { c.History.Backend = "mongo" },
		"redis no addr":    func(c *Config) { c.History.Backend = HistoryRedis },
		"sql bad driver":   func(c *Config) { c.History.Backend = HistorySQL; c.History.SQL.Driver = "mysql" },
		"kroki no url":     func(c *Config) { c.Diagram.Renderer = RendererKroki },
		"duplicate models": func(c *Config) { c.Models = append(c.Models, c.Models[0]) },
	}
	for name, mutate := range cases {
		cfg := Default()
		cfg.Models = []ModelConfig{{ID: "m", Engine: EngineConfig{Type: EngineMock}}}
		cfg.Explainer.Model = "m"
		mutate(cfg)
		if err := Normalize(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
