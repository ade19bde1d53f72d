package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexschlessinger/saintsal/agent"
	"github.com/alexschlessinger/saintsal/llm"
)

// clearEnv blanks every variable Load reads
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SAINTSAL_MODEL", "SAINTSAL_ADDR", "SAINTSAL_LOG", "SAINTSAL_SNAPSHOT", "SAINTSAL_TIMEOUT",
		"AZURE_OPENAI_ENDPOINT", "OLLAMA_HOST",
	} {
		t.Setenv(k, "")
	}
	for _, p := range llm.Providers {
		t.Setenv(llm.EnvVarForProvider(p), "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "saintsal.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Agent.Model != agent.DefaultModel {
		t.Errorf("Model = %q", cfg.Agent.Model)
	}
	if cfg.Server.Addr != ":5000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Sessions.MaxHistory != 10 || cfg.Sessions.ContextWindow != 6 {
		t.Errorf("sessions = %+v", cfg.Sessions)
	}
	if cfg.Sessions.TTL != 24*time.Hour {
		t.Errorf("TTL = %v", cfg.Sessions.TTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  addr: ":8080"
agent:
  model: anthropic/claude-sonnet-4
  timeout: 30s
sessions:
  ttl: 2h
retry:
  max_retries: 4
providers:
  anthropic:
    api_key: file-key
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Agent.Model != "anthropic/claude-sonnet-4" {
		t.Errorf("Model = %q", cfg.Agent.Model)
	}
	if cfg.Agent.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Agent.Timeout)
	}
	if cfg.Sessions.TTL != 2*time.Hour {
		t.Errorf("TTL = %v", cfg.Sessions.TTL)
	}
	// Unset fields still come from defaults
	if cfg.Agent.MaxTokens != agent.DefaultMaxTokens {
		t.Errorf("MaxTokens = %d", cfg.Agent.MaxTokens)
	}
	if p := cfg.RetryPolicy(); p.MaxRetries != 4 || p.InitialDelay != 500*time.Millisecond {
		t.Errorf("RetryPolicy() = %+v", p)
	}
	if got := cfg.APIKeys()["anthropic"]; got != "file-key" {
		t.Errorf("anthropic key = %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing explicit file")
	}
	if _, err := Load(writeConfig(t, "agent: [unclosed")); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SAINTSAL_MODEL", "ollama/llama3")
	t.Setenv("SAINTSAL_ADDR", ":9000")
	t.Setenv("SAINTSAL_TIMEOUT", "5s")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OLLAMA_HOST", "http://gpu:11434")

	cfg, err := Load(writeConfig(t, "server:\n  addr: \":8080\"\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Agent.Model != "ollama/llama3" {
		t.Errorf("Model = %q", cfg.Agent.Model)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("env should win over file, Addr = %q", cfg.Server.Addr)
	}
	if cfg.Agent.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Agent.Timeout)
	}
	if got := cfg.APIKeys()["openai"]; got != "sk-env" {
		t.Errorf("openai key = %q", got)
	}
	if got := cfg.BaseURLs()["ollama"]; got != "http://gpu:11434" {
		t.Errorf("ollama base url = %q", got)
	}
}

func TestAzureSelectedWhenOnlyAzureConfigured(t *testing.T) {
	clearEnv(t)
	t.Setenv("AZURE_OPENAI_API_KEY", "az-key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Agent.Model != "azure/gpt-4o" {
		t.Errorf("Model = %q, want azure/gpt-4o", cfg.Agent.Model)
	}

	t.Setenv("OPENAI_API_KEY", "sk")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Agent.Model != agent.DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Agent.Model, agent.DefaultModel)
	}
}

func TestWarnings(t *testing.T) {
	t.Run("azure key without endpoint", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AZURE_OPENAI_API_KEY", "az-key")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.Agent.Model != agent.DefaultModel {
			t.Errorf("Model = %q, azure needs an endpoint to be selected", cfg.Agent.Model)
		}
		warnings := cfg.Warnings()
		if len(warnings) != 2 {
			t.Fatalf("Warnings() = %v, want endpoint and missing key warnings", warnings)
		}
		if !strings.Contains(warnings[0], "AZURE_OPENAI_ENDPOINT") {
			t.Errorf("first warning = %q", warnings[0])
		}
		if !strings.Contains(warnings[1], "OPENAI_API_KEY") {
			t.Errorf("second warning = %q", warnings[1])
		}
	})

	t.Run("azure fully configured", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AZURE_OPENAI_API_KEY", "az-key")
		t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if w := cfg.Warnings(); len(w) != 0 {
			t.Errorf("Warnings() = %v", w)
		}
	})

	t.Run("ollama needs no key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SAINTSAL_MODEL", "ollama/llama3")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if w := cfg.Warnings(); len(w) != 0 {
			t.Errorf("Warnings() = %v", w)
		}
	})
}

func TestRetryDisabled(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "retry:\n  disabled: true\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if p := cfg.AgentConfig().Retry; p.MaxRetries != 0 {
		t.Errorf("Retry = %+v, want no retries", p)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"no provider prefix", func(c *Config) { c.Agent.Model = "gpt-4o" }, llm.ErrInvalidModel},
		{"unknown provider", func(c *Config) { c.Agent.Model = "acme/x" }, llm.ErrUnknownProvider},
		{"bad max tokens", func(c *Config) { c.Agent.MaxTokens = 0 }, errAny},
		{"bad temperature", func(c *Config) { c.Agent.Temperature = 3 }, errAny},
		{"bad log mode", func(c *Config) { c.Log.Mode = "verbose" }, errAny},
		{"bad retry", func(c *Config) { c.Retry.InitialDelay = time.Minute }, errAny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			switch {
			case tt.wantErr == nil && err != nil:
				t.Errorf("unexpected error: %v", err)
			case tt.wantErr == errAny && err == nil:
				t.Errorf("expected an error")
			case tt.wantErr != nil && tt.wantErr != errAny && !errors.Is(err, tt.wantErr):
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

var errAny = errors.New("any error")

func TestSessionConfig(t *testing.T) {
	cfg := Default()
	cfg.Sessions.MaxHistory = 3
	cfg.Sessions.TTL = time.Minute

	sc := cfg.SessionConfig()
	if sc.MaxHistory != 3 || sc.TTL != time.Minute {
		t.Errorf("SessionConfig() = %+v", sc)
	}
}
