// Package config loads saintsal settings from an optional YAML file, fills
// unset fields with defaults and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/alexschlessinger/saintsal/agent"
	"github.com/alexschlessinger/saintsal/internal/log"
	"github.com/alexschlessinger/saintsal/llm"
	"github.com/alexschlessinger/saintsal/sessions"
	"gopkg.in/yaml.v3"
)

// Config holds all saintsal configuration. Zero values mean "use the
// default"; flags that switch a default-on feature off are spelled as
// Disable* for that reason.
type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Agent     AgentConfig               `yaml:"agent"`
	Sessions  SessionsConfig            `yaml:"sessions"`
	Retry     RetryConfig               `yaml:"retry"`
	Providers map[string]*ProviderConfig `yaml:"providers"`
	Log       LogConfig                 `yaml:"log"`
}

// ServerConfig configures the HTTP service and its scheduled jobs
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	SweepSchedule    string `yaml:"sweep_schedule"`
	SnapshotPath     string `yaml:"snapshot_path"`
	SnapshotSchedule string `yaml:"snapshot_schedule"`
	DisableMetrics   bool   `yaml:"disable_metrics"`
}

// AgentConfig configures turn processing
type AgentConfig struct {
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SessionsConfig configures the session store
type SessionsConfig struct {
	MaxHistory    int           `yaml:"max_history"`
	ContextWindow int           `yaml:"context_window"`
	TTL           time.Duration `yaml:"ttl"`
}

// RetryConfig configures completion retries
type RetryConfig struct {
	Disabled          bool          `yaml:"disabled"`
	MaxRetries        int           `yaml:"max_retries"`
	InitialDelay      time.Duration `yaml:"initial_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ProviderConfig holds the credentials of one completion provider
type ProviderConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	APIVersion string `yaml:"api_version,omitempty"`
}

// LogConfig configures logging
type LogConfig struct {
	Mode string `yaml:"mode"`
}

// Default returns the built-in configuration
func Default() *Config {
	retry := agent.DefaultRetryPolicy()
	return &Config{
		Server: ServerConfig{
			Addr:             ":5000",
			SweepSchedule:    "@every 1h",
			SnapshotSchedule: "@every 5m",
		},
		Agent: AgentConfig{
			Model:       agent.DefaultModel,
			Temperature: agent.DefaultTemperature,
			MaxTokens:   agent.DefaultMaxTokens,
			Timeout:     agent.DefaultTimeout,
		},
		Sessions: SessionsConfig{
			MaxHistory:    sessions.DefaultMaxHistory,
			ContextWindow: agent.DefaultContextWindow,
			TTL:           sessions.DefaultTTL,
		},
		Retry: RetryConfig{
			MaxRetries:        retry.MaxRetries,
			InitialDelay:      retry.InitialDelay,
			MaxDelay:          retry.MaxDelay,
			BackoffMultiplier: retry.BackoffMultiplier,
		},
		Log: LogConfig{Mode: string(log.ModeSilent)},
	}
}

// Load reads path (optional; "" skips the file), applies environment
// overrides and fills the rest from Default. A missing file is an error only
// when path was given.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides(os.Getenv)
	cfg.selectDefaultModel()

	if err := mergo.Merge(cfg, Default()); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides(getenv func(string) string) {
	if v := getenv("SAINTSAL_MODEL"); v != "" {
		c.Agent.Model = v
	}
	if v := getenv("SAINTSAL_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("SAINTSAL_LOG"); v != "" {
		c.Log.Mode = v
	}
	if v := getenv("SAINTSAL_SNAPSHOT"); v != "" {
		c.Server.SnapshotPath = v
	}
	if v := getenv("SAINTSAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Agent.Timeout = d
		}
	}

	for _, provider := range llm.Providers {
		if key := getenv(llm.EnvVarForProvider(provider)); key != "" {
			c.provider(provider).APIKey = key
		}
	}
	if v := getenv("AZURE_OPENAI_ENDPOINT"); v != "" {
		c.provider("azure").BaseURL = v
	}
	if v := getenv("OLLAMA_HOST"); v != "" {
		c.provider("ollama").BaseURL = v
	}
}

// provider returns the named provider entry, creating it when absent
func (c *Config) provider(name string) *ProviderConfig {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	p, ok := c.Providers[name]
	if !ok || p == nil {
		p = &ProviderConfig{}
		c.Providers[name] = p
	}
	return p
}

// selectDefaultModel picks Azure as the default provider when Azure
// credentials are the only ones configured and no model was chosen.
func (c *Config) selectDefaultModel() {
	if c.Agent.Model != "" {
		return
	}
	azure := c.Providers["azure"]
	openai := c.Providers["openai"]
	if azure != nil && azure.APIKey != "" && azure.BaseURL != "" && (openai == nil || openai.APIKey == "") {
		_, model, _ := llm.SplitModel(agent.DefaultModel)
		c.Agent.Model = "azure/" + model
	}
}

// Warnings describes settings that load and validate but leave the model
// unreachable, so every turn would fall back.
func (c *Config) Warnings() []string {
	var out []string
	if azure := c.Providers["azure"]; azure != nil && azure.APIKey != "" && azure.BaseURL == "" {
		out = append(out, "AZURE_OPENAI_API_KEY is set but AZURE_OPENAI_ENDPOINT is not; azure models are unavailable")
	}
	provider, _, err := llm.SplitModel(c.Agent.Model)
	if err == nil && provider != "ollama" && c.APIKeys()[provider] == "" {
		out = append(out, fmt.Sprintf("no API key for provider %q (set %s); completions will fail", provider, llm.EnvVarForProvider(provider)))
	}
	return out
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	var errs []error

	if _, err := log.ParseMode(c.Log.Mode); err != nil {
		errs = append(errs, err)
	}

	if provider, _, err := llm.SplitModel(c.Agent.Model); err != nil {
		errs = append(errs, err)
	} else if !slices.Contains(llm.Providers, provider) {
		errs = append(errs, fmt.Errorf("%w: %s (valid: %s)", llm.ErrUnknownProvider, provider, strings.Join(llm.Providers, ", ")))
	}

	if c.Agent.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.Agent.MaxTokens))
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %v", c.Agent.Temperature))
	}
	if c.Agent.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.Sessions.MaxHistory < 0 || c.Sessions.ContextWindow < 0 {
		errs = append(errs, errors.New("max_history and context_window must not be negative"))
	}
	if err := c.RetryPolicy().Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// RetryPolicy returns the completion retry policy
func (c *Config) RetryPolicy() agent.RetryPolicy {
	if c.Retry.Disabled {
		return agent.RetryPolicy{}
	}
	return agent.RetryPolicy{
		MaxRetries:        c.Retry.MaxRetries,
		InitialDelay:      c.Retry.InitialDelay,
		MaxDelay:          c.Retry.MaxDelay,
		BackoffMultiplier: c.Retry.BackoffMultiplier,
	}
}

// AgentConfig returns the turn processing settings
func (c *Config) AgentConfig() agent.Config {
	return agent.Config{
		Model:         c.Agent.Model,
		Temperature:   c.Agent.Temperature,
		MaxTokens:     c.Agent.MaxTokens,
		Timeout:       c.Agent.Timeout,
		ContextWindow: c.Sessions.ContextWindow,
		Retry:         c.RetryPolicy(),
	}
}

// SessionConfig returns the session store settings
func (c *Config) SessionConfig() *sessions.SessionConfig {
	cfg := sessions.DefaultConfig()
	cfg.MaxHistory = c.Sessions.MaxHistory
	cfg.TTL = c.Sessions.TTL
	return cfg
}

// APIKeys returns the configured API key per provider
func (c *Config) APIKeys() map[string]string {
	out := make(map[string]string)
	for name, p := range c.Providers {
		if p != nil && p.APIKey != "" {
			out[name] = p.APIKey
		}
	}
	return out
}

// BaseURLs returns the configured base URL per provider
func (c *Config) BaseURLs() map[string]string {
	out := make(map[string]string)
	for name, p := range c.Providers {
		if p != nil && p.BaseURL != "" {
			out[name] = p.BaseURL
		}
	}
	return out
}

// AzureAPIVersion returns the configured Azure API version, or ""
func (c *Config) AzureAPIVersion() string {
	if p := c.Providers["azure"]; p != nil {
		return p.APIVersion
	}
	return ""
}
