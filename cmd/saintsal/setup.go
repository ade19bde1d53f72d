package main

import (
	"fmt"
	"os"

	"github.com/alexschlessinger/saintsal/agent"
	"github.com/alexschlessinger/saintsal/internal/config"
	"github.com/alexschlessinger/saintsal/internal/log"
	"github.com/alexschlessinger/saintsal/internal/metrics"
	"github.com/alexschlessinger/saintsal/llm"
	"github.com/alexschlessinger/saintsal/sessions"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// app holds the wired components shared by all commands
type app struct {
	config  *config.Config
	store   *sessions.MemoryStore
	agent   *agent.Agent
	metrics *metrics.Metrics
}

// loadConfig reads the configuration file and applies flag overrides
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("model") {
		cfg.Agent.Model = cmd.String("model")
	}
	if cmd.IsSet("temp") {
		cfg.Agent.Temperature = float32(cmd.Float64("temp"))
	}
	if cmd.IsSet("maxtokens") {
		cfg.Agent.MaxTokens = cmd.Int("maxtokens")
	}
	if cmd.IsSet("timeout") {
		cfg.Agent.Timeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("log") {
		cfg.Log.Mode = cmd.String("log")
	}
	if cmd.Bool("debug") {
		cfg.Log.Mode = string(log.ModeDebug)
	}
	if cmd.IsSet("baseurl") {
		provider, _, err := llm.SplitModel(cfg.Agent.Model)
		if err != nil {
			return nil, err
		}
		if cfg.Providers == nil {
			cfg.Providers = make(map[string]*config.ProviderConfig)
		}
		p := cfg.Providers[provider]
		if p == nil {
			p = &config.ProviderConfig{}
			cfg.Providers[provider] = p
		}
		p.BaseURL = cmd.String("baseurl")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup loads configuration, initializes logging and wires the agent
func setup(cmd *cli.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	mode, err := log.ParseMode(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}
	log.InitLogger(mode)
	for _, w := range cfg.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		zap.S().Warnw("config_warning", "warning", w)
	}

	multipass := llm.NewMultiPass(cfg.APIKeys(), cfg.BaseURLs())
	if v := cfg.AzureAPIVersion(); v != "" {
		multipass.AzureAPIVersion = v
	}

	store := sessions.NewMemoryStore(cfg.SessionConfig())

	var opts []agent.Option
	var m *metrics.Metrics
	if !cfg.Server.DisableMetrics {
		m = metrics.New(store.Len)
		opts = append(opts, agent.WithObserver(m))
	}

	zap.S().Debugw("agent_configured",
		"model", cfg.Agent.Model,
		"max_history", cfg.Sessions.MaxHistory,
		"context_window", cfg.Sessions.ContextWindow,
		"ttl", cfg.Sessions.TTL,
		"max_retries", cfg.RetryPolicy().MaxRetries)

	return &app{
		config:  cfg,
		store:   store,
		agent:   agent.New(store, multipass, cfg.AgentConfig(), opts...),
		metrics: m,
	}, nil
}
