// Package agent turns user messages into assistant replies for a session:
// it resolves the session, gates capabilities, builds the prompt and the
// bounded context window, calls the completion backend and records the
// exchange.
package agent

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/alexschlessinger/saintsal/capabilities"
	"github.com/alexschlessinger/saintsal/llm"
	"github.com/alexschlessinger/saintsal/messages"
	"github.com/alexschlessinger/saintsal/sessions"
	"go.uber.org/zap"
)

const (
	DefaultModel         = "openai/gpt-4o"
	DefaultTemperature   = 0.7
	DefaultMaxTokens     = 1500
	DefaultTimeout       = 60 * time.Second
	DefaultContextWindow = 6

	platformName = "SaintVisionAI Cookin' Knowledge"
)

// Version is reported by Status
var Version = "3.0.0"

// Config holds turn processing settings
type Config struct {
	Model       string
	Temperature float32
	MaxTokens   int
	// Timeout bounds each completion attempt. 0 disables the bound.
	Timeout time.Duration
	// ContextWindow is how many prior history entries are sent with a turn
	ContextWindow int
	Retry         RetryPolicy
}

// DefaultConfig returns the standard turn settings
func DefaultConfig() Config {
	return Config{
		Model:         DefaultModel,
		Temperature:   DefaultTemperature,
		MaxTokens:     DefaultMaxTokens,
		Timeout:       DefaultTimeout,
		ContextWindow: DefaultContextWindow,
		Retry:         DefaultRetryPolicy(),
	}
}

// Agent processes turns against a session store
type Agent struct {
	store    sessions.SessionStore
	llm      llm.LLM
	config   Config
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures an Agent
type Option func(*Agent)

// WithObserver installs a turn observer
func WithObserver(o Observer) Option {
	return func(a *Agent) {
		if o != nil {
			a.observer = o
		}
	}
}

// New creates an agent
func New(store sessions.SessionStore, model llm.LLM, config Config, opts ...Option) *Agent {
	a := &Agent{
		store:    store,
		llm:      model,
		config:   config,
		observer: nopObserver{},
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the agent settings
func (a *Agent) Config() Config { return a.config }

// Process runs one turn. It never fails: completion errors are turned into a
// fallback result flagged in metadata. Callers should Validate the request
// first; an empty message is processed as given.
func (a *Agent) Process(ctx context.Context, req TurnRequest) TurnResult {
	start := time.Now()

	lookup := a.acquire(req.SessionID, req.UserID)
	session := lookup.Session
	defer session.EndTurn()

	session.MergeContext(req.Context)

	active := session.Capabilities().ActiveFor(req.RequestedCapabilities)
	names := capabilities.Names(active)
	prompt := BuildSystemPrompt(session.ID(), active, session.Context())

	// The window is taken after the append, so it ends with the new message
	// and the message is sent again after it.
	session.AddMessage(messages.User(req.Message, time.Now()))
	prior := sessions.RecentHistory(session.History(), a.config.ContextWindow)

	msgs := make([]messages.ChatMessage, 0, len(prior)+2)
	msgs = append(msgs, messages.System(prompt))
	for _, m := range prior {
		msgs = append(msgs, messages.ChatMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, messages.ChatMessage{Role: messages.MessageRoleUser, Content: req.Message})

	zap.S().Debugw("turn_started",
		"session_id", session.ID(),
		"resolution", lookup.Resolution.String(),
		"capabilities", names,
		"context_messages", len(prior),
	)

	reply, attempts, err := a.complete(ctx, msgs)
	a.store.Touch(session.ID())

	event := TurnEvent{
		SessionID:  session.ID(),
		Resolution: lookup.Resolution,
		Attempts:   attempts,
	}

	if err != nil {
		event.Outcome = OutcomeError
		event.Latency = time.Since(start)
		a.observer.ObserveTurn(event)
		zap.S().Warnw("turn_failed", "session_id", session.ID(), "attempts", attempts, "error", err)

		return TurnResult{
			Response:         FallbackText,
			SessionID:        session.ID(),
			CapabilitiesUsed: []string{capabilities.ErrorHandling},
			Metadata: Metadata{
				ProcessingTimeMs: event.Latency.Milliseconds(),
				Attempts:         attempts,
				Resolution:       lookup.Resolution.String(),
				Error:            true,
				ErrorType:        ErrorTypeProcessing,
			},
		}
	}

	content := ""
	if reply != nil {
		content = llm.StripThinkBlocks(reply.Content)
		event.InputTokens = reply.GetInputTokens()
		event.OutputTokens = reply.GetOutputTokens()
	}
	event.Outcome = OutcomeSuccess
	if strings.TrimSpace(content) == "" {
		content = ApologyText
		event.Outcome = OutcomeEmpty
	}

	length := session.AddMessage(messages.Assistant(content, time.Now(), names))

	event.Latency = time.Since(start)
	a.observer.ObserveTurn(event)
	zap.S().Debugw("turn_finished",
		"session_id", session.ID(),
		"outcome", event.Outcome,
		"history_length", length,
		"latency", event.Latency,
	)

	return TurnResult{
		Response:         content,
		SessionID:        session.ID(),
		CapabilitiesUsed: names,
		ContextUpdates: &ContextUpdates{
			SessionLength: length,
			LastActivity:  session.LastActivity(),
		},
		Metadata: Metadata{
			ModelUsed:        a.config.Model,
			HACPEnabled:      slices.Contains(names, capabilities.HACPProtocol),
			ProcessingTimeMs: event.Latency.Milliseconds(),
			Attempts:         attempts,
			Resolution:       lookup.Resolution.String(),
			InputTokens:      event.InputTokens,
			OutputTokens:     event.OutputTokens,
		},
	}
}

// acquire resolves the session and takes its turn lock. A session swept
// between lookup and lock is resolved again, which creates a fresh one.
func (a *Agent) acquire(sessionID, userID string) sessions.Lookup {
	for {
		lookup := a.store.GetOrCreate(sessionID, userID)
		if lookup.Session.BeginTurn() {
			return lookup
		}
		zap.S().Debugw("session_expired_during_turn", "session_id", lookup.Session.ID())
	}
}

// complete calls the backend, retrying transient failures per the policy.
// It returns the number of attempts made.
func (a *Agent) complete(ctx context.Context, msgs []messages.ChatMessage) (*messages.ChatMessage, int, error) {
	policy := a.config.Retry
	for retry := 0; ; retry++ {
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if a.config.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		}

		reply, err := a.llm.ChatCompletion(attemptCtx, &llm.CompletionRequest{
			Model:       a.config.Model,
			Temperature: a.config.Temperature,
			MaxTokens:   a.config.MaxTokens,
			Timeout:     a.config.Timeout,
			Messages:    msgs,
		})
		cancel()

		if err == nil {
			return reply, retry + 1, nil
		}
		if ctx.Err() != nil {
			return nil, retry + 1, errors.Join(err, ctx.Err())
		}
		if !IsRetriable(err) || !policy.ShouldRetry(retry) {
			return nil, retry + 1, err
		}

		delay := policy.CalculateDelay(retry)
		zap.S().Debugw("completion_retry", "attempt", retry+1, "delay", delay, "error", err)
		if err := a.sleep(ctx, delay); err != nil {
			return nil, retry + 1, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GetSession returns the summary of a session
func (a *Agent) GetSession(sessionID string) (sessions.Info, error) {
	info, ok := a.store.Info(sessionID)
	if !ok {
		return sessions.Info{}, ErrSessionNotFound
	}
	return info, nil
}

// UpdateCapabilities patches the capabilities of a session. It reports
// whether the session exists.
func (a *Agent) UpdateCapabilities(sessionID string, updates []capabilities.Update) bool {
	return a.store.UpdateCapabilities(sessionID, updates)
}

// Sweep removes sessions idle for longer than maxAge, or the store TTL when
// maxAge is not positive
func (a *Agent) Sweep(maxAge time.Duration) int {
	removed := a.store.Sweep(maxAge)
	a.observer.ObserveSweep(removed)
	return removed
}

// Status reports the agent's configuration and load
func (a *Agent) Status() Status {
	return Status{
		Status:             "operational",
		HACPEnabled:        true,
		CapabilitiesOnline: len(capabilities.Defaults()),
		Model:              a.config.Model,
		Platform:           platformName,
		Version:            Version,
		ActiveSessions:     a.store.Len(),
		LastUpdated:        time.Now(),
	}
}
