package agent

import (
	"errors"
	"strings"
	"time"

	"github.com/alexschlessinger/saintsal/bag"
	"github.com/alexschlessinger/saintsal/sessions"
)

// Fixed user-facing texts
const (
	// ApologyText replaces a completion that came back empty
	ApologyText = "I apologize, but I'm experiencing a temporary processing delay. Please try again."
	// FallbackText is returned when the completion call fails
	FallbackText = "I'm experiencing technical difficulties with my advanced processing systems. Please try again in a moment, and I'll provide you with the intelligent assistance you deserve."
	// ErrorTypeProcessing tags failed turns in metadata
	ErrorTypeProcessing = "processing_error"
)

var (
	// ErrEmptyMessage is returned by TurnRequest.Validate for blank messages
	ErrEmptyMessage = errors.New("message is required")
	// ErrSessionNotFound is returned for lookups of unknown session ids
	ErrSessionNotFound = errors.New("session not found")
)

// TurnRequest is one user message addressed to a session. An unknown or
// empty SessionID starts a new session.
type TurnRequest struct {
	Message               string   `json:"message" jsonschema:"minLength=1"`
	SessionID             string   `json:"sessionId,omitempty"`
	UserID                string   `json:"userId,omitempty"`
	Context               *bag.Bag `json:"context,omitempty"`
	RequestedCapabilities []string `json:"requestedCapabilities,omitempty"`
}

// Validate rejects requests the turn processor must never see
func (r TurnRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// ContextUpdates reports session state after a successful turn
type ContextUpdates struct {
	SessionLength int       `json:"session_length"`
	LastActivity  time.Time `json:"last_activity"`
}

// Metadata describes how a turn was served
type Metadata struct {
	ModelUsed        string `json:"model_used,omitempty"`
	HACPEnabled      bool   `json:"hacp_enabled"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	Attempts         int    `json:"attempts"`
	Resolution       string `json:"session_resolution"`
	InputTokens      int    `json:"input_tokens,omitempty"`
	OutputTokens     int    `json:"output_tokens,omitempty"`
	Error            bool   `json:"error,omitempty"`
	ErrorType        string `json:"error_type,omitempty"`
}

// TurnResult is the outcome of a turn. SessionID is the effective session,
// which differs from the requested id when a new session was created.
type TurnResult struct {
	Response         string          `json:"response"`
	SessionID        string          `json:"sessionId"`
	CapabilitiesUsed []string        `json:"capabilities_used"`
	ContextUpdates   *ContextUpdates `json:"context_updates,omitempty"`
	Metadata         Metadata        `json:"metadata"`
}

// Status summarizes the agent for health endpoints
type Status struct {
	Status             string    `json:"status"`
	HACPEnabled        bool      `json:"hacp_enabled"`
	CapabilitiesOnline int       `json:"capabilities_online"`
	Model              string    `json:"model"`
	Platform           string    `json:"platform"`
	Version            string    `json:"version"`
	ActiveSessions     int       `json:"active_sessions"`
	LastUpdated        time.Time `json:"last_updated"`
}

// Outcome classifies a finished turn
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeEmpty   Outcome = "empty"
	OutcomeError   Outcome = "error"
)

// TurnEvent is reported to the Observer after every turn
type TurnEvent struct {
	SessionID    string
	Outcome      Outcome
	Resolution   sessions.Resolution
	Latency      time.Duration
	Attempts     int
	InputTokens  int
	OutputTokens int
}

// Observer receives turn and sweep notifications. Implementations must be
// safe for concurrent use and must not block.
type Observer interface {
	ObserveTurn(TurnEvent)
	ObserveSweep(removed int)
}

type nopObserver struct{}

func (nopObserver) ObserveTurn(TurnEvent) {}
func (nopObserver) ObserveSweep(int)      {}
