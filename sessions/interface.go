package sessions

import (
	"time"

	"github.com/alexschlessinger/saintsal/capabilities"
)

// SessionStore owns the lifetime of all sessions. It is safe for concurrent use.
type SessionStore interface {
	Create(userID string) *Session
	Get(id string) (*Session, bool)
	GetOrCreate(id, userID string) Lookup
	Touch(id string)
	Sweep(maxAge time.Duration) int
	Delete(id string)
	Len() int

	// Info returns a read-only summary of the session
	Info(id string) (Info, bool)
	// UpdateCapabilities patches capabilities. It reports whether the
	// session exists, not whether any update matched.
	UpdateCapabilities(id string, updates []capabilities.Update) bool
}

// Resolution tells how GetOrCreate produced its session.
type Resolution int

const (
	Found Resolution = iota
	Created
)

func (r Resolution) String() string {
	if r == Created {
		return "created"
	}
	return "found"
}

// Lookup is the result of GetOrCreate.
type Lookup struct {
	Session    *Session
	Resolution Resolution
}

// Info is a point-in-time summary of a session.
type Info struct {
	SessionID        string                    `json:"sessionId"`
	UserID           string                    `json:"userId,omitempty"`
	Capabilities     []capabilities.Capability `json:"capabilities"`
	HistoryLength    int                       `json:"conversation_length"`
	BusinessContext  string                    `json:"business_context"`
	ExpertiseDomains []string                  `json:"expertise_domains"`
	CreatedAt        time.Time                 `json:"created_at"`
	LastActivity     time.Time                 `json:"last_activity"`
}
