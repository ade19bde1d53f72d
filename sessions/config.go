package sessions

import (
	"time"

	"github.com/alexschlessinger/saintsal/bag"
)

// Conventional context keys. The context bag is open; these are the keys the
// prompt builder and the session summary know how to read.
const (
	ContextKeyUserPreferences  = "user_preferences"
	ContextKeyBusinessContext  = "business_context"
	ContextKeyExpertiseDomains = "expertise_domains"
)

const (
	// DefaultMaxHistory is the retention window of a session's history
	DefaultMaxHistory = 10
	// DefaultTTL is the inactivity period after which a session may be swept
	DefaultTTL = 24 * time.Hour
)

// SessionConfig holds configuration for session management
type SessionConfig struct {
	// MaxHistory is the maximum number of messages to keep in history
	// 0 means unlimited
	MaxHistory int

	// TTL is the inactivity threshold used by Sweep when it is called
	// without an explicit age. 0 means no expiration.
	TTL time.Duration

	// DefaultContext seeds the context bag of every new session.
	// It is cloned per session. Nil uses DefaultContextBag.
	DefaultContext *bag.Bag
}

// DefaultConfig returns a SessionConfig with sensible defaults
func DefaultConfig() *SessionConfig {
	return &SessionConfig{
		MaxHistory: DefaultMaxHistory,
		TTL:        DefaultTTL,
	}
}

// DefaultContextBag returns the context every session starts with.
func DefaultContextBag() *bag.Bag {
	return bag.New(
		bag.KV(ContextKeyUserPreferences, map[string]any{}),
		bag.KV(ContextKeyBusinessContext, "enterprise_ai_platform"),
		bag.KV(ContextKeyExpertiseDomains, []string{"ai", "business", "technology", "strategy"}),
	)
}
