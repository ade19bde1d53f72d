package sessions

import (
	"sync"
	"time"

	"github.com/alexschlessinger/saintsal/bag"
	"github.com/alexschlessinger/saintsal/capabilities"
	"github.com/alexschlessinger/saintsal/messages"
)

// Session is the in-memory state of one conversation. Individual accessors
// are guarded by mu; whole turns are serialized by the separate turn lock so
// that readers are not blocked behind an in-flight completion.
type Session struct {
	mu   sync.RWMutex
	turn sync.Mutex

	id         string
	userID     string
	caps       *capabilities.Registry
	history    []messages.ChatMessage
	context    *bag.Bag
	created    time.Time
	last       time.Time
	maxHistory int

	// expired is set when the store drops the session; a turn that resolved
	// the session before removal must not keep using it.
	expired bool
}

func newSession(id, userID string, caps []capabilities.Capability, context *bag.Bag, maxHistory int, now time.Time) *Session {
	return &Session{
		id:         id,
		userID:     userID,
		caps:       capabilities.NewRegistry(caps),
		context:    bag.Clone(context),
		created:    now,
		last:       now,
		maxHistory: maxHistory,
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// UserID returns the owning user, or "" for anonymous sessions
func (s *Session) UserID() string { return s.userID }

// Capabilities returns the session's capability registry
func (s *Session) Capabilities() *capabilities.Registry { return s.caps }

// CreatedAt returns when the session was created
func (s *Session) CreatedAt() time.Time { return s.created }

// LastActivity returns when the session was last touched
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// History returns a copy of the session history
func (s *Session) History() []messages.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CopyHistory(s.history)
}

// HistoryLen returns the number of history entries
func (s *Session) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// AddMessage appends msg to the history and evicts the oldest entries
// beyond the retention window. It returns the new history length.
func (s *Session) AddMessage(msg messages.ChatMessage) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, msg)
	s.history = TrimHistory(s.history, s.maxHistory)
	return len(s.history)
}

// Context returns a shallow copy of the context bag
func (s *Session) Context() *bag.Bag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bag.Clone(s.context)
}

// MergeContext shallow-merges patch into the context bag
func (s *Session) MergeContext(patch *bag.Bag) {
	if patch == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bag.Merge(s.context, patch)
}

// Expired reports whether the store has dropped this session
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expired
}

// BeginTurn acquires the turn lock. It returns false, without holding the
// lock, when the session was removed from its store in the meantime.
func (s *Session) BeginTurn() bool {
	s.turn.Lock()
	if s.Expired() {
		s.turn.Unlock()
		return false
	}
	return true
}

// EndTurn releases the turn lock taken by BeginTurn
func (s *Session) EndTurn() {
	s.turn.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = now
}

// expireIfIdle marks the session expired and calls remove when it has been
// idle longer than maxAge at now. remove runs while the turn lock is held so
// no turn can start on a session that is halfway out of the store. Sessions
// with a turn in flight are never expired.
func (s *Session) expireIfIdle(now time.Time, maxAge time.Duration, remove func()) bool {
	if !s.turn.TryLock() {
		return false
	}
	defer s.turn.Unlock()

	s.mu.Lock()
	idle := now.Sub(s.last) > maxAge
	if idle {
		s.expired = true
	}
	s.mu.Unlock()

	if idle {
		remove()
	}
	return idle
}

func (s *Session) markExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = true
}

func (s *Session) info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	domains := bag.Strings(s.context, ContextKeyExpertiseDomains)
	if domains == nil {
		domains = []string{}
	}
	return Info{
		SessionID:        s.id,
		UserID:           s.userID,
		Capabilities:     s.caps.List(),
		HistoryLength:    len(s.history),
		BusinessContext:  bag.String(s.context, ContextKeyBusinessContext),
		ExpertiseDomains: domains,
		CreatedAt:        s.created,
		LastActivity:     s.last,
	}
}
