package sessions

import (
	"sync"
	"time"

	"github.com/alexschlessinger/saintsal/bag"
	"github.com/alexschlessinger/saintsal/capabilities"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionIDPrefix = "session_"

// MemoryStore implements a thread-safe in-memory session store. State lives
// for the lifetime of the process only.
type MemoryStore struct {
	sessions sync.Map // id -> *Session
	config   SessionConfig
	seed     func() []capabilities.Capability
	now      func() time.Time
}

// Option configures a MemoryStore
type Option func(*MemoryStore)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// WithCapabilities overrides the capability set new sessions are seeded with
func WithCapabilities(seed func() []capabilities.Capability) Option {
	return func(s *MemoryStore) { s.seed = seed }
}

// NewMemoryStore creates a new session store. A nil config uses DefaultConfig.
// The store never starts background work; call Sweep from a scheduler.
func NewMemoryStore(config *SessionConfig, opts ...Option) *MemoryStore {
	if config == nil {
		config = DefaultConfig()
	}
	store := &MemoryStore{
		config: *config,
		seed:   capabilities.Defaults,
		now:    time.Now,
	}
	if store.config.DefaultContext == nil {
		store.config.DefaultContext = DefaultContextBag()
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

var _ SessionStore = (*MemoryStore)(nil)

// Create stores and returns a fresh session with a new unique id
func (s *MemoryStore) Create(userID string) *Session {
	for {
		id := sessionIDPrefix + uuid.NewString()
		session := newSession(id, userID, s.seed(), s.config.DefaultContext, s.config.MaxHistory, s.now())
		if _, loaded := s.sessions.LoadOrStore(id, session); !loaded {
			zap.S().Debugw("session_created", "session_id", id, "user_id", userID)
			return session
		}
	}
}

// Get looks a session up without creating one
func (s *MemoryStore) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	value, ok := s.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return value.(*Session), true
}

// GetOrCreate returns the session for id, or a new session with a freshly
// generated id when id is unknown. The new id never equals the requested one.
func (s *MemoryStore) GetOrCreate(id, userID string) Lookup {
	if session, ok := s.Get(id); ok {
		return Lookup{Session: session, Resolution: Found}
	}
	return Lookup{Session: s.Create(userID), Resolution: Created}
}

// Touch updates the last activity time; no-op if the session is absent
func (s *MemoryStore) Touch(id string) {
	if session, ok := s.Get(id); ok {
		session.touch(s.now())
	}
}

// Sweep removes every session idle for longer than maxAge and returns how
// many were removed. A non-positive maxAge falls back to the configured TTL;
// with no TTL either, nothing expires. Sessions with a turn in flight are
// left for the next sweep.
func (s *MemoryStore) Sweep(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = s.config.TTL
	}
	if maxAge <= 0 {
		return 0
	}

	now := s.now()
	removed := 0
	s.sessions.Range(func(key, value any) bool {
		session := value.(*Session)
		if session.expireIfIdle(now, maxAge, func() { s.sessions.CompareAndDelete(key, session) }) {
			removed++
		}
		return true
	})
	if removed > 0 {
		zap.S().Debugw("sessions_swept", "removed", removed, "max_age", maxAge)
	}
	return removed
}

// Delete removes a session
func (s *MemoryStore) Delete(id string) {
	if value, ok := s.sessions.LoadAndDelete(id); ok {
		value.(*Session).markExpired()
	}
}

// Len returns the number of live sessions
func (s *MemoryStore) Len() int {
	n := 0
	s.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// List returns all session ids
func (s *MemoryStore) List() []string {
	var ids []string
	s.sessions.Range(func(key, _ any) bool {
		ids = append(ids, key.(string))
		return true
	})
	return ids
}

// Info returns a summary of the session
func (s *MemoryStore) Info(id string) (Info, bool) {
	session, ok := s.Get(id)
	if !ok {
		return Info{}, false
	}
	return session.info(), true
}

// UpdateCapabilities applies partial capability updates and touches the session
func (s *MemoryStore) UpdateCapabilities(id string, updates []capabilities.Update) bool {
	session, ok := s.Get(id)
	if !ok {
		return false
	}
	matched := session.Capabilities().Apply(updates)
	session.touch(s.now())
	zap.S().Debugw("capabilities_updated", "session_id", id, "updates", len(updates), "matched", matched)
	return true
}

// Snapshot captures the state of every session
func (s *MemoryStore) Snapshot() []SessionState {
	var states []SessionState
	s.sessions.Range(func(_, value any) bool {
		states = append(states, value.(*Session).state())
		return true
	})
	return states
}

// Restore loads previously captured sessions. Ids already present are kept
// as they are. It returns how many sessions were added.
func (s *MemoryStore) Restore(states []SessionState) int {
	added := 0
	for _, st := range states {
		if st.ID == "" {
			continue
		}
		context := st.Context
		if context == nil {
			context = bag.Clone(s.config.DefaultContext)
		}
		caps := st.Capabilities
		if len(caps) == 0 {
			caps = s.seed()
		}
		session := newSession(st.ID, st.UserID, caps, context, s.config.MaxHistory, st.CreatedAt)
		session.history = TrimHistory(CopyHistory(st.History), s.config.MaxHistory)
		session.last = st.LastActivity
		if _, loaded := s.sessions.LoadOrStore(st.ID, session); !loaded {
			added++
		}
	}
	return added
}
