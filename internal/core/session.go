package core

import "sync"

// Session is the in-memory state for one live connection. It is created
// unauthenticated on connect and destroyed on disconnect. All mutations go
// through its mutex so no reader ever observes a half-updated session.
type Session struct {
	// ID is the stable connection handle.
	ID string

	// Events is drained by the connection's write loop. Sends are
	// non-blocking; a full buffer drops the event for this recipient.
	Events chan *Event

	mu      sync.Mutex
	user    string
	channel string
	admin   bool
	party   bool
	closed  bool
}

// SessionSnapshot is an immutable copy of a session's state, safe to pass
// into the pure authorization gate.
type SessionSnapshot struct {
	ID            string
	User          string
	Channel       string
	Admin         bool
	Party         bool
	Authenticated bool
}

// NewSession constructs an unauthenticated session for a connection.
func NewSession(id string) *Session {
	return &Session{
		ID:     id,
		Events: make(chan *Event, 16),
	}
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		ID:            s.ID,
		User:          s.user,
		Channel:       s.channel,
		Admin:         s.admin,
		Party:         s.party,
		Authenticated: s.user != "",
	}
}

// Authenticate marks the session as belonging to user and places it in
// channel. Channel and identity are set together, keeping the invariant
// that a non-empty channel implies a non-empty identity.
func (s *Session) Authenticate(user string, admin, party bool, channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.admin = admin
	s.party = party
	s.channel = channel
}

// SetChannel moves the session to another channel.
func (s *Session) SetChannel(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = channel
}

// SetParty updates the session's party flag.
func (s *Session) SetParty(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.party = active
}

// markClosed flips the closed flag, reporting whether this call was the
// one that closed it. Disconnect cleanup keys off the first close so it
// runs exactly once even under concurrent close and error paths.
func (s *Session) markClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	return true
}

// send delivers an event without blocking. Slow consumers lose events
// rather than stalling the sender.
func (s *Session) send(ev *Event) bool {
	select {
	case s.Events <- ev:
		return true
	default:
		return false
	}
}
