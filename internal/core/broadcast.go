package core

import "sync"

// registry owns the set of live sessions, keyed by connection ID.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	// fanoutMu serializes whole fan-outs, not individual sends.
	fanoutMu sync.Mutex
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*Session)}
}

func (r *registry) add(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *registry) lookup(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// all returns a consistent snapshot of every live session.
func (r *registry) all() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

// inChannel returns the authenticated sessions currently in channel.
func (r *registry) inChannel(channel string) []*Session {
	out := make([]*Session, 0)
	for _, sess := range r.all() {
		snap := sess.Snapshot()
		if snap.Authenticated && snap.Channel == channel {
			out = append(out, sess)
		}
	}
	return out
}

// forUser returns every session authenticated as user.
func (r *registry) forUser(user string) []*Session {
	out := make([]*Session, 0)
	for _, sess := range r.all() {
		if sess.Snapshot().User == user {
			out = append(out, sess)
		}
	}
	return out
}

// The broadcast engine below serializes fan-outs through fanoutMu so every
// recipient of a channel observes deliveries in the same order the
// dispatcher issued them. Individual sends never block: an event that does
// not fit a recipient's buffer is dropped for that recipient only.

// ToChannel delivers to every authenticated session whose current channel
// matches, as of delivery time. No buffering for late joiners.
func (h *Hub) ToChannel(channel string, ev *Event) {
	h.registry.fanoutMu.Lock()
	defer h.registry.fanoutMu.Unlock()
	for _, sess := range h.registry.inChannel(channel) {
		if !sess.send(ev) {
			h.log.Debug().Str("client_id", sess.ID).Msg("dropped event for slow consumer")
		}
	}
}

// ToAll delivers to every open connection regardless of authentication.
func (h *Hub) ToAll(ev *Event) {
	h.registry.fanoutMu.Lock()
	defer h.registry.fanoutMu.Unlock()
	for _, sess := range h.registry.all() {
		if !sess.send(ev) {
			h.log.Debug().Str("client_id", sess.ID).Msg("dropped event for slow consumer")
		}
	}
}

// ToSession unicasts to one session.
func (h *Hub) ToSession(sess *Session, ev *Event) {
	h.registry.fanoutMu.Lock()
	defer h.registry.fanoutMu.Unlock()
	if !sess.send(ev) {
		h.log.Debug().Str("client_id", sess.ID).Msg("dropped event for slow consumer")
	}
}
