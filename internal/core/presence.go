package core

import (
	"sort"
	"sync"
)

type presenceInfo struct {
	admin bool
	party bool
}

// PresenceTracker derives the set of currently-online identities from the
// authenticated sessions. Entries mirror the latest session flags.
type PresenceTracker struct {
	mu     sync.RWMutex
	online map[string]presenceInfo
}

// NewPresenceTracker constructs an empty tracker.
func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{online: make(map[string]presenceInfo)}
}

// MarkOnline records an identity as online with its capability flags.
func (p *PresenceTracker) MarkOnline(user string, admin, party bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[user] = presenceInfo{admin: admin, party: party}
}

// MarkOffline removes an identity.
func (p *PresenceTracker) MarkOffline(user string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, user)
}

// SetParty mirrors a party flag change onto an online identity. No-op if
// the identity is offline.
func (p *PresenceTracker) SetParty(user string, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if info, ok := p.online[user]; ok {
		info.party = active
		p.online[user] = info
	}
}

// IsOnline reports whether the identity has an authenticated session.
func (p *PresenceTracker) IsOnline(user string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.online[user]
	return ok
}

// OnlineSet returns the online identities sorted alphabetically.
func (p *PresenceTracker) OnlineSet() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.online))
	for name := range p.online {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
