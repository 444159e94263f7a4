package core

import (
	"sort"
	"sync"
	"time"
)

// TypingNotifyFunc receives the new typing set of a channel after any
// membership change (start, stop, expiry, disconnect).
type TypingNotifyFunc func(channel string, typing []string)

type typingEntry struct {
	channel string
	gen     uint64
	timer   *time.Timer
}

// TypingCoordinator tracks which identities are composing a message and in
// which channel. Entries expire after a quiet window with no refresh. An
// identity has at most one entry; starting to type in a new channel moves
// the entry there.
type TypingCoordinator struct {
	mu      sync.Mutex
	ttl     time.Duration
	notify  TypingNotifyFunc
	entries map[string]*typingEntry
	nextGen uint64
}

// NewTypingCoordinator builds a coordinator with the given quiet window.
func NewTypingCoordinator(ttl time.Duration, notify TypingNotifyFunc) *TypingCoordinator {
	return &TypingCoordinator{
		ttl:     ttl,
		notify:  notify,
		entries: make(map[string]*typingEntry),
	}
}

// Start arms (or re-arms) the typing entry for user in channel. Any prior
// timer is cancelled first; the generation counter makes a stale expiry
// that already fired a no-op.
func (t *TypingCoordinator) Start(user, channel string) {
	t.mu.Lock()

	prevChannel := ""
	if existing, ok := t.entries[user]; ok {
		existing.timer.Stop()
		if existing.channel != channel {
			prevChannel = existing.channel
		}
	}
	_, existed := t.entries[user]

	t.nextGen++
	gen := t.nextGen
	entry := &typingEntry{channel: channel, gen: gen}
	entry.timer = time.AfterFunc(t.ttl, func() { t.expire(user, gen) })
	t.entries[user] = entry

	changed := !existed || prevChannel != ""
	var prevSet, newSet []string
	if prevChannel != "" {
		prevSet = t.typingInLocked(prevChannel)
	}
	if changed {
		newSet = t.typingInLocked(channel)
	}
	t.mu.Unlock()

	// A pure refresh changes no set membership, so nothing is announced.
	if prevChannel != "" {
		t.notify(prevChannel, prevSet)
	}
	if changed {
		t.notify(channel, newSet)
	}
}

// Stop removes the user's typing entry immediately.
func (t *TypingCoordinator) Stop(user string) {
	t.mu.Lock()
	entry, ok := t.entries[user]
	if !ok {
		t.mu.Unlock()
		return
	}
	entry.timer.Stop()
	delete(t.entries, user)
	channel := entry.channel
	set := t.typingInLocked(channel)
	t.mu.Unlock()

	t.notify(channel, set)
}

// expire runs on the timer goroutine. It only removes the entry it was
// armed for: if the user restarted typing since, the generation differs
// and the stale expiry leaves the fresh entry alone.
func (t *TypingCoordinator) expire(user string, gen uint64) {
	t.mu.Lock()
	entry, ok := t.entries[user]
	if !ok || entry.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.entries, user)
	channel := entry.channel
	set := t.typingInLocked(channel)
	t.mu.Unlock()

	t.notify(channel, set)
}

// TypingIn returns the identities currently typing in channel, sorted.
func (t *TypingCoordinator) TypingIn(channel string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typingInLocked(channel)
}

func (t *TypingCoordinator) typingInLocked(channel string) []string {
	set := make([]string, 0)
	for user, entry := range t.entries {
		if entry.channel == channel {
			set = append(set, user)
		}
	}
	sort.Strings(set)
	return set
}
