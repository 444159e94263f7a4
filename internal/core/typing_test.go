package core

import (
	"sync"
	"testing"
	"time"
)

type typingRecorder struct {
	mu    sync.Mutex
	calls []struct {
		channel string
		typing  []string
	}
}

func (r *typingRecorder) notify(channel string, typing []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, struct {
		channel string
		typing  []string
	}{channel, typing})
}

func (r *typingRecorder) last() (string, []string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return "", nil, false
	}
	call := r.calls[len(r.calls)-1]
	return call.channel, call.typing, true
}

func TestTypingExpiresAfterQuietWindow(t *testing.T) {
	rec := &typingRecorder{}
	tc := NewTypingCoordinator(80*time.Millisecond, rec.notify)

	tc.Start("alice", "general")
	if set := tc.TypingIn("general"); len(set) != 1 || set[0] != "alice" {
		t.Fatalf("expected alice typing, got %v", set)
	}

	time.Sleep(160 * time.Millisecond)
	if set := tc.TypingIn("general"); len(set) != 0 {
		t.Fatalf("entry should have expired, got %v", set)
	}

	channel, typing, ok := rec.last()
	if !ok || channel != "general" || len(typing) != 0 {
		t.Fatalf("expiry should announce the empty set, got %q %v", channel, typing)
	}
}

func TestTypingRestartResetsTheWindow(t *testing.T) {
	tc := NewTypingCoordinator(120*time.Millisecond, func(string, []string) {})

	tc.Start("alice", "general")
	time.Sleep(60 * time.Millisecond)
	tc.Start("alice", "general")

	// Past the first window but inside the second: still typing.
	time.Sleep(80 * time.Millisecond)
	if set := tc.TypingIn("general"); len(set) != 1 {
		t.Fatalf("restart must reset the window, got %v", set)
	}

	// Past the second window: gone.
	time.Sleep(120 * time.Millisecond)
	if set := tc.TypingIn("general"); len(set) != 0 {
		t.Fatalf("entry should have expired after the reset window, got %v", set)
	}
}

func TestTypingStopRemovesImmediately(t *testing.T) {
	rec := &typingRecorder{}
	tc := NewTypingCoordinator(time.Minute, rec.notify)

	tc.Start("alice", "general")
	tc.Stop("alice")

	if set := tc.TypingIn("general"); len(set) != 0 {
		t.Fatalf("stop should remove the entry, got %v", set)
	}
	channel, typing, ok := rec.last()
	if !ok || channel != "general" || len(typing) != 0 {
		t.Fatalf("stop should announce the empty set, got %q %v", channel, typing)
	}
}

func TestTypingStartInNewChannelMovesTheEntry(t *testing.T) {
	tc := NewTypingCoordinator(time.Minute, func(string, []string) {})

	tc.Start("alice", "general")
	tc.Start("alice", "dev-team")

	if set := tc.TypingIn("general"); len(set) != 0 {
		t.Fatalf("old channel should be empty, got %v", set)
	}
	if set := tc.TypingIn("dev-team"); len(set) != 1 {
		t.Fatalf("entry should have moved, got %v", set)
	}
}

func TestTypingRefreshDoesNotNotify(t *testing.T) {
	rec := &typingRecorder{}
	tc := NewTypingCoordinator(time.Minute, rec.notify)

	tc.Start("alice", "general")
	tc.Start("alice", "general")
	tc.Start("alice", "general")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) != 1 {
		t.Fatalf("pure refreshes must not re-announce, got %d calls", len(rec.calls))
	}
}

func TestStaleExpiryDoesNotEraseFreshEntry(t *testing.T) {
	tc := NewTypingCoordinator(50*time.Millisecond, func(string, []string) {})

	tc.Start("alice", "general")
	entry := tc.entries["alice"]

	// Simulate the old timer firing after a restart already replaced the
	// entry: the stale generation must leave the fresh entry alone.
	tc.Start("alice", "general")
	tc.expire("alice", entry.gen)

	if set := tc.TypingIn("general"); len(set) != 1 {
		t.Fatalf("stale expiry erased the fresh entry: %v", set)
	}
}
