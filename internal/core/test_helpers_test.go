package core

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/relaychat/relaychat-server/internal/auth"
	"github.com/relaychat/relaychat-server/internal/blob"
	"github.com/relaychat/relaychat-server/internal/store"
	"github.com/relaychat/relaychat-server/internal/store/sqlite"
)

// newTestHub builds a hub over an in-memory database. The username "root"
// is the bootstrap admin.
func newTestHub(t *testing.T) *Hub {
	return newTestHubWith(t, nil)
}

// newTestHubWith lets a test interpose on the store (fault injection,
// lock assertions) before the hub and auth service are built over it.
func newTestHubWith(t *testing.T, wrapStore func(store.Store) store.Store) *Hub {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	var backing store.Store = st
	if wrapStore != nil {
		backing = wrapStore(st)
	}

	authService := auth.NewService(backing, &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}, "root")

	sink, err := blob.NewFSSink(afero.NewMemMapFs(), "uploads", "")
	if err != nil {
		t.Fatalf("create blob sink: %v", err)
	}

	logger := zerolog.Nop()
	return NewHub(HubOptions{
		Store:     backing,
		Auth:      authService,
		Blobs:     sink,
		Logger:    &logger,
		TypingTTL: 100 * time.Millisecond,
	})
}

const testPassword = "tr0ub4dor-and-3-staples"

// connectAs registers a fresh session and takes it through signup+login.
func connectAs(t *testing.T, h *Hub, username string) *Session {
	t.Helper()

	sess := NewSession("conn-" + username)
	h.Register(sess)

	h.Dispatch(context.Background(), sess, &Command{Kind: CommandSignup, Username: username, Password: testPassword})
	h.Dispatch(context.Background(), sess, &Command{Kind: CommandLogin, Username: username, Password: testPassword})

	ev := mustEvent(t, sess.Events, EventLoginResponse)
	if ev.Login == nil || !ev.Login.Success {
		t.Fatalf("login failed for %s: %+v", username, ev)
	}
	return sess
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent drains ch for the given window and fails if kind shows up.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, window time.Duration) {
	t.Helper()

	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v received: %+v", kind, ev)
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func drain(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
