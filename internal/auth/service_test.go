package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/relaychat/relaychat-server/internal/store"
	"github.com/relaychat/relaychat-server/internal/store/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
	return NewService(st, jwtConfig, "root")
}

const strongPassword = "tr0ub4dor-and-3-staples"

func TestSignup_RejectsInvalidUsername(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Signup(context.Background(), "ab", strongPassword); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
	// Validated after trimming whitespace.
	if _, err := svc.Signup(context.Background(), " ab ", strongPassword); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
}

func TestSignup_RejectsWeakPassword(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Signup(context.Background(), "alice", "aaaa"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestSignup_NormalizesUsernameAndDetectsDuplicates(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.Signup(context.Background(), " Alice ", strongPassword)
	if err != nil {
		t.Fatalf("expected signup success, got %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("expected lowercase canonical username, got %q", user.Username)
	}

	// Identities are case-insensitive, so ALICE collides with alice.
	if _, err := svc.Signup(context.Background(), "ALICE", strongPassword); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestSignup_BootstrapAdminGetsAdminFlag(t *testing.T) {
	svc := newTestService(t)

	root, err := svc.Signup(context.Background(), "root", strongPassword)
	if err != nil {
		t.Fatalf("signup root: %v", err)
	}
	if !root.IsAdmin {
		t.Fatalf("bootstrap admin should carry the admin flag")
	}

	alice, err := svc.Signup(context.Background(), "alice", strongPassword)
	if err != nil {
		t.Fatalf("signup alice: %v", err)
	}
	if alice.IsAdmin {
		t.Fatalf("ordinary signup must not be admin")
	}
}

func TestLogin_TokenRoundTrip(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Signup(context.Background(), "alice", strongPassword); err != nil {
		t.Fatalf("signup: %v", err)
	}

	user, token, err := svc.Login(context.Background(), "Alice", strongPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Username != "alice" || token == "" {
		t.Fatalf("unexpected login result: %q %q", user.Username, token)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Username != "alice" || claims.IsAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

// brokenUserStore fails every call with the configured error.
type brokenUserStore struct{ err error }

func (b brokenUserStore) CreateUser(context.Context, string, string, bool) (*store.User, error) {
	return nil, b.err
}

func (b brokenUserStore) GetUserByUsername(context.Context, string) (*store.User, error) {
	return nil, b.err
}

func (b brokenUserStore) ListUsernames(context.Context) ([]string, error) { return nil, b.err }
func (b brokenUserStore) UpdateAboutMe(context.Context, string, string) error { return b.err }
func (b brokenUserStore) UpdateAvatar(context.Context, string, string) error { return b.err }
func (b brokenUserStore) UpdatePartyMode(context.Context, string, bool) error { return b.err }
func (b brokenUserStore) UpdateEnrichmentRef(context.Context, string, string) error { return b.err }

func TestLogin_StoreFailureIsNotBadCredentials(t *testing.T) {
	driverErr := errors.New("database is locked")
	svc := NewService(brokenUserStore{err: driverErr}, &JWTConfig{
		Secret: []byte("test-secret-change-me"),
		TTL:    time.Hour,
	}, "")

	_, _, err := svc.Login(context.Background(), "alice", strongPassword)
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("store failure must not read as bad credentials: %v", err)
	}
	if !errors.Is(err, driverErr) {
		t.Fatalf("expected the driver error to propagate wrapped, got %v", err)
	}
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Signup(context.Background(), "alice", strongPassword); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody", strongPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
