package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/relaychat/relaychat-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when signing up with a taken username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidUsername is returned when a username fails constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrWeakPassword is returned when a password fails the entropy check.
	ErrWeakPassword = errors.New("password too weak")
)

// Service provides signup and login over the user store.
type Service struct {
	store          store.UserStore
	jwtConfig      *JWTConfig
	bootstrapAdmin string
}

// NewService creates a new authentication service. bootstrapAdmin names the
// one username that is granted the admin flag at signup; empty disables it.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig, bootstrapAdmin string) *Service {
	return &Service{
		store:          userStore,
		jwtConfig:      jwtConfig,
		bootstrapAdmin: NormalizeUsername(bootstrapAdmin),
	}
}

// NormalizeUsername trims and lowercases a username. Identities are
// case-insensitive; the lowercase form is canonical everywhere.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Signup creates a durable user record. It does not authenticate anything:
// the caller still has to log in afterwards.
func (s *Service) Signup(ctx context.Context, username, password string) (*store.User, error) {
	username = NormalizeUsername(username)
	if len(username) < 3 || len(username) > 32 || strings.ContainsAny(username, " \t\n") {
		return nil, ErrInvalidUsername
	}
	if err := CheckPasswordStrength(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	isAdmin := s.bootstrapAdmin != "" && username == s.bootstrapAdmin
	user, err := s.store.CreateUser(ctx, username, hash, isAdmin)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and returns the user plus a signed JWT.
// Only an unknown username or a password mismatch count as bad
// credentials; a failing store surfaces as-is.
func (s *Service) Login(ctx context.Context, username, password string) (*store.User, string, error) {
	user, err := s.store.GetUserByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return user, token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
