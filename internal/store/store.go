package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by all store implementations.
var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("record already exists")
)

// User is the durable account record. Usernames are stored lowercase;
// lookups are case-insensitive.
type User struct {
	ID            int64
	Username      string
	PasswordHash  string
	IsAdmin       bool
	PartyMode     bool
	AboutMe       string
	AvatarRef     string
	EnrichmentRef string
	CreatedAt     time.Time
}

// Attachment describes a file carried by a message.
type Attachment struct {
	URL         string
	Name        string
	ContentType string
	Size        int64
}

// Message is a persisted chat message. Attachment is nil for plain text.
type Message struct {
	ID         int64
	Channel    string
	Sender     string
	Text       string
	Attachment *Attachment
	Edited     bool
	CreatedAt  time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser inserts a new user. Returns ErrDuplicate on username clash.
	CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (*User, error)

	// GetUserByUsername retrieves a user by (lowercase) username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ListUsernames returns all usernames ordered alphabetically.
	ListUsernames(ctx context.Context) ([]string, error)

	// UpdateAboutMe replaces the user's about text.
	UpdateAboutMe(ctx context.Context, username, about string) error

	// UpdateAvatar replaces the user's avatar reference. Empty clears it.
	UpdateAvatar(ctx context.Context, username, ref string) error

	// UpdatePartyMode sets the user's party mode flag.
	UpdatePartyMode(ctx context.Context, username string, active bool) error

	// UpdateEnrichmentRef sets the user's external enrichment linkage.
	// Writing the same value again is not an error.
	UpdateEnrichmentRef(ctx context.Context, username, ref string) error
}

// ChannelStore handles channel persistence. Names are already normalized
// by the caller before they reach the store.
type ChannelStore interface {
	// CreateChannel inserts a channel. Returns ErrDuplicate if present.
	CreateChannel(ctx context.Context, name string) error

	// DeleteChannel removes a channel. Returns ErrNotFound if absent.
	DeleteChannel(ctx context.Context, name string) error

	// ListChannels returns all channel names ordered alphabetically.
	ListChannels(ctx context.Context) ([]string, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills in its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a single message by ID.
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// ListMessages returns up to limit most recent messages of a channel
	// in ascending creation order.
	ListMessages(ctx context.Context, channel string, limit int) ([]*Message, error)

	// UpdateMessageText replaces the text and marks the message edited.
	UpdateMessageText(ctx context.Context, id int64, text string) error

	// DeleteMessage removes a message. Returns ErrNotFound if absent.
	DeleteMessage(ctx context.Context, id int64) error

	// DeleteChannelMessages removes every message of a channel.
	DeleteChannelMessages(ctx context.Context, channel string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ChannelStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
