package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/relaychat/relaychat-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	username       TEXT NOT NULL UNIQUE,
	password_hash  TEXT NOT NULL,
	is_admin       BOOLEAN NOT NULL DEFAULT 0,
	party_mode     BOOLEAN NOT NULL DEFAULT 0,
	about_me       TEXT NOT NULL DEFAULT '',
	avatar_ref     TEXT NOT NULL DEFAULT '',
	enrichment_ref TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS channels (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	channel         TEXT NOT NULL,
	sender          TEXT NOT NULL,
	body            TEXT NOT NULL DEFAULT '',
	attachment_url  TEXT,
	attachment_name TEXT,
	attachment_type TEXT,
	attachment_size INTEGER,
	edited          BOOLEAN NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel, id);
`

// New opens (and if necessary creates) the database at dbPath and applies
// the schema. Use ":memory:" for an ephemeral database in tests.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// mapErr converts driver-level errors into store sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return store.ErrDuplicate
	}
	return err
}

// ==== UserStore implementation ====

// CreateUser inserts a new user.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_admin)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, username, passwordHash, isAdmin); err != nil {
		if mapped := mapErr(err); errors.Is(mapped, store.ErrDuplicate) {
			return nil, store.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUserByUsername(ctx, username)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_admin, party_mode,
		       about_me, avatar_ref, enrichment_ref, created_at
		FROM users
		WHERE username = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.PartyMode,
		&user.AboutMe,
		&user.AvatarRef,
		&user.EnrichmentRef,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// ListUsernames returns all usernames ordered alphabetically.
func (s *SQLiteStore) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("query usernames: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// UpdateAboutMe replaces the user's about text.
func (s *SQLiteStore) UpdateAboutMe(ctx context.Context, username, about string) error {
	return s.updateUserField(ctx, `UPDATE users SET about_me = ? WHERE username = ?`, about, username)
}

// UpdateAvatar replaces the user's avatar reference.
func (s *SQLiteStore) UpdateAvatar(ctx context.Context, username, ref string) error {
	return s.updateUserField(ctx, `UPDATE users SET avatar_ref = ? WHERE username = ?`, ref, username)
}

// UpdatePartyMode sets the user's party mode flag.
func (s *SQLiteStore) UpdatePartyMode(ctx context.Context, username string, active bool) error {
	return s.updateUserField(ctx, `UPDATE users SET party_mode = ? WHERE username = ?`, active, username)
}

// UpdateEnrichmentRef sets the user's enrichment linkage. Rewriting the
// same value reports success, matching the idempotent contract.
func (s *SQLiteStore) UpdateEnrichmentRef(ctx context.Context, username, ref string) error {
	return s.updateUserField(ctx, `UPDATE users SET enrichment_ref = ? WHERE username = ?`, ref, username)
}

func (s *SQLiteStore) updateUserField(ctx context.Context, query string, value any, username string) error {
	res, err := s.db.ExecContext(ctx, query, value, username)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ==== ChannelStore implementation ====

// CreateChannel inserts a channel.
func (s *SQLiteStore) CreateChannel(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO channels (name) VALUES (?)`, name); err != nil {
		if mapped := mapErr(err); errors.Is(mapped, store.ErrDuplicate) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

// DeleteChannel removes a channel.
func (s *SQLiteStore) DeleteChannel(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListChannels returns all channel names ordered alphabetically.
func (s *SQLiteStore) ListChannels(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM channels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ==== MessageStore implementation ====

// SaveMessage persists a message and fills in its ID.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (channel, sender, body, attachment_url, attachment_name, attachment_type, attachment_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	var url, name, typ *string
	var size *int64
	if msg.Attachment != nil {
		url = &msg.Attachment.URL
		name = &msg.Attachment.Name
		typ = &msg.Attachment.ContentType
		size = &msg.Attachment.Size
	}
	res, err := s.db.ExecContext(ctx, query, msg.Channel, msg.Sender, msg.Text, url, name, typ, size, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id
	return nil
}

// GetMessage retrieves a single message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	query := `
		SELECT id, channel, sender, body, attachment_url, attachment_name, attachment_type, attachment_size, edited, created_at
		FROM messages
		WHERE id = ?
	`
	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return msg, nil
}

// ListMessages returns up to limit most recent messages in ascending order.
func (s *SQLiteStore) ListMessages(ctx context.Context, channel string, limit int) ([]*store.Message, error) {
	query := `
		SELECT id, channel, sender, body, attachment_url, attachment_name, attachment_type, attachment_size, edited, created_at
		FROM (
			SELECT * FROM messages WHERE channel = ? ORDER BY id DESC LIMIT ?
		)
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, channel, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]*store.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// UpdateMessageText replaces the text and marks the message edited.
func (s *SQLiteStore) UpdateMessageText(ctx context.Context, id int64, text string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE messages SET body = ?, edited = 1 WHERE id = ?`, text, id)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteMessage removes a message.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteChannelMessages removes every message of a channel.
func (s *SQLiteStore) DeleteChannelMessages(ctx context.Context, channel string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE channel = ?`, channel); err != nil {
		return fmt.Errorf("delete channel messages: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*store.Message, error) {
	var (
		msg  store.Message
		url  sql.NullString
		name sql.NullString
		typ  sql.NullString
		size sql.NullInt64
	)
	err := row.Scan(
		&msg.ID,
		&msg.Channel,
		&msg.Sender,
		&msg.Text,
		&url,
		&name,
		&typ,
		&size,
		&msg.Edited,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if url.Valid {
		msg.Attachment = &store.Attachment{
			URL:         url.String,
			Name:        name.String,
			ContentType: typ.String,
			Size:        size.Int64,
		}
	}
	return &msg, nil
}
