package core

import (
	"time"

	"github.com/relaychat/relaychat-server/internal/store"
)

// EventKind is a notification the core emits to sessions.
type EventKind int

const (
	// EventSignupResponse acknowledges account creation.
	EventSignupResponse EventKind = iota
	// EventLoginResponse reports the outcome of a login attempt.
	EventLoginResponse
	// EventHistory delivers a channel's message history snapshot.
	EventHistory
	// EventChatMessage carries one chat or attachment message.
	EventChatMessage
	// EventChannelList carries the full channel name list, "general" first.
	EventChannelList
	// EventUserProfile answers a profile query for another user.
	EventUserProfile
	// EventOwnProfile answers a profile query for the requester.
	EventOwnProfile
	// EventProfileUpdated announces an avatar change to everyone.
	EventProfileUpdated
	// EventMessageEdited announces a text edit to the message's channel.
	EventMessageEdited
	// EventMessageDeleted announces a removal to the message's channel.
	EventMessageDeleted
	// EventUserList carries all known identities plus the online subset.
	EventUserList
	// EventPartyMode tells a specific session its party flag changed.
	EventPartyMode
	// EventTypingUpdate carries the set of identities typing in a channel.
	EventTypingUpdate
	// EventError reports a RelayError to the requester only.
	EventError
)

// MessagePayload is the broadcast projection of a message. SenderLabel is
// derived from the enrichment lookup and never persisted.
type MessagePayload struct {
	ID          int64
	Channel     string
	Sender      string
	SenderLabel string
	Text        string
	Attachment  *store.Attachment
	Edited      bool
	CreatedAt   time.Time
}

// LoginInfo is the payload of a login response.
type LoginInfo struct {
	Success  bool
	Username string
	Admin    bool
	Party    bool
	AboutMe  string
	Avatar   string
	Token    string
}

// ProfileInfo is the payload of profile responses.
type ProfileInfo struct {
	Username string
	AboutMe  string
	Avatar   string
	Party    bool
	Admin    bool
	Online   bool
}

// UserListInfo carries the full identity list and the online subset.
type UserListInfo struct {
	All    []string
	Online []string
}

// Event is sent to sessions to describe what happened in the system.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind        EventKind
	Channel     string
	User        string
	Message     *MessagePayload
	Messages    []MessagePayload
	Channels    []string
	Login       *LoginInfo
	Profile     *ProfileInfo
	Users       *UserListInfo
	Typing      []string
	MessageID   int64
	Text        string
	ImageRef    string
	PartyActive bool
	Err         *RelayError
}

func errorEvent(err *RelayError) *Event {
	return &Event{Kind: EventError, Err: err}
}
