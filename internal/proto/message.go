// Package proto defines the JSON envelopes exchanged over the WebSocket.
// Every frame is self-describing: a type discriminator plus a flat payload.
package proto

import "encoding/json"

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound frame types.
const (
	InboundSignup          = "signup"
	InboundLogin           = "login"
	InboundChat            = "chat"
	InboundUploadFile      = "upload-file"
	InboundSwitchChannel   = "switch-channel"
	InboundCreateChannel   = "create-channel"
	InboundDeleteChannel   = "delete-channel"
	InboundGetUserProfile  = "get-user-profile"
	InboundGetOwnProfile   = "get-own-profile"
	InboundUpdateAboutMe   = "update-about-me"
	InboundUpdateAvatar    = "update-profile-picture"
	InboundUpdateEnrich    = "update-enrichment"
	InboundEditMessage     = "edit-message"
	InboundDeleteMessage   = "delete-message"
	InboundStartTyping     = "start-typing"
	InboundStopTyping      = "stop-typing"
	InboundTogglePartyMode = "toggle-user-party-mode"
)

// Outbound frame types.
const (
	OutboundSignupResponse  = "signup-response"
	OutboundLoginResponse   = "login-response"
	OutboundHistory         = "history"
	OutboundChat            = "chat"
	OutboundChannelList     = "channel-list"
	OutboundUserProfile     = "user-profile-response"
	OutboundOwnProfile      = "own-profile-response"
	OutboundProfileUpdated  = "profile-updated"
	OutboundMessageEdited   = "message-edited"
	OutboundMessageDeleted  = "message-deleted"
	OutboundUserListUpdate  = "user-list-update"
	OutboundPartyModeUpdate = "party-mode-update"
	OutboundTypingUpdate    = "typing-update"
	OutboundError           = "error"
)

// CredentialsData carries signup and login payloads.
type CredentialsData struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChatData is a text message for the sender's current channel.
type ChatData struct {
	Text string `json:"text" validate:"required"`
}

// UploadFileData carries an attachment as base64-encoded bytes.
type UploadFileData struct {
	Name     string `json:"name" validate:"required"`
	FileType string `json:"fileType"`
	Data     string `json:"data" validate:"required,base64"`
	Text     string `json:"text"`
}

// ChannelData names a channel for switch/create/delete requests.
type ChannelData struct {
	Channel string `json:"channel" validate:"required"`
}

// UserData names another user for profile and moderation requests.
type UserData struct {
	Username string `json:"username" validate:"required"`
}

// AboutMeData carries the new about text.
type AboutMeData struct {
	Text string `json:"text"`
}

// AvatarData carries the new avatar reference; null clears it.
type AvatarData struct {
	ImageRef *string `json:"imageRef"`
}

// EnrichmentData carries the external stats linkage reference.
type EnrichmentData struct {
	Ref string `json:"ref" validate:"required"`
}

// EditMessageData rewrites an existing message.
type EditMessageData struct {
	ID      int64  `json:"id" validate:"required"`
	NewText string `json:"newText" validate:"required"`
}

// MessageIDData identifies a message for deletion.
type MessageIDData struct {
	ID int64 `json:"id" validate:"required"`
}

// Outbound is the envelope for frames sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// AttachmentInfo describes a file carried by a message.
type AttachmentInfo struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// MessageInfo is the wire form of a chat message.
type MessageInfo struct {
	ID          int64           `json:"id"`
	Channel     string          `json:"channel"`
	Sender      string          `json:"sender"`
	SenderLabel string          `json:"senderLabel,omitempty"`
	Text        string          `json:"text"`
	Attachment  *AttachmentInfo `json:"attachment,omitempty"`
	Edited      bool            `json:"edited"`
	TS          int64           `json:"ts"`
}

// SignupResponseData acknowledges account creation.
type SignupResponseData struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

// LoginResponseData reports the outcome of a login attempt.
type LoginResponseData struct {
	Success  bool   `json:"success"`
	Username string `json:"username,omitempty"`
	Admin    bool   `json:"admin"`
	Party    bool   `json:"party"`
	AboutMe  string `json:"aboutMe,omitempty"`
	ImageRef string `json:"imageRef,omitempty"`
	Token    string `json:"token,omitempty"`
}

// HistoryData delivers a channel's recent messages.
type HistoryData struct {
	Channel  string        `json:"channel"`
	Messages []MessageInfo `json:"messages"`
}

// ChannelListData lists all channels, "general" first.
type ChannelListData struct {
	Channels []string `json:"channels"`
}

// ProfileData answers profile queries.
type ProfileData struct {
	Username string `json:"username"`
	AboutMe  string `json:"aboutMe"`
	ImageRef string `json:"imageRef"`
	Party    bool   `json:"party"`
	Admin    bool   `json:"admin"`
	Online   bool   `json:"online"`
}

// ProfileUpdatedData announces an avatar change.
type ProfileUpdatedData struct {
	Username string `json:"username"`
	ImageRef string `json:"imageRef"`
}

// MessageEditedData announces a text edit.
type MessageEditedData struct {
	ID      int64  `json:"id"`
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// MessageDeletedData announces a removal.
type MessageDeletedData struct {
	ID      int64  `json:"id"`
	Channel string `json:"channel"`
}

// UserListUpdateData carries all identities and the online subset.
type UserListUpdateData struct {
	All    []string `json:"all"`
	Online []string `json:"online"`
}

// PartyModeUpdateData tells a session its party flag changed.
type PartyModeUpdateData struct {
	Active bool `json:"active"`
}

// TypingUpdateData carries the identities typing in a channel.
type TypingUpdateData struct {
	Channel string   `json:"channel"`
	Typing  []string `json:"typing"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
