package core

// CommandKind describes what the client wants to do. The dispatcher
// switches over this closed set; one handler per kind.
type CommandKind int

const (
	// CommandSignup creates a durable identity without authenticating.
	CommandSignup CommandKind = iota
	// CommandLogin authenticates the session and joins "general".
	CommandLogin
	// CommandChat sends a text message to the current channel.
	CommandChat
	// CommandUploadFile stores an attachment and broadcasts it.
	CommandUploadFile
	// CommandSwitchChannel moves the session to another channel.
	CommandSwitchChannel
	// CommandCreateChannel adds a channel (admin only).
	CommandCreateChannel
	// CommandDeleteChannel removes a channel (admin only).
	CommandDeleteChannel
	// CommandGetUserProfile queries another user's profile.
	CommandGetUserProfile
	// CommandGetOwnProfile queries the requester's own profile.
	CommandGetOwnProfile
	// CommandUpdateAboutMe replaces the requester's about text.
	CommandUpdateAboutMe
	// CommandUpdateAvatar replaces or clears the requester's avatar.
	CommandUpdateAvatar
	// CommandUpdateEnrichment sets the requester's enrichment linkage.
	CommandUpdateEnrichment
	// CommandEditMessage rewrites a message's text.
	CommandEditMessage
	// CommandDeleteMessage removes a message.
	CommandDeleteMessage
	// CommandStartTyping arms the typing indicator.
	CommandStartTyping
	// CommandStopTyping clears the typing indicator.
	CommandStopTyping
	// CommandTogglePartyMode flips another user's party flag (admin only).
	CommandTogglePartyMode
)

// Command represents an action requested by a client. Only the fields
// relevant to Kind are set.
type Command struct {
	Kind CommandKind

	Username string
	Password string

	Text    string
	Channel string

	FileName string
	FileType string
	FileData []byte

	MessageID int64

	// ImageRef is the new avatar reference; ClearImage distinguishes an
	// explicit null (clear the avatar) from a missing field.
	ImageRef   string
	ClearImage bool

	TargetUser    string
	EnrichmentRef string
}
