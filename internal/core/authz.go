package core

import "github.com/relaychat/relaychat-server/internal/store"

// Action is the closed set of things a session can ask for. The gate
// switches over it exhaustively.
type Action int

const (
	ActionSignup Action = iota
	ActionLogin
	ActionChat
	ActionUploadFile
	ActionSwitchChannel
	ActionCreateChannel
	ActionDeleteChannel
	ActionGetProfile
	ActionUpdateProfile
	ActionUpdateEnrichment
	ActionEditMessage
	ActionDeleteMessage
	ActionTyping
	ActionTogglePartyMode
)

// Permits is the pure authorization gate. Unauthenticated sessions may only
// sign up or log in; admin-only actions additionally require the admin
// flag. Every handler consults this before any side effect.
func Permits(snap SessionSnapshot, action Action) bool {
	switch action {
	case ActionSignup, ActionLogin:
		return !snap.Authenticated
	case ActionCreateChannel, ActionDeleteChannel, ActionTogglePartyMode:
		return snap.Authenticated && snap.Admin
	case ActionChat, ActionUploadFile, ActionSwitchChannel, ActionGetProfile,
		ActionUpdateProfile, ActionUpdateEnrichment, ActionEditMessage,
		ActionDeleteMessage, ActionTyping:
		return snap.Authenticated
	default:
		return false
	}
}

// CanEditMessage allows editing only the session's own messages, and never
// attachment messages.
func CanEditMessage(snap SessionSnapshot, msg *store.Message) bool {
	return snap.User == msg.Sender && msg.Attachment == nil
}

// CanDeleteMessage allows deleting the session's own messages; admins may
// delete anyone's.
func CanDeleteMessage(snap SessionSnapshot, msg *store.Message) bool {
	return snap.User == msg.Sender || snap.Admin
}

// actionFor maps a command to the action the gate checks.
func actionFor(kind CommandKind) Action {
	switch kind {
	case CommandSignup:
		return ActionSignup
	case CommandLogin:
		return ActionLogin
	case CommandChat:
		return ActionChat
	case CommandUploadFile:
		return ActionUploadFile
	case CommandSwitchChannel:
		return ActionSwitchChannel
	case CommandCreateChannel:
		return ActionCreateChannel
	case CommandDeleteChannel:
		return ActionDeleteChannel
	case CommandGetUserProfile, CommandGetOwnProfile:
		return ActionGetProfile
	case CommandUpdateAboutMe, CommandUpdateAvatar:
		return ActionUpdateProfile
	case CommandUpdateEnrichment:
		return ActionUpdateEnrichment
	case CommandEditMessage:
		return ActionEditMessage
	case CommandDeleteMessage:
		return ActionDeleteMessage
	case CommandStartTyping, CommandStopTyping:
		return ActionTyping
	case CommandTogglePartyMode:
		return ActionTogglePartyMode
	default:
		return ActionChat
	}
}
