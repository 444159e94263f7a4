package core

import (
	"testing"

	"github.com/relaychat/relaychat-server/internal/store"
)

func TestPermits(t *testing.T) {
	anonymous := SessionSnapshot{ID: "c1"}
	user := SessionSnapshot{ID: "c2", User: "alice", Channel: GeneralChannel, Authenticated: true}
	admin := SessionSnapshot{ID: "c3", User: "root", Channel: GeneralChannel, Admin: true, Authenticated: true}

	tests := []struct {
		name   string
		snap   SessionSnapshot
		action Action
		want   bool
	}{
		{"anonymous can sign up", anonymous, ActionSignup, true},
		{"anonymous can log in", anonymous, ActionLogin, true},
		{"anonymous cannot chat", anonymous, ActionChat, false},
		{"anonymous cannot type", anonymous, ActionTyping, false},
		{"anonymous cannot read profiles", anonymous, ActionGetProfile, false},
		{"user cannot re-login", user, ActionLogin, false},
		{"user can chat", user, ActionChat, true},
		{"user can upload", user, ActionUploadFile, true},
		{"user can switch channels", user, ActionSwitchChannel, true},
		{"user can update profile", user, ActionUpdateProfile, true},
		{"user can edit messages", user, ActionEditMessage, true},
		{"user cannot create channels", user, ActionCreateChannel, false},
		{"user cannot delete channels", user, ActionDeleteChannel, false},
		{"user cannot toggle party mode", user, ActionTogglePartyMode, false},
		{"admin can create channels", admin, ActionCreateChannel, true},
		{"admin can delete channels", admin, ActionDeleteChannel, true},
		{"admin can toggle party mode", admin, ActionTogglePartyMode, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Permits(tt.snap, tt.action); got != tt.want {
				t.Fatalf("Permits(%+v, %v) = %v, want %v", tt.snap, tt.action, got, tt.want)
			}
		})
	}
}

func TestCanEditMessage(t *testing.T) {
	alice := SessionSnapshot{User: "alice", Authenticated: true}
	admin := SessionSnapshot{User: "root", Admin: true, Authenticated: true}

	own := &store.Message{Sender: "alice", Text: "hi"}
	foreign := &store.Message{Sender: "bob", Text: "yo"}
	withFile := &store.Message{Sender: "alice", Attachment: &store.Attachment{URL: "/files/x.png"}}

	if !CanEditMessage(alice, own) {
		t.Fatalf("owner should edit their own text message")
	}
	if CanEditMessage(alice, foreign) {
		t.Fatalf("editing someone else's message must be denied")
	}
	if CanEditMessage(alice, withFile) {
		t.Fatalf("attachment messages are never editable")
	}
	if CanEditMessage(admin, foreign) {
		t.Fatalf("admins do not get edit rights on foreign messages")
	}
}

func TestCanDeleteMessage(t *testing.T) {
	alice := SessionSnapshot{User: "alice", Authenticated: true}
	admin := SessionSnapshot{User: "root", Admin: true, Authenticated: true}

	own := &store.Message{Sender: "alice"}
	foreign := &store.Message{Sender: "bob"}

	if !CanDeleteMessage(alice, own) {
		t.Fatalf("owner should delete their own message")
	}
	if CanDeleteMessage(alice, foreign) {
		t.Fatalf("non-admin cannot delete foreign messages")
	}
	if !CanDeleteMessage(admin, foreign) {
		t.Fatalf("admin should delete any message")
	}
}
