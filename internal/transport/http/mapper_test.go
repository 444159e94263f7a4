package http

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaychat/relaychat-server/internal/core"
	"github.com/relaychat/relaychat-server/internal/proto"
	"github.com/relaychat/relaychat-server/internal/store"
)

func TestInboundToCommand_Chat(t *testing.T) {
	cmd, perr := inboundToCommand(proto.Inbound{
		Type: proto.InboundChat,
		Data: json.RawMessage(`{"text":"hello"}`),
	})
	require.Nil(t, perr)
	assert.Equal(t, core.CommandChat, cmd.Kind)
	assert.Equal(t, "hello", cmd.Text)
}

func TestInboundToCommand_MissingFieldIsValidationError(t *testing.T) {
	_, perr := inboundToCommand(proto.Inbound{
		Type: proto.InboundChat,
		Data: json.RawMessage(`{}`),
	})
	require.NotNil(t, perr)
	assert.Equal(t, core.ErrCodeValidation, perr.Code)
}

func TestInboundToCommand_MalformedJSONIsProtocolError(t *testing.T) {
	_, perr := inboundToCommand(proto.Inbound{
		Type: proto.InboundLogin,
		Data: json.RawMessage(`{"username":`),
	})
	require.NotNil(t, perr)
	assert.Equal(t, core.ErrCodeProtocol, perr.Code)
}

func TestInboundToCommand_UnknownTypeIsProtocolError(t *testing.T) {
	_, perr := inboundToCommand(proto.Inbound{Type: "self-destruct"})
	require.NotNil(t, perr)
	assert.Equal(t, core.ErrCodeProtocol, perr.Code)
}

func TestInboundToCommand_UploadDecodesBase64(t *testing.T) {
	cmd, perr := inboundToCommand(proto.Inbound{
		Type: proto.InboundUploadFile,
		Data: json.RawMessage(`{"name":"pic.png","data":"aGVsbG8="}`),
	})
	require.Nil(t, perr)
	assert.Equal(t, core.CommandUploadFile, cmd.Kind)
	assert.Equal(t, "pic.png", cmd.FileName)
	assert.Equal(t, []byte("hello"), cmd.FileData)
}

func TestInboundToCommand_UploadRejectsBadBase64(t *testing.T) {
	_, perr := inboundToCommand(proto.Inbound{
		Type: proto.InboundUploadFile,
		Data: json.RawMessage(`{"name":"pic.png","data":"%%%not-base64%%%"}`),
	})
	require.NotNil(t, perr)
	assert.Equal(t, core.ErrCodeValidation, perr.Code)
}

func TestInboundToCommand_AvatarNullClearsImage(t *testing.T) {
	cmd, perr := inboundToCommand(proto.Inbound{
		Type: proto.InboundUpdateAvatar,
		Data: json.RawMessage(`{"imageRef":null}`),
	})
	require.Nil(t, perr)
	assert.True(t, cmd.ClearImage)
	assert.Empty(t, cmd.ImageRef)

	cmd, perr = inboundToCommand(proto.Inbound{
		Type: proto.InboundUpdateAvatar,
		Data: json.RawMessage(`{"imageRef":"avatars/cat"}`),
	})
	require.Nil(t, perr)
	assert.False(t, cmd.ClearImage)
	assert.Equal(t, "avatars/cat", cmd.ImageRef)
}

func TestInboundToCommand_EditMessage(t *testing.T) {
	cmd, perr := inboundToCommand(proto.Inbound{
		Type: proto.InboundEditMessage,
		Data: json.RawMessage(`{"id":7,"newText":"fixed"}`),
	})
	require.Nil(t, perr)
	assert.Equal(t, core.CommandEditMessage, cmd.Kind)
	assert.Equal(t, int64(7), cmd.MessageID)
	assert.Equal(t, "fixed", cmd.Text)
}

func TestOutboundFromEvent_ChatCarriesAttachmentAndLabel(t *testing.T) {
	created := time.Unix(1700000000, 0).UTC()
	out := outboundFromEvent(&core.Event{
		Kind: core.EventChatMessage,
		Message: &core.MessagePayload{
			ID:          3,
			Channel:     "general",
			Sender:      "alice",
			SenderLabel: "Level 9 Wizard",
			Attachment: &store.Attachment{
				URL:         "/files/x.png",
				Name:        "x.png",
				ContentType: "image/png",
				Size:        99,
			},
			CreatedAt: created,
		},
	})
	assert.Equal(t, proto.OutboundChat, out.Type)

	info, ok := out.Data.(proto.MessageInfo)
	require.True(t, ok)
	assert.Equal(t, int64(3), info.ID)
	assert.Equal(t, "Level 9 Wizard", info.SenderLabel)
	assert.Equal(t, created.Unix(), info.TS)
	require.NotNil(t, info.Attachment)
	assert.Equal(t, "/files/x.png", info.Attachment.URL)
}

func TestOutboundFromEvent_LoginResponseCarriesToken(t *testing.T) {
	out := outboundFromEvent(&core.Event{
		Kind: core.EventLoginResponse,
		Login: &core.LoginInfo{
			Success:  true,
			Username: "alice",
			Token:    "jwt-token",
		},
	})
	assert.Equal(t, proto.OutboundLoginResponse, out.Type)

	data, ok := out.Data.(proto.LoginResponseData)
	require.True(t, ok)
	assert.True(t, data.Success)
	assert.Equal(t, "alice", data.Username)
	assert.Equal(t, "jwt-token", data.Token)
}

func TestOutboundFromEvent_Error(t *testing.T) {
	out := outboundFromEvent(&core.Event{
		Kind: core.EventError,
		Err:  &core.RelayError{Code: core.ErrCodeNotFound, Message: "no such message"},
	})
	assert.Equal(t, proto.OutboundError, out.Type)
	require.NotNil(t, out.Error)
	assert.Equal(t, core.ErrCodeNotFound, out.Error.Code)

	raw, err := json.Marshal(out.Error)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"not_found","message":"no such message"}`, string(raw))
}

func TestOutboundFromEvent_TypingUpdate(t *testing.T) {
	out := outboundFromEvent(&core.Event{
		Kind:    core.EventTypingUpdate,
		Channel: "general",
		Typing:  []string{"alice", "bob"},
	})
	assert.Equal(t, proto.OutboundTypingUpdate, out.Type)

	data, ok := out.Data.(proto.TypingUpdateData)
	require.True(t, ok)
	assert.Equal(t, "general", data.Channel)
	assert.Equal(t, []string{"alice", "bob"}, data.Typing)
}
