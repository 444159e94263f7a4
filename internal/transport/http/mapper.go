package http

import (
	"encoding/base64"
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/relaychat/relaychat-server/internal/core"
	"github.com/relaychat/relaychat-server/internal/proto"
)

var validate = validator.New()

func protocolError() *proto.Error {
	return &proto.Error{Code: core.ErrCodeProtocol, Message: "malformed frame"}
}

func validationError(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeValidation, Message: msg}
}

// decode unmarshals and validates an inbound payload into dst.
func decode(data json.RawMessage, dst any) *proto.Error {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return protocolError()
	}
	if err := validate.Struct(dst); err != nil {
		return validationError("missing or malformed fields")
	}
	return nil
}

// inboundToCommand maps a wire frame onto a dispatcher command. A non-nil
// proto.Error means the frame was rejected locally; the connection stays up.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundSignup, proto.InboundLogin:
		var creds proto.CredentialsData
		if perr := decode(inbound.Data, &creds); perr != nil {
			return nil, perr
		}
		kind := core.CommandSignup
		if inbound.Type == proto.InboundLogin {
			kind = core.CommandLogin
		}
		return &core.Command{Kind: kind, Username: creds.Username, Password: creds.Password}, nil

	case proto.InboundChat:
		var chat proto.ChatData
		if perr := decode(inbound.Data, &chat); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandChat, Text: chat.Text}, nil

	case proto.InboundUploadFile:
		var upload proto.UploadFileData
		if perr := decode(inbound.Data, &upload); perr != nil {
			return nil, perr
		}
		raw, err := base64.StdEncoding.DecodeString(upload.Data)
		if err != nil {
			return nil, validationError("file data is not valid base64")
		}
		return &core.Command{
			Kind:     core.CommandUploadFile,
			FileName: upload.Name,
			FileType: upload.FileType,
			FileData: raw,
			Text:     upload.Text,
		}, nil

	case proto.InboundSwitchChannel:
		var ch proto.ChannelData
		if perr := decode(inbound.Data, &ch); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandSwitchChannel, Channel: ch.Channel}, nil

	case proto.InboundCreateChannel:
		var ch proto.ChannelData
		if perr := decode(inbound.Data, &ch); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandCreateChannel, Channel: ch.Channel}, nil

	case proto.InboundDeleteChannel:
		var ch proto.ChannelData
		if perr := decode(inbound.Data, &ch); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandDeleteChannel, Channel: ch.Channel}, nil

	case proto.InboundGetUserProfile:
		var user proto.UserData
		if perr := decode(inbound.Data, &user); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandGetUserProfile, Username: user.Username}, nil

	case proto.InboundGetOwnProfile:
		return &core.Command{Kind: core.CommandGetOwnProfile}, nil

	case proto.InboundUpdateAboutMe:
		var about proto.AboutMeData
		if perr := decode(inbound.Data, &about); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandUpdateAboutMe, Text: about.Text}, nil

	case proto.InboundUpdateAvatar:
		var avatar proto.AvatarData
		if perr := decode(inbound.Data, &avatar); perr != nil {
			return nil, perr
		}
		cmd := &core.Command{Kind: core.CommandUpdateAvatar}
		if avatar.ImageRef == nil {
			cmd.ClearImage = true
		} else {
			cmd.ImageRef = *avatar.ImageRef
		}
		return cmd, nil

	case proto.InboundUpdateEnrich:
		var enrichment proto.EnrichmentData
		if perr := decode(inbound.Data, &enrichment); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandUpdateEnrichment, EnrichmentRef: enrichment.Ref}, nil

	case proto.InboundEditMessage:
		var edit proto.EditMessageData
		if perr := decode(inbound.Data, &edit); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandEditMessage, MessageID: edit.ID, Text: edit.NewText}, nil

	case proto.InboundDeleteMessage:
		var del proto.MessageIDData
		if perr := decode(inbound.Data, &del); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandDeleteMessage, MessageID: del.ID}, nil

	case proto.InboundStartTyping:
		return &core.Command{Kind: core.CommandStartTyping}, nil

	case proto.InboundStopTyping:
		return &core.Command{Kind: core.CommandStopTyping}, nil

	case proto.InboundTogglePartyMode:
		var user proto.UserData
		if perr := decode(inbound.Data, &user); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandTogglePartyMode, TargetUser: user.Username}, nil

	default:
		return nil, protocolError()
	}
}

func messageInfo(payload core.MessagePayload) proto.MessageInfo {
	info := proto.MessageInfo{
		ID:          payload.ID,
		Channel:     payload.Channel,
		Sender:      payload.Sender,
		SenderLabel: payload.SenderLabel,
		Text:        payload.Text,
		Edited:      payload.Edited,
		TS:          payload.CreatedAt.Unix(),
	}
	if payload.Attachment != nil {
		info.Attachment = &proto.AttachmentInfo{
			URL:         payload.Attachment.URL,
			Name:        payload.Attachment.Name,
			ContentType: payload.Attachment.ContentType,
			Size:        payload.Attachment.Size,
		}
	}
	return info
}

// outboundFromEvent maps a core event onto its wire frame.
func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventSignupResponse:
		return proto.Outbound{Type: proto.OutboundSignupResponse, Data: proto.SignupResponseData{
			Success:  true,
			Username: event.User,
		}}
	case core.EventLoginResponse:
		data := proto.LoginResponseData{}
		if event.Login != nil {
			data = proto.LoginResponseData{
				Success:  event.Login.Success,
				Username: event.Login.Username,
				Admin:    event.Login.Admin,
				Party:    event.Login.Party,
				AboutMe:  event.Login.AboutMe,
				ImageRef: event.Login.Avatar,
				Token:    event.Login.Token,
			}
		}
		return proto.Outbound{Type: proto.OutboundLoginResponse, Data: data}
	case core.EventHistory:
		messages := make([]proto.MessageInfo, 0, len(event.Messages))
		for _, payload := range event.Messages {
			messages = append(messages, messageInfo(payload))
		}
		return proto.Outbound{Type: proto.OutboundHistory, Data: proto.HistoryData{
			Channel:  event.Channel,
			Messages: messages,
		}}
	case core.EventChatMessage:
		if event.Message == nil {
			return proto.Outbound{Type: proto.OutboundChat}
		}
		return proto.Outbound{Type: proto.OutboundChat, Data: messageInfo(*event.Message)}
	case core.EventChannelList:
		return proto.Outbound{Type: proto.OutboundChannelList, Data: proto.ChannelListData{Channels: event.Channels}}
	case core.EventUserProfile, core.EventOwnProfile:
		typ := proto.OutboundUserProfile
		if event.Kind == core.EventOwnProfile {
			typ = proto.OutboundOwnProfile
		}
		data := proto.ProfileData{}
		if event.Profile != nil {
			data = proto.ProfileData{
				Username: event.Profile.Username,
				AboutMe:  event.Profile.AboutMe,
				ImageRef: event.Profile.Avatar,
				Party:    event.Profile.Party,
				Admin:    event.Profile.Admin,
				Online:   event.Profile.Online,
			}
		}
		return proto.Outbound{Type: typ, Data: data}
	case core.EventProfileUpdated:
		return proto.Outbound{Type: proto.OutboundProfileUpdated, Data: proto.ProfileUpdatedData{
			Username: event.User,
			ImageRef: event.ImageRef,
		}}
	case core.EventMessageEdited:
		return proto.Outbound{Type: proto.OutboundMessageEdited, Data: proto.MessageEditedData{
			ID:      event.MessageID,
			Channel: event.Channel,
			Text:    event.Text,
		}}
	case core.EventMessageDeleted:
		return proto.Outbound{Type: proto.OutboundMessageDeleted, Data: proto.MessageDeletedData{
			ID:      event.MessageID,
			Channel: event.Channel,
		}}
	case core.EventUserList:
		data := proto.UserListUpdateData{}
		if event.Users != nil {
			data = proto.UserListUpdateData{All: event.Users.All, Online: event.Users.Online}
		}
		return proto.Outbound{Type: proto.OutboundUserListUpdate, Data: data}
	case core.EventPartyMode:
		return proto.Outbound{Type: proto.OutboundPartyModeUpdate, Data: proto.PartyModeUpdateData{Active: event.PartyActive}}
	case core.EventTypingUpdate:
		return proto.Outbound{Type: proto.OutboundTypingUpdate, Data: proto.TypingUpdateData{
			Channel: event.Channel,
			Typing:  event.Typing,
		}}
	case core.EventError:
		if event.Err == nil {
			return proto.Outbound{Type: proto.OutboundError, Error: &proto.Error{Code: "unknown", Message: "unknown error"}}
		}
		return proto.Outbound{Type: proto.OutboundError, Error: &proto.Error{Code: event.Err.Code, Message: event.Err.Message}}
	default:
		return proto.Outbound{Type: proto.OutboundError, Error: &proto.Error{Code: "unknown", Message: "unknown event"}}
	}
}
