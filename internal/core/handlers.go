package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/relaychat/relaychat-server/internal/auth"
	"github.com/relaychat/relaychat-server/internal/store"
)

func (h *Hub) fail(sess *Session, relayErr *RelayError) {
	h.ToSession(sess, errorEvent(relayErr))
}

// upstream logs the failure detail and sends the client a generic error.
func (h *Hub) upstream(sess *Session, op string, err error) {
	h.log.Error().Err(err).Str("client_id", sess.ID).Str("op", op).Msg("upstream call failed")
	h.fail(sess, upstreamFailure())
}

// project builds the broadcast projection of a message. The enrichment
// label is cosmetic: any lookup failure just means no label.
func (h *Hub) project(ctx context.Context, msg *store.Message) MessagePayload {
	payload := MessagePayload{
		ID:         msg.ID,
		Channel:    msg.Channel,
		Sender:     msg.Sender,
		Text:       msg.Text,
		Attachment: msg.Attachment,
		Edited:     msg.Edited,
		CreatedAt:  msg.CreatedAt,
	}

	user, err := h.store.GetUserByUsername(ctx, msg.Sender)
	if err != nil || user.EnrichmentRef == "" {
		return payload
	}
	label, err := h.enrich.Label(ctx, user.EnrichmentRef)
	if err != nil {
		h.log.Warn().Err(err).Str("username", msg.Sender).Msg("enrichment lookup failed")
		return payload
	}
	payload.SenderLabel = label
	return payload
}

// joinChannel runs the join sequence: point the session at the channel,
// deliver the history snapshot, then announce the channel's typing set.
// The fan-out lock is held from before the history read until after the
// sends, so a message broadcast concurrently with the join is either in
// the snapshot or delivered live after it, never lost between the two.
func (h *Hub) joinChannel(ctx context.Context, sess *Session, channel string) error {
	h.registry.fanoutMu.Lock()
	defer h.registry.fanoutMu.Unlock()

	msgs, err := h.store.ListMessages(ctx, channel, h.historyLimit)
	if err != nil {
		return err
	}
	payloads := lo.Map(msgs, func(m *store.Message, _ int) MessagePayload {
		return h.project(ctx, m)
	})

	sess.SetChannel(channel)
	sess.send(&Event{Kind: EventHistory, Channel: channel, Messages: payloads})
	sess.send(&Event{Kind: EventTypingUpdate, Channel: channel, Typing: h.typing.TypingIn(channel)})
	return nil
}

func (h *Hub) broadcastUserList(ctx context.Context) {
	all, err := h.store.ListUsernames(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("list usernames for user-list broadcast")
		return
	}
	h.ToAll(&Event{Kind: EventUserList, Users: &UserListInfo{All: all, Online: h.presence.OnlineSet()}})
}

func (h *Hub) broadcastChannelList(ctx context.Context) {
	names, err := h.directory.List(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("list channels for channel-list broadcast")
		return
	}
	h.ToAll(&Event{Kind: EventChannelList, Channels: names})
}

func (h *Hub) handleSignup(ctx context.Context, sess *Session, cmd *Command) {
	user, err := h.auth.Signup(ctx, cmd.Username, cmd.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrUserExists):
		h.fail(sess, conflictError("username is already taken"))
		return
	case errors.Is(err, auth.ErrInvalidUsername):
		h.fail(sess, validationError("username must be 3-32 characters"))
		return
	case errors.Is(err, auth.ErrWeakPassword):
		h.fail(sess, validationError("password is too weak"))
		return
	default:
		h.upstream(sess, "signup", err)
		return
	}

	h.log.Info().Str("username", user.Username).Msg("identity created")
	h.ToSession(sess, &Event{Kind: EventSignupResponse, User: user.Username})
	h.broadcastUserList(ctx)
}

func (h *Hub) handleLogin(ctx context.Context, sess *Session, cmd *Command) {
	user, token, err := h.auth.Login(ctx, cmd.Username, cmd.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.ToSession(sess, &Event{Kind: EventLoginResponse, Login: &LoginInfo{Success: false}})
			return
		}
		h.upstream(sess, "login", err)
		return
	}

	sess.Authenticate(user.Username, user.IsAdmin, user.PartyMode, GeneralChannel)
	h.presence.MarkOnline(user.Username, user.IsAdmin, user.PartyMode)

	h.ToSession(sess, &Event{Kind: EventLoginResponse, Login: &LoginInfo{
		Success:  true,
		Username: user.Username,
		Admin:    user.IsAdmin,
		Party:    user.PartyMode,
		AboutMe:  user.AboutMe,
		Avatar:   user.AvatarRef,
		Token:    token,
	}})

	if names, err := h.directory.List(ctx); err == nil {
		h.ToSession(sess, &Event{Kind: EventChannelList, Channels: names})
	}
	if err := h.joinChannel(ctx, sess, GeneralChannel); err != nil {
		h.upstream(sess, "load history", err)
	}
	h.broadcastUserList(ctx)
	h.log.Info().Str("client_id", sess.ID).Str("username", user.Username).Msg("user logged in")
}

func (h *Hub) handleChat(ctx context.Context, sess *Session, cmd *Command) {
	snap := sess.Snapshot()
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		h.fail(sess, validationError("message text is required"))
		return
	}

	msg := &store.Message{
		Channel:   snap.Channel,
		Sender:    snap.User,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.SaveMessage(ctx, msg); err != nil {
		h.upstream(sess, "save message", err)
		return
	}

	payload := h.project(ctx, msg)
	h.ToChannel(snap.Channel, &Event{Kind: EventChatMessage, Channel: snap.Channel, Message: &payload})
}

func (h *Hub) handleUploadFile(ctx context.Context, sess *Session, cmd *Command) {
	snap := sess.Snapshot()
	if cmd.FileName == "" || len(cmd.FileData) == 0 {
		h.fail(sess, validationError("file name and data are required"))
		return
	}
	if int64(len(cmd.FileData)) > h.maxUploadBytes {
		h.fail(sess, validationError("file exceeds the upload size limit"))
		return
	}

	// Content type is sniffed from the bytes; the declared type is only a
	// fallback when sniffing yields nothing useful.
	mtype := mimetype.Detect(cmd.FileData)
	contentType := mtype.String()
	if contentType == "application/octet-stream" && cmd.FileType != "" {
		contentType = cmd.FileType
	}

	key := uuid.NewString() + mtype.Extension()
	url, err := h.blobs.Save(ctx, key, cmd.FileData)
	if err != nil {
		h.upstream(sess, "store attachment", err)
		return
	}

	msg := &store.Message{
		Channel: snap.Channel,
		Sender:  snap.User,
		Text:    strings.TrimSpace(cmd.Text),
		Attachment: &store.Attachment{
			URL:         url,
			Name:        cmd.FileName,
			ContentType: contentType,
			Size:        int64(len(cmd.FileData)),
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.SaveMessage(ctx, msg); err != nil {
		h.upstream(sess, "save attachment message", err)
		return
	}

	payload := h.project(ctx, msg)
	h.ToChannel(snap.Channel, &Event{Kind: EventChatMessage, Channel: snap.Channel, Message: &payload})
}

func (h *Hub) handleSwitchChannel(ctx context.Context, sess *Session, cmd *Command) {
	snap := sess.Snapshot()
	name := NormalizeChannelName(cmd.Channel)
	if name == "" {
		h.fail(sess, validationError("channel name is required"))
		return
	}

	exists, err := h.directory.Exists(ctx, name)
	if err != nil {
		h.upstream(sess, "check channel", err)
		return
	}
	if !exists {
		h.fail(sess, notFoundError("channel not found"))
		return
	}

	// Leaving always clears the old channel's typing entry for this user.
	h.typing.Stop(snap.User)
	if err := h.joinChannel(ctx, sess, name); err != nil {
		h.upstream(sess, "load history", err)
	}
}

func (h *Hub) handleCreateChannel(ctx context.Context, sess *Session, cmd *Command) {
	name, relayErr := h.directory.Create(ctx, cmd.Channel)
	if relayErr != nil {
		h.fail(sess, relayErr)
		return
	}
	h.log.Info().Str("channel", name).Str("username", sess.Snapshot().User).Msg("channel created")
	h.broadcastChannelList(ctx)
}

func (h *Hub) handleDeleteChannel(ctx context.Context, sess *Session, cmd *Command) {
	name := NormalizeChannelName(cmd.Channel)
	if relayErr := h.directory.Delete(ctx, name); relayErr != nil {
		h.fail(sess, relayErr)
		return
	}

	if err := h.store.DeleteChannelMessages(ctx, name); err != nil {
		h.log.Warn().Err(err).Str("channel", name).Msg("purge channel messages")
	}

	// Everyone left pointing at the removed channel gets the same join
	// sequence as an explicit switch to general.
	for _, occupant := range h.registry.inChannel(name) {
		h.typing.Stop(occupant.Snapshot().User)
		if err := h.joinChannel(ctx, occupant, GeneralChannel); err != nil {
			h.log.Warn().Err(err).Str("client_id", occupant.ID).Msg("migrate occupant to general")
		}
	}

	h.log.Info().Str("channel", name).Str("username", sess.Snapshot().User).Msg("channel deleted")
	h.broadcastChannelList(ctx)
}

func (h *Hub) handleGetUserProfile(ctx context.Context, sess *Session, cmd *Command) {
	h.sendProfile(ctx, sess, auth.NormalizeUsername(cmd.Username), EventUserProfile)
}

func (h *Hub) handleGetOwnProfile(ctx context.Context, sess *Session) {
	h.sendProfile(ctx, sess, sess.Snapshot().User, EventOwnProfile)
}

func (h *Hub) sendProfile(ctx context.Context, sess *Session, username string, kind EventKind) {
	user, err := h.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.fail(sess, notFoundError("user not found"))
			return
		}
		h.upstream(sess, "load profile", err)
		return
	}
	h.ToSession(sess, &Event{Kind: kind, Profile: &ProfileInfo{
		Username: user.Username,
		AboutMe:  user.AboutMe,
		Avatar:   user.AvatarRef,
		Party:    user.PartyMode,
		Admin:    user.IsAdmin,
		Online:   h.presence.IsOnline(user.Username),
	}})
}

func (h *Hub) handleUpdateAboutMe(ctx context.Context, sess *Session, cmd *Command) {
	snap := sess.Snapshot()
	about := cmd.Text
	if runes := []rune(about); len(runes) > h.aboutMaxLen {
		about = string(runes[:h.aboutMaxLen])
	}
	if err := h.store.UpdateAboutMe(ctx, snap.User, about); err != nil {
		h.upstream(sess, "update about", err)
		return
	}
	h.sendProfile(ctx, sess, snap.User, EventOwnProfile)
}

// validAvatarRef accepts either a served attachment URL, an absolute URL,
// or an inline image data URI.
func validAvatarRef(ref string) bool {
	return strings.HasPrefix(ref, "/files/") ||
		strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "data:image/")
}

func (h *Hub) handleUpdateAvatar(ctx context.Context, sess *Session, cmd *Command) {
	snap := sess.Snapshot()
	ref := cmd.ImageRef
	if cmd.ClearImage {
		ref = ""
	} else if !validAvatarRef(ref) {
		h.fail(sess, validationError("unsupported image reference"))
		return
	}

	if err := h.store.UpdateAvatar(ctx, snap.User, ref); err != nil {
		h.upstream(sess, "update avatar", err)
		return
	}
	h.ToAll(&Event{Kind: EventProfileUpdated, User: snap.User, ImageRef: ref})
}

// handleUpdateEnrichment is deliberately idempotent: as long as the
// identity exists the write reports success, whether or not the stored
// value actually changed.
func (h *Hub) handleUpdateEnrichment(ctx context.Context, sess *Session, cmd *Command) {
	snap := sess.Snapshot()
	if err := h.store.UpdateEnrichmentRef(ctx, snap.User, cmd.EnrichmentRef); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.fail(sess, notFoundError("user not found"))
			return
		}
		h.upstream(sess, "update enrichment", err)
		return
	}
	h.sendProfile(ctx, sess, snap.User, EventOwnProfile)
}

func (h *Hub) handleEditMessage(ctx context.Context, sess *Session, cmd *Command) {
	snap := sess.Snapshot()
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		h.fail(sess, validationError("message text is required"))
		return
	}

	msg, err := h.store.GetMessage(ctx, cmd.MessageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.fail(sess, notFoundError("message not found"))
			return
		}
		h.upstream(sess, "load message", err)
		return
	}
	if !CanEditMessage(snap, msg) {
		h.fail(sess, permissionDenied())
		return
	}

	if err := h.store.UpdateMessageText(ctx, msg.ID, text); err != nil {
		h.upstream(sess, "update message", err)
		return
	}
	h.ToChannel(msg.Channel, &Event{Kind: EventMessageEdited, Channel: msg.Channel, MessageID: msg.ID, Text: text})
}

func (h *Hub) handleDeleteMessage(ctx context.Context, sess *Session, cmd *Command) {
	snap := sess.Snapshot()

	msg, err := h.store.GetMessage(ctx, cmd.MessageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.fail(sess, notFoundError("message not found"))
			return
		}
		h.upstream(sess, "load message", err)
		return
	}
	if !CanDeleteMessage(snap, msg) {
		h.fail(sess, permissionDenied())
		return
	}

	if err := h.store.DeleteMessage(ctx, msg.ID); err != nil {
		h.upstream(sess, "delete message", err)
		return
	}
	h.ToChannel(msg.Channel, &Event{Kind: EventMessageDeleted, Channel: msg.Channel, MessageID: msg.ID})
}

func (h *Hub) handleTogglePartyMode(ctx context.Context, sess *Session, cmd *Command) {
	target := auth.NormalizeUsername(cmd.TargetUser)
	user, err := h.store.GetUserByUsername(ctx, target)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.fail(sess, notFoundError("user not found"))
			return
		}
		h.upstream(sess, "load user", err)
		return
	}

	next := !user.PartyMode
	if err := h.store.UpdatePartyMode(ctx, target, next); err != nil {
		h.upstream(sess, "update party mode", err)
		return
	}

	h.presence.SetParty(target, next)
	for _, targetSess := range h.registry.forUser(target) {
		targetSess.SetParty(next)
		h.ToSession(targetSess, &Event{Kind: EventPartyMode, User: target, PartyActive: next})
	}
	h.log.Info().Str("username", target).Bool("active", next).Msg("party mode toggled")
}
