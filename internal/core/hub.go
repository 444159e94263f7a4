package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/relaychat/relaychat-server/internal/auth"
	"github.com/relaychat/relaychat-server/internal/blob"
	"github.com/relaychat/relaychat-server/internal/enrich"
	"github.com/relaychat/relaychat-server/internal/store"
)

// HubOptions bundles the hub's collaborators and tunables.
type HubOptions struct {
	Store          store.Store
	Auth           *auth.Service
	Blobs          blob.Sink
	Enrich         enrich.Lookup
	Logger         *zerolog.Logger
	TypingTTL      time.Duration
	HistoryLimit   int
	AboutMaxLen    int
	MaxUploadBytes int64
}

// Hub owns all shared chat state: the session registry, presence tracker,
// typing coordinator and channel directory. Commands are dispatched on the
// calling connection's goroutine, so a slow store call only stalls the
// connection that issued it.
type Hub struct {
	store  store.Store
	auth   *auth.Service
	blobs  blob.Sink
	enrich enrich.Lookup
	log    *zerolog.Logger

	directory *ChannelDirectory
	presence  *PresenceTracker
	typing    *TypingCoordinator

	registry *registry

	historyLimit   int
	aboutMaxLen    int
	maxUploadBytes int64
}

// NewHub wires the registries together. Zero tunables get defaults.
func NewHub(opts HubOptions) *Hub {
	if opts.TypingTTL <= 0 {
		opts.TypingTTL = 3 * time.Second
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}
	if opts.AboutMaxLen <= 0 {
		opts.AboutMaxLen = 300
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 8 << 20
	}
	if opts.Enrich == nil {
		opts.Enrich = enrich.Noop{}
	}

	h := &Hub{
		store:          opts.Store,
		auth:           opts.Auth,
		blobs:          opts.Blobs,
		enrich:         opts.Enrich,
		log:            opts.Logger,
		directory:      NewChannelDirectory(opts.Store),
		presence:       NewPresenceTracker(),
		registry:       newRegistry(),
		historyLimit:   opts.HistoryLimit,
		aboutMaxLen:    opts.AboutMaxLen,
		maxUploadBytes: opts.MaxUploadBytes,
	}
	h.typing = NewTypingCoordinator(opts.TypingTTL, func(channel string, set []string) {
		h.ToChannel(channel, &Event{Kind: EventTypingUpdate, Channel: channel, Typing: set})
	})
	return h
}

// Directory exposes the channel directory (used by transport for listings).
func (h *Hub) Directory() *ChannelDirectory {
	return h.directory
}

// Register adds a freshly-connected, unauthenticated session.
func (h *Hub) Register(sess *Session) {
	h.registry.add(sess)
	h.log.Debug().Str("client_id", sess.ID).Msg("session registered")
}

// Unregister removes a session and, if it was authenticated, runs the
// disconnect cleanup exactly once: typing entry cancelled, presence entry
// removed, subscribers notified. Safe to call multiple times.
func (h *Hub) Unregister(ctx context.Context, sess *Session) {
	if !sess.markClosed() {
		return
	}
	h.registry.remove(sess.ID)

	snap := sess.Snapshot()
	if !snap.Authenticated {
		return
	}

	// Another connection may still hold the same identity; presence and
	// typing only drop when the last one goes.
	if len(h.registry.forUser(snap.User)) == 0 {
		h.typing.Stop(snap.User)
		h.presence.MarkOffline(snap.User)
	}
	h.broadcastUserList(ctx)
	h.log.Info().Str("client_id", sess.ID).Str("username", snap.User).Msg("session disconnected")
}

// Dispatch routes a command to its handler. The gate is consulted before
// any side effect; a denial reaches only the requester. Signup and login
// on an already-authenticated session are idempotent no-ops.
func (h *Hub) Dispatch(ctx context.Context, sess *Session, cmd *Command) {
	snap := sess.Snapshot()
	if !Permits(snap, actionFor(cmd.Kind)) {
		if (cmd.Kind == CommandSignup || cmd.Kind == CommandLogin) && snap.Authenticated {
			return
		}
		h.ToSession(sess, errorEvent(permissionDenied()))
		return
	}

	switch cmd.Kind {
	case CommandSignup:
		h.handleSignup(ctx, sess, cmd)
	case CommandLogin:
		h.handleLogin(ctx, sess, cmd)
	case CommandChat:
		h.handleChat(ctx, sess, cmd)
	case CommandUploadFile:
		h.handleUploadFile(ctx, sess, cmd)
	case CommandSwitchChannel:
		h.handleSwitchChannel(ctx, sess, cmd)
	case CommandCreateChannel:
		h.handleCreateChannel(ctx, sess, cmd)
	case CommandDeleteChannel:
		h.handleDeleteChannel(ctx, sess, cmd)
	case CommandGetUserProfile:
		h.handleGetUserProfile(ctx, sess, cmd)
	case CommandGetOwnProfile:
		h.handleGetOwnProfile(ctx, sess)
	case CommandUpdateAboutMe:
		h.handleUpdateAboutMe(ctx, sess, cmd)
	case CommandUpdateAvatar:
		h.handleUpdateAvatar(ctx, sess, cmd)
	case CommandUpdateEnrichment:
		h.handleUpdateEnrichment(ctx, sess, cmd)
	case CommandEditMessage:
		h.handleEditMessage(ctx, sess, cmd)
	case CommandDeleteMessage:
		h.handleDeleteMessage(ctx, sess, cmd)
	case CommandStartTyping:
		h.typing.Start(snap.User, snap.Channel)
	case CommandStopTyping:
		h.typing.Stop(snap.User)
	case CommandTogglePartyMode:
		h.handleTogglePartyMode(ctx, sess, cmd)
	}
}
