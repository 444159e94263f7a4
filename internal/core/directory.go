package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/relaychat/relaychat-server/internal/store"
)

// GeneralChannel always exists and can never be removed. Every session
// lands here on login and falls back here when its channel is deleted.
const GeneralChannel = "general"

// NormalizeChannelName trims surrounding whitespace, lowercases, and
// collapses internal whitespace runs to single hyphens: "Dev Team" becomes
// "dev-team". Applied before any existence check or persistence write.
func NormalizeChannelName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "-")
}

// ChannelDirectory is the authoritative channel list, bridged to the
// persistence store. The in-memory cache is dropped, never speculatively
// mutated, on every create and delete.
type ChannelDirectory struct {
	mu    sync.Mutex
	store store.ChannelStore
	cache []string
}

// NewChannelDirectory builds a directory over the given channel store.
func NewChannelDirectory(channelStore store.ChannelStore) *ChannelDirectory {
	return &ChannelDirectory{store: channelStore}
}

// List returns channel names with "general" always present and first.
func (d *ChannelDirectory) List(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listLocked(ctx)
}

func (d *ChannelDirectory) listLocked(ctx context.Context) ([]string, error) {
	if d.cache == nil {
		stored, err := d.store.ListChannels(ctx)
		if err != nil {
			return nil, fmt.Errorf("list channels: %w", err)
		}
		names := []string{GeneralChannel}
		for _, name := range stored {
			if name != GeneralChannel {
				names = append(names, name)
			}
		}
		d.cache = names
	}
	out := make([]string, len(d.cache))
	copy(out, d.cache)
	return out, nil
}

// Exists reports whether a (normalized) channel name is listed.
func (d *ChannelDirectory) Exists(ctx context.Context, name string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	names, err := d.listLocked(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// Create normalizes raw and writes the channel through to the store.
// Returns the normalized name. Fails with a conflict if it already exists
// and a validation error if normalization leaves nothing.
func (d *ChannelDirectory) Create(ctx context.Context, raw string) (string, *RelayError) {
	name := NormalizeChannelName(raw)
	if name == "" {
		return "", validationError("channel name is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	names, err := d.listLocked(ctx)
	if err != nil {
		return "", upstreamFailure()
	}
	for _, n := range names {
		if n == name {
			return "", conflictError("channel already exists")
		}
	}

	if err := d.store.CreateChannel(ctx, name); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", conflictError("channel already exists")
		}
		return "", upstreamFailure()
	}
	d.cache = nil
	return name, nil
}

// Delete removes a channel from the store. "general" is protected.
func (d *ChannelDirectory) Delete(ctx context.Context, name string) *RelayError {
	if name == GeneralChannel {
		return protectedError("the general channel cannot be deleted")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.store.DeleteChannel(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError("channel not found")
		}
		return upstreamFailure()
	}
	d.cache = nil
	return nil
}
