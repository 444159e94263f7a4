package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaychat/relaychat-server/internal/store/sqlite"
)

func newTestDirectory(t *testing.T) *ChannelDirectory {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewChannelDirectory(st)
}

func TestNormalizeChannelName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"general", "general"},
		{"Dev Team", "dev-team"},
		{"  Dev   Team  ", "dev-team"},
		{"ALL\tHands   on Deck", "all-hands-on-deck"},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeChannelName(tt.in), "input %q", tt.in)
	}
}

func TestDirectoryListsGeneralFirstEvenWhenStoreIsEmpty(t *testing.T) {
	d := newTestDirectory(t)

	names, err := d.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{GeneralChannel}, names)
}

func TestDirectoryCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	d := newTestDirectory(t)

	name, relayErr := d.Create(context.Background(), " Dev  Team ")
	require.Nil(t, relayErr)
	assert.Equal(t, "dev-team", name)

	_, relayErr = d.Create(context.Background(), "DEV TEAM")
	require.NotNil(t, relayErr)
	assert.Equal(t, ErrCodeConflict, relayErr.Code)

	names, err := d.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{GeneralChannel, "dev-team"}, names)
}

func TestDirectoryCreateRejectsEmptyName(t *testing.T) {
	d := newTestDirectory(t)

	_, relayErr := d.Create(context.Background(), "   ")
	require.NotNil(t, relayErr)
	assert.Equal(t, ErrCodeValidation, relayErr.Code)
}

func TestDirectoryDelete(t *testing.T) {
	d := newTestDirectory(t)

	_, relayErr := d.Create(context.Background(), "doomed")
	require.Nil(t, relayErr)

	require.Nil(t, d.Delete(context.Background(), "doomed"))

	names, err := d.List(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, names, "doomed")

	relayErr = d.Delete(context.Background(), "doomed")
	require.NotNil(t, relayErr)
	assert.Equal(t, ErrCodeNotFound, relayErr.Code)

	relayErr = d.Delete(context.Background(), GeneralChannel)
	require.NotNil(t, relayErr)
	assert.Equal(t, ErrCodeProtected, relayErr.Code)
}
