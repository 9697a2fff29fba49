package deletion

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/pinwall/internal/auth"
	"github.com/five82/pinwall/internal/gallery"
	"github.com/five82/pinwall/internal/pinning"
)

type fakeTokens struct {
	err   error
	calls int
}

func (f *fakeTokens) Token(context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "tok", nil
}

type fakeRemote struct {
	err   error
	calls []string
}

func (f *fakeRemote) Unpin(_ context.Context, id string) error {
	f.calls = append(f.calls, id)
	return f.err
}

type staticLister struct{ files []pinning.PinnedFile }

func (l staticLister) ListPins(context.Context) ([]pinning.PinnedFile, error) {
	return l.files, nil
}

func seededStore(t *testing.T, ids ...string) *gallery.Store {
	t.Helper()
	var files []pinning.PinnedFile
	for _, id := range ids {
		files = append(files, pinning.PinnedFile{ContentID: id})
	}
	s := gallery.NewStore(staticLister{files: files}, gallery.Options{})
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

func contentIDs(s gallery.State) []string {
	out := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		out = append(out, item.ContentID)
	}
	return out
}

func TestDelete_SuccessTombstones(t *testing.T) {
	store := seededStore(t, "X", "Y")
	remote := &fakeRemote{}
	c := NewCoordinator(&fakeTokens{}, remote, store, zerolog.Nop())

	res := c.Delete(context.Background(), "X")

	assert.Equal(t, Deleted, res.Outcome)
	assert.Equal(t, []string{"X"}, remote.calls)
	snap := store.Snapshot()
	assert.Equal(t, []string{"Y"}, contentIDs(snap))
	assert.True(t, snap.Tombstoned("X"))

	// A later refresh that still lists X keeps it hidden.
	require.NoError(t, store.Refresh(context.Background()))
	assert.Equal(t, []string{"Y"}, contentIDs(store.Snapshot()))
}

func TestDelete_NoTokenSkipsRemote(t *testing.T) {
	store := seededStore(t, "X")
	remote := &fakeRemote{}
	tokens := &fakeTokens{err: auth.ErrAuthRequired}
	c := NewCoordinator(tokens, remote, store, zerolog.Nop())

	res := c.Delete(context.Background(), "X")

	assert.Equal(t, AuthRequired, res.Outcome)
	assert.Empty(t, remote.calls)
	assert.Equal(t, 1, tokens.calls)
	snap := store.Snapshot()
	assert.Equal(t, []string{"X"}, contentIDs(snap))
	assert.False(t, snap.Tombstoned("X"))
}

func TestDelete_RemoteFailureKeepsItem(t *testing.T) {
	store := seededStore(t, "X")
	remote := &fakeRemote{err: &pinning.APIError{Status: 404, Payload: map[string]any{"error": "not pinned"}}}
	c := NewCoordinator(&fakeTokens{}, remote, store, zerolog.Nop())

	res := c.Delete(context.Background(), "X")

	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, "not pinned", res.Message)
	snap := store.Snapshot()
	assert.Equal(t, []string{"X"}, contentIDs(snap))
	assert.False(t, snap.Tombstoned("X"))
	assert.Equal(t, gallery.Notice{Level: gallery.NoticeError, Text: "not pinned"}, snap.Notice)
}

func TestDelete_FailedAckKeepsItem(t *testing.T) {
	store := seededStore(t, "X")
	remote := &fakeRemote{err: fmt.Errorf("%w: %w", pinning.ErrUnexpectedResponse,
		&pinning.APIError{Status: 200, Payload: map[string]any{"success": false, "error": "hash not found"}})}
	c := NewCoordinator(&fakeTokens{}, remote, store, zerolog.Nop())

	res := c.Delete(context.Background(), "X")

	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, "hash not found", res.Message)
	snap := store.Snapshot()
	assert.Equal(t, []string{"X"}, contentIDs(snap))
	assert.False(t, snap.Tombstoned("X"))
}

func TestDelete_FailureWithoutRemoteMessage(t *testing.T) {
	store := seededStore(t, "X")
	remote := &fakeRemote{err: fmt.Errorf("%w: execute request", pinning.ErrNetwork)}
	c := NewCoordinator(&fakeTokens{}, remote, store, zerolog.Nop())

	res := c.Delete(context.Background(), "X")
	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, DefaultFailureMessage, res.Message)
}

func TestDelete_TokenRejectedByRemote(t *testing.T) {
	store := seededStore(t, "X")
	remote := &fakeRemote{err: fmt.Errorf("%w: token rejected", auth.ErrAuthRequired)}
	c := NewCoordinator(&fakeTokens{}, remote, store, zerolog.Nop())

	res := c.Delete(context.Background(), "X")
	assert.Equal(t, AuthRequired, res.Outcome)
	assert.Equal(t, []string{"X"}, contentIDs(store.Snapshot()))
}

func TestDelete_EmptyID(t *testing.T) {
	remote := &fakeRemote{}
	tokens := &fakeTokens{}
	c := NewCoordinator(tokens, remote, seededStore(t), zerolog.Nop())

	res := c.Delete(context.Background(), "  ")
	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrEmptyContentID)
	assert.Zero(t, tokens.calls)
	assert.Empty(t, remote.calls)
}
