package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/pinwall/internal/auth"
	"github.com/five82/pinwall/internal/gallery"
	"github.com/five82/pinwall/internal/pinning"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls []string
	ack   pinning.UploadAck
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, fileName string, _ []byte) (pinning.UploadAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fileName)
	return f.ack, f.err
}

type countingLister struct {
	mu    sync.Mutex
	calls int
	files []pinning.PinnedFile
}

func (l *countingLister) ListPins(context.Context) ([]pinning.PinnedFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.files, nil
}

func newFixture(up *fakeUploader, listed ...string) (*Coordinator, *gallery.Store, *countingLister) {
	lister := &countingLister{}
	for _, id := range listed {
		lister.files = append(lister.files, pinning.PinnedFile{ContentID: id})
	}
	store := gallery.NewStore(lister, gallery.Options{})
	return NewCoordinator(up, store, zerolog.Nop()), store, lister
}

func TestUpload_SuccessRefreshesOnce(t *testing.T) {
	up := &fakeUploader{ack: pinning.UploadAck{Success: true, IpfsHash: "Qm1"}}
	c, store, lister := newFixture(up, "Qm1")

	res := c.Upload(context.Background(), []byte("hello"), "a.png")

	assert.Equal(t, Uploaded, res.Outcome)
	assert.Equal(t, "Qm1", res.ContentID)
	assert.NoError(t, res.RefreshErr)
	assert.Equal(t, []string{"a.png"}, up.calls)
	assert.Equal(t, 1, lister.calls)

	snap := store.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Qm1", snap.Items[0].ContentID)
	assert.Equal(t, gallery.NoticeSuccess, snap.Notice.Level)
}

func TestUpload_NoFileSelected(t *testing.T) {
	up := &fakeUploader{}
	c, store, lister := newFixture(up)

	for _, tc := range []struct {
		data []byte
		name string
	}{
		{nil, ""},
		{[]byte("x"), "  "},
		{nil, "a.png"},
	} {
		res := c.Upload(context.Background(), tc.data, tc.name)
		assert.Equal(t, NoFileSelected, res.Outcome)
		assert.ErrorIs(t, res.Err, ErrNoFileSelected)
	}

	res := c.UploadFile(context.Background(), "")
	assert.Equal(t, NoFileSelected, res.Outcome)

	assert.Empty(t, up.calls)
	assert.Zero(t, lister.calls)
	assert.Equal(t, gallery.NoticeNone, store.Snapshot().Notice.Level)
}

func TestUpload_DuplicateLeavesGalleryUntouched(t *testing.T) {
	up := &fakeUploader{err: &pinning.APIError{
		Method:  "POST",
		Path:    "/api/pinata",
		Status:  500,
		Payload: map[string]any{"details": map[string]any{"error": SameHashMessage}},
	}}
	c, store, lister := newFixture(up, "Qm1")
	require.NoError(t, store.Refresh(context.Background()))
	before := store.Snapshot()

	res := c.Upload(context.Background(), []byte("hello"), "a.png")

	assert.Equal(t, DuplicateContent, res.Outcome)
	assert.Equal(t, DuplicateMessage, res.Message)
	assert.Equal(t, 1, lister.calls, "no refresh after a rejected upload")

	after := store.Snapshot()
	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, gallery.NoticeWarning, after.Notice.Level)
}

func TestUpload_FailedAckIsClassifiedFromPayload(t *testing.T) {
	ackErr := func(payload map[string]any) error {
		return fmt.Errorf("%w: %w", pinning.ErrUnexpectedResponse,
			&pinning.APIError{Method: "POST", Path: "/api/pinata", Status: 200, Payload: payload})
	}

	up := &fakeUploader{err: ackErr(map[string]any{"success": false, "error": SameHashMessage})}
	c, store, lister := newFixture(up)
	res := c.Upload(context.Background(), []byte("hello"), "a.png")
	assert.Equal(t, DuplicateContent, res.Outcome)
	assert.Zero(t, lister.calls)
	assert.Equal(t, gallery.NoticeWarning, store.Snapshot().Notice.Level)

	up = &fakeUploader{err: ackErr(map[string]any{"success": false, "error": "quota exceeded"})}
	c, _, lister = newFixture(up)
	res = c.Upload(context.Background(), []byte("hello"), "a.png")
	assert.Equal(t, GenericFailure, res.Outcome)
	assert.Equal(t, "quota exceeded", res.Message)
	assert.Zero(t, lister.calls)
}

func TestUpload_GenericFailureUsesRemoteMessage(t *testing.T) {
	up := &fakeUploader{err: &pinning.APIError{Status: 413, Payload: map[string]any{"error": "file too large"}}}
	c, _, lister := newFixture(up)

	res := c.Upload(context.Background(), []byte("hello"), "a.png")

	assert.Equal(t, GenericFailure, res.Outcome)
	assert.Equal(t, "file too large", res.Message)
	assert.Zero(t, lister.calls)
}

func TestUpload_GenericFailureDefaults(t *testing.T) {
	up := &fakeUploader{err: &pinning.APIError{Status: 500}}
	c, _, _ := newFixture(up)
	res := c.Upload(context.Background(), []byte("hello"), "a.png")
	assert.Equal(t, GenericFailure, res.Outcome)
	assert.Equal(t, DefaultFailureMessage, res.Message)

	up.err = fmt.Errorf("%w: execute request: dial tcp: refused", pinning.ErrNetwork)
	res = c.Upload(context.Background(), []byte("hello"), "a.png")
	assert.Equal(t, GenericFailure, res.Outcome)
	assert.Contains(t, res.Message, "unreachable")
}

func TestUpload_AuthRequired(t *testing.T) {
	up := &fakeUploader{err: fmt.Errorf("%w: token rejected", auth.ErrAuthRequired)}
	c, _, lister := newFixture(up)

	res := c.Upload(context.Background(), []byte("hello"), "a.png")

	assert.Equal(t, AuthRequired, res.Outcome)
	assert.Zero(t, lister.calls)
}

func TestUploadFile_ReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))

	up := &fakeUploader{ack: pinning.UploadAck{Success: true, IpfsHash: "Qm2"}}
	c, _, _ := newFixture(up, "Qm2")

	res := c.UploadFile(context.Background(), path)
	assert.Equal(t, Uploaded, res.Outcome)
	assert.Equal(t, []string{"photo.jpg"}, up.calls)

	res = c.UploadFile(context.Background(), filepath.Join(dir, "missing.jpg"))
	assert.Equal(t, GenericFailure, res.Outcome)
	assert.True(t, errors.Is(res.Err, os.ErrNotExist))
}
