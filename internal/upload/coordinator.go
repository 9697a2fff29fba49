// Package upload runs one user-initiated upload: local validation, the
// remote call, classification of the rejection, and the single gallery
// refresh that follows an acknowledged upload.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/five82/pinwall/internal/auth"
	"github.com/five82/pinwall/internal/gallery"
	"github.com/five82/pinwall/internal/pinning"
)

// Outcome classifies an upload attempt.
type Outcome int

const (
	Uploaded Outcome = iota
	NoFileSelected
	DuplicateContent
	GenericFailure
	AuthRequired
)

func (o Outcome) String() string {
	switch o {
	case Uploaded:
		return "uploaded"
	case NoFileSelected:
		return "no file selected"
	case DuplicateContent:
		return "duplicate content"
	case GenericFailure:
		return "upload failed"
	case AuthRequired:
		return "authentication required"
	}
	return "unknown"
}

const (
	DefaultFailureMessage = "upload failed"
	DuplicateMessage      = "this content is already pinned; the same content cannot be pinned twice"
)

// ErrNoFileSelected is the local validation failure for an empty selection.
var ErrNoFileSelected = errors.New("no file selected")

// Result is what the UI reports back to the user.
type Result struct {
	Outcome   Outcome
	FileName  string
	ContentID string
	Message   string
	Err       error
	// RefreshErr is set when the upload succeeded but the follow-up refresh
	// did not.
	RefreshErr error
}

// Uploader sends file bytes to the pinning service.
type Uploader interface {
	Upload(ctx context.Context, fileName string, data []byte) (pinning.UploadAck, error)
}

// Gallery is the part of the store an upload touches.
type Gallery interface {
	Refresh(ctx context.Context) error
	Dispatch(e gallery.Event) gallery.State
}

// Coordinator runs uploads.
type Coordinator struct {
	uploader Uploader
	gallery  Gallery
	log      zerolog.Logger
}

// NewCoordinator builds a Coordinator.
func NewCoordinator(uploader Uploader, g Gallery, log zerolog.Logger) *Coordinator {
	return &Coordinator{uploader: uploader, gallery: g, log: log}
}

// UploadFile reads path from disk and uploads it under its base name.
func (c *Coordinator) UploadFile(ctx context.Context, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Outcome: NoFileSelected, Message: ErrNoFileSelected.Error(), Err: ErrNoFileSelected}
	}
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		res := Result{
			Outcome:  GenericFailure,
			FileName: name,
			Message:  fmt.Sprintf("read %s: %v", name, err),
			Err:      fmt.Errorf("read file: %w", err),
		}
		c.gallery.Dispatch(gallery.UploadFailed{FileName: name, Message: res.Message})
		return res
	}
	return c.Upload(ctx, data, name)
}

// Upload sends data as fileName. The gallery is refreshed exactly once after
// the service acknowledges the upload and is not touched on any failure.
func (c *Coordinator) Upload(ctx context.Context, data []byte, fileName string) Result {
	name := strings.TrimSpace(fileName)
	if name == "" {
		return Result{Outcome: NoFileSelected, Message: ErrNoFileSelected.Error(), Err: ErrNoFileSelected}
	}
	if len(data) == 0 {
		return Result{Outcome: NoFileSelected, FileName: name, Message: "file is empty", Err: ErrNoFileSelected}
	}

	ack, err := c.uploader.Upload(ctx, name, data)
	if err != nil {
		res := classify(name, err)
		c.log.Warn().Err(err).Str("file", name).Stringer("outcome", res.Outcome).Msg("upload rejected")
		c.gallery.Dispatch(gallery.UploadFailed{
			FileName:  name,
			Message:   res.Message,
			Duplicate: res.Outcome == DuplicateContent,
		})
		return res
	}

	c.log.Info().Str("file", name).Str("content_id", ack.IpfsHash).Int("bytes", len(data)).Msg("upload acknowledged")
	c.gallery.Dispatch(gallery.UploadSucceeded{FileName: name})
	res := Result{
		Outcome:   Uploaded,
		FileName:  name,
		ContentID: ack.IpfsHash,
		Message:   "uploaded " + name,
	}
	if err := c.gallery.Refresh(ctx); err != nil {
		res.RefreshErr = err
	}
	return res
}

func classify(name string, err error) Result {
	res := Result{FileName: name, Err: err}

	if errors.Is(err, auth.ErrAuthRequired) {
		res.Outcome = AuthRequired
		res.Message = "authentication required"
		return res
	}

	var apiErr *pinning.APIError
	if errors.As(err, &apiErr) {
		if IsDuplicate(apiErr.Payload) {
			res.Outcome = DuplicateContent
			res.Message = DuplicateMessage
			return res
		}
		res.Outcome = GenericFailure
		res.Message = apiErr.Message()
		if res.Message == "" {
			res.Message = DefaultFailureMessage
		}
		return res
	}

	res.Outcome = GenericFailure
	res.Message = DefaultFailureMessage
	if errors.Is(err, pinning.ErrNetwork) {
		res.Message = DefaultFailureMessage + ": pinning service unreachable"
	}
	return res
}
