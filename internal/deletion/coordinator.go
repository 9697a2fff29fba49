// Package deletion unpins one content id and records the outcome in the
// gallery. A successful deletion tombstones the id for the rest of the
// session; a failed one leaves the gallery as it was.
package deletion

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/five82/pinwall/internal/auth"
	"github.com/five82/pinwall/internal/gallery"
	"github.com/five82/pinwall/internal/pinning"
)

// Outcome classifies a deletion attempt.
type Outcome int

const (
	Deleted Outcome = iota
	AuthRequired
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case AuthRequired:
		return "authentication required"
	case Failed:
		return "delete failed"
	}
	return "unknown"
}

// DefaultFailureMessage is shown when the service gives no message.
const DefaultFailureMessage = "could not delete pinned file"

// ErrEmptyContentID rejects a deletion with nothing to delete.
var ErrEmptyContentID = errors.New("empty content id")

// Result is the outcome of one Delete call.
type Result struct {
	Outcome   Outcome
	ContentID string
	Message   string
	Err       error
}

// TokenSource is checked before any remote call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Unpinner removes a pin on the remote service.
type Unpinner interface {
	Unpin(ctx context.Context, contentID string) error
}

// Gallery is the part of the store a deletion touches.
type Gallery interface {
	RecordDeletion(id string)
	Dispatch(e gallery.Event) gallery.State
}

// Coordinator runs deletions against the remote and the gallery.
type Coordinator struct {
	tokens  TokenSource
	remote  Unpinner
	gallery Gallery
	log     zerolog.Logger
}

// NewCoordinator wires a Coordinator.
func NewCoordinator(tokens TokenSource, remote Unpinner, g Gallery, log zerolog.Logger) *Coordinator {
	return &Coordinator{tokens: tokens, remote: remote, gallery: g, log: log}
}

// Delete unpins contentID. Without a token the remote is never called.
func (c *Coordinator) Delete(ctx context.Context, contentID string) Result {
	id := strings.TrimSpace(contentID)
	if id == "" {
		return Result{Outcome: Failed, Message: ErrEmptyContentID.Error(), Err: ErrEmptyContentID}
	}

	if _, err := c.tokens.Token(ctx); err != nil {
		c.log.Warn().Err(err).Str("content_id", id).Msg("delete skipped: no session token")
		res := Result{Outcome: AuthRequired, ContentID: id, Message: "authentication required", Err: err}
		c.gallery.Dispatch(gallery.DeleteFailed{ContentID: id, Message: res.Message})
		return res
	}

	if err := c.remote.Unpin(ctx, id); err != nil {
		res := Result{Outcome: Failed, ContentID: id, Err: err}
		switch {
		case errors.Is(err, auth.ErrAuthRequired):
			res.Outcome = AuthRequired
			res.Message = "authentication required"
		default:
			res.Message = pinning.RemoteMessage(err)
			if res.Message == "" {
				res.Message = DefaultFailureMessage
			}
		}
		c.log.Warn().Err(err).Str("content_id", id).Msg("unpin failed")
		c.gallery.Dispatch(gallery.DeleteFailed{ContentID: id, Message: res.Message})
		return res
	}

	c.log.Info().Str("content_id", id).Msg("unpinned")
	c.gallery.RecordDeletion(id)
	return Result{Outcome: Deleted, ContentID: id, Message: "deleted " + id}
}
