package gallery

import (
	"context"
	"errors"
	"time"

	"github.com/five82/pinwall/internal/auth"
	"github.com/five82/pinwall/internal/pinning"
)

// NoticeLevel classifies a user-facing notice.
type NoticeLevel int

const (
	NoticeNone NoticeLevel = iota
	NoticeInfo
	NoticeSuccess
	NoticeWarning
	NoticeError
)

// Notice is the latest outcome message for the status line.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// State is the gallery as the display layer sees it. Items keeps display
// order; Tombstones holds every content id deleted during this session.
type State struct {
	Items      []pinning.PinnedFile
	Tombstones map[string]struct{}

	// Pending counts refreshes in flight.
	Pending       int
	Message       string
	Notice        Notice
	Authenticated bool
	LastRefreshed time.Time
	Version       uint64

	// Session advances on every logout. A list result is applied only when
	// it was requested in the current session.
	Session uint64
}

// Empty returns the initial state.
func Empty() State {
	return State{Tombstones: map[string]struct{}{}}
}

// Loading reports whether at least one refresh is in flight.
func (s State) Loading() bool {
	return s.Pending > 0
}

// Contains reports whether id is currently visible.
func (s State) Contains(id string) bool {
	for _, item := range s.Items {
		if item.ContentID == id {
			return true
		}
	}
	return false
}

// Tombstoned reports whether id was deleted during this session.
func (s State) Tombstoned(id string) bool {
	_, ok := s.Tombstones[id]
	return ok
}

// Clone returns a deep copy.
func (s State) Clone() State {
	dup := s
	dup.Items = cloneItems(s.Items)
	dup.Tombstones = make(map[string]struct{}, len(s.Tombstones))
	for id := range s.Tombstones {
		dup.Tombstones[id] = struct{}{}
	}
	return dup
}

// Event is an input to Reduce.
type Event interface {
	event()
}

// RefreshStarted marks a list request as issued.
type RefreshStarted struct{}

// Refreshed carries a successful list result. Session is the state's
// Session when the request was issued.
type Refreshed struct {
	Files   []pinning.PinnedFile
	At      time.Time
	Session uint64
}

// RefreshFailed carries a list failure. Visible items are cleared.
type RefreshFailed struct {
	Err     error
	Session uint64
}

// RefreshCanceled marks a refresh whose caller went away.
type RefreshCanceled struct{}

// UploadSucceeded records an acknowledged upload.
type UploadSucceeded struct {
	FileName string
}

// UploadFailed records a rejected upload.
type UploadFailed struct {
	FileName  string
	Message   string
	Duplicate bool
}

// DeleteSucceeded records an acknowledged unpin.
type DeleteSucceeded struct {
	ContentID string
}

// DeleteFailed records a rejected unpin.
type DeleteFailed struct {
	ContentID string
	Message   string
}

// TokenFetched records a successful session fetch.
type TokenFetched struct{}

// LoggedOut records the end of the session.
type LoggedOut struct{}

func (RefreshStarted) event()  {}
func (Refreshed) event()       {}
func (RefreshFailed) event()   {}
func (RefreshCanceled) event() {}
func (UploadSucceeded) event() {}
func (UploadFailed) event()    {}
func (DeleteSucceeded) event() {}
func (DeleteFailed) event()    {}
func (TokenFetched) event()    {}
func (LoggedOut) event()       {}

// Reduce returns the state that follows s after e. s is not modified.
func Reduce(s State, e Event) State {
	next := s
	next.Version++

	switch e := e.(type) {
	case RefreshStarted:
		next.Pending++

	case Refreshed:
		next.Pending = max(next.Pending-1, 0)
		if e.Session != s.Session {
			break
		}
		next.Items = visible(e.Files, s.Tombstones)
		next.Message = ""
		next.LastRefreshed = e.At

	case RefreshFailed:
		next.Pending = max(next.Pending-1, 0)
		if e.Session != s.Session {
			break
		}
		next.Items = nil
		next.Message = refreshMessage(e.Err)
		if errors.Is(e.Err, auth.ErrAuthRequired) {
			next.Authenticated = false
		}

	case RefreshCanceled:
		next.Pending = max(next.Pending-1, 0)

	case UploadSucceeded:
		next.Notice = Notice{Level: NoticeSuccess, Text: "uploaded " + e.FileName}

	case UploadFailed:
		level := NoticeError
		if e.Duplicate {
			level = NoticeWarning
		}
		next.Notice = Notice{Level: level, Text: e.Message}

	case DeleteSucceeded:
		next.Tombstones = withTombstone(s.Tombstones, e.ContentID)
		next.Items = without(s.Items, e.ContentID)
		next.Notice = Notice{Level: NoticeSuccess, Text: "deleted " + e.ContentID}

	case DeleteFailed:
		next.Notice = Notice{Level: NoticeError, Text: e.Message}

	case TokenFetched:
		next.Authenticated = true

	case LoggedOut:
		next.Session++
		next.Items = nil
		next.Authenticated = false
		next.Message = "logged out"
		next.Notice = Notice{Level: NoticeInfo, Text: "session ended"}

	default:
		next.Version--
	}
	return next
}

const (
	msgAuthRequired = "authentication required"
	msgUnexpected   = "unexpected response from pinning service"
	msgNetwork      = "pinning service unreachable"
	msgListFailed   = "could not load pinned files"
)

func refreshMessage(err error) string {
	switch {
	case err == nil:
		return msgListFailed
	case errors.Is(err, auth.ErrAuthRequired):
		return msgAuthRequired
	case errors.Is(err, pinning.ErrUnexpectedResponse):
		return msgUnexpected
	case errors.Is(err, pinning.ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return msgNetwork
	}
	if msg := pinning.RemoteMessage(err); msg != "" {
		return msg
	}
	return msgListFailed
}

// visible drops tombstoned and repeated ids, keeping the remote order.
func visible(files []pinning.PinnedFile, tombstones map[string]struct{}) []pinning.PinnedFile {
	out := make([]pinning.PinnedFile, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if _, dead := tombstones[f.ContentID]; dead {
			continue
		}
		if _, dup := seen[f.ContentID]; dup {
			continue
		}
		seen[f.ContentID] = struct{}{}
		out = append(out, f)
	}
	return out
}

func without(items []pinning.PinnedFile, id string) []pinning.PinnedFile {
	out := make([]pinning.PinnedFile, 0, len(items))
	for _, item := range items {
		if item.ContentID != id {
			out = append(out, item)
		}
	}
	return out
}

func withTombstone(tombstones map[string]struct{}, id string) map[string]struct{} {
	dup := make(map[string]struct{}, len(tombstones)+1)
	for k := range tombstones {
		dup[k] = struct{}{}
	}
	dup[id] = struct{}{}
	return dup
}

func cloneItems(items []pinning.PinnedFile) []pinning.PinnedFile {
	if len(items) == 0 {
		return nil
	}
	dup := make([]pinning.PinnedFile, len(items))
	copy(dup, items)
	return dup
}
