package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/pinwall/internal/deletion"
	"github.com/five82/pinwall/internal/gallery"
	"github.com/five82/pinwall/internal/gateway"
	"github.com/five82/pinwall/internal/logtail"
	"github.com/five82/pinwall/internal/upload"
)

// Messages

type tickMsg time.Time

type stateMsg gallery.State

type refreshDoneMsg struct{ err error }

type uploadDoneMsg struct {
	path   string
	result upload.Result
}

type deleteDoneMsg deletion.Result

type logoutDoneMsg struct{ err error }

type probeDoneMsg struct {
	contentID string
	url       string
}

type logsLoadedMsg struct {
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForState blocks on the next published state. It yields nil once the
// subscription is closed, which ends the chain.
func waitForState(ch <-chan gallery.State) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(s)
	}
}

func refreshCmd(ctx context.Context, g Gallery) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: g.Refresh(ctx)}
	}
}

func uploadCmd(ctx context.Context, u Uploader, path string) tea.Cmd {
	return func() tea.Msg {
		return uploadDoneMsg{path: path, result: u.UploadFile(ctx, path)}
	}
}

func deleteCmd(ctx context.Context, d Deleter, id string) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg(d.Delete(ctx, id))
	}
}

func logoutCmd(ctx context.Context, s Session, g Gallery) tea.Cmd {
	return func() tea.Msg {
		err := s.Logout(ctx)
		g.Dispatch(gallery.LoggedOut{})
		return logoutDoneMsg{err: err}
	}
}

func probeCmd(ctx context.Context, p *gateway.Prober, t *gateway.Tracker, id string) tea.Cmd {
	return func() tea.Msg {
		return probeDoneMsg{contentID: id, url: gateway.Settle(ctx, p, t, id)}
	}
}

func loadLogsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogBufferLimit)
		return logsLoadedMsg{lines: lines, err: err}
	}
}
