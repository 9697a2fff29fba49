package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/pinwall/internal/deletion"
	"github.com/five82/pinwall/internal/gallery"
	"github.com/five82/pinwall/internal/gateway"
	"github.com/five82/pinwall/internal/pinning"
	"github.com/five82/pinwall/internal/prefs"
	"github.com/five82/pinwall/internal/upload"
)

type fakeGallery struct {
	state     gallery.State
	ch        chan gallery.State
	refreshes int
	events    []gallery.Event
}

func (f *fakeGallery) Snapshot() gallery.State { return f.state }

func (f *fakeGallery) Subscribe(context.Context) <-chan gallery.State { return f.ch }

func (f *fakeGallery) Refresh(context.Context) error {
	f.refreshes++
	return nil
}

func (f *fakeGallery) Dispatch(e gallery.Event) gallery.State {
	f.events = append(f.events, e)
	return f.state
}

type fakeUploads struct{ paths []string }

func (f *fakeUploads) UploadFile(_ context.Context, path string) upload.Result {
	f.paths = append(f.paths, path)
	return upload.Result{Outcome: upload.Uploaded, FileName: filepath.Base(path)}
}

type fakeDeletions struct{ ids []string }

func (f *fakeDeletions) Delete(_ context.Context, id string) deletion.Result {
	f.ids = append(f.ids, id)
	return deletion.Result{Outcome: deletion.Deleted, ContentID: id}
}

type fakeSession struct{ logouts int }

func (f *fakeSession) Logout(context.Context) error {
	f.logouts++
	return nil
}

type fixture struct {
	model     Model
	gallery   *fakeGallery
	uploads   *fakeUploads
	deletions *fakeDeletions
	session   *fakeSession
	prefsPath string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gallery:   &fakeGallery{state: gallery.Empty(), ch: make(chan gallery.State, 1)},
		uploads:   &fakeUploads{},
		deletions: &fakeDeletions{},
		session:   &fakeSession{},
		prefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	}
	resolver := gateway.NewResolver([]string{"a.example", "b.example"}, "")
	f.model = New(Options{
		Gallery:   f.gallery,
		Uploads:   f.uploads,
		Deletions: f.deletions,
		Session:   f.session,
		Resolver:  resolver,
		Tracker:   gateway.NewTracker(resolver),
		ThemeName: "Slate",
		PrefsPath: f.prefsPath,
	})
	f.send(tea.WindowSizeMsg{Width: 140, Height: 40})
	return f
}

func (f *fixture) send(msg tea.Msg) tea.Cmd {
	next, cmd := f.model.Update(msg)
	f.model = next.(Model)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func withItems(ids ...string) gallery.State {
	s := gallery.Empty()
	for _, id := range ids {
		s.Items = append(s.Items, pinning.PinnedFile{ContentID: id, CreatedAt: time.Now().Add(-time.Hour)})
	}
	return s
}

func TestModel_StateUpdatesRows(t *testing.T) {
	f := newFixture(t)
	f.send(stateMsg(withItems("QmA", "QmB")))

	if got := len(f.model.table.Rows()); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
	if got := f.model.selectedID(); got != "QmA" {
		t.Fatalf("selectedID = %q, want QmA", got)
	}

	f.send(runes("j"))
	if got := f.model.selectedID(); got != "QmB" {
		t.Fatalf("selectedID after down = %q, want QmB", got)
	}

	// Selection follows the item when the list shifts.
	f.send(stateMsg(withItems("QmNew", "QmA", "QmB")))
	if got := f.model.selectedID(); got != "QmB" {
		t.Fatalf("selectedID after update = %q, want QmB", got)
	}

	// And clamps when the selected item disappears.
	f.send(stateMsg(withItems("QmA")))
	if got := f.model.selectedID(); got != "QmA" {
		t.Fatalf("selectedID after removal = %q, want QmA", got)
	}
}

func TestModel_DeleteRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	f.send(stateMsg(withItems("QmA")))

	f.send(runes("x"))
	if f.model.modal == nil {
		t.Fatalf("delete key did not open confirmation")
	}
	if len(f.deletions.ids) != 0 {
		t.Fatalf("delete ran before confirmation")
	}

	cmd := f.send(runes("y"))
	if f.model.modal != nil {
		t.Fatalf("modal still open after confirm")
	}
	if cmd == nil {
		t.Fatalf("confirm returned nil cmd")
	}
	confirmed, ok := cmd().(deleteConfirmedMsg)
	if !ok || confirmed.contentID != "QmA" {
		t.Fatalf("confirm msg = %#v", confirmed)
	}

	cmd = f.send(confirmed)
	if f.model.activity == "" {
		t.Fatalf("activity not shown while deleting")
	}
	done := cmd()
	f.send(done)
	if len(f.deletions.ids) != 1 || f.deletions.ids[0] != "QmA" {
		t.Fatalf("deleted = %v, want [QmA]", f.deletions.ids)
	}
	if f.model.activity != "" {
		t.Fatalf("activity = %q after completion", f.model.activity)
	}
}

func TestModel_DeleteCancelled(t *testing.T) {
	f := newFixture(t)
	f.send(stateMsg(withItems("QmA")))

	f.send(runes("x"))
	if cmd := f.send(tea.KeyMsg{Type: tea.KeyEsc}); cmd != nil {
		t.Fatalf("cancel returned a cmd")
	}
	if f.model.modal != nil {
		t.Fatalf("modal still open after cancel")
	}
	if len(f.deletions.ids) != 0 {
		t.Fatalf("delete ran after cancel")
	}
}

func TestModel_UploadPromptRemembersDirectory(t *testing.T) {
	f := newFixture(t)

	f.send(runes("u"))
	if _, ok := f.model.modal.(uploadPromptModal); !ok {
		t.Fatalf("modal = %T, want uploadPromptModal", f.model.modal)
	}

	path := filepath.Join(t.TempDir(), "pic.png")
	f.send(runes(path))
	cmd := f.send(tea.KeyMsg{Type: tea.KeyEnter})
	req, ok := cmd().(uploadRequestedMsg)
	if !ok || req.path != path {
		t.Fatalf("upload request = %#v, want path %q", req, path)
	}

	cmd = f.send(req)
	f.send(cmd())

	if len(f.uploads.paths) != 1 || f.uploads.paths[0] != path {
		t.Fatalf("uploaded = %v", f.uploads.paths)
	}
	if f.model.uploadDir != filepath.Dir(path) {
		t.Fatalf("uploadDir = %q, want %q", f.model.uploadDir, filepath.Dir(path))
	}
	saved, err := prefs.Load(f.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.UploadDir != filepath.Dir(path) {
		t.Fatalf("saved UploadDir = %q", saved.UploadDir)
	}
}

func TestModel_NoFileSelectedFlashes(t *testing.T) {
	f := newFixture(t)
	f.send(uploadDoneMsg{result: upload.Result{Outcome: upload.NoFileSelected, Message: "no file selected"}})
	if f.model.flash.Level != gallery.NoticeWarning || f.model.flash.Text != "no file selected" {
		t.Fatalf("flash = %+v", f.model.flash)
	}
	if !strings.Contains(f.model.View(), "no file selected") {
		t.Fatalf("view does not show flash")
	}
}

func TestModel_RefreshAndLogout(t *testing.T) {
	f := newFixture(t)

	cmd := f.send(runes("r"))
	f.send(cmd())
	if f.gallery.refreshes != 1 {
		t.Fatalf("refreshes = %d, want 1", f.gallery.refreshes)
	}

	cmd = f.send(runes("L"))
	f.send(cmd())
	if f.session.logouts != 1 {
		t.Fatalf("logouts = %d, want 1", f.session.logouts)
	}
	if len(f.gallery.events) != 1 {
		t.Fatalf("events = %v, want one LoggedOut", f.gallery.events)
	}
	if _, ok := f.gallery.events[0].(gallery.LoggedOut); !ok {
		t.Fatalf("event = %T, want LoggedOut", f.gallery.events[0])
	}
}

func TestModel_NextGatewayAdvancesTracker(t *testing.T) {
	f := newFixture(t)
	f.send(stateMsg(withItems("QmA")))

	if got := f.model.gatewayLabel("QmA"); got != "a.example" {
		t.Fatalf("gateway = %q, want a.example", got)
	}
	f.send(runes("n"))
	if got := f.model.gatewayLabel("QmA"); got != "b.example" {
		t.Fatalf("gateway = %q, want b.example", got)
	}
	f.send(runes("n"))
	if got := f.model.gatewayLabel("QmA"); got != "unavailable" {
		t.Fatalf("gateway = %q, want unavailable", got)
	}
	if !strings.Contains(f.model.renderDetailContent(), "all gateways failed") {
		t.Fatalf("detail does not report exhaustion")
	}
}

func TestModel_CycleThemePersists(t *testing.T) {
	f := newFixture(t)
	f.send(runes("T"))
	if f.model.theme.Name != "Nightfox" {
		t.Fatalf("theme = %q, want Nightfox", f.model.theme.Name)
	}
	saved, _ := prefs.Load(f.prefsPath)
	if saved.Theme != "Nightfox" {
		t.Fatalf("saved theme = %q", saved.Theme)
	}
}

func TestModel_ViewShowsMessageWhenEmpty(t *testing.T) {
	f := newFixture(t)
	s := gallery.Empty()
	s.Message = "authentication required"
	f.send(stateMsg(s))
	if !strings.Contains(f.model.View(), "authentication required") {
		t.Fatalf("view does not show refresh message")
	}
}

func TestWaitForState_ClosedChannelEndsChain(t *testing.T) {
	if waitForState(nil) != nil {
		t.Fatalf("nil channel should yield nil cmd")
	}
	ch := make(chan gallery.State)
	close(ch)
	if msg := waitForState(ch)(); msg != nil {
		t.Fatalf("closed channel msg = %#v, want nil", msg)
	}
}
