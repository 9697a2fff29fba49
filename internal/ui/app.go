package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/five82/pinwall/internal/deletion"
	"github.com/five82/pinwall/internal/gallery"
	"github.com/five82/pinwall/internal/gateway"
	"github.com/five82/pinwall/internal/prefs"
	"github.com/five82/pinwall/internal/upload"
)

// View represents the current active view.
type View int

const (
	ViewGallery View = iota
	ViewLogs
)

// Gallery is the store as the UI uses it.
type Gallery interface {
	Snapshot() gallery.State
	Subscribe(ctx context.Context) <-chan gallery.State
	Refresh(ctx context.Context) error
	Dispatch(e gallery.Event) gallery.State
}

// Uploader uploads a local file by path.
type Uploader interface {
	UploadFile(ctx context.Context, path string) upload.Result
}

// Deleter unpins one content id.
type Deleter interface {
	Delete(ctx context.Context, contentID string) deletion.Result
}

// Session ends the current login.
type Session interface {
	Logout(ctx context.Context) error
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Gallery   Gallery
	Uploads   Uploader
	Deletions Deleter
	Session   Session
	Resolver  *gateway.Resolver
	Tracker   *gateway.Tracker
	// Prober is optional; without it gateways only advance on n.
	Prober    *gateway.Prober
	LogPath   string
	ThemeName string
	PrefsPath string
	UploadDir string
	Logger    zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	gallery   Gallery
	uploads   Uploader
	deletions Deleter
	session   Session
	resolver  *gateway.Resolver
	tracker   *gateway.Tracker
	prober    *gateway.Prober
	log       zerolog.Logger
	logPath   string
	prefsPath string
	uploadDir string

	theme   Theme
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	table   table.Model
	detail  viewport.Model
	logView viewport.Model
	logs    logState

	states      <-chan gallery.State
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal

	state    gallery.State
	inflight int
	activity string
	flash    gallery.Notice
	probed   map[string]struct{}
}

// New creates a new Bubble Tea model and subscribes it to the gallery.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = gateway.NewResolver(nil, "")
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = gateway.NewTracker(resolver)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		gallery:     opts.Gallery,
		uploads:     opts.Uploads,
		deletions:   opts.Deletions,
		session:     opts.Session,
		resolver:    resolver,
		tracker:     tracker,
		prober:      opts.Prober,
		log:         opts.Logger,
		logPath:     opts.LogPath,
		prefsPath:   opts.PrefsPath,
		uploadDir:   opts.UploadDir,
		theme:       GetTheme(opts.ThemeName),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     sp,
		table:       table.New(table.WithFocused(true)),
		logs:        logState{follow: true},
		currentView: ViewGallery,
		state:       gallery.Empty(),
		probed:      make(map[string]struct{}),
	}
	m.applyThemeStyles()

	if m.gallery != nil {
		m.state = m.gallery.Snapshot()
		m.states = m.gallery.Subscribe(ctx)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.states),
		m.spinner.Tick,
		tickCmd(uiTick),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case stateMsg:
		m.applyState(gallery.State(msg))
		cmds := append(m.autoProbe(), waitForState(m.states))
		return m, tea.Batch(cmds...)

	case refreshDoneMsg:
		m.endActivity()
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.log.Debug().Err(msg.err).Msg("manual refresh failed")
		}
		return m, nil

	case uploadRequestedMsg:
		if m.uploads == nil {
			return m, nil
		}
		m.startActivity("uploading " + filepath.Base(msg.path))
		return m, uploadCmd(m.ctx, m.uploads, msg.path)

	case uploadDoneMsg:
		m.endActivity()
		m.handleUploadDone(msg)
		return m, nil

	case deleteConfirmedMsg:
		if m.deletions == nil {
			return m, nil
		}
		m.startActivity("deleting " + truncateMiddle(msg.contentID, 16))
		return m, deleteCmd(m.ctx, m.deletions, msg.contentID)

	case deleteDoneMsg:
		m.endActivity()
		if msg.Outcome == deletion.Deleted {
			m.tracker.Forget(msg.ContentID)
		}
		return m, nil

	case logoutDoneMsg:
		m.endActivity()
		if msg.err != nil {
			m.flash = gallery.Notice{Level: gallery.NoticeWarning, Text: "logout request failed; local session cleared"}
		}
		return m, nil

	case probeDoneMsg:
		m.refreshRows()
		return m, nil

	case logsLoadedMsg:
		m.handleLogsLoaded(msg)
		return m, nil

	case tickMsg:
		m.refreshRows()
		cmds := []tea.Cmd{tickCmd(uiTick)}
		if m.currentView == ViewLogs && m.logs.follow {
			cmds = append(cmds, loadLogsCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderGallery())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	m.flash = gallery.Notice{}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyThemeStyles()
		m.updateDetail()
		m.logs.rendered = false
		m.updateLogViewport()
		name := m.theme.Name
		if _, err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name }); err != nil {
			m.log.Warn().Err(err).Msg("save theme preference")
		}
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, loadLogsCmd(m.logPath)

	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewGallery
		return m, nil
	}

	switch m.currentView {
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleGalleryKey(msg)
	}
}

func (m Model) handleGalleryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		if m.gallery == nil {
			return m, nil
		}
		m.startActivity("refreshing")
		return m, refreshCmd(m.ctx, m.gallery)

	case key.Matches(msg, m.keys.Upload):
		if m.uploads == nil {
			return m, nil
		}
		m.modal = newUploadPrompt(m.uploadDir)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Delete):
		if id := m.selectedID(); id != "" && m.deletions != nil {
			m.modal = confirmDeleteModal{contentID: id}
		}
		return m, nil

	case key.Matches(msg, m.keys.Probe):
		id := m.selectedID()
		if id == "" || m.prober == nil {
			return m, nil
		}
		return m, probeCmd(m.ctx, m.prober, m.tracker, id)

	case key.Matches(msg, m.keys.NextGateway):
		if id := m.selectedID(); id != "" {
			m.tracker.LoadFailed(id, m.tracker.Attempt(id))
			m.refreshRows()
		}
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		if m.session == nil || m.gallery == nil {
			return m, nil
		}
		m.startActivity("logging out")
		return m, logoutCmd(m.ctx, m.session, m.gallery)

	case key.Matches(msg, m.keys.Up):
		m.table.MoveUp(1)
	case key.Matches(msg, m.keys.Down):
		m.table.MoveDown(1)
	case key.Matches(msg, m.keys.Top):
		m.table.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.table.GotoBottom()
	default:
		return m, nil
	}
	m.updateDetail()
	return m, nil
}

func (m *Model) handleUploadDone(msg uploadDoneMsg) {
	res := msg.result
	switch res.Outcome {
	case upload.Uploaded:
		dir := filepath.Dir(msg.path)
		if dir != m.uploadDir {
			m.uploadDir = dir
			if _, err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.UploadDir = dir }); err != nil {
				m.log.Warn().Err(err).Msg("save upload dir preference")
			}
		}
		if res.RefreshErr != nil {
			m.flash = gallery.Notice{Level: gallery.NoticeWarning, Text: res.Message + "; gallery refresh failed"}
		}
	case upload.NoFileSelected:
		m.flash = gallery.Notice{Level: gallery.NoticeWarning, Text: res.Message}
	}
}

func (m *Model) applyState(s gallery.State) {
	prev := m.selectedID()
	m.state = s
	m.refreshRows()
	if prev != "" {
		for i, item := range s.Items {
			if item.ContentID == prev {
				m.table.SetCursor(i)
				break
			}
		}
	}
	if n := len(s.Items); n > 0 && m.table.Cursor() >= n {
		m.table.SetCursor(n - 1)
	}
	m.updateDetail()
}

// autoProbe checks gateways once for every newly seen item.
func (m *Model) autoProbe() []tea.Cmd {
	if m.prober == nil {
		return nil
	}
	var cmds []tea.Cmd
	for _, item := range m.state.Items {
		if _, seen := m.probed[item.ContentID]; seen {
			continue
		}
		m.probed[item.ContentID] = struct{}{}
		cmds = append(cmds, probeCmd(m.ctx, m.prober, m.tracker, item.ContentID))
	}
	return cmds
}

func (m *Model) startActivity(label string) {
	m.inflight++
	m.activity = label
}

func (m *Model) endActivity() {
	m.inflight = max(m.inflight-1, 0)
	if m.inflight == 0 {
		m.activity = ""
	}
}

func (m Model) selectedID() string {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.state.Items) {
		return ""
	}
	return m.state.Items[idx].ContentID
}

func (m *Model) applyThemeStyles() {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(m.theme.Accent))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(m.theme.SelectionText)).
		Background(lipgloss.Color(m.theme.SelectionBg)).
		Bold(false)
	s.Cell = s.Cell.Foreground(lipgloss.Color(m.theme.Text))
	m.table.SetStyles(s)

	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning))

	m.help.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning))
	m.help.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted))
	m.help.Styles.FullKey = m.help.Styles.ShortKey
	m.help.Styles.FullDesc = m.help.Styles.ShortDesc
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

const uiTick = 2 * time.Second
