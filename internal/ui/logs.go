package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// logState holds the tail of pinwall's own log file.
type logState struct {
	lines    []string
	err      error
	follow   bool
	rendered bool
}

func (m *Model) handleLogsLoaded(msg logsLoadedMsg) {
	m.logs.err = msg.err
	if msg.err == nil {
		m.logs.lines = trimLogBuffer(msg.lines, LogBufferLimit)
	}
	m.logs.rendered = false
	m.updateLogViewport()
}

func (m *Model) updateLogViewport() {
	if m.logView.Width == 0 {
		return
	}
	if !m.logs.rendered {
		palette := m.theme.LogPalette()
		m.logView.SetContent(strings.Join(palette.ColorizeLines(m.logs.lines), "\n"))
		m.logs.rendered = true
	}
	if m.logs.follow {
		m.logView.GotoBottom()
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ToggleFollow) {
		m.logs.follow = !m.logs.follow
		if m.logs.follow {
			m.logView.GotoBottom()
			return m, loadLogsCmd(m.logPath)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	if !m.logView.AtBottom() {
		m.logs.follow = false
	}
	return m, cmd
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()

	title := styles.AccentText.Bold(true).Render("log") + " " + styles.FaintText.Render(m.logPath)
	if m.logs.follow {
		title += " " + styles.SuccessText.Render("[follow]")
	}

	var body string
	switch {
	case m.logs.err != nil:
		body = styles.DangerText.Render(m.logs.err.Error())
	case len(m.logs.lines) == 0:
		body = styles.MutedText.Render("log is empty")
	default:
		body = m.logView.View()
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Width(m.logView.Width + 2).
		Height(m.logView.Height).
		Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, title, box)
}

func trimLogBuffer(lines []string, limit int) []string {
	if limit <= 0 || len(lines) <= limit {
		return lines
	}
	return lines[len(lines)-limit:]
}
