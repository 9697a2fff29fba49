package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

type deleteConfirmedMsg struct{ contentID string }

type uploadRequestedMsg struct{ path string }

// confirmDeleteModal asks before unpinning; deletion cannot be undone.
type confirmDeleteModal struct {
	contentID string
}

func (d confirmDeleteModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil, false
	}
	switch {
	case key.Matches(k, keys.Confirm):
		id := d.contentID
		return d, func() tea.Msg { return deleteConfirmedMsg{contentID: id} }, true
	case key.Matches(k, keys.Cancel):
		return d, nil, true
	}
	return d, nil, false
}

func (d confirmDeleteModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := fmt.Sprintf("%s\n\n%s\n\n%s",
		styles.DangerText.Render("Unpin content?"),
		styles.Text.Render(d.contentID),
		styles.MutedText.Render("This cannot be undone. y to confirm, n to cancel"),
	)
	return placeDialog(theme, theme.Danger, body, width, height)
}

// uploadPromptModal collects a local file path.
type uploadPromptModal struct {
	input textinput.Model
}

func newUploadPrompt(startDir string) uploadPromptModal {
	ti := textinput.New()
	ti.Placeholder = "/path/to/file.png"
	ti.CharLimit = 4096
	ti.Width = 56
	if dir := strings.TrimSpace(startDir); dir != "" {
		ti.SetValue(filepath.Clean(dir) + string(filepath.Separator))
	}
	ti.Focus()
	return uploadPromptModal{input: ti}
}

func (u uploadPromptModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Submit):
			path := strings.TrimSpace(u.input.Value())
			return u, func() tea.Msg { return uploadRequestedMsg{path: path} }, true
		case k.Type == tea.KeyEsc:
			return u, nil, true
		}
	}
	var cmd tea.Cmd
	u.input, cmd = u.input.Update(msg)
	return u, cmd, false
}

func (u uploadPromptModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := fmt.Sprintf("%s\n\n%s\n\n%s",
		styles.AccentText.Bold(true).Render("Upload file"),
		u.input.View(),
		styles.MutedText.Render("enter to upload, esc to cancel"),
	)
	return placeDialog(theme, theme.Accent, body, width, height)
}

func placeDialog(theme Theme, border, body string, width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2).
		Width(min(64, max(width-4, 20))).
		Render(body)
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
