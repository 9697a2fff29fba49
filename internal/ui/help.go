package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	title := styles.Text.Bold(true).Render("Keyboard Shortcuts")
	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		styles.FaintText.Render("any key closes help"),
	)
	return placeDialog(m.theme, m.theme.Accent, body, m.width, m.height)
}
