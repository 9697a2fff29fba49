package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pinwall/internal/pinning"
)

const (
	colVersion = 4
	colAge     = 6
	colGateway = 22
)

func columnsFor(width int) []table.Column {
	// Each cell carries one column of padding on both sides.
	fixed := colVersion + colGateway + 2*3
	showAge := width >= LayoutAgeWidth
	if showAge {
		fixed += colAge + 2
	}
	cid := max(width-fixed-2, 12)

	cols := []table.Column{
		{Title: "CID", Width: cid},
		{Title: "Ver", Width: colVersion},
	}
	if showAge {
		cols = append(cols, table.Column{Title: "Age", Width: colAge})
	}
	return append(cols, table.Column{Title: "Gateway", Width: colGateway})
}

func (m *Model) refreshRows() {
	cols := m.table.Columns()
	if len(cols) == 0 {
		return
	}
	showAge := len(cols) == 4
	cidWidth := cols[0].Width
	now := time.Now()

	rows := make([]table.Row, 0, len(m.state.Items))
	for _, item := range m.state.Items {
		row := table.Row{
			truncateMiddle(item.ContentID, cidWidth),
			versionLabel(item),
		}
		if showAge {
			row = append(row, ageLabel(item, now))
		}
		row = append(row, m.gatewayLabel(item.ContentID))
		rows = append(rows, row)
	}
	m.table.SetRows(rows)
}

func (m *Model) updateDetail() {
	m.detail.SetContent(m.renderDetailContent())
}

func versionLabel(item pinning.PinnedFile) string {
	if v := item.CIDVersion(); v >= 0 {
		return fmt.Sprintf("v%d", v)
	}
	return "?"
}

func ageLabel(item pinning.PinnedFile, now time.Time) string {
	if item.CreatedAt.IsZero() {
		return "-"
	}
	return humanizeDuration(now.Sub(item.CreatedAt))
}

func (m Model) gatewayLabel(id string) string {
	if m.tracker.Exhausted(id) {
		return "unavailable"
	}
	return hostOf(m.tracker.URL(id))
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	parts := []string{styles.Logo.Render("pinwall")}

	if m.state.Authenticated {
		parts = append(parts, styles.SuccessText.Render("session ok"))
	} else {
		parts = append(parts, styles.MutedText.Render("no session"))
	}

	parts = append(parts, styles.Text.Render(fmt.Sprintf("%d pinned", len(m.state.Items))))

	if m.state.Loading() || m.activity != "" {
		label := m.activity
		if label == "" {
			label = "loading"
		}
		parts = append(parts, m.spinner.View()+" "+styles.WarningText.Render(label))
	}

	if !m.state.LastRefreshed.IsZero() {
		ago := humanizeDuration(time.Since(m.state.LastRefreshed))
		parts = append(parts, styles.FaintText.Render("refreshed "+ago+" ago"))
	}

	sep := styles.FaintText.Render(" • ")
	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	notice := m.flash
	if notice.Text == "" {
		notice = m.state.Notice
	}
	line := ""
	if notice.Text != "" {
		line = styles.NoticeStyle(notice.Level).Render(notice.Text)
	}
	return line + "\n" + styles.Footer.Width(m.width).Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m Model) renderGallery() string {
	styles := m.theme.Styles()
	contentHeight := max(m.height-chrome, 3)

	if len(m.state.Items) == 0 {
		var msg string
		switch {
		case m.state.Message != "":
			msg = styles.DangerText.Render(m.state.Message)
		case m.state.Loading():
			msg = m.spinner.View() + " " + styles.MutedText.Render("loading pinned files...")
		default:
			msg = styles.MutedText.Render("nothing pinned yet; press u to upload")
		}
		return lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, msg)
	}

	tableView := m.table.View()
	if m.width < LayoutCompactWidth {
		return lipgloss.NewStyle().Height(contentHeight).Render(tableView)
	}

	detail := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Width(m.detail.Width).
		Height(m.detail.Height).
		Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, tableView, " ", detail)
}

func (m Model) renderDetailContent() string {
	id := m.selectedID()
	if id == "" {
		return ""
	}
	item := m.state.Items[m.table.Cursor()]
	styles := m.theme.Styles()

	label := func(s string) string {
		return styles.MutedText.Width(10).Render(s)
	}

	var b strings.Builder
	b.WriteString(label("CID") + styles.Text.Render(id) + "\n")
	b.WriteString(label("Version") + styles.Text.Render(versionLabel(item)) + "\n")
	if !item.CreatedAt.IsZero() {
		pinned := item.CreatedAt.Local().Format("2006-01-02 15:04")
		pinned += " (" + ageLabel(item, time.Now()) + " ago)"
		b.WriteString(label("Pinned") + styles.Text.Render(pinned) + "\n")
	}

	attempt := m.tracker.Attempt(id)
	total := m.resolver.Len()
	current := m.tracker.URL(id)
	if m.tracker.Exhausted(id) {
		b.WriteString(label("Gateway") + styles.DangerText.Render("all gateways failed") + "\n")
		b.WriteString(label("Showing") + styles.FaintText.Render(current) + "\n")
	} else {
		b.WriteString(label("Gateway") + styles.Text.Render(fmt.Sprintf("%d/%d %s", attempt+1, total, hostOf(current))) + "\n")
		b.WriteString(label("URL") + styles.AccentText.Render(current) + "\n")
	}

	b.WriteString("\n" + styles.AccentText.Bold(true).Render("Candidates") + "\n")
	for i, u := range m.resolver.Candidates(id) {
		switch {
		case i < attempt:
			b.WriteString(styles.FaintText.Render("✗ " + u))
		case i == attempt:
			b.WriteString(styles.SuccessText.Render("▸ " + u))
		default:
			b.WriteString(styles.MutedText.Render("  " + u))
		}
		b.WriteString("\n")
	}
	return b.String()
}
