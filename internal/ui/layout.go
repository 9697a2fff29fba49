package ui

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the detail pane is hidden.
	LayoutCompactWidth = 100

	// LayoutAgeWidth is the minimum width to show the age column.
	LayoutAgeWidth = 70
)

// LogBufferLimit is the maximum number of log lines to keep in memory.
const LogBufferLimit = 2000

// chrome is the rows taken by header and footer.
const chrome = 3

func (m *Model) layout() {
	contentHeight := max(m.height-chrome, 3)

	tableWidth := m.width
	if m.width >= LayoutCompactWidth {
		tableWidth = m.width * 3 / 5
	}
	m.table.SetWidth(tableWidth)
	m.table.SetHeight(contentHeight)
	m.table.SetColumns(columnsFor(tableWidth))

	m.detail.Width = max(m.width-tableWidth-4, 0)
	m.detail.Height = max(contentHeight-2, 1)

	m.logView.Width = max(m.width-4, 10)
	// Title row plus box borders.
	m.logView.Height = max(contentHeight-3, 1)

	m.help.Width = m.width

	m.refreshRows()
	m.updateDetail()
	m.logs.rendered = false
	m.updateLogViewport()
}
