package logtail

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Line is one parsed console log line:
//
//	2025-10-08 21:01:05 INF upload acknowledged content_id=Qm.. file=a.png
type Line struct {
	Time    string
	Level   string
	Message string
	Fields  []Field
	Raw     string
}

// Field is one key=value pair from a log line.
type Field struct {
	Key   string
	Value string
}

var (
	linePattern  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}\S*)\s+(TRC|DBG|INF|WRN|ERR|FTL|PNC|\?\?\?)\s+(.*)$`)
	fieldPattern = regexp.MustCompile(`\s([A-Za-z_][A-Za-z0-9_.-]*)=("(?:[^"\\]|\\.)*"|\S*)`)
)

// Parse splits a console log line. ok is false for lines that do not start
// with a timestamp and level, such as wrapped stack traces.
func Parse(raw string) (Line, bool) {
	m := linePattern.FindStringSubmatch(raw)
	if m == nil {
		return Line{Raw: raw}, false
	}
	line := Line{Time: m[1], Level: m[2], Raw: raw}

	rest := " " + m[3]
	locs := fieldPattern.FindAllStringSubmatchIndex(rest, -1)
	if len(locs) == 0 {
		line.Message = strings.TrimSpace(m[3])
		return line, true
	}
	line.Message = strings.TrimSpace(rest[:locs[0][0]])
	for _, loc := range locs {
		line.Fields = append(line.Fields, Field{
			Key:   rest[loc[2]:loc[3]],
			Value: rest[loc[4]:loc[5]],
		})
	}
	return line, true
}

// Palette styles each part of a log line.
type Palette struct {
	Time    lipgloss.Style
	Message lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Levels  map[string]lipgloss.Style
}

// DefaultPalette is tuned for dark terminals.
func DefaultPalette() Palette {
	return Palette{
		Time:    lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		Message: lipgloss.NewStyle(),
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF")),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("#D7AFFF")),
		Levels: map[string]lipgloss.Style{
			"DBG": lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
			"INF": lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
			"WRN": lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
			"ERR": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
			"FTL": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		},
	}
}

// ColorizeLine renders raw with p. Unparsed lines come back unchanged.
func (p Palette) ColorizeLine(raw string) string {
	line, ok := Parse(raw)
	if !ok {
		return raw
	}
	level, found := p.Levels[line.Level]
	if !found {
		level = lipgloss.NewStyle()
	}

	var b strings.Builder
	b.WriteString(p.Time.Render(line.Time))
	b.WriteByte(' ')
	b.WriteString(level.Render(line.Level))
	if line.Message != "" {
		b.WriteByte(' ')
		b.WriteString(p.Message.Render(line.Message))
	}
	for _, f := range line.Fields {
		b.WriteByte(' ')
		b.WriteString(p.Key.Render(f.Key + "="))
		b.WriteString(p.Value.Render(f.Value))
	}
	return b.String()
}

// ColorizeLines applies ColorizeLine to each line.
func (p Palette) ColorizeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = p.ColorizeLine(line)
	}
	return out
}
