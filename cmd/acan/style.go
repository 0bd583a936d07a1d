package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	columnGutter = "  "
)

// statusStyle picks a color for a status word.
func statusStyle(s string) lipgloss.Style {
	switch s {
	case "ready", "reachable", "completed", "yes", "created":
		return okStyle
	case "disabled", "skipped", "no", "modified":
		return warnStyle
	case "unreachable", "failed", "missing":
		return errStyle
	default:
		return lipgloss.NewStyle()
	}
}

// renderTable lays rows out in left-aligned columns under a bold header.
// Cells may already carry styling; widths are measured without it.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(headers))
		for i := range headers {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			cell = style.Render(cell)
			if i < len(headers)-1 {
				cell += strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			}
			parts[i] = cell
		}
		return strings.TrimRight(strings.Join(parts, columnGutter), " ")
	}

	var b strings.Builder
	b.WriteString(line(headers, headerStyle))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(line(row, lipgloss.NewStyle()))
		b.WriteByte('\n')
	}
	return b.String()
}
