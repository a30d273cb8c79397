// Рендер
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// View рендерит хедер, хвост лога, строку прогресса и итог.
func (m Model) View() string {
	status := " " + m.title + " "
	if m.total > 0 {
		status += fmt.Sprintf("| %d/%d ", m.index, m.total)
	}

	header := headerStyle.
		Width(m.width).
		Render(status)

	border := lipgloss.NewStyle().
		Foreground(grayColor).
		Render(strings.Repeat("─", max(m.width, 1)))

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")

	for _, line := range m.visibleLines() {
		sb.WriteString(truncate.StringWithTail(line, uint(max(m.width, 1)), "…"))
		sb.WriteString("\n")
	}

	sb.WriteString(border)
	sb.WriteString("\n")

	if m.done {
		sb.WriteString(Summary(m.groups, m.width))
		sb.WriteString("\n")
		return sb.String()
	}

	if m.current != "" {
		sb.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), m.current))
	} else {
		sb.WriteString(fmt.Sprintf("%s starting...", m.spinner.View()))
	}
	sb.WriteString("\n")
	return sb.String()
}

// visibleLines — хвост лога, который влезает в окно.
func (m Model) visibleLines() []string {
	limit := len(m.lines)
	if m.height > 0 {
		// хедер, разделитель, строка прогресса
		if room := m.height - 3; room < limit {
			limit = max(room, 0)
		}
	}
	return m.lines[len(m.lines)-limit:]
}
