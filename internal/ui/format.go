package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wrap"

	"github.com/ilkoid/notesorter/pkg/events"
	"github.com/ilkoid/notesorter/pkg/report"
)

// FormatEvent возвращает строку лога для события.
// false означает, что событие строки не даёт (например, начало файла).
func FormatEvent(ev events.Event) (string, bool) {
	switch d := ev.Data.(type) {
	case events.FileExtractedData:
		if d.Cached {
			return dimStyle(fmt.Sprintf("• %s: text cached", d.Key)), true
		}
		return okStyle(fmt.Sprintf("✓ %s: extracted (%d chars)", d.Key, d.Chars)), true

	case events.FileClassifiedData:
		line := fmt.Sprintf("→ %s: %s", d.Key, categoryStyle(d.Category))
		if d.Cached {
			line += dimStyle(" (cached)")
		}
		return line, true

	case events.FileFailedData:
		return errorStyle(fmt.Sprintf("✗ %s [%s]: %v", d.Key, d.Stage, d.Err)), true

	case events.FileSkippedData:
		return dimStyle(fmt.Sprintf("- %s: skipped (%s)", d.Key, d.Reason)), true

	case events.ReportData:
		return fmt.Sprintf("Report written to %s", d.Path), true

	case events.SubmittedData:
		if d.OK {
			return okStyle(fmt.Sprintf("Submitted task %q", d.Task)), true
		}
		return errorStyle(fmt.Sprintf("Submission of task %q failed, see log", d.Task)), true

	case events.DoneData:
		return fmt.Sprintf("Done in %s: %d files, %d extracted, %d skipped, %d failed",
			d.Duration.Round(time.Millisecond), d.Files, d.Extracted, d.Skipped, d.Failed), true
	}
	return "", false
}

// Summary рендерит группы: заголовок категории и список файлов под ним.
// Длинные списки переносятся по width.
func Summary(g report.Groups, width int) string {
	if len(g) == 0 {
		return dimStyle("No classified files.")
	}
	if width <= 0 {
		width = 80
	}

	var sb strings.Builder
	for _, category := range g.Categories() {
		keys := g[category]
		sb.WriteString(categoryStyle(fmt.Sprintf("%s (%d)", category, len(keys))))
		sb.WriteString("\n")
		body := wrap.String(strings.Join(keys, ", "), width-2)
		sb.WriteString(indent.String(body, 2))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
