package ui

import (
	"fmt"
	"io"

	"github.com/ilkoid/notesorter/pkg/events"
	"github.com/ilkoid/notesorter/pkg/report"
)

// Plain печатает события построчно, пока подписка не закроется,
// затем выводит итог по группам.
func Plain(w io.Writer, sub events.Subscriber, width int) {
	var groups report.Groups
	for ev := range sub.Events() {
		if d, ok := ev.Data.(events.ReportData); ok {
			groups = d.Groups
		}
		if line, ok := FormatEvent(ev); ok {
			fmt.Fprintln(w, line)
		}
	}
	if groups != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, Summary(groups, width))
	}
}
