package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/notesorter/pkg/events"
	"github.com/ilkoid/notesorter/pkg/report"
)

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name string
		data events.EventData
		want string
	}{
		{name: "extracted", data: events.FileExtractedData{Key: "note1.txt", Chars: 31}, want: "note1.txt: extracted (31 chars)"},
		{name: "cached text", data: events.FileExtractedData{Key: "note1.txt", Cached: true}, want: "note1.txt: text cached"},
		{name: "classified", data: events.FileClassifiedData{Key: "fix1.txt", Category: "hardware"}, want: "fix1.txt: hardware"},
		{name: "failed", data: events.FileFailedData{Key: "rec.mp3", Stage: "extract", Err: errors.New("503")}, want: "rec.mp3 [extract]: 503"},
		{name: "skipped", data: events.FileSkippedData{Key: "a.pdf", Reason: "unknown kind"}, want: "a.pdf: skipped (unknown kind)"},
		{name: "report", data: events.ReportData{Path: "report.json"}, want: "Report written to report.json"},
		{name: "submitted", data: events.SubmittedData{Task: "kategorie", OK: true}, want: `Submitted task "kategorie"`},
		{name: "submit failed", data: events.SubmittedData{Task: "kategorie"}, want: "failed, see log"},
		{name: "done", data: events.DoneData{Files: 3, Extracted: 2, Duration: 1500 * time.Millisecond}, want: "Done in 1.5s: 3 files, 2 extracted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, ok := FormatEvent(events.Event{Data: tt.data})
			require.True(t, ok)
			assert.Contains(t, line, tt.want)
		})
	}

	_, ok := FormatEvent(events.Event{Data: events.FileStartedData{Key: "x"}})
	assert.False(t, ok)
}

func TestSummary(t *testing.T) {
	out := Summary(report.Groups{
		"people":   {"note1.txt", "note2.txt"},
		"hardware": {"fix1.txt"},
	}, 40)

	assert.Contains(t, out, "hardware (1)\n  fix1.txt")
	assert.Contains(t, out, "people (2)\n  note1.txt, note2.txt")
	assert.Less(t, bytes.Index([]byte(out), []byte("hardware")), bytes.Index([]byte(out), []byte("people")))

	assert.Contains(t, Summary(nil, 40), "No classified files")
}

type sliceSubscriber struct {
	ch chan events.Event
}

func newSliceSubscriber(evs ...events.Event) *sliceSubscriber {
	ch := make(chan events.Event, len(evs))
	for _, ev := range evs {
		ch <- ev
	}
	close(ch)
	return &sliceSubscriber{ch: ch}
}

func (s *sliceSubscriber) Events() <-chan events.Event { return s.ch }
func (s *sliceSubscriber) Close()                      {}

func TestModel_ConsumesEvents(t *testing.T) {
	groups := report.Groups{"people": {"note1.txt"}}
	sub := newSliceSubscriber(
		events.New(events.EventFileStarted, events.FileStartedData{Key: "note1.txt", Index: 1, Total: 1}),
		events.New(events.EventFileClassified, events.FileClassifiedData{Key: "note1.txt", Category: "people"}),
		events.New(events.EventReportWritten, events.ReportData{Path: "report.json", Groups: groups}),
	)

	var m tea.Model = NewModel("notesorter", sub, nil)

	// Прокачиваем события так же, как это делал бы рантайм Bubble Tea
	cmd := waitForEvent(sub)
	for i := 0; i < 10 && cmd != nil; i++ {
		msg := cmd()
		m, cmd = m.Update(msg)
		if _, closed := msg.(closedMsg); closed {
			break
		}
	}

	model := m.(Model)
	assert.True(t, model.done)
	assert.Equal(t, groups, model.groups)
	assert.Equal(t, 1, model.total)

	view := model.View()
	assert.Contains(t, view, "notesorter")
	assert.Contains(t, view, "note1.txt: people")
	assert.Contains(t, view, "people (1)")
}

func TestModel_CtrlCCancels(t *testing.T) {
	cancelled := false
	m := NewModel("notesorter", newSliceSubscriber(), func() { cancelled = true })

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, cancelled)
	assert.Nil(t, cmd, "UI waits for the pipeline to close the stream")
	assert.Contains(t, next.(Model).View(), "Stopping")
}

func TestModel_ViewFitsHeight(t *testing.T) {
	m := NewModel("notesorter", newSliceSubscriber(), nil)
	for i := 0; i < 50; i++ {
		m = m.apply(events.New(events.EventFileSkipped, events.FileSkippedData{Key: "x.pdf", Reason: "unknown kind"}))
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 10})
	assert.Len(t, next.(Model).visibleLines(), 7)
}

func TestPlain(t *testing.T) {
	sub := newSliceSubscriber(
		events.New(events.EventFileStarted, events.FileStartedData{Key: "fix1.txt"}),
		events.New(events.EventFileClassified, events.FileClassifiedData{Key: "fix1.txt", Category: "hardware"}),
		events.New(events.EventReportWritten, events.ReportData{Path: "r.json", Groups: report.Groups{"hardware": {"fix1.txt"}}}),
	)

	var buf bytes.Buffer
	Plain(&buf, sub, 80)

	out := buf.String()
	assert.Contains(t, out, "fix1.txt: hardware")
	assert.Contains(t, out, "Report written to r.json")
	assert.Contains(t, out, "hardware (1)")
}
