// Package ui реализует Bubble Tea TUI прогресса пайплайна.
//
// UI только читает события из events.Subscriber (Port & Adapter):
// пайплайн работает в своей горутине и о UI не знает.
package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/notesorter/pkg/events"
	"github.com/ilkoid/notesorter/pkg/report"
)

// maxLines — сколько последних строк лога держать на экране.
const maxLines = 200

// eventMsg — событие пайплайна внутри Bubble Tea.
type eventMsg events.Event

// closedMsg — канал событий закрыт, пайплайн завершился.
type closedMsg struct{}

// Model — главная модель UI (Bubble Tea Model).
type Model struct {
	sub     events.Subscriber
	cancel  context.CancelFunc
	spinner spinner.Model

	title   string
	current string // файл в обработке
	index   int
	total   int
	lines   []string
	groups  report.Groups
	width   int
	height  int
	done    bool
}

// NewModel создаёт модель. cancel вызывается по Ctrl+C.
func NewModel(title string, sub events.Subscriber, cancel context.CancelFunc) Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(spinnerStyle),
	)
	return Model{
		sub:     sub,
		cancel:  cancel,
		spinner: s,
		title:   title,
		width:   80,
	}
}

// Init запускает спиннер и чтение событий.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.sub))
}

// waitForEvent читает одно событие из подписки.
func waitForEvent(sub events.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.Events()
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

// Update обрабатывает сообщения Bubble Tea.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.done {
				return m, tea.Quit
			}
			// Просим пайплайн остановиться; выходим, когда закроется канал
			if m.cancel != nil {
				m.cancel()
			}
			m.lines = appendLine(m.lines, dimStyle("Stopping after current file..."))
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m = m.apply(events.Event(msg))
		return m, waitForEvent(m.sub)

	case closedMsg:
		m.done = true
		m.current = ""
		return m, tea.Quit
	}

	return m, nil
}

// apply обновляет состояние по событию.
func (m Model) apply(ev events.Event) Model {
	switch d := ev.Data.(type) {
	case events.FileStartedData:
		m.current = d.Key
		m.index = d.Index
		m.total = d.Total
	case events.ReportData:
		m.groups = d.Groups
	}

	if line, ok := FormatEvent(ev); ok {
		m.lines = appendLine(m.lines, line)
	}
	return m
}

func appendLine(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines
}

// Run показывает TUI до закрытия подписки.
func Run(title string, sub events.Subscriber, cancel context.CancelFunc) error {
	_, err := tea.NewProgram(NewModel(title, sub, cancel)).Run()
	return err
}
