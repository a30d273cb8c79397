// Package events предоставляет интерфейсы для реализации Port & Adapter паттерна.
//
// Это Port (интерфейс) для подписки на прогресс пайплайна.
// Позволяет подключать любой UI (TUI, простой вывод) без изменения
// логики оркестратора.
//
// # Basic Usage
//
//	// В оркестраторе (internal/pipeline/):
//	p := pipeline.New(deps, pipeline.WithEmitter(emitter))
//
//	// В UI (internal/ui/):
//	for event := range sub.Events() {
//	    switch event.Type {
//	    case events.EventFileStarted:
//	        ui.showSpinner()
//	    case events.EventFileClassified:
//	        ui.showLine(event.Data)
//	    }
//	}
//
// # Context
//
// Emitter.Emit() принимает context.Context для отмены операции.
package events

import (
	"context"
	"time"
)

// EventType представляет тип события пайплайна.
type EventType string

const (
	// EventFileStarted отправляется перед обработкой файла.
	EventFileStarted EventType = "file_started"

	// EventFileExtracted отправляется когда текст файла получен (или взят из кэша).
	EventFileExtracted EventType = "file_extracted"

	// EventFileClassified отправляется когда файлу назначена категория.
	EventFileClassified EventType = "file_classified"

	// EventFileFailed отправляется при ошибке обработки одного файла.
	EventFileFailed EventType = "file_failed"

	// EventFileSkipped отправляется для файлов неизвестного типа.
	EventFileSkipped EventType = "file_skipped"

	// EventReportWritten отправляется после сохранения отчёта.
	EventReportWritten EventType = "report_written"

	// EventSubmitted отправляется после попытки отправки ответа.
	EventSubmitted EventType = "submitted"

	// EventDone отправляется в конце запуска.
	EventDone EventType = "done"
)

// EventData — sealed interface для данных события.
//
// Только типы из пакета events могут реализовать этот интерфейс.
type EventData interface {
	eventData()
}

// FileStartedData содержит данные для EventFileStarted.
type FileStartedData struct {
	Key   string
	Kind  string
	Index int // с единицы
	Total int
}

func (FileStartedData) eventData() {}

// FileExtractedData содержит данные для EventFileExtracted.
type FileExtractedData struct {
	Key    string
	Chars  int
	Cached bool
}

func (FileExtractedData) eventData() {}

// FileClassifiedData содержит данные для EventFileClassified.
type FileClassifiedData struct {
	Key      string
	Category string
	Cached   bool
}

func (FileClassifiedData) eventData() {}

// FileFailedData содержит данные для EventFileFailed.
type FileFailedData struct {
	Key   string
	Stage string // read, extract, classify, persist
	Err   error
}

func (FileFailedData) eventData() {}

// FileSkippedData содержит данные для EventFileSkipped.
type FileSkippedData struct {
	Key    string
	Reason string
}

func (FileSkippedData) eventData() {}

// ReportData содержит данные для EventReportWritten.
type ReportData struct {
	Path   string
	Groups map[string][]string
}

func (ReportData) eventData() {}

// SubmittedData содержит данные для EventSubmitted.
type SubmittedData struct {
	Task   string
	Answer map[string][]string
	OK     bool
}

func (SubmittedData) eventData() {}

// DoneData содержит итог запуска.
type DoneData struct {
	RunID     string
	Files     int
	Extracted int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

func (DoneData) eventData() {}

// Event представляет событие пайплайна.
//
// Data содержит типизированные данные события (EventData):
//   - EventFileStarted: FileStartedData
//   - EventFileExtracted: FileExtractedData
//   - EventFileClassified: FileClassifiedData
//   - EventFileFailed: FileFailedData
//   - EventFileSkipped: FileSkippedData
//   - EventReportWritten: ReportData
//   - EventSubmitted: SubmittedData
//   - EventDone: DoneData
type Event struct {
	Type      EventType
	Data      EventData
	Timestamp time.Time
}

// New создаёт событие с текущим временем.
func New(t EventType, data EventData) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// Emitter — это Port для отправки событий.
type Emitter interface {
	// Emit отправляет событие. Отменённый context прерывает ожидание.
	Emit(ctx context.Context, event Event)
}

// Subscriber позволяет читать события из канала.
type Subscriber interface {
	// Events возвращает read-only канал событий.
	//
	// Канал закрывается при закрытии эмиттера.
	Events() <-chan Event

	// Close освобождает ресурсы подписчика.
	Close()
}

// NopEmitter отбрасывает все события.
type NopEmitter struct{}

// Emit ничего не делает.
func (NopEmitter) Emit(context.Context, Event) {}

var _ Emitter = NopEmitter{}
