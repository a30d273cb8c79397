// Package pipeline реализует оркестрацию: список файлов → кэш → извлечение
// → классификация → отчёт → отправка.
//
// Запуск идёт в два прохода. Первый извлекает текст всех новых файлов и
// сразу сохраняет его в кэш. Второй классифицирует, так что при включённом
// корпусе каждая заметка видит тексты всех файлов.
//
// Работает только через узкие интерфейсы (extract.Extractor, categorize.Labeler).
// Ошибка одного файла не останавливает запуск; ошибка кэша или отчёта прерывает его.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ilkoid/notesorter/pkg/cache"
	"github.com/ilkoid/notesorter/pkg/categorize"
	"github.com/ilkoid/notesorter/pkg/events"
	"github.com/ilkoid/notesorter/pkg/extract"
	"github.com/ilkoid/notesorter/pkg/filekind"
	"github.com/ilkoid/notesorter/pkg/report"
	"github.com/ilkoid/notesorter/pkg/source"
	"github.com/ilkoid/notesorter/pkg/submit"
	"github.com/ilkoid/notesorter/pkg/utils"
)

// Стадии обработки файла для FileError.
const (
	StageRead     = "read"
	StageExtract  = "extract"
	StageClassify = "classify"
)

// ErrNotConfigured — Run вызван без зависимостей, нужных для извлечения
// и классификации.
var ErrNotConfigured = errors.New("pipeline: dependency not configured")

// FileError — ошибка обработки одного файла. Запуск продолжается.
type FileError struct {
	Key   string
	Stage string
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Key, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Options — параметры одного запуска.
type Options struct {
	// ForceRefresh переклассифицирует файлы с уже известной категорией.
	// Извлечение при этом не повторяется.
	ForceRefresh bool

	// Submit отправляет выбранные группы во внешний сервис.
	Submit bool
}

// Result — итог запуска.
type Result struct {
	RunID      string
	Files      int // файлов в источнике
	Extracted  int // новых извлечений в этом запуске
	Classified int // классификаций в этом запуске
	Skipped    int // файлов неизвестного типа
	Failures   []*FileError
	Groups     report.Groups
	ReportPath string
	Submitted  bool
	Duration   time.Duration
}

// Config конфигурация для создания Pipeline.
type Config struct {
	// Source — откуда брать файлы (обязательный)
	Source source.Source

	// Detector — определение типа по имени (по умолчанию filekind.DefaultRules)
	Detector *filekind.Detector

	// Extractor — извлечение текста (обязательный)
	Extractor extract.Extractor

	// Cache — хранилище результатов (обязательный)
	Cache cache.Store

	// Labeler — классификатор (обязательный)
	Labeler categorize.Labeler

	// Report — запись артефакта отчёта (обязательный)
	Report *report.Writer

	// Reporter — отправка ответа; nil отключает отправку
	Reporter *submit.Reporter

	// Task — имя задачи для отправки
	Task string

	// SubmitCategories — какие группы отправлять
	SubmitCategories []string

	// Emitter — получатель событий прогресса (по умолчанию NopEmitter)
	Emitter events.Emitter
}

// Pipeline выполняет запуски последовательно.
type Pipeline struct {
	cfg Config

	// mu защищает одновременные вызовы Run/Report
	mu sync.Mutex

	now      func() time.Time
	newRunID func() string
}

// New создаёт Pipeline с заданной конфигурацией.
//
// Обязательны только Cache и Report: этого хватает для Report.
// Source, Extractor и Labeler проверяются при вызове Run.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cfg.Cache is required")
	}
	if cfg.Report == nil {
		return nil, fmt.Errorf("cfg.Report is required")
	}

	if cfg.Detector == nil {
		cfg.Detector = filekind.New(filekind.DefaultRules())
	}
	if cfg.Emitter == nil {
		cfg.Emitter = events.NopEmitter{}
	}

	return &Pipeline{
		cfg:      cfg,
		now:      time.Now,
		newRunID: uuid.NewString,
	}, nil
}

// Run выполняет полный запуск.
//
// Возвращает ошибку только при сбое общей инфраструктуры или отмене
// context; ошибки отдельных файлов собираются в Result.Failures.
// При ошибке Result содержит прогресс, сделанный до неё.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := p.now()
	res := &Result{RunID: p.newRunID()}

	if err := p.checkRunDeps(); err != nil {
		return res, err
	}

	utils.Info("Run started",
		"run_id", res.RunID,
		"source", p.cfg.Source.String(),
		"force_refresh", opts.ForceRefresh,
		"submit", opts.Submit)

	if _, err := p.cfg.Cache.Load(ctx); err != nil {
		return res, fmt.Errorf("load cache: %w", err)
	}

	files, err := p.cfg.Source.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list files: %w", err)
	}
	res.Files = len(files)

	pending, err := p.extractAll(ctx, files, res)
	if err != nil {
		return res, err
	}

	if err := p.classifyAll(ctx, pending, opts, res); err != nil {
		return res, err
	}

	if err := p.finish(ctx, opts, res); err != nil {
		return res, err
	}

	res.Duration = p.now().Sub(start)
	p.emit(ctx, events.EventDone, events.DoneData{
		RunID:     res.RunID,
		Files:     res.Files,
		Extracted: res.Extracted,
		Failed:    len(res.Failures),
		Skipped:   res.Skipped,
		Duration:  res.Duration,
	})

	utils.Info("Run finished",
		"run_id", res.RunID,
		"files", res.Files,
		"extracted", res.Extracted,
		"classified", res.Classified,
		"skipped", res.Skipped,
		"failed", len(res.Failures),
		"duration", res.Duration)

	return res, nil
}

func (p *Pipeline) checkRunDeps() error {
	switch {
	case p.cfg.Source == nil:
		return fmt.Errorf("%w: Source", ErrNotConfigured)
	case p.cfg.Extractor == nil:
		return fmt.Errorf("%w: Extractor", ErrNotConfigured)
	case p.cfg.Labeler == nil:
		return fmt.Errorf("%w: Labeler", ErrNotConfigured)
	}
	return nil
}

// Report пересобирает отчёт из кэша без извлечения и классификации.
func (p *Pipeline) Report(ctx context.Context, opts Options) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := p.now()
	res := &Result{RunID: p.newRunID()}
	if err := p.finish(ctx, opts, res); err != nil {
		return res, err
	}
	res.Duration = p.now().Sub(start)
	return res, nil
}

// extractAll — первый проход. Возвращает ключи файлов, у которых есть текст.
func (p *Pipeline) extractAll(ctx context.Context, files []source.File, res *Result) ([]string, error) {
	pending := make([]string, 0, len(files))

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return pending, err
		}

		kind := p.cfg.Detector.Detect(f.Name)
		p.emit(ctx, events.EventFileStarted, events.FileStartedData{
			Key:   f.Name,
			Kind:  string(kind),
			Index: i + 1,
			Total: len(files),
		})

		if kind == filekind.Unknown {
			res.Skipped++
			utils.Debug("Skipping file of unknown kind", "file", f.Name)
			p.emit(ctx, events.EventFileSkipped, events.FileSkippedData{Key: f.Name, Reason: "unknown kind"})
			continue
		}

		if p.cfg.Cache.Has(ctx, f.Name) {
			pending = append(pending, f.Name)
			p.emit(ctx, events.EventFileExtracted, events.FileExtractedData{Key: f.Name, Cached: true})
			continue
		}

		text, ferr := p.extractOne(ctx, f.Name, kind)
		if ferr != nil {
			if ctx.Err() != nil {
				return pending, ctx.Err()
			}
			p.fail(ctx, res, ferr)
			continue
		}

		if err := p.cfg.Cache.Upsert(ctx, f.Name, cache.Record{Content: text}); err != nil {
			return pending, fmt.Errorf("persist %s: %w", f.Name, err)
		}

		res.Extracted++
		pending = append(pending, f.Name)
		utils.Info("File extracted", "file", f.Name, "kind", kind, "chars", len(text))
		p.emit(ctx, events.EventFileExtracted, events.FileExtractedData{Key: f.Name, Chars: len(text)})
	}

	return pending, nil
}

func (p *Pipeline) extractOne(ctx context.Context, key string, kind filekind.Kind) (string, *FileError) {
	data, err := p.cfg.Source.Read(ctx, key)
	if err != nil {
		return "", &FileError{Key: key, Stage: StageRead, Err: err}
	}

	text, err := p.cfg.Extractor.Extract(ctx, kind, key, data)
	if err != nil {
		return "", &FileError{Key: key, Stage: StageExtract, Err: err}
	}
	if text == "" {
		// Запись без текста создать нельзя
		return "", &FileError{Key: key, Stage: StageExtract, Err: extract.ErrEmptyResult}
	}
	return text, nil
}

// classifyAll — второй проход.
func (p *Pipeline) classifyAll(ctx context.Context, pending []string, opts Options, res *Result) error {
	if len(pending) == 0 {
		return nil
	}

	snapshot, err := p.cfg.Cache.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot cache: %w", err)
	}
	corpus := corpusOf(snapshot)

	for _, key := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec := snapshot[key]
		if rec.Category != "" && !opts.ForceRefresh {
			p.emit(ctx, events.EventFileClassified, events.FileClassifiedData{Key: key, Category: rec.Category, Cached: true})
			continue
		}

		label, err := p.cfg.Labeler.Classify(ctx, rec.Content, corpus)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Категория не ставится: следующий запуск попробует снова
			p.fail(ctx, res, &FileError{Key: key, Stage: StageClassify, Err: err})
			continue
		}

		if err := p.cfg.Cache.Upsert(ctx, key, cache.Record{Content: rec.Content, Category: label}); err != nil {
			return fmt.Errorf("persist %s: %w", key, err)
		}

		res.Classified++
		utils.Info("File classified", "file", key, "category", label, "previous", rec.Category)
		p.emit(ctx, events.EventFileClassified, events.FileClassifiedData{Key: key, Category: label})
	}

	return nil
}

// finish агрегирует снимок, пишет отчёт и (опционально) отправляет ответ.
func (p *Pipeline) finish(ctx context.Context, opts Options, res *Result) error {
	snapshot, err := p.cfg.Cache.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot cache: %w", err)
	}

	res.Groups = report.Group(snapshot)
	if err := p.cfg.Report.Write(report.NewDocument(res.Groups)); err != nil {
		return err
	}
	res.ReportPath = p.cfg.Report.Path()
	p.emit(ctx, events.EventReportWritten, events.ReportData{Path: res.ReportPath, Groups: res.Groups})

	if !opts.Submit {
		return nil
	}
	if p.cfg.Reporter == nil {
		utils.Warn("Submission requested but no reporter configured")
		return nil
	}

	answer := res.Groups.Select(p.cfg.SubmitCategories)
	res.Submitted = p.cfg.Reporter.Submit(ctx, p.cfg.Task, answer)
	p.emit(ctx, events.EventSubmitted, events.SubmittedData{Task: p.cfg.Task, Answer: answer, OK: res.Submitted})
	return nil
}

func (p *Pipeline) fail(ctx context.Context, res *Result, ferr *FileError) {
	res.Failures = append(res.Failures, ferr)
	utils.Error("File failed", "file", ferr.Key, "stage", ferr.Stage, "error", ferr.Err)
	p.emit(ctx, events.EventFileFailed, events.FileFailedData{Key: ferr.Key, Stage: ferr.Stage, Err: ferr.Err})
}

func (p *Pipeline) emit(ctx context.Context, t events.EventType, data events.EventData) {
	p.cfg.Emitter.Emit(ctx, events.New(t, data))
}

// corpusOf возвращает все извлечённые тексты в порядке ключей.
func corpusOf(c cache.Cache) []categorize.Document {
	docs := make([]categorize.Document, 0, len(c))
	for _, key := range c.Keys() {
		if rec := c[key]; rec.Content != "" {
			docs = append(docs, categorize.Document{Key: key, Content: rec.Content})
		}
	}
	return docs
}

// Failed — true, если хотя бы один файл не обработан.
func (r *Result) Failed() bool {
	return r != nil && len(r.Failures) > 0
}

// FailureOf возвращает ошибку файла key, если она есть.
func (r *Result) FailureOf(key string) error {
	for _, f := range r.Failures {
		if f.Key == key {
			return f
		}
	}
	return nil
}

var _ error = (*FileError)(nil)
