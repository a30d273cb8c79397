package main

import (
	"fmt"
	"path/filepath"

	"github.com/ilkoid/notesorter/internal/pipeline"
	"github.com/ilkoid/notesorter/pkg/cache"
	"github.com/ilkoid/notesorter/pkg/categorize"
	"github.com/ilkoid/notesorter/pkg/config"
	"github.com/ilkoid/notesorter/pkg/events"
	"github.com/ilkoid/notesorter/pkg/extract"
	"github.com/ilkoid/notesorter/pkg/factory"
	"github.com/ilkoid/notesorter/pkg/filekind"
	"github.com/ilkoid/notesorter/pkg/prompt"
	"github.com/ilkoid/notesorter/pkg/report"
	"github.com/ilkoid/notesorter/pkg/source"
	"github.com/ilkoid/notesorter/pkg/submit"
	"github.com/ilkoid/notesorter/pkg/utils"
)

// components — собранные зависимости одного запуска.
type components struct {
	pipeline *pipeline.Pipeline
	store    cache.Store
}

func (c *components) Close() {
	if c.store == nil {
		return
	}
	if err := c.store.Close(); err != nil {
		utils.Warn("Cache close failed", "error", err)
	}
}

// buildComponents собирает пайплайн из конфигурации.
//
// Клиенты моделей и сервиса отправки создаются сразу: отсутствующий ключ
// API — ошибка старта, а не отдельного файла.
func buildComponents(cfg *config.AppConfig, withSubmit bool, emitter events.Emitter) (*components, error) {
	chatDef, ok := cfg.GetChatModel("")
	if !ok {
		return nil, fmt.Errorf("models.default_chat is not configured")
	}
	chat, err := factory.NewLLMProvider(chatDef)
	if err != nil {
		return nil, fmt.Errorf("classification model: %w", err)
	}

	visionDef, ok := cfg.GetVisionModel("")
	if !ok {
		return nil, fmt.Errorf("models.default_vision is not configured")
	}
	vision, err := factory.NewLLMProvider(visionDef)
	if err != nil {
		return nil, fmt.Errorf("vision model: %w", err)
	}

	sttDef, ok := cfg.GetTranscriptionModel("")
	if !ok {
		return nil, fmt.Errorf("models.default_transcription is not configured")
	}
	transcriber, err := factory.NewTranscriber(sttDef)
	if err != nil {
		return nil, fmt.Errorf("transcription model: %w", err)
	}

	pf, err := prompt.LoadCategorizePrompt(promptPath(cfg))
	if err != nil {
		return nil, err
	}
	labeler := categorize.New(chat, pf, cfg.Classification)

	src, err := source.New(cfg)
	if err != nil {
		return nil, err
	}

	comps, err := assemble(cfg, pipeline.Config{
		Source:    src,
		Detector:  filekind.New(cfg.FileRules),
		Extractor: extract.New(transcriber, vision, cfg.ImageProcessing),
		Labeler:   labeler,
		Emitter:   emitter,
	}, withSubmit)
	if err != nil {
		return nil, err
	}

	utils.Info("Pipeline ready",
		"source", src.String(),
		"cache", cfg.Cache.Backend,
		"chat_model", chatDef.ModelName,
		"submit", withSubmit)

	return comps, nil
}

// buildReportComponents собирает пайплайн только для Report: кэш, отчёт
// и (при withSubmit) отправка. Клиенты моделей не создаются, поэтому
// ключи API моделей не нужны.
func buildReportComponents(cfg *config.AppConfig, withSubmit bool, emitter events.Emitter) (*components, error) {
	return assemble(cfg, pipeline.Config{Emitter: emitter}, withSubmit)
}

// assemble дополняет pc кэшем, отчётом и отправкой и создаёт пайплайн.
func assemble(cfg *config.AppConfig, pc pipeline.Config, withSubmit bool) (*components, error) {
	if withSubmit {
		client, err := submit.NewClient(cfg.Submission)
		if err != nil {
			return nil, fmt.Errorf("submission: %w", err)
		}
		pc.Reporter = submit.NewReporter(client)
	}

	store, err := cache.Open(cfg.Cache)
	if err != nil {
		return nil, err
	}

	pc.Cache = store
	pc.Report = report.NewWriter(cfg.Report.Path)
	pc.Task = cfg.Report.Task
	pc.SubmitCategories = cfg.Report.SubmitCategories

	p, err := pipeline.New(pc)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &components{pipeline: p, store: store}, nil
}

// promptPath возвращает путь к промпту классификации; пустая строка
// означает встроенный промпт.
func promptPath(cfg *config.AppConfig) string {
	p := cfg.Classification.PromptFile
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.App.PromptsDir, p)
}
