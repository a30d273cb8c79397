// Package extract превращает содержимое файла в плоский текст.
//
// Стратегия выбирается по filekind.Kind:
//   - text: байты как есть, без обращения к LLM
//   - audio: расшифровка через llm.Transcriber
//   - image: OCR через vision запрос к llm.Provider
//   - unknown: не обрабатывается
//
// Экстрактор не трогает кэш: сохранение результата — забота вызывающего.
package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/ilkoid/notesorter/pkg/config"
	"github.com/ilkoid/notesorter/pkg/filekind"
	"github.com/ilkoid/notesorter/pkg/llm"
	"github.com/ilkoid/notesorter/pkg/utils"
)

// OCRInstruction — фиксированная инструкция для vision модели.
const OCRInstruction = "You are the advanced and precise OCR system. Extract the text content from the image."

var (
	// ErrNoCollaborator — для данного типа не настроен внешний сервис.
	ErrNoCollaborator = errors.New("no collaborator configured for kind")

	// ErrEmptyResult — сервис ответил, но текста нет.
	ErrEmptyResult = errors.New("collaborator returned empty text")
)

// Extractor — узкая capability для пайплайна.
type Extractor interface {
	Extract(ctx context.Context, kind filekind.Kind, name string, data []byte) (string, error)
}

// Service — стандартная реализация Extractor.
type Service struct {
	transcriber llm.Transcriber
	vision      llm.Provider
	image       config.ImageProcConfig
}

var _ Extractor = (*Service)(nil)

// New создаёт экстрактор. transcriber и vision могут быть nil, тогда
// файлы соответствующего типа завершаются ошибкой ErrNoCollaborator.
func New(transcriber llm.Transcriber, vision llm.Provider, imageCfg config.ImageProcConfig) *Service {
	return &Service{
		transcriber: transcriber,
		vision:      vision,
		image:       imageCfg,
	}
}

// Extract возвращает текст файла.
//
// Для Unknown возвращает ("", nil): такие файлы явно не обрабатываются.
// Ошибки сервисов не ретраятся, а оборачиваются и уходят наверх.
func (s *Service) Extract(ctx context.Context, kind filekind.Kind, name string, data []byte) (string, error) {
	switch kind {
	case filekind.Text:
		return string(data), nil

	case filekind.Audio:
		return s.transcribe(ctx, name, data)

	case filekind.Image:
		return s.ocr(ctx, name, data)

	default:
		utils.Debug("Skipping file of unknown kind", "file", name)
		return "", nil
	}
}

func (s *Service) transcribe(ctx context.Context, name string, data []byte) (string, error) {
	if s.transcriber == nil {
		return "", fmt.Errorf("%w: audio", ErrNoCollaborator)
	}

	text, err := s.transcriber.Transcribe(ctx, name, data)
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", name, err)
	}
	if text == "" {
		return "", fmt.Errorf("transcribe %s: %w", name, ErrEmptyResult)
	}
	return text, nil
}

func (s *Service) ocr(ctx context.Context, name string, data []byte) (string, error) {
	if s.vision == nil {
		return "", fmt.Errorf("%w: image", ErrNoCollaborator)
	}

	dataURI, err := s.imageDataURI(name, data)
	if err != nil {
		return "", err
	}

	resp, err := s.vision.Generate(ctx, []llm.Message{{
		Role:    llm.RoleUser,
		Content: OCRInstruction,
		Images:  []string{dataURI},
	}})
	if err != nil {
		return "", fmt.Errorf("ocr %s: %w", name, err)
	}

	text := utils.CleanOCRText(resp.Content)
	if text == "" {
		return "", fmt.Errorf("ocr %s: %w", name, ErrEmptyResult)
	}
	return text, nil
}

// imageDataURI перекодирует изображение в JPEG (с ресайзом, если задан
// max_width) и упаковывает в data-URI. Если декодер не справился, байты
// отправляются как есть: vision API может понять формат сам.
func (s *Service) imageDataURI(name string, data []byte) (string, error) {
	payload, err := utils.ResizeImage(data, s.image.MaxWidth, s.image.Quality)
	if err != nil {
		utils.Warn("Image preprocessing failed, sending original bytes", "file", name, "error", err)
		payload = data
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("ocr %s: empty image", name)
	}

	return "data:" + utils.MimeJPEG + ";base64," + base64.StdEncoding.EncodeToString(payload), nil
}
