// Package openai реализует адаптер LLM провайдера для OpenAI-совместимых API.
//
// Один клиент закрывает три нужды пайплайна: текстовую классификацию,
// OCR через vision запрос и расшифровку аудио (whisper).
// Пайплайн видит его только через llm.Provider и llm.Transcriber.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ilkoid/notesorter/pkg/config"
	"github.com/ilkoid/notesorter/pkg/llm"
	"github.com/ilkoid/notesorter/pkg/utils"
	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey — ключ не задан в конфигурации модели.
var ErrMissingAPIKey = errors.New("openai: api_key is required")

// Client реализует llm.Provider и llm.Transcriber для OpenAI-совместимых API.
//
// Поддерживает:
//   - Базовую генерацию текста
//   - Vision запросы (изображения как data-URI)
//   - Audio transcription
type Client struct {
	api      *openai.Client
	model    string
	defaults llm.GenerateOptions
}

var (
	_ llm.Provider    = (*Client)(nil)
	_ llm.Transcriber = (*Client)(nil)
)

// NewClient создает OpenAI клиент на основе конфигурации модели.
//
// Пустой APIKey — ошибка конфигурации, клиент не создаётся.
// Все параметры берутся из ModelDef.
func NewClient(modelDef config.ModelDef) (*Client, error) {
	if modelDef.APIKey == "" {
		return nil, fmt.Errorf("%w (model %s)", ErrMissingAPIKey, modelDef.ModelName)
	}

	// Поддержка custom BaseURL для non-OpenAI провайдеров (Zai, DeepSeek и т.д.)
	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}
	if modelDef.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: modelDef.Timeout}
	}

	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: modelDef.ModelName,
		defaults: llm.GenerateOptions{
			Model:        modelDef.ModelName,
			Temperature:  modelDef.Temperature,
			MaxTokens:    modelDef.MaxTokens,
			SystemPrompt: modelDef.SystemPrompt,
		},
	}, nil
}

// Generate выполняет запрос к API и возвращает ответ модели.
//
// Алгоритм:
//  1. Применяет опции поверх дефолтов модели
//  2. Конвертирует внутренние сообщения в формат OpenAI SDK
//  3. Вызывает API
//  4. Возвращает первый вариант ответа
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	startTime := time.Now()
	o := llm.ApplyOptions(c.defaults, opts...)

	utils.Debug("LLM request started",
		"model", o.Model,
		"messages_count", len(messages))

	req := openai.ChatCompletionRequest{
		Model:       o.Model,
		Messages:    buildMessages(o.SystemPrompt, messages),
		MaxTokens:   o.MaxTokens,
		Temperature: float32(o.Temperature),
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", o.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Message{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return llm.Message{}, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0].Message
	result := llm.Message{
		Role:    llm.Role(choice.Role),
		Content: choice.Content,
	}

	utils.Debug("LLM response received",
		"model", o.Model,
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// Transcribe отправляет аудио в speech-to-text endpoint.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	startTime := time.Now()

	model := c.model
	if model == "" {
		model = openai.Whisper1
	}

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    model,
		FilePath: filename, // С Reader используется только как имя файла в multipart
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		utils.Error("Transcription request failed",
			"error", err,
			"file", filename,
			"duration_ms", time.Since(startTime).Milliseconds())
		return "", fmt.Errorf("openai transcription error: %w", err)
	}

	utils.Debug("Transcription received",
		"file", filename,
		"text_length", len(resp.Text),
		"duration_ms", time.Since(startTime).Milliseconds())

	return resp.Text, nil
}

// buildMessages добавляет system prompt, если история не начинается с него.
func buildMessages(systemPrompt string, messages []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)

	if systemPrompt != "" && (len(messages) == 0 || messages[0].Role != llm.RoleSystem) {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}

	for _, m := range messages {
		out = append(out, mapToOpenAI(m))
	}
	return out
}

// mapToOpenAI конвертирует наше внутреннее сообщение в формат SDK.
// Здесь происходит магия Vision: если есть картинки, создаем MultiContent.
func mapToOpenAI(m llm.Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role: string(m.Role),
	}

	// Если картинок нет, отправляем просто текст
	if len(m.Images) == 0 {
		msg.Content = m.Content
		return msg
	}

	parts := []openai.ChatMessagePart{
		{
			Type: openai.ChatMessagePartTypeText,
			Text: m.Content,
		},
	}

	for _, imgURL := range m.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    imgURL, // Ожидается base64 data-uri или http ссылка
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	msg.MultiContent = parts
	return msg
}
