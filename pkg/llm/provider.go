// Интерфейсы провайдеров через которые работает всё приложение.

package llm

import "context"

// Provider — абстракция над chat/vision API.
//
// Реализации: pkg/llm/openai (OpenAI-совместимые API, включая vision),
// pkg/llm/anthropic (Messages API).
type Provider interface {
	// Generate отправляет историю сообщений и возвращает ответ модели
	// (текст первого варианта ответа).
	Generate(ctx context.Context, messages []Message, opts ...GenerateOption) (Message, error)
}

// Transcriber — абстракция над speech-to-text API.
type Transcriber interface {
	// Transcribe возвращает расшифровку аудио. filename — подсказка формата
	// для API ("report.mp3").
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}
