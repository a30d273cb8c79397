package factory

import (
	"fmt"

	"github.com/ilkoid/notesorter/pkg/config"
	"github.com/ilkoid/notesorter/pkg/llm"
	"github.com/ilkoid/notesorter/pkg/llm/anthropic"
	"github.com/ilkoid/notesorter/pkg/llm/openai"
)

// NewLLMProvider создает провайдера на основе конфигурации модели
func NewLLMProvider(modelDef config.ModelDef) (llm.Provider, error) {
	switch modelDef.Provider {
	case "zai", "openai", "deepseek":
		client, err := openai.NewClient(modelDef)
		if err != nil {
			return nil, err
		}
		return client, nil

	case "anthropic":
		client, err := anthropic.NewClient(modelDef)
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s", modelDef.Provider)
	}
}

// NewTranscriber создает speech-to-text клиента.
//
// Расшифровку умеют только OpenAI-совместимые провайдеры.
func NewTranscriber(modelDef config.ModelDef) (llm.Transcriber, error) {
	switch modelDef.Provider {
	case "openai", "zai":
		client, err := openai.NewClient(modelDef)
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("provider %q does not support transcription", modelDef.Provider)
	}
}
