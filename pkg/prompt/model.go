// Структуры данных: формат YAML файла промпта.
package prompt

import "github.com/ilkoid/notesorter/pkg/llm"

// PromptFile описывает структуру YAML-файла с промптом
type PromptFile struct {
	Config   PromptConfig `yaml:"config"`
	Messages []Message    `yaml:"messages"`
}

// PromptConfig - переопределения параметров модели для конкретного промпта.
// Незаданные значения берутся из ModelDef.
type PromptConfig struct {
	Model       string   `yaml:"model"` // имя модели у провайдера; пусто = из ModelDef
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
}

// Options переводит настройки промпта в опции генерации.
func (c PromptConfig) Options() []llm.GenerateOption {
	var opts []llm.GenerateOption
	if c.Model != "" {
		opts = append(opts, llm.WithModel(c.Model))
	}
	if c.Temperature != nil {
		opts = append(opts, llm.WithTemperature(*c.Temperature))
	}
	if c.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(c.MaxTokens))
	}
	return opts
}

// Message - одно сообщение в чате
type Message struct {
	Role    string `yaml:"role"`    // system, user, assistant
	Content string `yaml:"content"` // Шаблон с {{.Variables}}
}
