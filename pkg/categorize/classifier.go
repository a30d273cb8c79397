package categorize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ilkoid/notesorter/pkg/config"
	"github.com/ilkoid/notesorter/pkg/llm"
	"github.com/ilkoid/notesorter/pkg/prompt"
	"github.com/ilkoid/notesorter/pkg/utils"
)

// ErrNoProvider — классификатор создан без модели.
var ErrNoProvider = errors.New("categorize: completion provider is not configured")

// Document — один файл корпуса.
type Document struct {
	Key     string
	Content string
}

// Labeler — узкий интерфейс классификации для оркестратора.
type Labeler interface {
	Classify(ctx context.Context, content string, corpus []Document) (string, error)
}

// Classifier выполняет один запрос к модели на заметку.
type Classifier struct {
	provider llm.Provider
	prompt   *prompt.PromptFile
	cfg      config.ClassificationConfig
}

var _ Labeler = (*Classifier)(nil)

// New создаёт классификатор. cfg должен быть уже с применёнными дефолтами.
func New(provider llm.Provider, pf *prompt.PromptFile, cfg config.ClassificationConfig) *Classifier {
	if pf == nil {
		pf = prompt.DefaultCategorize()
	}
	return &Classifier{
		provider: provider,
		prompt:   pf,
		cfg:      cfg,
	}
}

// Classify возвращает метку для content.
//
// corpus учитывается только при classification.use_corpus. Ошибка модели
// возвращается вызывающему; неразборчивый ответ даёт fallback без ошибки.
func (c *Classifier) Classify(ctx context.Context, content string, corpus []Document) (string, error) {
	if c.provider == nil {
		return "", ErrNoProvider
	}

	data := prompt.CategorizeData{
		Content:  content,
		Labels:   c.cfg.Labels,
		Fallback: c.cfg.Fallback,
		OpenTag:  c.cfg.OpenTag,
		CloseTag: c.cfg.CloseTag,
	}
	if c.cfg.UseCorpus {
		data.Corpus = RenderCorpus(corpus)
	}

	messages, err := c.prompt.RenderMessages(data)
	if err != nil {
		return "", fmt.Errorf("render categorize prompt: %w", err)
	}

	resp, err := c.provider.Generate(ctx, messages, c.prompt.Config.Options()...)
	if err != nil {
		return "", fmt.Errorf("categorize request: %w", err)
	}

	label := ParseLabel(resp.Content, c.cfg.OpenTag, c.cfg.CloseTag, c.cfg.Labels, c.cfg.Fallback)
	if label == c.cfg.Fallback {
		utils.Debug("Categorize resolved to fallback",
			"fallback", label,
			"response", utils.Preview(resp.Content, 200))
	}
	return label, nil
}

// RenderCorpus склеивает документы в блоки "#### key\ncontent".
func RenderCorpus(docs []Document) string {
	if len(docs) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, d := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("#### ")
		sb.WriteString(d.Key)
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(d.Content))
	}
	return sb.String()
}
