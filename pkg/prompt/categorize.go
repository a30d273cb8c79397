package prompt

import (
	"fmt"
	"os"

	"github.com/ilkoid/notesorter/pkg/utils"
)

// CategorizeData — переменные шаблона классификации.
type CategorizeData struct {
	Content  string   // текст заметки
	Corpus   string   // тексты всех известных файлов, пусто если корпус выключен
	Labels   []string // допустимые метки
	Fallback string
	OpenTag  string
	CloseTag string
}

// DefaultCategorizeYAML — встроенный промпт классификации заметок.
//
// Рубрика рассчитана на метки people/hardware/software/other; при другом
// наборе меток её стоит переопределить через classification.prompt_file.
const DefaultCategorizeYAML = `
config:
  temperature: 0
messages:
  - role: user
    content: |
      You will be given the content of a note. Your task is to analyze this content and categorize it based on specific criteria. Here's what you need to do:

      1. First, read the following note content carefully:
      <note_content>
      {{.Content}}
      </note_content>
      {{- if .Corpus}}

      The notes below come from the same collection. Use them only as context to resolve references in the note above; categorize the note above, not them:
      <corpus>
      {{.Corpus}}
      </corpus>
      {{- end}}

      2. Your goal is to extract only the information related to:
         a) Captured people or traces of their presence
         b) Repaired hardware issues (ignore software-related issues)

      3. Based on the extracted information, you need to categorize the note into one of these categories:
         - 'people': if the note contains information about captured individuals or evidence of human presence
         - 'hardware': if the note mentions repaired hardware issues
         - 'software': if the note only contains information about software issues
         - 'other': if the note doesn't fit into any of the above categories

      4. If you don't find any relevant information, categorize the note as '{{.Fallback}}'.

      5. Your output should be just one word, one of: {{join .Labels ", "}}. Do not include any explanations or extracted information in your response.

      Provide your categorization in the following format:
      {{.OpenTag}}INSERT_CATEGORY_HERE{{.CloseTag}}
`

// DefaultCategorize возвращает разобранный встроенный промпт.
func DefaultCategorize() *PromptFile {
	pf, err := Parse([]byte(DefaultCategorizeYAML))
	if err != nil {
		// Встроенная константа; ошибка здесь означает сломанную сборку
		panic(fmt.Sprintf("default categorize prompt: %v", err))
	}
	return pf
}

// LoadCategorizePrompt загружает промпт классификации.
//
// Пустой path или отсутствующий файл дают встроенный промпт. Файл, который
// есть, но не разбирается, это ошибка конфигурации.
func LoadCategorizePrompt(path string) (*PromptFile, error) {
	if path == "" {
		return DefaultCategorize(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		utils.Warn("Categorize prompt file not found, using built-in prompt", "path", path)
		return DefaultCategorize(), nil
	}

	pf, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load categorize prompt from %s: %w", path, err)
	}
	return pf, nil
}
