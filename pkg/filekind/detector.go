// Package filekind определяет тип содержимого файла по его имени.
//
// Тип выбирает стратегию извлечения текста: text читается как есть,
// audio расшифровывается, image распознаётся через OCR.
package filekind

import (
	"path/filepath"
	"strings"

	"github.com/ilkoid/notesorter/pkg/config"
)

// Kind — тип содержимого файла.
type Kind string

const (
	Text    Kind = "text"
	Audio   Kind = "audio"
	Image   Kind = "image"
	Unknown Kind = "unknown"
)

// DefaultRules — соответствие расширений по умолчанию.
func DefaultRules() []config.FileRule {
	return []config.FileRule{
		{Kind: string(Text), Extensions: []string{"txt"}},
		{Kind: string(Audio), Extensions: []string{"mp3"}},
		{Kind: string(Image), Extensions: []string{"png"}},
	}
}

// Detector выполняет классификацию по расширению.
type Detector struct {
	byExt map[string]Kind
}

// New строит детектор из правил конфигурации.
//
// Пустой список правил означает DefaultRules(). Если одно расширение
// указано в нескольких правилах, побеждает первое.
func New(rules []config.FileRule) *Detector {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	byExt := make(map[string]Kind)
	for _, rule := range rules {
		for _, ext := range rule.Extensions {
			if _, exists := byExt[ext]; !exists {
				byExt[ext] = Kind(rule.Kind)
			}
		}
	}

	return &Detector{byExt: byExt}
}

// Detect возвращает тип файла. Тотальная функция: любая строка даёт ровно один Kind.
//
// Смотрим только на имя файла, не на путь. Имя режется по первой точке,
// остаток сравнивается с расширениями с учётом регистра:
//
//	"note1.txt"    → text
//	"note1.TXT"    → unknown
//	"a.b.txt"      → unknown ("b.txt" не зарегистрировано)
//	"README"       → unknown
func (d *Detector) Detect(name string) Kind {
	filename := filepath.Base(name)

	_, ext, found := strings.Cut(filename, ".")
	if !found {
		return Unknown
	}

	if kind, ok := d.byExt[ext]; ok {
		return kind
	}
	return Unknown
}
