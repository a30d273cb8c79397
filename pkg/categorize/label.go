// Package categorize определяет категорию заметки по её тексту.
//
// Модель отвечает свободным текстом; метка вытаскивается из него по
// маркерам (по умолчанию <category>...</category>). Всё, что не удалось
// разобрать, превращается в fallback-метку, а не в ошибку.
package categorize

import (
	"regexp"
	"strings"
)

// ParseLabel возвращает метку из ответа модели.
//
// Берётся первое нежадное совпадение между open и close в пределах одной
// строки. Пробелы по краям обрезаются, сравнение с allowed регистрозависимое.
// Нет совпадения или метка вне allowed: возвращается fallback.
func ParseLabel(response, open, close string, allowed []string, fallback string) string {
	if open == "" || close == "" {
		return fallback
	}

	re := regexp.MustCompile(regexp.QuoteMeta(open) + `(.*?)` + regexp.QuoteMeta(close))
	m := re.FindStringSubmatch(response)
	if m == nil {
		return fallback
	}

	label := strings.TrimSpace(m[1])
	for _, a := range allowed {
		if label == a {
			return label
		}
	}
	return fallback
}
