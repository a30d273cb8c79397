// Package utils предоставляет вспомогательные функции для обработки ответов LLM.
//
// Vision модели часто оборачивают распознанный текст в markdown code block
// или добавляют вводную фразу. Эти функции приводят такой ответ к чистому тексту.
package utils

import (
	"strings"
)

// CleanMarkdownCode убирает строки-ограничители ``` из текста.
//
// В отличие от очистки JSON, содержимое блоков сохраняется: для OCR
// интересен сам текст, а не обёртка.
//
// Примеры:
//
//	"```\nRaport 12\n```" → "Raport 12"
//	"```text\nA\nB\n```" → "A\nB"
func CleanMarkdownCode(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		result = append(result, line)
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}

// CleanOCRText нормализует ответ vision модели.
//
// Шаги:
//  1. Убирает markdown ограничители
//  2. Обрезает хвостовые пробелы в строках
//  3. Схлопывает серии пустых строк до одной
func CleanOCRText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = CleanMarkdownCode(s)

	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		result = append(result, line)
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}

// Preview возвращает первые max рун текста в одну строку.
//
// Используется в логах и в выводе CLI, чтобы не печатать заметку целиком.
func Preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
