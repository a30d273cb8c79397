// Package utils предоставляет утилиты для санитайза данных перед логированием.
package utils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RedactedValue подставляется вместо секретов.
const RedactedValue = "***"

// RedactJSON сериализует v в JSON с отступами, заменяя значения
// секретных полей на RedactedValue.
//
// Поля ищутся на всех уровнях вложенности без учёта регистра.
// Используется для логирования payload внешних запросов: payload нужен
// оператору для диагностики, ключ API — нет.
func RedactJSON(v any, fields ...string) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("failed to parse payload: %w", err)
	}

	data = redactValue(data, fields)

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal redacted payload: %w", err)
	}
	return string(out), nil
}

// redactValue рекурсивно обходит map/slice.
func redactValue(v any, fields []string) any {
	switch val := v.(type) {
	case map[string]any:
		for key, inner := range val {
			if shouldRedact(key, fields) {
				val[key] = RedactedValue
				continue
			}
			val[key] = redactValue(inner, fields)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = redactValue(inner, fields)
		}
		return val
	default:
		return v
	}
}

func shouldRedact(key string, fields []string) bool {
	for _, f := range fields {
		if strings.EqualFold(key, f) {
			return true
		}
	}
	return false
}
