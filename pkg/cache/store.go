// Package cache хранит результаты извлечения и классификации между запусками.
//
// Кэш — отображение filename → Record. Он делает пайплайн идемпотентным:
// файл с непустым content повторно не извлекается, а прерванный запуск
// продолжается со следующего необработанного файла.
//
// Инварианты, которые держит каждый бэкенд:
//   - content записывается один раз: существующий непустой content не перезаписывается
//   - category ставится только при непустом content
//   - повреждённое или отсутствующее хранилище читается как пустое
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ilkoid/notesorter/pkg/config"
)

var (
	// ErrEmptyContent — попытка создать запись без извлечённого текста.
	ErrEmptyContent = errors.New("cache: record content is empty")

	// ErrCorrupt — сохранённые данные не разбираются.
	ErrCorrupt = errors.New("cache: persisted data is corrupt")
)

// Record — одна запись кэша.
type Record struct {
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

// Cache — полный снимок кэша.
type Cache map[string]Record

// Keys возвращает ключи в лексикографическом порядке.
func (c Cache) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has — true, если для key есть непустой content.
func (c Cache) Has(key string) bool {
	rec, ok := c[key]
	return ok && rec.Content != ""
}

// Store — абстракция хранилища кэша.
//
// Формат хранения скрыт: JSON документ целиком или per-key хранилище.
type Store interface {
	// Load читает снимок. Отсутствующее или повреждённое хранилище
	// пересоздаётся пустым; ошибка возвращается, только если и это не удалось.
	Load(ctx context.Context) (Cache, error)

	// Has — true, если у key непустой content. Ошибки чтения дают false.
	Has(ctx context.Context, key string) bool

	// Upsert сливает rec с существующей записью и делает результат
	// durable до возврата.
	Upsert(ctx context.Context, key string, rec Record) error

	// Snapshot возвращает текущий снимок для агрегации.
	Snapshot(ctx context.Context) (Cache, error)

	Close() error
}

// Merge применяет правила слияния записи.
//
// Существующий непустой content сохраняется; category обновляется только
// непустым значением. Возвращает ErrEmptyContent, если после слияния
// content пуст.
func Merge(existing Record, found bool, update Record) (Record, error) {
	result := update
	if found && existing.Content != "" {
		result.Content = existing.Content
	}
	if update.Category == "" && found {
		result.Category = existing.Category
	}

	if result.Content == "" {
		return Record{}, ErrEmptyContent
	}
	return result, nil
}

// Open создаёт Store по конфигурации.
func Open(cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case config.CacheJSON, "":
		return NewJSONStore(cfg.Path), nil
	case config.CacheSQLite:
		return NewSQLiteStore(cfg.Path)
	case config.CacheBolt:
		return NewBoltStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}
