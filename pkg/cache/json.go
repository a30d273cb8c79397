package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/ilkoid/notesorter/pkg/utils"
)

// JSONStore хранит кэш одним JSON документом.
//
// Каждая операция читает документ заново, а запись перезаписывает его
// целиком (атомарно, через temp файл + rename). Внешние конкурентные
// писатели не поддерживаются: в рамках процесса выигрывает последний.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*JSONStore)(nil)

// NewJSONStore создаёт хранилище. Файл создаётся при первом Load/Upsert.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path возвращает путь к документу.
func (s *JSONStore) Path() string {
	return s.path
}

// Load читает документ; отсутствующий или битый документ заменяется на {}.
func (s *JSONStore) Load(ctx context.Context) (Cache, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked()
}

// Snapshot — то же, что Load.
func (s *JSONStore) Snapshot(ctx context.Context) (Cache, error) {
	return s.Load(ctx)
}

// Has проверяет наличие непустого content.
func (s *JSONStore) Has(ctx context.Context, key string) bool {
	c, err := s.Load(ctx)
	if err != nil {
		return false
	}
	return c.Has(key)
}

// Upsert сливает запись и перезаписывает документ.
func (s *JSONStore) Upsert(ctx context.Context, key string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.loadLocked()
	if err != nil {
		return err
	}

	existing, found := c[key]
	merged, err := Merge(existing, found, rec)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	c[key] = merged

	if err := s.writeLocked(c); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}

	utils.Debug("Cache record written", "key", key, "category", merged.Category)
	return nil
}

// Close — no-op, документ не держит открытых дескрипторов.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) loadLocked() (Cache, error) {
	c, err := s.readLocked()
	if err == nil {
		return c, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		utils.Info("Cache file not found, initializing empty cache", "path", s.path)
	} else {
		utils.Warn("Cache file unreadable, resetting to empty", "path", s.path, "error", err)
	}

	empty := Cache{}
	if werr := s.writeLocked(empty); werr != nil {
		return nil, fmt.Errorf("initialize cache %s: %w", s.path, werr)
	}
	return empty, nil
}

func (s *JSONStore) readLocked() (Cache, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrCorrupt)
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if c == nil {
		// "null" — валидный JSON, но не отображение
		return nil, fmt.Errorf("%w: document is null", ErrCorrupt)
	}
	return c, nil
}

func (s *JSONStore) writeLocked(c Cache) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	return utils.WriteFileAtomic(s.path, data, 0o644)
}
