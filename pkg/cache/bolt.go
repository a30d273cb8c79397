package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/ilkoid/notesorter/pkg/utils"
)

var bucketEntries = []byte("entries")

// BoltStore — per-key хранилище кэша на bbolt. Значения хранятся как JSON Record.
type BoltStore struct {
	path string
	db   *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore открывает (или создаёт) базу по path.
//
// Повреждённый файл пересоздаётся пустым. Повторное открытие тем же
// процессом ждёт блокировку не дольше 5 секунд.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := openBolt(path)
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("open bolt cache: %w", err)
		}
		utils.Warn("Bolt cache unreadable, resetting to empty", "path", path, "error", err)
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, fmt.Errorf("reset bolt cache: %w", rmErr)
		}
		db, err = openBolt(path)
		if err != nil {
			return nil, fmt.Errorf("open bolt cache: %w", err)
		}
	}

	return &BoltStore{path: path, db: db}, nil
}

func openBolt(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEntries)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return db, nil
}

// Load читает все записи. Нечитаемые значения пропускаются с предупреждением.
func (s *BoltStore) Load(ctx context.Context) (Cache, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := Cache{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				utils.Warn("Skipping corrupt bolt cache entry", "key", string(k), "error", err)
				return nil
			}
			c[string(k)] = rec
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read bolt cache: %w", err)
	}
	return c, nil
}

// Snapshot — то же, что Load.
func (s *BoltStore) Snapshot(ctx context.Context) (Cache, error) {
	return s.Load(ctx)
}

// Has проверяет наличие непустого content для key.
func (s *BoltStore) Has(_ context.Context, key string) bool {
	rec, found, err := s.get(key)
	if err != nil {
		utils.Warn("Bolt cache lookup failed", "key", key, "error", err)
		return false
	}
	return found && rec.Content != ""
}

// Upsert сливает запись внутри одной транзакции записи.
func (s *BoltStore) Upsert(ctx context.Context, key string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var merged Record
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)

		var existing Record
		found := false
		if raw := b.Get([]byte(key)); raw != nil {
			// Битое значение считаем отсутствующим и перезаписываем
			found = json.Unmarshal(raw, &existing) == nil
		}

		var err error
		merged, err = Merge(existing, found, rec)
		if err != nil {
			return err
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}

	utils.Debug("Cache record written", "key", key, "category", merged.Category, "backend", "bolt")
	return nil
}

// Close закрывает базу и снимает файловую блокировку.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) get(key string) (Record, bool, error) {
	var rec Record
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketEntries).Get([]byte(key))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &rec)
	})
	return rec, found, err
}
