package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ilkoid/notesorter/pkg/utils"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
    key      TEXT PRIMARY KEY,
    content  TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT ''
);`

// Слияние выполняется в одном выражении: content пишется один раз,
// category обновляется только непустым значением.
const sqliteUpsert = `
INSERT INTO entries (key, content, category) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
    content  = CASE WHEN entries.content = '' THEN excluded.content ELSE entries.content END,
    category = CASE WHEN excluded.category = '' THEN entries.category ELSE excluded.category END`

// SQLiteStore — per-key хранилище кэша на SQLite.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore открывает (или создаёт) базу по path.
//
// Файл, который не является базой SQLite, пересоздаётся пустым.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := openSQLite(path)
	if err != nil {
		utils.Warn("SQLite cache unreadable, resetting to empty", "path", path, "error", err)
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, fmt.Errorf("reset sqlite cache: %w", rmErr)
		}
		db, err = openSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite cache: %w", err)
		}
	}

	return &SQLiteStore{path: path, db: db}, nil
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// SQLite не любит конкурентных писателей
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return db, nil
}

// Load читает все записи.
func (s *SQLiteStore) Load(ctx context.Context) (Cache, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, content, category FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	defer rows.Close()

	c := Cache{}
	for rows.Next() {
		var key string
		var rec Record
		if err := rows.Scan(&key, &rec.Content, &rec.Category); err != nil {
			return nil, fmt.Errorf("scan cache row: %w", err)
		}
		c[key] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache rows: %w", err)
	}
	return c, nil
}

// Snapshot — то же, что Load.
func (s *SQLiteStore) Snapshot(ctx context.Context) (Cache, error) {
	return s.Load(ctx)
}

// Has проверяет наличие непустого content для key.
func (s *SQLiteStore) Has(ctx context.Context, key string) bool {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM entries WHERE key = ?`, key).Scan(&content)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			utils.Warn("SQLite cache lookup failed", "key", key, "error", err)
		}
		return false
	}
	return content != ""
}

// Upsert сливает запись в одной транзакции.
func (s *SQLiteStore) Upsert(ctx context.Context, key string, rec Record) error {
	if rec.Content == "" && !s.Has(ctx, key) {
		return fmt.Errorf("upsert %s: %w", key, ErrEmptyContent)
	}

	if _, err := s.db.ExecContext(ctx, sqliteUpsert, key, rec.Content, rec.Category); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}

	utils.Debug("Cache record written", "key", key, "category", rec.Category, "backend", "sqlite")
	return nil
}

// Close закрывает соединение.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
