package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/notesorter/pkg/config"
)

type backend struct {
	name string
	file string
	kind string
}

var backends = []backend{
	{name: "json", file: "cache.json", kind: config.CacheJSON},
	{name: "sqlite", file: "cache.db", kind: config.CacheSQLite},
	{name: "bolt", file: "cache.bolt", kind: config.CacheBolt},
}

func openStore(t *testing.T, b backend, path string) Store {
	t.Helper()
	s, err := Open(config.CacheConfig{Backend: b.kind, Path: path})
	require.NoError(t, err)
	return s
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		existing Record
		found    bool
		update   Record
		want     Record
		wantErr  error
	}{
		{
			name:   "new record",
			update: Record{Content: "text"},
			want:   Record{Content: "text"},
		},
		{
			name:     "content is write-once",
			existing: Record{Content: "old"},
			found:    true,
			update:   Record{Content: "new"},
			want:     Record{Content: "old"},
		},
		{
			name:     "category added",
			existing: Record{Content: "old"},
			found:    true,
			update:   Record{Category: "people"},
			want:     Record{Content: "old", Category: "people"},
		},
		{
			name:     "category replaced",
			existing: Record{Content: "old", Category: "other"},
			found:    true,
			update:   Record{Category: "hardware"},
			want:     Record{Content: "old", Category: "hardware"},
		},
		{
			name:     "empty category keeps previous",
			existing: Record{Content: "old", Category: "people"},
			found:    true,
			update:   Record{Content: "old"},
			want:     Record{Content: "old", Category: "people"},
		},
		{
			name:     "empty existing content is filled",
			existing: Record{},
			found:    true,
			update:   Record{Content: "text"},
			want:     Record{Content: "text"},
		},
		{
			name:    "category without content",
			update:  Record{Category: "people"},
			wantErr: ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(tt.existing, tt.found, tt.update)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), b.file)
			s := openStore(t, b, path)
			defer s.Close()

			c, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, c)
			assert.False(t, s.Has(ctx, "note1.txt"))

			require.NoError(t, s.Upsert(ctx, "note1.txt", Record{Content: "Intruder detected"}))
			assert.True(t, s.Has(ctx, "note1.txt"))

			// Повторное извлечение не затирает content
			require.NoError(t, s.Upsert(ctx, "note1.txt", Record{Content: "something else"}))
			require.NoError(t, s.Upsert(ctx, "note1.txt", Record{Category: "people"}))

			err = s.Upsert(ctx, "ghost.txt", Record{Category: "people"})
			assert.ErrorIs(t, err, ErrEmptyContent)
			assert.False(t, s.Has(ctx, "ghost.txt"))

			snap, err := s.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, Cache{
				"note1.txt": {Content: "Intruder detected", Category: "people"},
			}, snap)
		})
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), b.file)

			s := openStore(t, b, path)
			require.NoError(t, s.Upsert(ctx, "fix1.txt", Record{Content: "Replaced servo", Category: "hardware"}))
			require.NoError(t, s.Close())

			s = openStore(t, b, path)
			defer s.Close()

			c, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, Record{Content: "Replaced servo", Category: "hardware"}, c["fix1.txt"])
		})
	}
}

func TestStore_CorruptResetsToEmpty(t *testing.T) {
	ctx := context.Background()

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), b.file)
			require.NoError(t, os.WriteFile(path, []byte("{not json, not a database"), 0o644))

			s := openStore(t, b, path)
			defer s.Close()

			c, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, c)

			require.NoError(t, s.Upsert(ctx, "note1.txt", Record{Content: "text"}))
			assert.True(t, s.Has(ctx, "note1.txt"))
		})
	}
}

func TestJSONStore_PersistsEmptyDocument(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		content *string
	}{
		{name: "missing", content: nil},
		{name: "garbage", content: ptr("]]]")},
		{name: "null", content: ptr("null")},
		{name: "blank", content: ptr("  \n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.json")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}

			s := NewJSONStore(path)
			c, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, c)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.JSONEq(t, `{}`, string(data))
		})
	}
}

func TestJSONStore_DocumentShape(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")
	s := NewJSONStore(path)

	require.NoError(t, s.Upsert(ctx, "note1.txt", Record{Content: "a"}))
	require.NoError(t, s.Upsert(ctx, "fix1.txt", Record{Content: "b", Category: "hardware"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"note1.txt": {"content": "a"},
		"fix1.txt": {"content": "b", "category": "hardware"}
	}`, string(data))
}

func TestCache_Keys(t *testing.T) {
	c := Cache{"b": {}, "a": {}, "c": {}}
	assert.Equal(t, []string{"a", "b", "c"}, c.Keys())
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(config.CacheConfig{Backend: "redis", Path: "x"})
	assert.Error(t, err)
}

func ptr(s string) *string { return &s }
