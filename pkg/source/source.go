// Package source перечисляет и читает входные файлы пайплайна.
//
// Источник плоский: имя файла является ключом кэша, поэтому вложенные
// директории (и вложенные ключи S3) не обрабатываются.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/ilkoid/notesorter/pkg/config"
	"github.com/ilkoid/notesorter/pkg/s3storage"
)

// ErrInvalidName — имя файла выходит за пределы источника.
var ErrInvalidName = errors.New("source: invalid file name")

// File — один входной файл.
type File struct {
	Name string
	Size int64
}

// Source — список файлов и чтение байтов.
type Source interface {
	// List возвращает файлы, отсортированные по имени.
	List(ctx context.Context) ([]File, error)
	Read(ctx context.Context, name string) ([]byte, error)
	// String описывает источник для логов.
	String() string
}

// New создаёт источник по конфигурации.
func New(cfg *config.AppConfig) (Source, error) {
	switch cfg.Source.Type {
	case config.SourceLocal, "":
		return NewDir(cfg.Source.Dir), nil
	case config.SourceS3:
		client, err := s3storage.New(cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewS3(client, cfg.S3.Bucket, cfg.Source.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Source.Type)
	}
}
