package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ilkoid/notesorter/pkg/utils"
)

// Document — сохраняемый артефакт отчёта.
//
// Groups и Entries содержат одну и ту же группировку. Отчёт полностью
// выводится из снимка кэша: одинаковый кэш даёт байт в байт одинаковый
// файл. Идентификатор запуска и время пишутся только в лог.
type Document struct {
	Groups  Groups  `json:"groups"`
	Entries []Entry `json:"entries"`
}

// NewDocument собирает документ отчёта по группам.
func NewDocument(g Groups) Document {
	if g == nil {
		g = Groups{}
	}
	return Document{
		Groups:  g,
		Entries: g.Entries(),
	}
}

// Writer сохраняет отчёт в файл.
type Writer struct {
	path string
}

// NewWriter создаёт writer для path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path возвращает путь к файлу отчёта.
func (w *Writer) Path() string {
	return w.path
}

// Write атомарно перезаписывает файл отчёта.
func (w *Writer) Write(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := utils.WriteFileAtomic(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", w.path, err)
	}

	utils.Info("Report written", "path", w.path, "categories", len(doc.Groups), "files", doc.Groups.Total())
	return nil
}

// Read читает ранее сохранённый отчёт.
func Read(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read report: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse report %s: %w", path, err)
	}
	if doc.Groups == nil {
		doc.Groups = FromEntries(doc.Entries)
	}
	return doc, nil
}
