// Package report группирует записи кэша по категориям и сохраняет отчёт.
//
// Группировка всегда строится заново из снимка кэша: каждый ключ с
// категорией попадает ровно в одну группу, группы отсортированы по ключу.
package report

import (
	"sort"

	"github.com/ilkoid/notesorter/pkg/cache"
)

// Unresolved — служебная категория, которая в отчёт не попадает.
const Unresolved = "unresolved"

// Groups — категория → отсортированный список имён файлов.
type Groups map[string][]string

// Entry — одна строка плоского представления отчёта.
type Entry struct {
	FileName string `json:"fileName"`
	Type     string `json:"type"`
}

// Group строит группы из снимка кэша.
// Записи без категории (или с Unresolved) пропускаются.
func Group(c cache.Cache) Groups {
	g := Groups{}
	for key, rec := range c {
		if !resolved(rec.Category) {
			continue
		}
		g[rec.Category] = append(g[rec.Category], key)
	}
	g.sort()
	return g
}

// Categories возвращает имена групп по алфавиту.
func (g Groups) Categories() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries — плоское представление: по категориям, внутри по имени файла.
func (g Groups) Entries() []Entry {
	entries := make([]Entry, 0)
	for _, category := range g.Categories() {
		for _, key := range g[category] {
			entries = append(entries, Entry{FileName: key, Type: category})
		}
	}
	return entries
}

// FromEntries восстанавливает группы из плоского представления.
func FromEntries(entries []Entry) Groups {
	g := Groups{}
	for _, e := range entries {
		if !resolved(e.Type) {
			continue
		}
		g[e.Type] = append(g[e.Type], e.FileName)
	}
	g.sort()
	return g
}

// Select возвращает только перечисленные категории.
// Отсутствующая категория даёт пустой список, а не пропуск ключа.
func (g Groups) Select(categories []string) Groups {
	out := make(Groups, len(categories))
	for _, category := range categories {
		out[category] = append([]string{}, g[category]...)
	}
	return out
}

// Total — число файлов во всех группах.
func (g Groups) Total() int {
	n := 0
	for _, keys := range g {
		n += len(keys)
	}
	return n
}

func (g Groups) sort() {
	for _, keys := range g {
		sort.Strings(keys)
	}
}

func resolved(category string) bool {
	return category != "" && category != Unresolved
}
