package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/notesorter/pkg/cache"
)

func sampleCache() cache.Cache {
	return cache.Cache{
		"note2.txt":   {Content: "footprints", Category: "people"},
		"note1.txt":   {Content: "intruder", Category: "people"},
		"fix1.txt":    {Content: "servo", Category: "hardware"},
		"bug.txt":     {Content: "segfault", Category: "software"},
		"misc.png":    {Content: "menu", Category: "other"},
		"pending.mp3": {Content: "not yet classified"},
		"weird.txt":   {Content: "?", Category: Unresolved},
	}
}

func TestGroup(t *testing.T) {
	g := Group(sampleCache())

	assert.Equal(t, Groups{
		"people":   {"note1.txt", "note2.txt"},
		"hardware": {"fix1.txt"},
		"software": {"bug.txt"},
		"other":    {"misc.png"},
	}, g)
}

func TestGroup_CompleteAndDisjoint(t *testing.T) {
	c := sampleCache()
	g := Group(c)

	seen := map[string]string{}
	for category, keys := range g {
		assert.IsIncreasing(t, keys, "group %s sorted", category)
		for _, key := range keys {
			prev, dup := seen[key]
			assert.False(t, dup, "%s in both %s and %s", key, prev, category)
			seen[key] = category
			assert.Equal(t, c[key].Category, category)
		}
	}

	for key, rec := range c {
		_, grouped := seen[key]
		assert.Equal(t, rec.Category != "" && rec.Category != Unresolved, grouped, key)
	}
}

func TestGroup_Empty(t *testing.T) {
	g := Group(cache.Cache{})
	assert.Empty(t, g)
	assert.Empty(t, g.Entries())
	assert.NotNil(t, g.Entries())
}

func TestEntries_RoundTrip(t *testing.T) {
	g := Group(sampleCache())
	entries := g.Entries()

	assert.Equal(t, []Entry{
		{FileName: "fix1.txt", Type: "hardware"},
		{FileName: "misc.png", Type: "other"},
		{FileName: "note1.txt", Type: "people"},
		{FileName: "note2.txt", Type: "people"},
		{FileName: "bug.txt", Type: "software"},
	}, entries)
	assert.Equal(t, g, FromEntries(entries))
}

func TestSelect(t *testing.T) {
	g := Group(sampleCache())

	sel := g.Select([]string{"people", "hardware"})
	assert.Equal(t, Groups{
		"people":   {"note1.txt", "note2.txt"},
		"hardware": {"fix1.txt"},
	}, sel)

	// Изменение выборки не трогает исходные группы
	sel["people"][0] = "changed"
	assert.Equal(t, "note1.txt", g["people"][0])

	empty := Groups{}.Select([]string{"people"})
	require.Contains(t, empty, "people")
	assert.NotNil(t, empty["people"])
	assert.Empty(t, empty["people"])
}

func TestWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	w := NewWriter(path)

	g := Group(sampleCache())
	require.NoError(t, w.Write(NewDocument(g)))

	doc, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, g, doc.Groups)
	assert.Equal(t, g.Entries(), doc.Entries)

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(first), "run_id")
	assert.NotContains(t, string(first), "generated_at")

	// Та же группировка, собранная заново, даёт тот же файл
	require.NoError(t, w.Write(NewDocument(Group(sampleCache()))))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestNewDocument_Empty(t *testing.T) {
	doc := NewDocument(nil)
	assert.NotNil(t, doc.Groups)
	assert.NotNil(t, doc.Entries)
}

func TestRead_EntriesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"entries":[{"fileName":"b.txt","type":"people"},{"fileName":"a.txt","type":"people"}]}`), 0o644))

	doc, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, Groups{"people": {"a.txt", "b.txt"}}, doc.Groups)
}
