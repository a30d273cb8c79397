package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/notesorter/pkg/llm"
)

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "invalid yaml", yaml: "messages: [\n"},
		{name: "no messages", yaml: "config:\n  temperature: 0\n"},
		{name: "bad role", yaml: "messages:\n  - role: robot\n    content: hi\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestRenderMessages(t *testing.T) {
	pf, err := Parse([]byte(`
messages:
  - role: system
    content: "Labels: {{join .Labels \"|\"}}"
  - role: user
    content: "{{.Content}}"
`))
	require.NoError(t, err)

	msgs, err := pf.RenderMessages(CategorizeData{Content: "note", Labels: []string{"a", "b"}})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: "Labels: a|b"}, msgs[0])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "note"}, msgs[1])
}

func TestRenderMessages_MissingKey(t *testing.T) {
	pf, err := Parse([]byte("messages:\n  - role: user\n    content: \"{{.Nope}}\"\n"))
	require.NoError(t, err)

	_, err = pf.RenderMessages(map[string]string{})
	assert.Error(t, err)
}

func TestDefaultCategorize(t *testing.T) {
	pf := DefaultCategorize()
	data := CategorizeData{
		Content:  "Intruder detected near sector 7",
		Labels:   []string{"people", "hardware", "software", "other"},
		Fallback: "other",
		OpenTag:  "<category>",
		CloseTag: "</category>",
	}

	msgs, err := pf.RenderMessages(data)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	text := msgs[0].Content
	assert.Contains(t, text, "<note_content>\nIntruder detected near sector 7\n</note_content>")
	assert.Contains(t, text, "one of: people, hardware, software, other")
	assert.Contains(t, text, "<category>INSERT_CATEGORY_HERE</category>")
	assert.NotContains(t, text, "<corpus>")

	data.Corpus = "#### fix1.txt\nReplaced faulty servo motor"
	msgs, err = pf.RenderMessages(data)
	require.NoError(t, err)
	assert.True(t, strings.Contains(msgs[0].Content, "<corpus>\n#### fix1.txt"))
}

func TestLoadCategorizePrompt(t *testing.T) {
	pf, err := LoadCategorizePrompt("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCategorize(), pf)

	pf, err = LoadCategorizePrompt(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCategorize(), pf)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("messages:\n  - role: user\n    content: \"Is it {{.Content}}?\"\n"), 0o644))
	pf, err = LoadCategorizePrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "Is it {{.Content}}?", pf.Messages[0].Content)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("messages: [\n"), 0o644))
	_, err = LoadCategorizePrompt(bad)
	assert.Error(t, err)
}

func TestPromptConfig_Options(t *testing.T) {
	assert.Empty(t, PromptConfig{}.Options())

	zero := 0.0
	opts := PromptConfig{Model: "gpt-4o-mini", Temperature: &zero, MaxTokens: 16}.Options()
	got := llm.ApplyOptions(llm.GenerateOptions{Temperature: 0.7}, opts...)
	assert.Equal(t, llm.GenerateOptions{Model: "gpt-4o-mini", Temperature: 0, MaxTokens: 16}, got)

	require.NotNil(t, DefaultCategorize().Config.Temperature)
	assert.Zero(t, *DefaultCategorize().Config.Temperature)
}
