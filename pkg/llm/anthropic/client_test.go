package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/notesorter/pkg/config"
	"github.com/ilkoid/notesorter/pkg/llm"
)

func newServerClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.ModelDef{
		APIKey:    "test-key",
		ModelName: "claude-3-5-sonnet-latest",
		BaseURL:   srv.URL + "/",
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(config.ModelDef{ModelName: "claude"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(config.ModelDef{APIKey: "k", ModelName: "claude"})
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Equal(t, defaultMaxTokens, c.defaults.MaxTokens)
	assert.Equal(t, defaultSystemPrompt, c.defaults.SystemPrompt)
}

func TestGenerate(t *testing.T) {
	var got apiRequest
	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"content":[{"type":"thinking","text":""},{"type":"text","text":"<category>hardware</category>"}],"stop_reason":"end_turn"}`)
	})

	msg, err := c.Generate(context.Background(), []llm.Message{llm.UserText("Replaced faulty servo motor")})
	require.NoError(t, err)
	assert.Equal(t, "<category>hardware</category>", msg.Content)
	assert.Equal(t, llm.RoleAssistant, msg.Role)

	assert.Equal(t, "claude-3-5-sonnet-latest", got.Model)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	assert.Equal(t, defaultSystemPrompt, got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestGenerate_APIError(t *testing.T) {
	c := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"type":"rate_limit_error"}}`)
	})

	_, err := c.Generate(context.Background(), []llm.Message{llm.UserText("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestBuildRequest_SystemMessagesAndOptions(t *testing.T) {
	o := llm.ApplyOptions(llm.GenerateOptions{Model: "m", MaxTokens: 10, SystemPrompt: "default"},
		llm.WithTemperature(0.3))

	req := buildRequest(o, []llm.Message{
		{Role: llm.RoleSystem, Content: "rules"},
		llm.UserText("note"),
	})

	assert.Equal(t, "rules", req.System)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.3, *req.Temperature)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "note", req.Messages[0].Content)
}

func TestBuildRequest_ZeroTemperatureIsSent(t *testing.T) {
	o := llm.ApplyOptions(llm.GenerateOptions{Model: "m", MaxTokens: 10, Temperature: 0.7},
		llm.WithTemperature(0))

	req := buildRequest(o, []llm.Message{llm.UserText("note")})
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.0, *req.Temperature)

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"temperature":0`)
}
