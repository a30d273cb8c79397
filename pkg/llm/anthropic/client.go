// Package anthropic реализует llm.Provider поверх Anthropic Messages API.
//
// Используется для текстовой классификации заметок. Vision и расшифровка
// аудио идут через pkg/llm/openai.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ilkoid/notesorter/pkg/config"
	"github.com/ilkoid/notesorter/pkg/llm"
	"github.com/ilkoid/notesorter/pkg/utils"
)

const (
	defaultBaseURL      = "https://api.anthropic.com"
	apiVersion          = "2023-06-01"
	defaultMaxTokens    = 2048
	defaultSystemPrompt = "You are a helpful assistant."
)

// ErrMissingAPIKey — ключ не задан в конфигурации модели.
var ErrMissingAPIKey = errors.New("anthropic: api_key is required")

// Client — клиент Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	defaults   llm.GenerateOptions
}

var _ llm.Provider = (*Client)(nil)

// NewClient создаёт клиент из описания модели.
//
// Пустой APIKey — ошибка конфигурации.
func NewClient(modelDef config.ModelDef) (*Client, error) {
	if modelDef.APIKey == "" {
		return nil, fmt.Errorf("%w (model %s)", ErrMissingAPIKey, modelDef.ModelName)
	}

	baseURL := strings.TrimRight(modelDef.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := modelDef.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	maxTokens := modelDef.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	systemPrompt := modelDef.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	return &Client{
		apiKey:     modelDef.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		defaults: llm.GenerateOptions{
			Model:        modelDef.ModelName,
			Temperature:  modelDef.Temperature,
			MaxTokens:    maxTokens,
			SystemPrompt: systemPrompt,
		},
	}, nil
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	System      string       `json:"system,omitempty"`
	Messages    []apiMessage `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Generate отправляет сообщения в /v1/messages.
//
// System сообщения из истории склеиваются в поле system (Messages API не
// принимает роль system внутри messages). Возвращается текст первого
// text-блока ответа; пустая строка, если его нет.
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (llm.Message, error) {
	startTime := time.Now()
	o := llm.ApplyOptions(c.defaults, opts...)

	body := buildRequest(o, messages)

	jsonData, err := json.Marshal(body)
	if err != nil {
		return llm.Message{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return llm.Message{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		utils.Error("Anthropic request failed", "error", err, "model", o.Model)
		return llm.Message{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		utils.Error("Anthropic API error", "status", resp.StatusCode, "model", o.Model)
		return llm.Message{}, fmt.Errorf("anthropic api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return llm.Message{}, fmt.Errorf("decode response: %w", err)
	}

	result := llm.Message{Role: llm.RoleAssistant}
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			result.Content = block.Text
			break
		}
	}

	utils.Debug("Anthropic response received",
		"model", o.Model,
		"stop_reason", apiResp.StopReason,
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

func buildRequest(o llm.GenerateOptions, messages []llm.Message) apiRequest {
	req := apiRequest{
		Model:     o.Model,
		MaxTokens: o.MaxTokens,
		System:    o.SystemPrompt,
	}
	// 0 тоже отправляется: без поля API берёт свой дефолт 1.0
	temp := o.Temperature
	req.Temperature = &temp

	var systemParts []string
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			systemParts = append(systemParts, m.Content)
			continue
		}
		req.Messages = append(req.Messages, apiMessage{Role: string(m.Role), Content: m.Content})
	}
	if len(systemParts) > 0 {
		req.System = strings.Join(systemParts, "\n\n")
	}

	return req
}
