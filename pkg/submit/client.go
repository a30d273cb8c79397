// Package submit отправляет итоговые группы во внешний сервис приёма ответов.
//
// Тело запроса: {"task": ..., "apikey": ..., "answer": ...}. Клиент сам
// по себе возвращает ошибки; политику "залогировать и продолжить"
// реализует Reporter.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ilkoid/notesorter/pkg/config"
)

var (
	// ErrMissingAPIKey — не задан submission.api_key.
	ErrMissingAPIKey = errors.New("submit: api key is not set")

	// ErrMissingURL — не задан submission.url.
	ErrMissingURL = errors.New("submit: url is not set")
)

// ErrorType — класс ошибки отправки, для диагностики в логах.
type ErrorType int

const (
	ErrUnknown ErrorType = iota
	ErrAuthFailed
	ErrTimeout
	ErrNetwork
	ErrRateLimit
	ErrRejected
)

// String возвращает строковое представление типа ошибки.
func (e ErrorType) String() string {
	switch e {
	case ErrAuthFailed:
		return "authentication_failed"
	case ErrTimeout:
		return "timeout"
	case ErrNetwork:
		return "network_error"
	case ErrRateLimit:
		return "rate_limit"
	case ErrRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// HumanMessage возвращает человекочитаемое сообщение для типа ошибки.
func (e ErrorType) HumanMessage() string {
	switch e {
	case ErrAuthFailed:
		return "API ключ отклонён сервисом. Проверьте submission.api_key в конфигурации."
	case ErrTimeout:
		return "Превышено время ожидания ответа сервиса."
	case ErrNetwork:
		return "Сервис недоступен. Проверьте URL и подключение к сети."
	case ErrRateLimit:
		return "Превышен лимит запросов. Подождите перед следующей попыткой."
	case ErrRejected:
		return "Сервис отклонил ответ."
	default:
		return "Неизвестная ошибка при отправке ответа."
	}
}

// StatusError — ответ сервиса с не-2xx статусом.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("submit: status %d, body: %s", e.StatusCode, e.Body)
}

// HTTPClient интерфейс для выполнения HTTP запросов.
//
// Позволяет мокировать HTTP клиент в тестах.
// Стандартный *http.Client реализует этот интерфейс.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Payload — тело запроса к сервису.
type Payload struct {
	Task   string      `json:"task"`
	APIKey string      `json:"apikey"`
	Answer interface{} `json:"answer"`
}

// Response — ответ сервиса. Raw хранит тело как есть.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Raw     string `json:"-"`
}

// Sender — узкий интерфейс отправки для Reporter и тестов.
type Sender interface {
	Send(ctx context.Context, task string, answer interface{}) (*Response, error)
	URL() string
}

// Client отправляет ответы с rate limiting и retry.
type Client struct {
	url           string
	apiKey        string
	httpClient    HTTPClient
	retryAttempts int
	limiter       *rate.Limiter
}

var _ Sender = (*Client)(nil)

// NewClient создаёт клиент из конфигурации.
//
// Отсутствующий ключ или URL это ошибка конфигурации, а не повод молча
// пропустить отправку.
func NewClient(cfg config.SubmissionConfig) (*Client, error) {
	cfg = cfg.GetDefaults()

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.URL == "" {
		return nil, ErrMissingURL
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid submission.timeout format: %w", err)
	}

	// rate_limit в запросах/минуту → rate.Limit в запросах/секунду
	ratePerSec := float64(cfg.RateLimit) / 60.0

	return &Client{
		url:           cfg.URL,
		apiKey:        cfg.APIKey,
		retryAttempts: cfg.RetryAttempts,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), cfg.BurstLimit),
	}, nil
}

// WithHTTPClient подменяет HTTP клиент (для тестов).
func (c *Client) WithHTTPClient(h HTTPClient) *Client {
	c.httpClient = h
	return c
}

// URL возвращает адрес сервиса.
func (c *Client) URL() string {
	return c.url
}

// Payload собирает тело запроса.
func (c *Client) Payload(task string, answer interface{}) Payload {
	return Payload{Task: task, APIKey: c.apiKey, Answer: answer}
}

// Send отправляет ответ.
//
// Сетевые ошибки, 429 и 5xx повторяются до submission.retry_attempts раз.
// Остальные не-2xx ответы возвращаются сразу как *StatusError.
func (c *Client) Send(ctx context.Context, task string, answer interface{}) (*Response, error) {
	body, err := json.Marshal(c.Payload(task, answer))
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	for i := 0; i < c.retryAttempts; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, retryAfter, err := c.post(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if retryAfter > 0 && i < c.retryAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryAfter):
			}
		}
	}

	if c.retryAttempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded, last error: %w", lastErr)
}

// post выполняет одну попытку. retryAfter > 0 только для 429.
func (c *Client) post(ctx context.Context, body []byte) (*Response, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 1 * time.Second
		if s := resp.Header.Get("Retry-After"); s != "" {
			if sec, err := strconv.Atoi(s); err == nil {
				retryAfter = time.Duration(sec) * time.Second
			}
		}
		return nil, retryAfter, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, 0, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	out := &Response{Raw: string(raw)}
	// Тело не обязано быть JSON: достаточно 2xx
	_ = json.Unmarshal(raw, out)
	return out, 0, nil
}

// ClassifyError классифицирует ошибку по типу для лучшей диагностики.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrUnknown
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden:
			return ErrAuthFailed
		case se.StatusCode == http.StatusTooManyRequests:
			return ErrRateLimit
		default:
			return ErrRejected
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	errMsg := err.Error()
	errMsgLower := strings.ToLower(errMsg)

	if strings.Contains(errMsgLower, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") {
		return ErrTimeout
	}

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host") {
		return ErrNetwork
	}

	return ErrUnknown
}
