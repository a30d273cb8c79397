package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Поддерживаемые источники файлов и бэкенды кэша.
const (
	SourceLocal = "local"
	SourceS3    = "s3"

	CacheJSON   = "json"
	CacheSQLite = "sqlite"
	CacheBolt   = "bolt"
)

// AppConfig — корневая структура конфигурации.
// Зеркалит структуру config.yaml.
type AppConfig struct {
	Models          ModelsConfig         `yaml:"models"`
	Source          SourceConfig         `yaml:"source"`
	S3              S3Config             `yaml:"s3"`
	Cache           CacheConfig          `yaml:"cache"`
	Classification  ClassificationConfig `yaml:"classification"`
	Report          ReportConfig         `yaml:"report"`
	Submission      SubmissionConfig     `yaml:"submission"`
	FileRules       []FileRule           `yaml:"file_rules"`
	ImageProcessing ImageProcConfig      `yaml:"image_processing"`
	App             AppSpecific          `yaml:"app"`
}

// ModelsConfig — настройки AI моделей.
type ModelsConfig struct {
	DefaultChat          string              `yaml:"default_chat"`          // Модель для классификации заметок
	DefaultVision        string              `yaml:"default_vision"`        // Модель для OCR изображений
	DefaultTranscription string              `yaml:"default_transcription"` // Модель для расшифровки аудио
	Definitions          map[string]ModelDef `yaml:"definitions"`
}

// ModelDef — параметры конкретной модели.
type ModelDef struct {
	Provider     string        `yaml:"provider"`   // "openai", "zai", "anthropic" и т.д.
	ModelName    string        `yaml:"model_name"` // Реальное имя в API
	APIKey       string        `yaml:"api_key"`    // Поддерживает ${VAR}
	BaseURL      string        `yaml:"base_url"`
	SystemPrompt string        `yaml:"system_prompt"`
	MaxTokens    int           `yaml:"max_tokens"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"` // "60s", "1m"
}

// SourceConfig — откуда берутся файлы для обработки.
type SourceConfig struct {
	Type   string `yaml:"type"`   // "local" или "s3"
	Dir    string `yaml:"dir"`    // Директория для type=local
	Prefix string `yaml:"prefix"` // Префикс ключей для type=s3
}

// S3Config — настройки объектного хранилища.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
}

// CacheConfig — где хранится кэш извлечённого контента.
type CacheConfig struct {
	Backend string `yaml:"backend"` // "json", "sqlite" или "bolt"
	Path    string `yaml:"path"`
}

// ClassificationConfig — закрытый набор категорий и формат ответа модели.
type ClassificationConfig struct {
	Labels     []string `yaml:"labels"`
	Fallback   string   `yaml:"fallback"`
	OpenTag    string   `yaml:"open_tag"`
	CloseTag   string   `yaml:"close_tag"`
	UseCorpus  bool     `yaml:"use_corpus"`  // Передавать в промпт содержимое всех файлов
	PromptFile string   `yaml:"prompt_file"` // Относительно app.prompts_dir, пусто = встроенный промпт
}

// ReportConfig — итоговый отчёт по категориям.
type ReportConfig struct {
	Path             string   `yaml:"path"`
	Task             string   `yaml:"task"`
	SubmitCategories []string `yaml:"submit_categories"` // Какие группы уходят во внешний сервис
}

// SubmissionConfig — внешний сервис приёма ответов.
type SubmissionConfig struct {
	URL           string `yaml:"url"`
	APIKey        string `yaml:"api_key"`        // Поддерживает ${VAR}
	RateLimit     int    `yaml:"rate_limit"`     // Запросов в минуту
	BurstLimit    int    `yaml:"burst_limit"`
	RetryAttempts int    `yaml:"retry_attempts"` // 1 = без повторов
	Timeout       string `yaml:"timeout"`        // "30s"
}

// FileRule связывает тип контента с расширениями файлов.
type FileRule struct {
	Kind       string   `yaml:"kind"`       // "text", "audio", "image"
	Extensions []string `yaml:"extensions"` // Без точки, регистр важен: "txt", "mp3"
}

// ImageProcConfig — настройки обработки изображений перед OCR.
type ImageProcConfig struct {
	MaxWidth int `yaml:"max_width"`
	Quality  int `yaml:"quality"`
}

// AppSpecific — общие настройки приложения.
type AppSpecific struct {
	Debug      bool   `yaml:"debug"`
	LogDir     string `yaml:"log_dir"`
	PromptsDir string `yaml:"prompts_dir"`
}

// GetDefaults возвращает копию с дефолтами для незаполненных полей.
func (c *ClassificationConfig) GetDefaults() ClassificationConfig {
	result := *c

	if len(result.Labels) == 0 {
		result.Labels = []string{"people", "hardware", "software", "other"}
	}
	if result.Fallback == "" {
		result.Fallback = "other"
	}
	if result.OpenTag == "" {
		result.OpenTag = "<category>"
	}
	if result.CloseTag == "" {
		result.CloseTag = "</category>"
	}

	return result
}

// GetDefaults возвращает копию с дефолтами для незаполненных полей.
func (c *SubmissionConfig) GetDefaults() SubmissionConfig {
	result := *c

	// Отрицательные значения трактуются как незаданные
	if result.RateLimit <= 0 {
		result.RateLimit = 60 // запросов в минуту
	}
	if result.BurstLimit <= 0 {
		result.BurstLimit = 1
	}
	if result.RetryAttempts <= 0 {
		result.RetryAttempts = 1
	}
	if result.Timeout == "" {
		result.Timeout = "30s"
	}

	return result
}

// applyDefaults заполняет секции, которые можно не указывать в config.yaml.
func (c *AppConfig) applyDefaults() {
	if c.Source.Type == "" {
		c.Source.Type = SourceLocal
	}
	if c.Source.Type == SourceLocal && c.Source.Dir == "" {
		c.Source.Dir = "files"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheJSON
	}
	if c.Cache.Path == "" {
		switch c.Cache.Backend {
		case CacheSQLite:
			c.Cache.Path = "cache.db"
		case CacheBolt:
			c.Cache.Path = "cache.bolt"
		default:
			c.Cache.Path = "cache.json"
		}
	}
	if c.Report.Path == "" {
		c.Report.Path = "report.json"
	}
	if c.Report.Task == "" {
		c.Report.Task = "kategorie"
	}
	if len(c.Report.SubmitCategories) == 0 {
		c.Report.SubmitCategories = []string{"people", "hardware"}
	}
	if c.ImageProcessing.Quality == 0 {
		c.ImageProcessing.Quality = 85
	}
	if c.App.LogDir == "" {
		c.App.LogDir = "."
	}
	if c.App.PromptsDir == "" {
		c.App.PromptsDir = "prompts"
	}

	c.Classification = c.Classification.GetDefaults()
	c.Submission = c.Submission.GetDefaults()
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(rawBytes)
}

// Parse разбирает содержимое config.yaml.
//
// ${VAR} и $VAR заменяются значениями из окружения до парсинга YAML.
func Parse(raw []byte) (*AppConfig, error) {
	contentWithEnv := os.ExpandEnv(string(raw))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate проверяет согласованность настроек.
//
// Ключи API здесь не проверяются: их отсутствие — ошибка конкретного
// клиента, который падает при создании.
func (c *AppConfig) validate() error {
	switch c.Source.Type {
	case SourceLocal:
	case SourceS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required for source.type=s3")
		}
		if c.S3.Endpoint == "" {
			return fmt.Errorf("s3.endpoint is required for source.type=s3")
		}
	default:
		return fmt.Errorf("unknown source.type '%s'", c.Source.Type)
	}

	switch c.Cache.Backend {
	case CacheJSON, CacheSQLite, CacheBolt:
	default:
		return fmt.Errorf("unknown cache.backend '%s'", c.Cache.Backend)
	}

	for _, alias := range []string{c.Models.DefaultChat, c.Models.DefaultVision, c.Models.DefaultTranscription} {
		if alias == "" {
			continue
		}
		if _, ok := c.Models.Definitions[alias]; !ok {
			return fmt.Errorf("model '%s' is not defined in definitions", alias)
		}
	}

	cl := c.Classification
	if cl.OpenTag == "" || cl.CloseTag == "" {
		return fmt.Errorf("classification.open_tag and close_tag must not be empty")
	}
	if !contains(cl.Labels, cl.Fallback) {
		return fmt.Errorf("classification.fallback '%s' is not one of labels %v", cl.Fallback, cl.Labels)
	}

	for _, rule := range c.FileRules {
		switch rule.Kind {
		case "text", "audio", "image":
		default:
			return fmt.Errorf("file_rules: unknown kind '%s'", rule.Kind)
		}
	}

	return nil
}

// Helper методы для удобства доступа (Syntactic sugar)

// GetChatModel возвращает конфигурацию модели классификации.
func (c *AppConfig) GetChatModel(name string) (ModelDef, bool) {
	return c.model(name, c.Models.DefaultChat)
}

// GetVisionModel возвращает конфигурацию модели по умолчанию или по имени.
func (c *AppConfig) GetVisionModel(name string) (ModelDef, bool) {
	return c.model(name, c.Models.DefaultVision)
}

// GetTranscriptionModel возвращает конфигурацию модели расшифровки аудио.
func (c *AppConfig) GetTranscriptionModel(name string) (ModelDef, bool) {
	return c.model(name, c.Models.DefaultTranscription)
}

func (c *AppConfig) model(name, fallback string) (ModelDef, bool) {
	if name == "" {
		name = fallback
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
