package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/z-affirm/backend/internal/provider/gemini"
	"github.com/zhouzirui/z-affirm/backend/internal/provider/stub"
)

// 支持的文本生成提供方
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderStub   = "stub"
)

const defaultAITimeout = 30 * time.Second

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Log     LogConfig
	Content ContentConfig
	CORS    CORSConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Log:     loadLogConfig(),
		Content: ContentConfig{File: strings.TrimSpace(os.Getenv("CONTENT_FILE"))},
		CORS:    CORSConfig{AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig 日志级别与输出格式
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

// ContentConfig 静态内容来源，File 为空时使用内置数据。
type ContentConfig struct {
	File string
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins []string
}

// ArkConfig 火山方舟凭证
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	BaseURL   string
	Region    string
}

// OpenAIConfig 兼容 OpenAI 协议的服务
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// GeminiConfig Google Gemini 凭证
type GeminiConfig struct {
	APIKey  string
	BaseURL string
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider    string
	Model       string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	Timeout     time.Duration
	StubReply   string

	Ark    ArkConfig
	OpenAI OpenAIConfig
	Gemini GeminiConfig
}

// Enabled 表示所选提供方的必需配置是否齐全。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.Model != "" && (c.Ark.APIKey != "" || (c.Ark.AccessKey != "" && c.Ark.SecretKey != ""))
	case ProviderOpenAI:
		return c.Model != "" && c.OpenAI.APIKey != ""
	case ProviderGemini:
		return c.Gemini.APIKey != ""
	case ProviderStub:
		return true
	default:
		return false
	}
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("AI provider %q is not configured: check AI_PROVIDER, AI_MODEL and the provider credentials", c.Provider)
	}

	temperature := toFloat32(c.Temperature)
	topP := toFloat32(c.TopP)

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	switch c.Provider {
	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.Ark.BaseURL,
			Region:      c.Ark.Region,
			APIKey:      c.Ark.APIKey,
			AccessKey:   c.Ark.AccessKey,
			SecretKey:   c.Ark.SecretKey,
			Model:       c.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	case ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      c.OpenAI.APIKey,
			BaseURL:     c.OpenAI.BaseURL,
			Model:       c.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
			Timeout:     c.Timeout,
		})
	case ProviderGemini:
		return gemini.NewChatModel(ctx, gemini.Config{
			APIKey:         c.Gemini.APIKey,
			BaseURL:        c.Gemini.BaseURL,
			Model:          c.Model,
			Temperature:    temperature,
			TopP:           topP,
			MaxTokens:      maxTokens,
			ResponseSchema: gemini.StringFieldsSchema("affirmation"),
		})
	default:
		return stub.New(c.StubReply), nil
	}
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", defaultAITimeout)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:    os.Getenv("AI_PROVIDER"),
		Model:       getEnvOrDefault("AI_MODEL", strings.TrimSpace(os.Getenv("Model"))),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
		StubReply:   strings.TrimSpace(os.Getenv("STUB_AFFIRMATION")),
		Ark: ArkConfig{
			APIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
			AccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
			BaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			Region:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			BaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		},
		Gemini: GeminiConfig{
			APIKey:  getEnvOrDefault("GEMINI_API_KEY", strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))),
			BaseURL: strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
		},
	}

	return cfg.WithProvider(cfg.Provider)
}

// WithProvider 返回切换到指定提供方的配置副本；name 为空时按凭证重新推断。
func (c AIConfig) WithProvider(name string) (AIConfig, error) {
	c.Provider = strings.ToLower(strings.TrimSpace(name))
	switch c.Provider {
	case "":
		c.Provider = inferProvider(c)
	case ProviderArk, ProviderOpenAI, ProviderGemini, ProviderStub:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q: expected ark, openai, gemini or stub", c.Provider)
	}
	return c, nil
}

// inferProvider 未显式指定 AI_PROVIDER 时按已提供的凭证推断。
func inferProvider(cfg AIConfig) string {
	switch {
	case cfg.Ark.APIKey != "" || cfg.Ark.AccessKey != "":
		return ProviderArk
	case cfg.OpenAI.APIKey != "":
		return ProviderOpenAI
	case cfg.Gemini.APIKey != "":
		return ProviderGemini
	default:
		return ""
	}
}

func toFloat32(v *float64) *float32 {
	if v == nil {
		return nil
	}
	val := float32(*v)
	return &val
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseDurationEnv 支持 "45s" 这类 duration，也兼容纯数字（秒）。
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
