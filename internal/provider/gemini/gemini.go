// Package gemini 将 Google Gemini 接入为 eino 的 BaseChatModel。
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const (
	// DefaultModel 未配置模型时使用
	DefaultModel = "gemini-2.0-flash"

	jsonMimeType = "application/json"
)

// Config 描述 Gemini 调用参数。
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
	// ResponseSchema 非空时要求模型以 JSON 返回并符合该结构。
	ResponseSchema *genai.Schema
}

// ChatModel 通过 genai SDK 调用 generateContent。
type ChatModel struct {
	client *genai.Client
	cfg    Config
}

// NewChatModel 创建 Gemini 模型客户端
func NewChatModel(ctx context.Context, cfg Config) (*ChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &ChatModel{client: client, cfg: cfg}, nil
}

// Generate 发送一次 generateContent 请求并返回助手消息。
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	contents, system := toContents(input)
	if len(contents) == 0 {
		return nil, fmt.Errorf("gemini request has no user content")
	}

	options := model.GetCommonOptions(&model.Options{
		Temperature: m.cfg.Temperature,
		TopP:        m.cfg.TopP,
		MaxTokens:   m.cfg.MaxTokens,
		Model:       &m.cfg.Model,
	}, opts...)

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       options.Temperature,
		TopP:              options.TopP,
	}
	if options.MaxTokens != nil {
		genCfg.MaxOutputTokens = int32(*options.MaxTokens)
	}
	if m.cfg.ResponseSchema != nil {
		genCfg.ResponseMIMEType = jsonMimeType
		genCfg.ResponseSchema = m.cfg.ResponseSchema
	}

	modelName := m.cfg.Model
	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}

	resp, err := m.client.Models.GenerateContent(ctx, modelName, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, nil
	}

	msg := schema.AssistantMessage(resp.Text(), nil)
	if usage := resp.UsageMetadata; usage != nil {
		msg.ResponseMeta = &schema.ResponseMeta{
			FinishReason: string(resp.Candidates[0].FinishReason),
			Usage: &schema.TokenUsage{
				PromptTokens:     int(usage.PromptTokenCount),
				CompletionTokens: int(usage.CandidatesTokenCount),
				TotalTokens:      int(usage.TotalTokenCount),
			},
		}
	}
	return msg, nil
}

// Stream 不使用 streamGenerateContent，直接把完整结果包装为单元素流。
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// StringFieldsSchema 构造只包含必填字符串字段的对象结构。
func StringFieldsSchema(fields ...string) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	for _, field := range fields {
		props[field] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   append([]string(nil), fields...),
	}
}

// toContents 把 eino 消息转换为 Gemini 的 contents，system 消息合并为 SystemInstruction。
func toContents(input []*schema.Message) ([]*genai.Content, *genai.Content) {
	var (
		contents    []*genai.Content
		systemParts []string
	)
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			systemParts = append(systemParts, msg.Content)
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	}
	return contents, system
}

var _ model.BaseChatModel = (*ChatModel)(nil)
