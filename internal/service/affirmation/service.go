package affirmation

import (
	"context"
	"errors"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	model "github.com/zhouzirui/z-affirm/backend/internal/model/affirmation"
)

// Service 串联 提示词模板 -> 模型调用 -> 输出校验。
// 不持有任何可变状态，可以被并发调用；每次调用只请求一次模型，不重试、不缓存。
type Service struct {
	template prompt.ChatTemplate
	chain    compose.Runnable[map[string]any, *schema.Message]
	timeout  time.Duration
}

// Option 调整 Service 行为
type Option func(*Service)

// WithTimeout 为每次模型调用设置超时，0 表示不限制。
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService 编译生成链路。chatModel 可以是任意实现了 BaseChatModel 的提供方。
func NewService(ctx context.Context, chatModel einomodel.BaseChatModel, opts ...Option) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	svc := &Service{template: newPromptTemplate()}
	for _, opt := range opts {
		opt(svc)
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(svc.template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile affirmation chain: %w", err)
	}
	svc.chain = runnable

	return svc, nil
}

// Generate 根据 topic 和 mood 生成一条 affirmation。
// 返回的错误一定是 *model.Error，类别为 invalid_input / provider_failure / missing_output 之一。
func (s *Service) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	if err := req.Validate(); err != nil {
		return model.Response{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	msg, err := s.chain.Invoke(ctx, promptVariables(req))
	if err != nil {
		// 保留超时/取消原因，便于上层区分 504
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return model.Response{}, model.ProviderFailure(err)
	}

	return parseOutput(msg)
}

// RenderPrompt 返回将要发送给模型的消息，不发起调用。
func (s *Service) RenderPrompt(ctx context.Context, req model.Request) ([]*schema.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	msgs, err := s.template.Format(ctx, promptVariables(req))
	if err != nil {
		return nil, fmt.Errorf("failed to format affirmation prompt: %w", err)
	}
	return msgs, nil
}

// Timeout 返回单次调用的超时设置
func (s *Service) Timeout() time.Duration {
	return s.timeout
}
