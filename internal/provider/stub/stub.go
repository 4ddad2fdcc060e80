// Package stub 提供不依赖网络的文本生成实现，用于离线运行和测试。
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// DefaultReply 是未配置 STUB_AFFIRMATION 时的固定回复。
const DefaultReply = "I am growing stronger and kinder with every step I take."

// Func 把普通函数适配为 model.BaseChatModel。
type Func func(ctx context.Context, input []*schema.Message) (*schema.Message, error)

// Generate 调用函数本身
func (f Func) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return f(ctx, input)
}

// Stream 将单次结果包装为只有一个元素的流。
func (f Func) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// ChatModel 对每次调用都回显同一条 affirmation，并记录最近一次收到的提示词。
type ChatModel struct {
	reply string

	mu         sync.Mutex
	lastPrompt []*schema.Message
	calls      int
}

// New 创建回显 reply 的模型，reply 为空时使用 DefaultReply。
func New(reply string) *ChatModel {
	if reply == "" {
		reply = DefaultReply
	}
	return &ChatModel{reply: reply}
}

// Generate 返回 {"affirmation": reply}
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.lastPrompt = cloneMessages(input)
	m.calls++
	m.mu.Unlock()

	payload, err := json.Marshal(map[string]string{"affirmation": m.reply})
	if err != nil {
		return nil, fmt.Errorf("failed to encode stub reply: %w", err)
	}
	return schema.AssistantMessage(string(payload), nil), nil
}

// Stream 将单次结果包装为只有一个元素的流。
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// LastPrompt 返回最近一次调用收到的消息副本。
func (m *ChatModel) LastPrompt() []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneMessages(m.lastPrompt)
}

// Calls 返回累计调用次数
func (m *ChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func cloneMessages(msgs []*schema.Message) []*schema.Message {
	if msgs == nil {
		return nil
	}
	out := make([]*schema.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		copied := *msg
		out = append(out, &copied)
	}
	return out
}

var (
	_ model.BaseChatModel = (*ChatModel)(nil)
	_ model.BaseChatModel = Func(nil)
)
