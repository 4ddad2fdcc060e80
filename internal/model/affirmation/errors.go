package affirmation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind 标识生成流程中的错误类别。
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindProviderFailure Kind = "provider_failure"
	KindMissingOutput   Kind = "missing_output"
)

// 用于 errors.Is 判断的哨兵错误，只比较 Kind。
var (
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrProviderFailure = &Error{Kind: KindProviderFailure}
	ErrMissingOutput   = &Error{Kind: KindMissingOutput}
)

const genericFailureMessage = "Failed to generate affirmation. Please try again."

// Error 是生成流程返回给调用方的唯一错误类型。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error {
	return e.Err
}

// Is 按 Kind 匹配，使 errors.Is(err, ErrMissingOutput) 对包装后的错误同样成立。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// HTTPStatus 错误类别转 HTTP 状态码
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindProviderFailure:
		if errors.Is(e.Err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case KindMissingOutput:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage 返回可以直接展示给用户的提示。
// 只有输入错误会带上具体原因，其余情况统一使用通用文案。
func (e *Error) UserMessage() string {
	if e.Kind == KindInvalidInput && e.Message != "" {
		return e.Message
	}
	return genericFailureMessage
}

// InvalidInput 构造输入校验错误。
func InvalidInput(message string, err error) *Error {
	return &Error{Kind: KindInvalidInput, Message: message, Err: err}
}

// ProviderFailure 包装模型调用失败。
func ProviderFailure(err error) *Error {
	return &Error{Kind: KindProviderFailure, Message: "text generation provider call failed", Err: err}
}

// MissingOutput 表示模型成功返回但没有可用的 affirmation 字段。
func MissingOutput(message string) *Error {
	return &Error{Kind: KindMissingOutput, Message: message}
}

// AsError 从错误链中提取 *Error；非本包错误按 provider_failure 处理。
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var target *Error
	if errors.As(err, &target) {
		return target
	}
	return ProviderFailure(err)
}

// KindOf 返回错误类别，nil 返回空字符串。
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}
