package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind 发布错误分类
// 分类决定重试策略:瞬时类错误可重试,终态类错误直接失败
type ErrorKind string

const (
	// ErrorKindSessionInvalid 登录态缺失或过期,不重试
	ErrorKindSessionInvalid ErrorKind = "session_invalid"

	// ErrorKindUnsupportedPlatform 平台未注册策略,不重试
	ErrorKindUnsupportedPlatform ErrorKind = "unsupported_platform"

	// ErrorKindElementNotFound 所有候选选择器都未命中,可重试
	ErrorKindElementNotFound ErrorKind = "element_not_found"

	// ErrorKindInteractionFailed 点击/填充在降级后仍失败,可重试
	ErrorKindInteractionFailed ErrorKind = "interaction_failed"

	// ErrorKindTimeout 步骤超过时限,可重试
	ErrorKindTimeout ErrorKind = "timeout"

	// ErrorKindCancelled 任务级取消,终态
	ErrorKindCancelled ErrorKind = "cancelled"

	// ErrorKindInternal 未预期错误(含 panic),终态
	ErrorKindInternal ErrorKind = "internal"
)

// Retryable 判断该分类是否允许重试
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorKindElementNotFound, ErrorKindInteractionFailed, ErrorKindTimeout:
		return true
	default:
		return false
	}
}

// PublishError 带分类的发布错误
type PublishError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *PublishError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap 返回底层错误
func (e *PublishError) Unwrap() error {
	return e.Err
}

// NewError 创建发布错误
func NewError(kind ErrorKind, format string, args ...interface{}) *PublishError {
	return &PublishError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError 包装底层错误并标注分类
func WrapError(kind ErrorKind, err error, message string) *PublishError {
	return &PublishError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// KindOf 提取错误分类
// 未分类的错误一律视为 internal
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrorKindCancelled
	}
	return ErrorKindInternal
}
