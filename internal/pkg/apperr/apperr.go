package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 是面向调用方的错误分类，会原样出现在 HTTP 响应的 error 字段里。
type Kind string

const (
	KindInvalidInput        Kind = "InvalidInput"
	KindUpstreamUnavailable Kind = "UpstreamUnavailable"
	KindUpstreamTimeout     Kind = "UpstreamTimeout"
	KindModelNotFound       Kind = "ModelNotFound"
)

// Error 在检测点创建后原样传递到 HTTP 边界，中途不得改写。
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

// InvalidInput 表示上传内容本身不合法（过大/类型错误/损坏等），不会重试。
func InvalidInput(format string, args ...any) *Error {
	return &Error{
		Kind:       KindInvalidInput,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusBadRequest,
	}
}

// UpstreamUnavailable 表示推理后端不可达或返回非 2xx。
func UpstreamUnavailable(format string, args ...any) *Error {
	return &Error{
		Kind:       KindUpstreamUnavailable,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusServiceUnavailable,
	}
}

// UpstreamTimeout 表示后端在配置的时间窗口内没有响应。
func UpstreamTimeout(message string) *Error {
	return &Error{
		Kind:       KindUpstreamTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
	}
}

// ModelNotFound 表示后端明确报告当前配置的模型不存在。
func ModelNotFound(model string) *Error {
	return &Error{
		Kind:       KindModelNotFound,
		Message:    fmt.Sprintf("Model '%s' not found. Try running: ollama pull %s", model, model),
		StatusCode: http.StatusServiceUnavailable,
	}
}

// From 提取错误链中的 *Error。
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind 判断错误是否属于指定分类。
func IsKind(err error, kind Kind) bool {
	e, ok := From(err)
	return ok && e.Kind == kind
}
