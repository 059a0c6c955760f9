// Package apperr 定义了业务错误分类，handler 层据此翻译为 HTTP 状态码。
package apperr

import (
	"errors"
	"net/http"
)

// Kind 标识错误的业务类别。
type Kind int

const (
	// Validation 请求缺少或包含非法字段
	Validation Kind = iota
	// Auth 凭证错误或 token 缺失/无效
	Auth
	// Conflict 资源冲突（如邮箱已注册）
	Conflict
	// NotFound 资源不存在或不属于调用者（二者不可区分）
	NotFound
	// Upstream 上游模型服务失败，只通过流内错误事件暴露
	Upstream
	// Unexpected 其余未预期错误，对外只给通用消息
	Unexpected
)

// Error 是携带业务类别的错误。Message 是可以直接返回给客户端的文案。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建一个带类别的业务错误。
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 包装底层错误并赋予业务类别，底层细节只进日志不出边界。
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf 返回错误的业务类别，非业务错误一律视为 Unexpected。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unexpected
}

// HTTPStatus 将业务类别映射为 HTTP 状态码。
func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation, Auth, Conflict:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage 返回可以下发给客户端的错误文案。
// 未分类的错误只暴露通用消息，细节由调用方记录日志。
func ClientMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Unexpected {
		return e.Message
	}
	return "Server error"
}
