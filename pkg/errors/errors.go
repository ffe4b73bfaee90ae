// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

const (
	// 通用 (1xxx)
	CodeUnknown         ErrorCode = "1000"
	CodeNotFound        ErrorCode = "1004"
	CodeTooManyRequests ErrorCode = "1006"
	CodeInternalError   ErrorCode = "1007"
	CodeConfigInvalid   ErrorCode = "1009"
	CodePayloadTooLarge ErrorCode = "1010"

	// 认证 (2xxx)
	CodeTokenExpired ErrorCode = "2001"
	CodeTokenInvalid ErrorCode = "2002"
	CodeTokenMissing ErrorCode = "2003"

	// 会话 (3xxx)
	CodeSessionNotFound ErrorCode = "3001"

	// 问答流水线 (4xxx)
	CodeGenerationFailed    ErrorCode = "4001"
	CodeValidationFailed    ErrorCode = "4002"
	CodeRetrievalFailed     ErrorCode = "4003"
	CodeAudioMissing        ErrorCode = "4004"
	CodeTranscriptionFailed ErrorCode = "4007"

	// 依赖 (5xxx)
	CodeDatabaseError    ErrorCode = "5001"
	CodeIndexUnavailable ErrorCode = "5006"
)

// httpStatus 错误码到 HTTP 状态码；未登记的错误码为 500
var httpStatus = map[ErrorCode]int{
	CodeNotFound:            http.StatusNotFound,
	CodeTooManyRequests:     http.StatusTooManyRequests,
	CodeConfigInvalid:       http.StatusBadRequest,
	CodePayloadTooLarge:     http.StatusRequestEntityTooLarge,
	CodeTokenExpired:        http.StatusUnauthorized,
	CodeTokenInvalid:        http.StatusUnauthorized,
	CodeTokenMissing:        http.StatusUnauthorized,
	CodeSessionNotFound:     http.StatusNotFound,
	CodeGenerationFailed:    http.StatusBadGateway,
	CodeValidationFailed:    http.StatusBadRequest,
	CodeAudioMissing:        http.StatusBadRequest,
	CodeTranscriptionFailed: http.StatusBadGateway,
	CodeIndexUnavailable:    http.StatusServiceUnavailable,
}

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 添加面向调用方的详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// New 创建应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: StatusOf(code),
	}
}

// Wrap 包装底层错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Err = err
	return appErr
}

// StatusOf 返回错误码对应的 HTTP 状态码
func StatusOf(code ErrorCode) int {
	if status, ok := httpStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsAppError 检查错误链中是否有 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 取出错误链中的 AppError；没有时包装为 CodeUnknown
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}

// HasCode 判断错误链中是否存在指定错误码的 AppError
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
