// Package errs 定义服务统一的错误分类：调用方错误（校验失败、资源不存在）
// 与基础设施错误（存储不可用）。HTTP 层按类别映射状态码，调用方据此决定重试还是直接上报。
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 入参或业务规则校验失败，不可重试
	ErrValidation = errors.New("validation failed")
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("not found")
	// ErrUpstream 下游依赖（数据库、缓存等）不可用，可重试
	ErrUpstream = errors.New("upstream unavailable")
)

// Validationf 构造校验错误
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf 构造资源不存在错误
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Upstreamf 包装基础设施错误，保留原始错误链
func Upstreamf(err error, op string) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsUpstream(err error) bool   { return errors.Is(err, ErrUpstream) }
