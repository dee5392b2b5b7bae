package errors

import (
	stderrors "errors"
	"fmt"
)

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

// 业务错误码
const (
	CodeCaptchaError = 40001
)

// Kind 错误分类
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindUnauthorized  Kind = "unauthorized"
	KindAuthorization Kind = "authorization"
	KindToken         Kind = "token"
	KindCaptcha       Kind = "captcha"
	KindForbidden     Kind = "forbidden"
	KindInvalidParam  Kind = "invalid_param"
	KindInternal      Kind = "internal"
)

// TokenReason 令牌错误原因
type TokenReason string

const (
	TokenExpired  TokenReason = "expired"
	TokenInvalid  TokenReason = "invalid"
	TokenMissing  TokenReason = "missing"
	TokenMismatch TokenReason = "mismatch"
)

// AppError 业务错误，携带稳定的错误码与提示
type AppError struct {
	Kind   Kind
	Code   int
	Msg    string
	Reason TokenReason
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Code: CodeNotFound, Msg: msg}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, Code: CodeUnauthorized, Msg: msg}
}

// Authorization 已识别身份但账号、部门或角色状态不允许访问
func Authorization(msg string) *AppError {
	return &AppError{Kind: KindAuthorization, Code: CodeUnauthorized, Msg: msg}
}

func Token(reason TokenReason, msg string) *AppError {
	return &AppError{Kind: KindToken, Code: CodeUnauthorized, Msg: msg, Reason: reason}
}

func Captcha(msg string) *AppError {
	return &AppError{Kind: KindCaptcha, Code: CodeCaptchaError, Msg: msg}
}

func Forbidden(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Code: CodeForbidden, Msg: msg}
}

func InvalidParam(msg string) *AppError {
	return &AppError{Kind: KindInvalidParam, Code: CodeInvalidParam, Msg: msg}
}

func Internal(msg string, err error) *AppError {
	return &AppError{Kind: KindInternal, Code: CodeServerError, Msg: msg, Err: err}
}

// As 提取 AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

func IsNotFound(err error) bool      { return IsKind(err, KindNotFound) }
func IsUnauthorized(err error) bool  { return IsKind(err, KindUnauthorized) }
func IsAuthorization(err error) bool { return IsKind(err, KindAuthorization) }
func IsToken(err error) bool         { return IsKind(err, KindToken) }
func IsCaptcha(err error) bool       { return IsKind(err, KindCaptcha) }
func IsForbidden(err error) bool     { return IsKind(err, KindForbidden) }

// IsTokenExpired 令牌是否因过期失效
func IsTokenExpired(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == KindToken && appErr.Reason == TokenExpired
}
