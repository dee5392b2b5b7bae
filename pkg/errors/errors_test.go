package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHelpersSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", Captcha("验证码错误"))

	assert.True(t, IsCaptcha(wrapped))
	assert.False(t, IsToken(wrapped))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CodeCaptchaError, appErr.Code)
}

func TestTokenReasons(t *testing.T) {
	assert.True(t, IsTokenExpired(Token(TokenExpired, "Token 已过期")))
	assert.False(t, IsTokenExpired(Token(TokenInvalid, "Token 无效")))
	assert.True(t, IsToken(Token(TokenInvalid, "Token 无效")))
}

func TestAuthorizationSharesUnauthorizedCode(t *testing.T) {
	err := Authorization("用户所属部门已被锁定")

	assert.Equal(t, CodeUnauthorized, err.Code)
	assert.True(t, IsAuthorization(err))
	assert.False(t, IsUnauthorized(err))
}
