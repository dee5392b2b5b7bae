package services

import (
	"context"

	"fbadmin/internal/models"
	apperrors "fbadmin/pkg/errors"
)

// CredentialVerifier 用户名密码校验
type CredentialVerifier struct {
	users IdentityStore
}

func NewCredentialVerifier(users IdentityStore) *CredentialVerifier {
	return &CredentialVerifier{users: users}
}

// Verify 校验用户名、密码与账号状态，验证码由调用方处理
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) (*models.User, error) {
	user, err := v.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.Internal("查询用户失败", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("用户不存在")
	}
	if !user.CheckPassword(password) {
		return nil, apperrors.Unauthorized("用户名或密码有误")
	}
	if !user.IsEnabled() {
		return nil, apperrors.Unauthorized("用户已被锁定, 请联系统管理员")
	}
	return user, nil
}
