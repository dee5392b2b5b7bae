package services

import (
	"context"
	"strconv"
	"time"

	"fbadmin/internal/models"
	apperrors "fbadmin/pkg/errors"
	"fbadmin/pkg/logger"
)

// CaptchaChecker 验证码校验
type CaptchaChecker interface {
	Verify(ctx context.Context, ip, answer string) error
	Clear(ctx context.Context, ip string) error
}

// LoginParam 登录参数
type LoginParam struct {
	Username  string
	Password  string
	Captcha   string
	IP        string
	UserAgent string
}

// LoginResult 登录结果，刷新令牌通过 Cookie 下发
type LoginResult struct {
	AccessToken            string       `json:"access_token"`
	AccessTokenType        string       `json:"access_token_type"`
	AccessTokenExpireTime  time.Time    `json:"access_token_expire_time"`
	RefreshToken           string       `json:"-"`
	RefreshTokenExpireTime time.Time    `json:"-"`
	User                   *models.User `json:"user"`
}

// RefreshParam 刷新参数，AccessToken 允许已过期但不能为空
type RefreshParam struct {
	RefreshToken string
	AccessToken  string
}

// AuthService 登录、刷新、退出与当前用户校验
type AuthService struct {
	verifier *CredentialVerifier
	captcha  CaptchaChecker
	tokens   *TokenService
	users    IdentityStore
	audit    AuditSink
	now      func() time.Time
}

func NewAuthService(verifier *CredentialVerifier, captcha CaptchaChecker, tokens *TokenService, users IdentityStore, audit AuditSink) *AuthService {
	return &AuthService{
		verifier: verifier,
		captcha:  captcha,
		tokens:   tokens,
		users:    users,
		audit:    audit,
		now:      time.Now,
	}
}

// Login 校验用户名密码与验证码后签发令牌
//
// 用户不存在时不记审计；其余失败记失败日志后原样返回错误。
func (s *AuthService) Login(ctx context.Context, p LoginParam) (*LoginResult, error) {
	user, err := s.verifier.Verify(ctx, p.Username, p.Password)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.record(p, nil, models.LoginStatusFail, failureMessage(err))
		}
		return nil, err
	}

	if err := s.captcha.Verify(ctx, p.IP, p.Captcha); err != nil {
		s.record(p, user, models.LoginStatusFail, failureMessage(err))
		return nil, err
	}

	pair, err := s.tokens.Issue(ctx, user.Subject(), user.IsMultiLogin)
	if err != nil {
		s.record(p, user, models.LoginStatusFail, failureMessage(err))
		return nil, err
	}

	s.record(p, user, models.LoginStatusSuccess, "登录成功")

	log := logger.GetLogger()
	if err := s.captcha.Clear(ctx, p.IP); err != nil {
		log.Warnf("清除验证码失败 ip=%s: %v", p.IP, err)
	}
	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.Username, now); err != nil {
		log.Warnf("更新最后登录时间失败 username=%s: %v", user.Username, err)
	} else {
		user.LastLoginAt = &now
	}

	return &LoginResult{
		AccessToken:            pair.AccessToken,
		AccessTokenType:        "Bearer",
		AccessTokenExpireTime:  pair.AccessTokenExpireTime,
		RefreshToken:           pair.RefreshToken,
		RefreshTokenExpireTime: pair.RefreshTokenExpireTime,
		User:                   user,
	}, nil
}

// Refresh 用刷新令牌换取新的令牌对，旧的访问令牌和刷新令牌随即失效
func (s *AuthService) Refresh(ctx context.Context, p RefreshParam) (*TokenPair, error) {
	if p.RefreshToken == "" {
		return nil, apperrors.Token(apperrors.TokenMissing, "Refresh Token 丢失，请重新登录")
	}
	if p.AccessToken == "" {
		return nil, apperrors.Token(apperrors.TokenMissing, "Token 缺失")
	}
	sub, err := s.tokens.Decode(p.RefreshToken)
	if err != nil {
		return nil, err
	}
	accessSub, err := s.tokens.SubjectIgnoringExpiry(p.AccessToken)
	if err != nil {
		return nil, apperrors.Token(apperrors.TokenInvalid, "Token 无效")
	}
	if accessSub != sub {
		return nil, apperrors.Token(apperrors.TokenMismatch, "Token 与 Refresh Token 不匹配")
	}

	user, err := s.userBySubject(ctx, sub)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("用户不存在")
	}
	if !user.IsEnabled() {
		return nil, apperrors.Unauthorized("用户已被锁定, 请联系统管理员")
	}

	return s.tokens.Rotate(ctx, sub, p.AccessToken, p.RefreshToken, user.IsMultiLogin)
}

// Logout 允许多端登录时只吊销当前令牌，否则吊销全部
func (s *AuthService) Logout(ctx context.Context, user *models.User, accessToken, refreshToken string) error {
	if user.IsMultiLogin {
		return s.tokens.RevokeOne(ctx, user.Subject(), accessToken, refreshToken)
	}
	return s.tokens.RevokeAll(ctx, user.Subject())
}

// CurrentUser 校验访问令牌并加载用户，账号、部门或角色状态不可用时拒绝
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	sub, err := s.tokens.ValidateAccess(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.userBySubject(ctx, sub)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Token(apperrors.TokenInvalid, "Token 无效")
	}

	if !user.IsEnabled() {
		return nil, apperrors.Authorization("用户已被锁定，请重新登录")
	}
	if user.DeptID != nil {
		if user.Dept == nil || user.Dept.DelFlag {
			return nil, apperrors.Authorization("用户所属部门已删除")
		}
		if !user.Dept.IsEnabled() {
			return nil, apperrors.Authorization("用户所属部门已被锁定")
		}
	}
	if len(user.Roles) > 0 {
		enabled := false
		for i := range user.Roles {
			if user.Roles[i].IsEnabled() {
				enabled = true
				break
			}
		}
		if !enabled {
			return nil, apperrors.Authorization("用户所属角色已被锁定")
		}
	}
	return user, nil
}

// Sessions 用户在线会话数
func (s *AuthService) Sessions(ctx context.Context, user *models.User) (int, error) {
	return s.tokens.Sessions(ctx, user.Subject())
}

func (s *AuthService) userBySubject(ctx context.Context, sub string) (*models.User, error) {
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return nil, apperrors.Token(apperrors.TokenInvalid, "Token 无效")
	}
	user, err := s.users.GetByID(ctx, uint(id))
	if err != nil {
		return nil, apperrors.Internal("查询用户失败", err)
	}
	return user, nil
}

func (s *AuthService) record(p LoginParam, user *models.User, status int, msg string) {
	if s.audit == nil {
		return
	}
	event := LoginEvent{
		Username:  p.Username,
		Status:    status,
		IP:        p.IP,
		UserAgent: p.UserAgent,
		Msg:       msg,
		LoginTime: s.now(),
	}
	if user != nil {
		event.UserUUID = user.UUID
		event.Username = user.Username
	}
	s.audit.RecordLogin(event)
}

func failureMessage(err error) string {
	if appErr, ok := apperrors.As(err); ok && appErr.Kind != apperrors.KindInternal {
		return appErr.Msg
	}
	return "服务器内部错误"
}
