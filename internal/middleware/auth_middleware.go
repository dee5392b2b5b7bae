package middleware

import (
	"context"
	"strings"
	"time"

	"fbadmin/internal/models"
	"fbadmin/internal/services"
	"fbadmin/pkg/config"
	apperrors "fbadmin/pkg/errors"
	"fbadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	ContextKeyUser        = "user"
	ContextKeyUserID      = "user_id"
	ContextKeyAccessToken = "access_token"
	ContextKeyGrant       = "grant"
	ContextKeyDataScope   = "data_scope"
)

// AuthMiddleware 登录与权限中间件
type AuthMiddleware struct {
	auth         *services.AuthService
	authorizer   services.Authorizer
	resolver     *services.PermissionResolver
	timeout      time.Duration
	excludePaths map[string]struct{}
	excludeCodes map[string]struct{}
}

func NewAuthMiddleware(auth *services.AuthService, authorizer services.Authorizer, resolver *services.PermissionResolver, cfg *config.Config) *AuthMiddleware {
	m := &AuthMiddleware{
		auth:         auth,
		authorizer:   authorizer,
		resolver:     resolver,
		timeout:      cfg.Server.RequestTimeout,
		excludePaths: make(map[string]struct{}, len(cfg.Token.ExcludePaths)),
		excludeCodes: make(map[string]struct{}, len(cfg.Permission.RoleMenuExclude)),
	}
	for _, p := range cfg.Token.ExcludePaths {
		m.excludePaths[p] = struct{}{}
	}
	for _, code := range cfg.Permission.RoleMenuExclude {
		m.excludeCodes[code] = struct{}{}
	}
	return m
}

func (m *AuthMiddleware) withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), m.timeout)
}

// ExtractToken 从 Authorization 头提取 Bearer 令牌
func ExtractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", apperrors.Token(apperrors.TokenMissing, "请先登录")
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apperrors.Token(apperrors.TokenInvalid, "认证头格式错误")
	}
	return strings.TrimSpace(token), nil
}

// RequireLogin 校验访问令牌，白名单路径直接放行
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.excludePaths[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		token, err := ExtractToken(c)
		if err != nil {
			response.HandleError(c, err)
			c.Abort()
			return
		}

		ctx, cancel := m.withTimeout(c)
		defer cancel()

		user, err := m.auth.CurrentUser(ctx, token)
		if err != nil {
			response.HandleError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyAccessToken, token)

		c.Next()
	}
}

// RequireAuthorization 按配置的鉴权策略校验当前请求
func (m *AuthMiddleware) RequireAuthorization() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		ctx, cancel := m.withTimeout(c)
		defer cancel()

		decision, err := m.authorizer.Authorize(ctx, user, c.Request.Method, c.Request.URL.Path)
		if err != nil {
			response.HandleError(c, err)
			c.Abort()
			return
		}
		if !decision.Allowed {
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}

		c.Set(ContextKeyGrant, decision.Grant)
		c.Set(ContextKeyDataScope, decision.Grant.Scope)
		c.Next()
	}
}

// RequirePermission 要求特定权限代码
func (m *AuthMiddleware) RequirePermission(permissionCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.excludeCodes[permissionCode]; ok {
			c.Next()
			return
		}

		grant, err := m.grant(c)
		if err != nil {
			response.HandleError(c, err)
			c.Abort()
			return
		}
		if !grant.Has(permissionCode) {
			response.Forbidden(c, "权限不足：需要 "+permissionCode+" 权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

// 优先复用 RequireAuthorization 的结果
func (m *AuthMiddleware) grant(c *gin.Context) (*services.Grant, error) {
	if grant, ok := GetGrant(c); ok {
		return grant, nil
	}
	user, ok := GetUser(c)
	if !ok {
		return nil, apperrors.Token(apperrors.TokenMissing, "请先登录")
	}

	ctx, cancel := m.withTimeout(c)
	defer cancel()
	grant, err := m.resolver.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	c.Set(ContextKeyGrant, grant)
	c.Set(ContextKeyDataScope, grant.Scope)
	return grant, nil
}

// GetUser 获取当前登录用户
func GetUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextKeyUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// GetGrant 获取当前请求的权限解析结果
func GetGrant(c *gin.Context) (*services.Grant, bool) {
	v, ok := c.Get(ContextKeyGrant)
	if !ok {
		return nil, false
	}
	grant, ok := v.(*services.Grant)
	return grant, ok && grant != nil
}

// GetAccessToken 获取当前请求的访问令牌
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ContextKeyAccessToken)
}
