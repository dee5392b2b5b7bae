package handlers

import (
	"net/http"
	"time"

	"fbadmin/internal/middleware"
	"fbadmin/internal/models"
	"fbadmin/internal/services"
	"fbadmin/pkg/config"
	apperrors "fbadmin/pkg/errors"
	"fbadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth       *services.AuthService
	captcha    *services.CaptchaService
	resolver   *services.PermissionResolver
	cookie     config.CookieConfig
	refresh    time.Duration
	captchaTTL time.Duration
}

func NewAuthHandler(auth *services.AuthService, captcha *services.CaptchaService, resolver *services.PermissionResolver, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		auth:       auth,
		captcha:    captcha,
		resolver:   resolver,
		cookie:     cfg.Cookie,
		refresh:    cfg.Token.RefreshExpire,
		captchaTTL: cfg.Captcha.Expire,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required,min=6,max=64"`
	Captcha  string `json:"captcha" binding:"required"`
}

type LoginResponse struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenType       string    `json:"access_token_type"`
	AccessTokenExpireTime time.Time `json:"access_token_expire_time"`
	User                  UserInfo  `json:"user"`
}

type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenExpireTime time.Time `json:"access_token_expire_time"`
}

type UserInfo struct {
	ID            uint       `json:"id"`
	UUID          string     `json:"uuid"`
	Username      string     `json:"username"`
	Nickname      string     `json:"nickname"`
	Email         string     `json:"email"`
	Phone         *string    `json:"phone"`
	Avatar        *string    `json:"avatar"`
	DeptID        *uint      `json:"dept_id"`
	DeptName      string     `json:"dept_name,omitempty"`
	IsSuperuser   bool       `json:"is_superuser"`
	IsStaff       bool       `json:"is_staff"`
	IsMultiLogin  bool       `json:"is_multi_login"`
	JoinTime      time.Time  `json:"join_time"`
	LastLoginTime *time.Time `json:"last_login_time"`
}

type MeResponse struct {
	UserInfo
	Permissions []string `json:"permissions"`
	DataScope   string   `json:"data_scope"`
	Sessions    int      `json:"sessions"`
}

func toUserInfo(u *models.User) UserInfo {
	info := UserInfo{
		ID:            u.ID,
		UUID:          u.UUID,
		Username:      u.Username,
		Nickname:      u.Nickname,
		Email:         u.Email,
		Phone:         u.Phone,
		Avatar:        u.Avatar,
		DeptID:        u.DeptID,
		IsSuperuser:   u.IsSuperuser,
		IsStaff:       u.IsStaff,
		IsMultiLogin:  u.IsMultiLogin,
		JoinTime:      u.JoinTime,
		LastLoginTime: u.LastLoginAt,
	}
	if u.Dept != nil {
		info.DeptName = u.Dept.Name
	}
	return info
}

// GetCaptcha 获取登录验证码
func (h *AuthHandler) GetCaptcha(c *gin.Context) {
	code, err := h.captcha.Generate(c.Request.Context(), c.ClientIP())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"image_type":     "text",
		"image":          code,
		"expire_seconds": int(h.captchaTTL.Seconds()),
	})
}

// Login 用户登录，刷新令牌写入 HttpOnly Cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	result, err := h.auth.Login(c.Request.Context(), services.LoginParam{
		Username:  req.Username,
		Password:  req.Password,
		Captcha:   req.Captcha,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.Success(c, LoginResponse{
		AccessToken:           result.AccessToken,
		AccessTokenType:       result.AccessTokenType,
		AccessTokenExpireTime: result.AccessTokenExpireTime,
		User:                  toUserInfo(result.User),
	})
}

// RefreshToken 用 Cookie 中的刷新令牌换取新的访问令牌
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refreshToken, _ := c.Cookie(h.cookie.RefreshTokenKey)
	accessToken, _ := middleware.ExtractToken(c)

	pair, err := h.auth.Refresh(c.Request.Context(), services.RefreshParam{
		RefreshToken: refreshToken,
		AccessToken:  accessToken,
	})
	if err != nil {
		if apperrors.IsToken(err) || apperrors.IsNotFound(err) || apperrors.IsUnauthorized(err) {
			h.clearRefreshCookie(c)
		}
		response.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	response.Success(c, TokenResponse{
		AccessToken:           pair.AccessToken,
		AccessTokenExpireTime: pair.AccessTokenExpireTime,
	})
}

// Logout 退出登录
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}
	refreshToken, _ := c.Cookie(h.cookie.RefreshTokenKey)

	if err := h.auth.Logout(c.Request.Context(), user, middleware.GetAccessToken(c), refreshToken); err != nil {
		response.HandleError(c, err)
		return
	}
	h.clearRefreshCookie(c)
	response.SuccessWithMessage(c, "退出成功", nil)
}

// Me 当前用户信息、权限与数据范围
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}

	grant, err := h.resolver.Resolve(c.Request.Context(), user)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	sessions, err := h.auth.Sessions(c.Request.Context(), user)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, MeResponse{
		UserInfo:    toUserInfo(user),
		Permissions: grant.CodeList(),
		DataScope:   grant.Scope.Name(),
		Sessions:    sessions,
	})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.RefreshTokenKey, token, int(h.refresh.Seconds()), h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.RefreshTokenKey, "", -1, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}
