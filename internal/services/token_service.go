package services

import (
	"context"
	"fmt"
	"time"

	"fbadmin/pkg/config"
	apperrors "fbadmin/pkg/errors"
	"fbadmin/pkg/jwt"
	"fbadmin/pkg/logger"
	"fbadmin/pkg/session"
)

// TokenPair 一组访问令牌和刷新令牌
type TokenPair struct {
	AccessToken            string    `json:"access_token"`
	AccessTokenExpireTime  time.Time `json:"access_token_expire_time"`
	RefreshToken           string    `json:"-"`
	RefreshTokenExpireTime time.Time `json:"-"`
}

// TokenService 令牌签发、轮换与吊销
//
// 会话记录的键为 {prefix}:{sub}:{token}，值为令牌本身，过期时间与令牌一致。
type TokenService struct {
	store    session.Store
	codec    *jwt.Manager
	cfg      config.TokenConfig
	notifier SessionNotifier
}

// NewTokenService notifier 可为 nil
func NewTokenService(store session.Store, codec *jwt.Manager, cfg config.TokenConfig, notifier SessionNotifier) *TokenService {
	return &TokenService{
		store:    store,
		codec:    codec,
		cfg:      cfg,
		notifier: notifier,
	}
}

func (s *TokenService) accessKey(sub, token string) string {
	return fmt.Sprintf("%s:%s:%s", s.cfg.AccessPrefix, sub, token)
}

func (s *TokenService) refreshKey(sub, token string) string {
	return fmt.Sprintf("%s:%s:%s", s.cfg.RefreshPrefix, sub, token)
}

// 末尾保留分隔符，避免 1 的前缀命中 12
func subjectPrefix(prefix, sub string) string {
	return prefix + ":" + sub + ":"
}

// IssueAccessToken 签发访问令牌，单点登录时先清除该用户已有的访问令牌
func (s *TokenService) IssueAccessToken(ctx context.Context, sub string, multiLogin bool) (string, time.Time, error) {
	return s.issue(ctx, sub, multiLogin, s.cfg.AccessPrefix, s.cfg.AccessExpire, true)
}

// IssueRefreshToken 签发刷新令牌
func (s *TokenService) IssueRefreshToken(ctx context.Context, sub string, multiLogin bool) (string, time.Time, error) {
	return s.issue(ctx, sub, multiLogin, s.cfg.RefreshPrefix, s.cfg.RefreshExpire, false)
}

func (s *TokenService) issue(ctx context.Context, sub string, multiLogin bool, prefix string, ttl time.Duration, notify bool) (string, time.Time, error) {
	token, expireTime, err := s.codec.Encode(sub, ttl)
	if err != nil {
		return "", time.Time{}, apperrors.Internal("签发令牌失败", err)
	}

	if !multiLogin {
		evicted, err := s.store.DeleteByPrefix(ctx, subjectPrefix(prefix, sub))
		if err != nil {
			return "", time.Time{}, apperrors.Internal("清理旧会话失败", err)
		}
		if notify && evicted > 0 {
			s.notify(ctx, sub, SessionReasonKicked)
		}
	}

	key := fmt.Sprintf("%s:%s:%s", prefix, sub, token)
	if err := s.store.Set(ctx, key, token, ttl); err != nil {
		return "", time.Time{}, apperrors.Internal("保存会话失败", err)
	}
	return token, expireTime, nil
}

// Issue 签发新的令牌对
func (s *TokenService) Issue(ctx context.Context, sub string, multiLogin bool) (*TokenPair, error) {
	accessToken, accessExpire, err := s.IssueAccessToken(ctx, sub, multiLogin)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExpire, err := s.IssueRefreshToken(ctx, sub, multiLogin)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:            accessToken,
		AccessTokenExpireTime:  accessExpire,
		RefreshToken:           refreshToken,
		RefreshTokenExpireTime: refreshExpire,
	}, nil
}

// Rotate 用仍在存储中的刷新令牌换取新的令牌对，随后删除旧记录
//
// 新旧记录的创建与删除不是原子的，中途失败最多留下一条会自然过期的旧记录。
// 同一刷新令牌的并发轮换不做串行化。
func (s *TokenService) Rotate(ctx context.Context, sub, accessToken, refreshToken string, multiLogin bool) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.Token(apperrors.TokenMissing, "Refresh Token 丢失，请重新登录")
	}

	stored, ok, err := s.store.Get(ctx, s.refreshKey(sub, refreshToken))
	if err != nil {
		return nil, apperrors.Internal("读取会话失败", err)
	}
	if !ok || stored != refreshToken {
		return nil, apperrors.Token(apperrors.TokenMismatch, "Refresh Token 已过期，请重新登录")
	}

	pair, err := s.withoutNotify().Issue(ctx, sub, multiLogin)
	if err != nil {
		return nil, err
	}

	stale := []string{s.refreshKey(sub, refreshToken)}
	if accessToken != "" {
		stale = append(stale, s.accessKey(sub, accessToken))
	}
	if err := s.store.Delete(ctx, stale...); err != nil {
		logger.GetLogger().Warnf("删除旧令牌失败 sub=%s: %v", sub, err)
	}
	return pair, nil
}

// 轮换属于同一会话的延续，不算挤下线
func (s *TokenService) withoutNotify() *TokenService {
	clone := *s
	clone.notifier = nil
	return &clone
}

// RevokeAll 吊销用户全部访问令牌和刷新令牌
func (s *TokenService) RevokeAll(ctx context.Context, sub string) error {
	if _, err := s.store.DeleteByPrefix(ctx, subjectPrefix(s.cfg.AccessPrefix, sub)); err != nil {
		return apperrors.Internal("吊销访问令牌失败", err)
	}
	if _, err := s.store.DeleteByPrefix(ctx, subjectPrefix(s.cfg.RefreshPrefix, sub)); err != nil {
		return apperrors.Internal("吊销刷新令牌失败", err)
	}
	s.notify(ctx, sub, SessionReasonLogout)
	return nil
}

// RevokeOne 吊销指定的一组令牌，空令牌跳过
func (s *TokenService) RevokeOne(ctx context.Context, sub, accessToken, refreshToken string) error {
	keys := make([]string, 0, 2)
	if accessToken != "" {
		keys = append(keys, s.accessKey(sub, accessToken))
	}
	if refreshToken != "" {
		keys = append(keys, s.refreshKey(sub, refreshToken))
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		return apperrors.Internal("吊销令牌失败", err)
	}
	return nil
}

// Decode 校验签名与过期时间，返回主体
func (s *TokenService) Decode(token string) (string, error) {
	return s.codec.Decode(token)
}

// SubjectIgnoringExpiry 只校验签名，用于刷新时识别已过期的访问令牌
func (s *TokenService) SubjectIgnoringExpiry(token string) (string, error) {
	return s.codec.SubjectIgnoringExpiry(token)
}

// ValidateAccess 校验访问令牌本身并确认会话仍然有效
func (s *TokenService) ValidateAccess(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.Token(apperrors.TokenMissing, "Token 缺失")
	}
	sub, err := s.codec.Decode(token)
	if err != nil {
		return "", err
	}
	stored, ok, err := s.store.Get(ctx, s.accessKey(sub, token))
	if err != nil {
		return "", apperrors.Internal("读取会话失败", err)
	}
	if !ok || stored != token {
		return "", apperrors.Token(apperrors.TokenInvalid, "Token 已失效")
	}
	return sub, nil
}

// Sessions 在线访问会话数
func (s *TokenService) Sessions(ctx context.Context, sub string) (int, error) {
	keys, err := s.store.Keys(ctx, subjectPrefix(s.cfg.AccessPrefix, sub))
	if err != nil {
		return 0, apperrors.Internal("读取会话失败", err)
	}
	return len(keys), nil
}

func (s *TokenService) notify(ctx context.Context, sub, reason string) {
	if s.notifier == nil {
		return
	}
	event := SessionEvent{UserID: sub, Reason: reason, At: time.Now()}
	if err := s.notifier.Publish(ctx, event); err != nil {
		logger.GetLogger().Warnf("发布会话事件失败 sub=%s reason=%s: %v", sub, reason, err)
	}
}
