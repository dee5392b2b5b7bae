package services

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"

	"fbadmin/pkg/config"
	apperrors "fbadmin/pkg/errors"
	"fbadmin/pkg/session"
)

// CaptchaService 登录验证码，按客户端 IP 存储
type CaptchaService struct {
	store session.Store
	cfg   config.CaptchaConfig
}

func NewCaptchaService(store session.Store, cfg config.CaptchaConfig) *CaptchaService {
	if cfg.Length <= 0 {
		cfg.Length = 4
	}
	return &CaptchaService{store: store, cfg: cfg}
}

func (s *CaptchaService) key(ip string) string {
	return s.cfg.Prefix + ":" + ip
}

// Generate 生成验证码并保存
func (s *CaptchaService) Generate(ctx context.Context, ip string) (string, error) {
	code, err := randomDigits(s.cfg.Length)
	if err != nil {
		return "", apperrors.Internal("生成验证码失败", err)
	}
	if err := s.store.Set(ctx, s.key(ip), code, s.cfg.Expire); err != nil {
		return "", apperrors.Internal("保存验证码失败", err)
	}
	return code, nil
}

// Verify 校验验证码，忽略大小写
func (s *CaptchaService) Verify(ctx context.Context, ip, answer string) error {
	code, ok, err := s.store.Get(ctx, s.key(ip))
	if err != nil {
		return apperrors.Internal("读取验证码失败", err)
	}
	if !ok {
		return apperrors.Authorization("验证码失效，请重新获取")
	}
	if !strings.EqualFold(code, strings.TrimSpace(answer)) {
		return apperrors.Captcha("验证码错误")
	}
	return nil
}

// Clear 删除验证码
func (s *CaptchaService) Clear(ctx context.Context, ip string) error {
	return s.store.Delete(ctx, s.key(ip))
}

func randomDigits(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
