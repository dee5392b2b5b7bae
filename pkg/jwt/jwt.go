package jwt

import (
	"errors"
	"fmt"
	"time"

	apperrors "fbadmin/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims 令牌声明，只携带主体与有效期
type Claims struct {
	jwt.RegisteredClaims
}

// Manager JWT 编解码
type Manager struct {
	secretKey []byte
	method    *jwt.SigningMethodHMAC
}

// NewManager 创建JWT管理器，仅支持 HMAC 系列算法
func NewManager(secretKey, algorithm string) (*Manager, error) {
	if secretKey == "" {
		return nil, errors.New("jwt secret key is empty")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm: %s", algorithm)
	}
	return &Manager{secretKey: []byte(secretKey), method: method}, nil
}

// Encode 生成令牌。jti 保证同一秒内签发的令牌互不相同
func (m *Manager) Encode(subject string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// Decode 校验签名与有效期并返回主体
func (m *Manager) Decode(tokenString string) (string, error) {
	claims, err := m.parse(tokenString, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperrors.Token(apperrors.TokenExpired, "Token 已过期")
		}
		return "", apperrors.Token(apperrors.TokenInvalid, "Token 无效")
	}
	return claims.Subject, nil
}

// SubjectIgnoringExpiry 只校验签名，用于刷新时识别已过期的访问令牌
func (m *Manager) SubjectIgnoringExpiry(tokenString string) (string, error) {
	claims, err := m.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", apperrors.Token(apperrors.TokenInvalid, "Token 无效")
	}
	return claims.Subject, nil
}

func (m *Manager) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{m.method.Alg()}))
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secretKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("无法解析token声明")
	}
	if claims.Subject == "" {
		return nil, errors.New("token subject is empty")
	}
	return claims, nil
}
