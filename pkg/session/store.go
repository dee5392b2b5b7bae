// Package session 提供带 TTL 的键值存储，用于保存令牌、验证码等会话数据
package session

import (
	"context"
	"time"
)

// Store 会话存储
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get 键不存在时 ok 为 false
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPrefix 删除所有以 prefix 开头的键，返回删除数量
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
}
