package database

import (
	"context"
	"fmt"

	"fbadmin/pkg/config"
	"fbadmin/pkg/session"
)

// OpenSessionStore 按配置连接 Redis 并确认可用
func OpenSessionStore(ctx context.Context, cfg config.RedisConfig) (*session.RedisStore, error) {
	store := session.NewRedisStore(&session.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
		Timeout:  cfg.Timeout,
	})
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("连接Redis失败: %w", err)
	}
	return store, nil
}
