package services

import (
	"context"
	"encoding/json"
	"fmt"

	"fbadmin/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// SessionEventBus 基于 Redis 发布订阅的会话事件通道，每个用户一个频道
type SessionEventBus struct {
	client *redis.Client
	prefix string
}

func NewSessionEventBus(client *redis.Client, prefix string) *SessionEventBus {
	return &SessionEventBus{client: client, prefix: prefix}
}

func (b *SessionEventBus) channel(userID string) string {
	return fmt.Sprintf("%s:events:%s", b.prefix, userID)
}

// Publish 发布会话事件
func (b *SessionEventBus) Publish(ctx context.Context, event SessionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel(event.UserID), data).Err()
}

// SessionSubscription 单个用户的事件订阅
type SessionSubscription struct {
	pubsub *redis.PubSub
	events chan SessionEvent
}

// Events 事件流，订阅关闭后 channel 关闭
func (s *SessionSubscription) Events() <-chan SessionEvent {
	return s.events
}

// Close 取消订阅
func (s *SessionSubscription) Close() error {
	return s.pubsub.Close()
}

// Subscribe 订阅用户的会话事件，确认订阅成功后返回
func (b *SessionEventBus) Subscribe(ctx context.Context, userID string) (*SessionSubscription, error) {
	pubsub := b.client.Subscribe(ctx, b.channel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("订阅会话事件失败: %w", err)
	}

	sub := &SessionSubscription{pubsub: pubsub, events: make(chan SessionEvent, 8)}
	go func() {
		defer close(sub.events)
		for msg := range pubsub.Channel() {
			var event SessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.GetLogger().Warnf("解析会话事件失败: %v", err)
				continue
			}
			select {
			case sub.events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub, nil
}
