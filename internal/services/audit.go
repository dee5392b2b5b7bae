package services

import (
	"context"
	"sync"
	"time"

	"fbadmin/internal/models"
	"fbadmin/pkg/logger"

	"gorm.io/datatypes"
)

// LoginLogWriter 登录日志落库
type LoginLogWriter interface {
	Create(ctx context.Context, log *models.LoginLog) error
}

// LoginLogRecorder 异步登录审计：请求方只负责投递，后台 worker 写库
type LoginLogRecorder struct {
	writer  LoginLogWriter
	events  chan LoginEvent
	workers int
	timeout time.Duration

	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

func NewLoginLogRecorder(writer LoginLogWriter, queueSize, workers int) *LoginLogRecorder {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if workers <= 0 {
		workers = 1
	}
	return &LoginLogRecorder{
		writer:  writer,
		events:  make(chan LoginEvent, queueSize),
		workers: workers,
		timeout: 5 * time.Second,
	}
}

// Start 启动写库 worker
func (r *LoginLogRecorder) Start() {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.run()
	}
}

// RecordLogin 投递审计事件，队列满或已停止时丢弃
func (r *LoginLogRecorder) RecordLogin(event LoginEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		logger.GetLogger().Warnf("审计已停止，丢弃登录日志 username=%s", event.Username)
		return
	}
	select {
	case r.events <- event:
	default:
		logger.GetLogger().Warnf("审计队列已满，丢弃登录日志 username=%s", event.Username)
	}
}

// Stop 停止接收并等待队列写完，ctx 到期后直接返回
func (r *LoginLogRecorder) Stop(ctx context.Context) error {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		close(r.events)
		r.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *LoginLogRecorder) run() {
	defer r.wg.Done()
	for event := range r.events {
		r.write(event)
	}
}

func (r *LoginLogRecorder) write(event LoginEvent) {
	defer func() {
		if p := recover(); p != nil {
			logger.GetLogger().Errorf("写入登录日志异常: %v", p)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	record := &models.LoginLog{
		UserUUID:  event.UserUUID,
		Username:  event.Username,
		Status:    event.Status,
		IP:        event.IP,
		UserAgent: event.UserAgent,
		Msg:       event.Msg,
		Detail:    datatypes.JSONMap{"user_agent": event.UserAgent},
		LoginTime: event.LoginTime,
	}
	if err := r.writer.Create(ctx, record); err != nil {
		logger.GetLogger().Errorf("写入登录日志失败 username=%s: %v", event.Username, err)
	}
}
