package services

import (
	"context"
	"time"

	"fbadmin/pkg/logger"

	"github.com/robfig/cron/v3"
)

// LoginLogPurger 按时间删除登录日志
type LoginLogPurger interface {
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// LoginLogCleaner 定时清理过期登录日志
type LoginLogCleaner struct {
	purger    LoginLogPurger
	retention time.Duration
	spec      string
	cron      *cron.Cron
	now       func() time.Time
}

func NewLoginLogCleaner(purger LoginLogPurger, retentionDays int, spec string) *LoginLogCleaner {
	return &LoginLogCleaner{
		purger:    purger,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		spec:      spec,
		cron:      cron.New(cron.WithSeconds()),
		now:       time.Now,
	}
}

// Start 注册并启动定时任务，保留天数不大于 0 时不清理
func (c *LoginLogCleaner) Start() error {
	if c.retention <= 0 {
		logger.GetLogger().Info("登录日志保留天数未配置，跳过定时清理")
		return nil
	}
	if _, err := c.cron.AddFunc(c.spec, func() {
		if _, err := c.Cleanup(context.Background()); err != nil {
			logger.GetLogger().Errorf("清理登录日志失败: %v", err)
		}
	}); err != nil {
		return err
	}
	c.cron.Start()
	logger.GetLogger().Infof("登录日志清理任务已启动: %s", c.spec)
	return nil
}

// Stop 停止定时任务并等待正在执行的清理结束
func (c *LoginLogCleaner) Stop() {
	<-c.cron.Stop().Done()
}

// Cleanup 删除保留期之前的日志
func (c *LoginLogCleaner) Cleanup(ctx context.Context) (int64, error) {
	before := c.now().Add(-c.retention)
	n, err := c.purger.DeleteBefore(ctx, before)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.GetLogger().Infof("清理了 %d 条登录日志", n)
	}
	return n, nil
}
