package services

import (
	"context"
	"time"

	"fbadmin/internal/models"
	"fbadmin/pkg/pagination"

	"gorm.io/gorm"
)

// LoginLogFilter 登录日志查询条件
type LoginLogFilter struct {
	Username string
	IP       string
	Status   *int
}

// LoginLogService 登录日志存储
type LoginLogService struct {
	db *gorm.DB
}

func NewLoginLogService(db *gorm.DB) *LoginLogService {
	return &LoginLogService{db: db}
}

// Create 写入登录日志
func (s *LoginLogService) Create(ctx context.Context, log *models.LoginLog) error {
	return s.db.WithContext(ctx).Create(log).Error
}

// List 分页查询，按查看者的数据范围过滤
func (s *LoginLogService) List(ctx context.Context, scope DataScope, filter LoginLogFilter, page *pagination.PageParams) ([]models.LoginLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.LoginLog{}).Scopes(scope.Apply("user_uuid"))
	if filter.Username != "" {
		query = query.Where("username LIKE ?", "%"+filter.Username+"%")
	}
	if filter.IP != "" {
		query = query.Where("ip LIKE ?", "%"+filter.IP+"%")
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.LoginLog
	err := query.Scopes(page.Scope()).Order("login_time DESC, id DESC").Find(&logs).Error
	return logs, total, err
}

// DeleteBefore 删除指定时间之前的日志
func (s *LoginLogService) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("login_time < ?", before).Delete(&models.LoginLog{})
	return result.RowsAffected, result.Error
}
