package services

import (
	"context"
	"errors"
	"time"

	"fbadmin/internal/models"

	"gorm.io/gorm"
)

// UserService 用户存储
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetByUsername 根据用户名获取用户，不存在时返回 nil
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Dept").Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID 根据ID获取用户（含部门与角色），不存在时返回 nil
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Dept").Preload("Roles").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin 更新最后登录时间
func (s *UserService) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Update("last_login_at", at).Error
}
