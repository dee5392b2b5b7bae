package services

import (
	"context"

	"fbadmin/internal/models"

	"gorm.io/gorm"
)

// RoleService 角色存储
type RoleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

// RolesForUser 获取用户的全部角色及其权限，每次调用都读库，角色停用即时生效
func (s *RoleService) RolesForUser(ctx context.Context, userID uint) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Joins("JOIN sys_user_role ON sys_user_role.role_id = sys_role.id").
		Where("sys_user_role.user_id = ?", userID).
		Preload("Permissions").
		Order("sys_role.id").
		Find(&roles).Error
	return roles, err
}
