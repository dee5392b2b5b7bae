package services

import (
	"context"

	"fbadmin/internal/models"
	"fbadmin/pkg/tree"

	"gorm.io/gorm"
)

// PermissionService 权限（菜单）存储
type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

// GetSidebar 当前用户可见的目录与菜单树
func (s *PermissionService) GetSidebar(ctx context.Context, user *models.User, buildType tree.BuildType) ([]*tree.Node[models.Permission], error) {
	query := s.db.WithContext(ctx).
		Where("type IN ?", []int{models.PermissionTypeDirectory, models.PermissionTypeMenu}).
		Where("status = ? AND visible = ?", models.StatusEnable, true)

	if !user.IsSuperuser {
		granted := s.db.Table("sys_role_permission").
			Select("sys_role_permission.permission_id").
			Joins("JOIN sys_user_role ON sys_user_role.role_id = sys_role_permission.role_id").
			Joins("JOIN sys_role ON sys_role.id = sys_role_permission.role_id").
			Where("sys_user_role.user_id = ? AND sys_role.status = ?", user.ID, models.StatusEnable)
		query = query.Where("id IN (?)", granted)
	}

	var menus []models.Permission
	if err := query.Order("sort, id").Find(&menus).Error; err != nil {
		return nil, err
	}
	return tree.Build(menus, buildType, nil)
}
