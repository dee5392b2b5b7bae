package services

import (
	"context"
	"errors"

	"fbadmin/internal/models"
	"fbadmin/pkg/tree"

	"gorm.io/gorm"
)

// DeptService 部门存储
type DeptService struct {
	db *gorm.DB
}

func NewDeptService(db *gorm.DB) *DeptService {
	return &DeptService{db: db}
}

// GetByID 获取部门（包含已软删除的），不存在时返回 nil
func (s *DeptService) GetByID(ctx context.Context, id uint) (*models.Dept, error) {
	var dept models.Dept
	err := s.db.WithContext(ctx).First(&dept, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

// ListAvailable 获取全部未删除部门
func (s *DeptService) ListAvailable(ctx context.Context) ([]models.Dept, error) {
	var depts []models.Dept
	err := s.db.WithContext(ctx).Where("del_flag = ?", false).Order("sort, id").Find(&depts).Error
	return depts, err
}

// GetTree 部门树，可按名称和状态过滤
func (s *DeptService) GetTree(ctx context.Context, buildType tree.BuildType, name string, status *int) ([]*tree.Node[models.Dept], error) {
	query := s.db.WithContext(ctx).Model(&models.Dept{}).Where("del_flag = ?", false)
	if name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var depts []models.Dept
	if err := query.Order("sort, id").Find(&depts).Error; err != nil {
		return nil, err
	}
	return tree.Build(depts, buildType, nil)
}
