package services

import (
	"context"

	"fbadmin/internal/models"

	"gorm.io/gorm"
)

// PolicyService casbin 策略表存储
type PolicyService struct {
	db *gorm.DB
}

func NewPolicyService(db *gorm.DB) *PolicyService {
	return &PolicyService{db: db}
}

// ListRules 按写入顺序返回全部规则，顺序即匹配优先级
func (s *PolicyService) ListRules(ctx context.Context) ([]models.CasbinRule, error) {
	var rules []models.CasbinRule
	err := s.db.WithContext(ctx).Order("id").Find(&rules).Error
	return rules, err
}

// AddRule 追加一条规则
func (s *PolicyService) AddRule(ctx context.Context, ptype string, values ...string) error {
	rule := models.CasbinRule{Ptype: ptype}
	fields := []*string{&rule.V0, &rule.V1, &rule.V2, &rule.V3, &rule.V4, &rule.V5}
	for i, v := range values {
		if i >= len(fields) {
			break
		}
		*fields[i] = v
	}
	return s.db.WithContext(ctx).Create(&rule).Error
}
