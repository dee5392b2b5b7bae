package services

import (
	"context"
	"fmt"
	"strings"

	"fbadmin/internal/models"
	"fbadmin/pkg/config"

	"github.com/casbin/casbin/v2/util"
)

// Decision 鉴权结果，Grant 同时提供数据范围
type Decision struct {
	Allowed bool
	Grant   *Grant
}

// Authorizer 接口级鉴权策略
type Authorizer interface {
	Authorize(ctx context.Context, user *models.User, method, path string) (*Decision, error)
}

// NewAuthorizer 按配置选择鉴权策略，启动时确定
func NewAuthorizer(cfg config.PermissionConfig, resolver *PermissionResolver, policies PolicyStore) (Authorizer, error) {
	switch cfg.Mode {
	case config.PermissionModeRoleMenu:
		return NewRoleMenuAuthorizer(resolver), nil
	case config.PermissionModeCasbin:
		return NewPolicyAuthorizer(resolver, policies, cfg.CasbinExclude, cfg.ReloadInterval)
	default:
		return nil, fmt.Errorf("不支持的权限模式: %s", cfg.Mode)
	}
}

// RoleMenuAuthorizer 按角色关联的接口权限匹配请求
type RoleMenuAuthorizer struct {
	resolver *PermissionResolver
}

func NewRoleMenuAuthorizer(resolver *PermissionResolver) *RoleMenuAuthorizer {
	return &RoleMenuAuthorizer{resolver: resolver}
}

func (a *RoleMenuAuthorizer) Authorize(ctx context.Context, user *models.User, method, path string) (*Decision, error) {
	grant, err := a.resolver.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	if grant.Superuser {
		return &Decision{Allowed: true, Grant: grant}, nil
	}
	for _, route := range grant.Routes {
		if routeMatch(route, method, path) {
			return &Decision{Allowed: true, Grant: grant}, nil
		}
	}
	return &Decision{Allowed: false, Grant: grant}, nil
}

// 路径模板支持 :param 与 * 段
func routeMatch(route Route, method, path string) bool {
	if route.Method != "*" && !strings.EqualFold(route.Method, method) {
		return false
	}
	return util.KeyMatch2(strings.TrimSuffix(path, "/"), strings.TrimSuffix(route.Path, "/"))
}
