package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fbadmin/internal/models"
	apperrors "fbadmin/pkg/errors"
	"fbadmin/pkg/logger"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// 规则按写入顺序匹配，第一条命中的规则决定结果，无命中则拒绝。
// 角色规则只经由 r.roles 中的启用角色生效，停用角色的 g 映射不授予任何权限。
const policyModel = `
[request_definition]
r = sub, roles, obj, act

[policy_definition]
p = sub, obj, act, eft

[role_definition]
g = _, _

[policy_effect]
e = priority(p.eft) || deny

[matchers]
m = (r.sub == p.sub || (g(r.sub, p.sub) && viaRoles(r.roles, p.sub))) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

const roleSeparator = ","

// PolicyAuthorizer 基于 casbin 策略表鉴权
//
// 请求主体为用户 uuid，g 规则把 uuid 映射到角色名。
type PolicyAuthorizer struct {
	resolver *PermissionResolver
	policies PolicyStore
	exclude  map[string]struct{}
	interval time.Duration

	mu       sync.RWMutex
	enforcer *casbin.Enforcer
	loadedAt time.Time
}

func NewPolicyAuthorizer(resolver *PermissionResolver, policies PolicyStore, exclude []string, interval time.Duration) (*PolicyAuthorizer, error) {
	if _, err := model.NewModelFromString(policyModel); err != nil {
		return nil, err
	}
	ex := make(map[string]struct{}, len(exclude))
	for _, item := range exclude {
		ex[normalizeRouteKey(item)] = struct{}{}
	}
	return &PolicyAuthorizer{
		resolver: resolver,
		policies: policies,
		exclude:  ex,
		interval: interval,
	}, nil
}

func normalizeRouteKey(s string) string {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return strings.TrimSpace(s)
	}
	return strings.ToUpper(fields[0]) + " " + fields[1]
}

func (a *PolicyAuthorizer) Authorize(ctx context.Context, user *models.User, method, path string) (*Decision, error) {
	grant, err := a.resolver.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	if grant.Superuser {
		return &Decision{Allowed: true, Grant: grant}, nil
	}
	method = strings.ToUpper(method)
	if _, ok := a.exclude[method+" "+path]; ok {
		return &Decision{Allowed: true, Grant: grant}, nil
	}

	enforcer, err := a.current(ctx)
	if err != nil {
		return nil, err
	}
	allowed, err := enforcer.Enforce(user.UUID, strings.Join(grant.Roles, roleSeparator), path, method)
	if err != nil {
		return nil, apperrors.Internal("策略匹配失败", err)
	}
	return &Decision{Allowed: allowed, Grant: grant}, nil
}

// Reload 重新从策略表构建 enforcer
func (a *PolicyAuthorizer) Reload(ctx context.Context) error {
	enforcer, err := a.build(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.enforcer = enforcer
	a.loadedAt = time.Now()
	a.mu.Unlock()
	return nil
}

func (a *PolicyAuthorizer) current(ctx context.Context) (*casbin.Enforcer, error) {
	a.mu.RLock()
	enforcer, loadedAt := a.enforcer, a.loadedAt
	a.mu.RUnlock()

	if enforcer != nil && (a.interval <= 0 || time.Since(loadedAt) < a.interval) {
		return enforcer, nil
	}
	if err := a.Reload(ctx); err != nil {
		if enforcer != nil {
			// 重载失败时继续使用旧规则
			logger.GetLogger().Warnf("重载策略失败: %v", err)
			return enforcer, nil
		}
		return nil, apperrors.Internal("加载策略失败", err)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enforcer, nil
}

func (a *PolicyAuthorizer) build(ctx context.Context) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	enforcer.AddFunction("viaRoles", func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return false, fmt.Errorf("viaRoles 需要 2 个参数，实际 %d 个", len(args))
		}
		roles, _ := args[0].(string)
		target, _ := args[1].(string)
		rm := enforcer.GetRoleManager()
		for _, role := range strings.Split(roles, roleSeparator) {
			if role == "" {
				continue
			}
			if role == target {
				return true, nil
			}
			if ok, err := rm.HasLink(role, target); err == nil && ok {
				return true, nil
			}
		}
		return false, nil
	})

	rules, err := a.policies.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		vals := rules[i].Values()
		switch rules[i].Ptype {
		case models.CasbinPolicy:
			if len(vals) < 3 || vals[0] == "" || vals[1] == "" || vals[2] == "" {
				continue
			}
			eft := "allow"
			if len(vals) > 3 && vals[3] != "" {
				eft = vals[3]
			}
			if _, err := enforcer.AddPolicy(vals[0], vals[1], strings.ToUpper(vals[2]), eft); err != nil {
				return nil, err
			}
		case models.CasbinGrouping:
			if len(vals) < 2 || vals[0] == "" || vals[1] == "" {
				continue
			}
			if _, err := enforcer.AddGroupingPolicy(vals[0], vals[1]); err != nil {
				return nil, err
			}
		}
	}
	return enforcer, nil
}
