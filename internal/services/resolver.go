package services

import (
	"context"
	"sort"

	"fbadmin/internal/models"
	apperrors "fbadmin/pkg/errors"
	"fbadmin/pkg/tree"

	"gorm.io/gorm"
)

// DataScope 数据可见范围
type DataScope struct {
	Level    int    `json:"level"`
	DeptIDs  []uint `json:"dept_ids,omitempty"`
	UserID   uint   `json:"-"`
	UserUUID string `json:"-"`
}

// Name 范围名称
func (d DataScope) Name() string {
	switch d.Level {
	case models.DataScopeAll:
		return "all"
	case models.DataScopeCustom:
		return "custom"
	case models.DataScopeDeptAndBelow:
		return "dept_and_below"
	case models.DataScopeDept:
		return "dept"
	default:
		return "self"
	}
}

// Apply 生成 GORM 查询范围，uuidColumn 为记录归属用户的 uuid 列
//
// 非全部数据范围时，本人数据始终可见；部门类范围额外包含所列部门成员的数据。
func (d DataScope) Apply(uuidColumn string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if d.Level == models.DataScopeAll {
			return db
		}
		if d.Level == models.DataScopeSelf || len(d.DeptIDs) == 0 {
			return db.Where(uuidColumn+" = ?", d.UserUUID)
		}
		members := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.User{}).
			Select("uuid").
			Where("dept_id IN ?", d.DeptIDs)
		return db.Where(db.Session(&gorm.Session{NewDB: true}).
			Where(uuidColumn+" = ?", d.UserUUID).
			Or(uuidColumn+" IN (?)", members))
	}
}

// Route 接口权限声明的请求方法与路径模板
type Route struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Grant 用户的权限解析结果
type Grant struct {
	Superuser bool                `json:"superuser"`
	Roles     []string            `json:"roles"` // 启用角色名
	Codes     map[string]struct{} `json:"-"`
	Routes    []Route             `json:"-"`
	Scope     DataScope           `json:"scope"`
}

// Has 是否拥有权限代码，超级管理员拥有全部权限
func (g *Grant) Has(code string) bool {
	if g == nil {
		return false
	}
	if g.Superuser {
		return true
	}
	_, ok := g.Codes[code]
	return ok
}

// CodeList 排序后的权限代码
func (g *Grant) CodeList() []string {
	if g.Superuser {
		return []string{"*:*:*"}
	}
	list := make([]string, 0, len(g.Codes))
	for code := range g.Codes {
		list = append(list, code)
	}
	sort.Strings(list)
	return list
}

// PermissionResolver 汇总用户所有启用角色的权限与数据范围
type PermissionResolver struct {
	roles RoleStore
	depts DeptStore
}

func NewPermissionResolver(roles RoleStore, depts DeptStore) *PermissionResolver {
	return &PermissionResolver{roles: roles, depts: depts}
}

// Resolve 解析权限，角色与部门每次都重新读取
func (r *PermissionResolver) Resolve(ctx context.Context, user *models.User) (*Grant, error) {
	if !user.IsEnabled() {
		return nil, apperrors.Authorization("用户已被锁定，请重新登录")
	}
	if user.IsSuperuser {
		return &Grant{
			Superuser: true,
			Codes:     map[string]struct{}{},
			Scope:     DataScope{Level: models.DataScopeAll, UserID: user.ID, UserUUID: user.UUID},
		}, nil
	}

	if err := r.checkDept(ctx, user); err != nil {
		return nil, err
	}

	roles, err := r.roles.RolesForUser(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Internal("查询用户角色失败", err)
	}

	grant := &Grant{
		Codes: map[string]struct{}{},
		Scope: DataScope{Level: models.DataScopeSelf, UserID: user.ID, UserUUID: user.UUID},
	}

	level := -1
	seenRoute := map[Route]bool{}
	for _, role := range roles {
		if !role.IsEnabled() {
			continue
		}
		grant.Roles = append(grant.Roles, role.Name)
		if level < 0 || role.DataScope < level {
			level = role.DataScope
		}
		for i := range role.Permissions {
			perm := &role.Permissions[i]
			if !perm.IsEnabled() {
				continue
			}
			if perm.Code != "" {
				grant.Codes[perm.Code] = struct{}{}
			}
			if method, path := perm.Route(); path != "" {
				route := Route{Method: method, Path: path}
				if !seenRoute[route] {
					seenRoute[route] = true
					grant.Routes = append(grant.Routes, route)
				}
			}
		}
	}
	if level < 0 {
		return grant, nil
	}

	scope, err := r.scopeFor(ctx, user, level)
	if err != nil {
		return nil, err
	}
	grant.Scope = scope
	return grant, nil
}

func (r *PermissionResolver) checkDept(ctx context.Context, user *models.User) error {
	if user.DeptID == nil {
		return nil
	}
	dept, err := r.depts.GetByID(ctx, *user.DeptID)
	if err != nil {
		return apperrors.Internal("查询用户部门失败", err)
	}
	if dept == nil || dept.DelFlag {
		return apperrors.Authorization("用户所属部门已删除")
	}
	if !dept.IsEnabled() {
		return apperrors.Authorization("用户所属部门已被锁定")
	}
	return nil
}

func (r *PermissionResolver) scopeFor(ctx context.Context, user *models.User, level int) (DataScope, error) {
	scope := DataScope{Level: level, UserID: user.ID, UserUUID: user.UUID}
	switch level {
	case models.DataScopeAll:
	case models.DataScopeCustom:
		// 自定义部门列表暂未建模
		scope.DeptIDs = []uint{}
	case models.DataScopeDeptAndBelow:
		if user.DeptID == nil {
			break
		}
		depts, err := r.depts.ListAvailable(ctx)
		if err != nil {
			return DataScope{}, apperrors.Internal("查询部门失败", err)
		}
		scope.DeptIDs = tree.SubtreeIDs(depts, *user.DeptID)
	case models.DataScopeDept:
		if user.DeptID != nil {
			scope.DeptIDs = []uint{*user.DeptID}
		}
	default:
		scope.Level = models.DataScopeSelf
	}
	return scope, nil
}
