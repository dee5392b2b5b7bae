package services

import (
	"context"
	"testing"
	"time"

	"fbadmin/internal/models"
	"fbadmin/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteMatch(t *testing.T) {
	tests := []struct {
		route  Route
		method string
		path   string
		want   bool
	}{
		{Route{"GET", "/api/v1/sys/depts/tree"}, "GET", "/api/v1/sys/depts/tree", true},
		{Route{"GET", "/api/v1/sys/depts/tree"}, "POST", "/api/v1/sys/depts/tree", false},
		{Route{"*", "/api/v1/sys/depts/tree"}, "DELETE", "/api/v1/sys/depts/tree", true},
		{Route{"GET", "/api/v1/sys/users/:id"}, "GET", "/api/v1/sys/users/42", true},
		{Route{"GET", "/api/v1/sys/users/:id"}, "GET", "/api/v1/sys/users/42/roles", false},
		{Route{"GET", "/api/v1/logs/*"}, "GET", "/api/v1/logs/login", true},
		{Route{"GET", "/api/v1/logs/*"}, "GET", "/api/v1/sys/depts/tree", false},
		{Route{"GET", "/api/v1/sys/depts/tree/"}, "GET", "/api/v1/sys/depts/tree", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, routeMatch(tt.route, tt.method, tt.path), "%v %s %s", tt.route, tt.method, tt.path)
	}
}

func TestRoleMenuAuthorizer(t *testing.T) {
	user := &models.User{BaseModel: models.BaseModel{ID: 10}, UUID: "u10", Status: models.StatusEnable}
	roles := memoryRoles{10: {role(1, models.DataScopeSelf, models.StatusEnable,
		apiPermission(1, "sys:dept:list", "GET", "/api/v1/sys/depts/tree"),
		apiPermission(2, "log:login:list", "GET", "/api/v1/logs/*"),
	)}}
	authorizer := NewRoleMenuAuthorizer(NewPermissionResolver(roles, testDepts()))
	ctx := context.Background()

	decision, err := authorizer.Authorize(ctx, user, "GET", "/api/v1/sys/depts/tree")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, models.DataScopeSelf, decision.Grant.Scope.Level)

	decision, err = authorizer.Authorize(ctx, user, "GET", "/api/v1/logs/login")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = authorizer.Authorize(ctx, user, "POST", "/api/v1/sys/depts")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func policy(id uint, sub, obj, act, eft string) models.CasbinRule {
	return models.CasbinRule{ID: id, Ptype: models.CasbinPolicy, V0: sub, V1: obj, V2: act, V3: eft}
}

func grouping(id uint, user, role string) models.CasbinRule {
	return models.CasbinRule{ID: id, Ptype: models.CasbinGrouping, V0: user, V1: role}
}

func namedRole(id uint, name string, status int) models.Role {
	return models.Role{BaseModel: models.BaseModel{ID: id}, Name: name, DataScope: models.DataScopeSelf, Status: status}
}

// u10 持有启用的 ops 角色
func opsRoles() memoryRoles {
	return memoryRoles{10: {namedRole(1, "ops", models.StatusEnable)}}
}

func newPolicyAuthorizer(t *testing.T, roles memoryRoles, store *memoryPolicies, interval time.Duration, exclude ...string) *PolicyAuthorizer {
	t.Helper()
	resolver := NewPermissionResolver(roles, testDepts())
	authorizer, err := NewPolicyAuthorizer(resolver, store, exclude, interval)
	require.NoError(t, err)
	return authorizer
}

func TestPolicyAuthorizerFirstMatchWins(t *testing.T) {
	store := &memoryPolicies{}
	store.set(
		grouping(1, "u10", "ops"),
		policy(2, "ops", "/api/v1/sys/depts/:id", "DELETE", "deny"),
		policy(3, "ops", "/api/v1/sys/depts/*", "*", "allow"),
		policy(4, "ops", "/api/v1/logs/login", "GET", ""),
	)
	authorizer := newPolicyAuthorizer(t, opsRoles(), store, time.Minute)
	user := &models.User{BaseModel: models.BaseModel{ID: 10}, UUID: "u10", Status: models.StatusEnable}
	ctx := context.Background()

	tests := []struct {
		method, path string
		want         bool
	}{
		{"DELETE", "/api/v1/sys/depts/3", false},
		{"GET", "/api/v1/sys/depts/3", true},
		{"get", "/api/v1/sys/depts/tree", true},
		{"GET", "/api/v1/logs/login", true},
		{"POST", "/api/v1/logs/login", false},
		{"GET", "/api/v1/sys/users", false},
	}
	for _, tt := range tests {
		decision, err := authorizer.Authorize(ctx, user, tt.method, tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, decision.Allowed, "%s %s", tt.method, tt.path)
	}

	other := &models.User{BaseModel: models.BaseModel{ID: 11}, UUID: "u11", Status: models.StatusEnable}
	decision, err := authorizer.Authorize(ctx, other, "GET", "/api/v1/logs/login")
	require.NoError(t, err)
	assert.False(t, decision.Allowed, "user without role mapping is denied")
}

func TestPolicyAuthorizerIgnoresDisabledRoles(t *testing.T) {
	store := &memoryPolicies{}
	store.set(
		grouping(1, "u10", "ops"),
		grouping(2, "u10", "viewer"),
		grouping(3, "viewer", "reader"),
		policy(4, "ops", "/api/v1/logs/login", "GET", "allow"),
		policy(5, "reader", "/api/v1/sys/depts/tree", "GET", "allow"),
		policy(6, "u10", "/api/v1/auth/me", "GET", "allow"),
	)
	roles := memoryRoles{10: {
		namedRole(1, "ops", models.StatusDisable),
		namedRole(2, "viewer", models.StatusEnable),
	}}
	authorizer := newPolicyAuthorizer(t, roles, store, time.Minute)
	user := &models.User{BaseModel: models.BaseModel{ID: 10}, UUID: "u10", Status: models.StatusEnable}
	ctx := context.Background()

	tests := []struct {
		path string
		want bool
	}{
		{"/api/v1/logs/login", false},
		{"/api/v1/sys/depts/tree", true},
		{"/api/v1/auth/me", true},
	}
	for _, tt := range tests {
		decision, err := authorizer.Authorize(ctx, user, "GET", tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, decision.Allowed, tt.path)
	}
	decision, err := authorizer.Authorize(ctx, user, "GET", "/api/v1/sys/depts/tree")
	require.NoError(t, err)
	assert.Equal(t, []string{"viewer"}, decision.Grant.Roles)

	// 角色在库中停用后即时生效，无需等待策略重载
	roles[10][1].Status = models.StatusDisable
	decision, err = authorizer.Authorize(ctx, user, "GET", "/api/v1/sys/depts/tree")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestPolicyAuthorizerExcludeAndSuperuser(t *testing.T) {
	authorizer := newPolicyAuthorizer(t, memoryRoles{}, &memoryPolicies{}, time.Minute, "post /api/v1/auth/logout")
	ctx := context.Background()

	user := &models.User{BaseModel: models.BaseModel{ID: 10}, UUID: "u10", Status: models.StatusEnable}
	decision, err := authorizer.Authorize(ctx, user, "POST", "/api/v1/auth/logout")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = authorizer.Authorize(ctx, user, "GET", "/api/v1/auth/logout")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	admin := &models.User{BaseModel: models.BaseModel{ID: 1}, UUID: "admin", Status: models.StatusEnable, IsSuperuser: true}
	decision, err = authorizer.Authorize(ctx, admin, "DELETE", "/api/v1/anything")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestPolicyAuthorizerReloadsAfterInterval(t *testing.T) {
	store := &memoryPolicies{}
	store.set(grouping(1, "u10", "ops"))
	authorizer := newPolicyAuthorizer(t, opsRoles(), store, time.Hour)
	user := &models.User{BaseModel: models.BaseModel{ID: 10}, UUID: "u10", Status: models.StatusEnable}
	ctx := context.Background()

	decision, err := authorizer.Authorize(ctx, user, "GET", "/api/v1/logs/login")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	store.set(grouping(1, "u10", "ops"), policy(2, "ops", "/api/v1/logs/login", "GET", "allow"))

	decision, err = authorizer.Authorize(ctx, user, "GET", "/api/v1/logs/login")
	require.NoError(t, err)
	assert.False(t, decision.Allowed, "cached rules are used within the interval")

	require.NoError(t, authorizer.Reload(ctx))
	decision, err = authorizer.Authorize(ctx, user, "GET", "/api/v1/logs/login")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 2, store.loads)
}

func TestNewAuthorizerSelectsMode(t *testing.T) {
	resolver := NewPermissionResolver(memoryRoles{}, testDepts())

	a, err := NewAuthorizer(config.PermissionConfig{Mode: config.PermissionModeRoleMenu}, resolver, &memoryPolicies{})
	require.NoError(t, err)
	assert.IsType(t, &RoleMenuAuthorizer{}, a)

	a, err = NewAuthorizer(config.PermissionConfig{Mode: config.PermissionModeCasbin}, resolver, &memoryPolicies{})
	require.NoError(t, err)
	assert.IsType(t, &PolicyAuthorizer{}, a)

	_, err = NewAuthorizer(config.PermissionConfig{Mode: "acl"}, resolver, &memoryPolicies{})
	assert.Error(t, err)
}
