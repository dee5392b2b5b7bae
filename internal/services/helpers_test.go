package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"fbadmin/internal/models"
	"fbadmin/pkg/config"
	"fbadmin/pkg/jwt"
	"fbadmin/pkg/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func testTokenConfig() config.TokenConfig {
	return config.TokenConfig{
		SecretKey:     "test-secret",
		Algorithm:     "HS256",
		AccessExpire:  time.Hour,
		RefreshExpire: 24 * time.Hour,
		AccessPrefix:  "fbb:token",
		RefreshPrefix: "fbb:refresh_token",
	}
}

func setupRedis(t *testing.T) (*session.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	store := session.NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		store.Close()
		mr.Close()
	})
	return store, mr
}

func setupTokenService(t *testing.T, notifier SessionNotifier) (*TokenService, *miniredis.Miniredis) {
	t.Helper()

	store, mr := setupRedis(t)
	cfg := testTokenConfig()
	codec, err := jwt.NewManager(cfg.SecretKey, cfg.Algorithm)
	require.NoError(t, err)
	return NewTokenService(store, codec, cfg, notifier), mr
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }

// memoryUsers 内存用户存储
type memoryUsers struct {
	mu        sync.Mutex
	users     map[uint]*models.User
	lastLogin map[string]time.Time
}

func newMemoryUsers(users ...*models.User) *memoryUsers {
	m := &memoryUsers{users: map[uint]*models.User{}, lastLogin: map[string]time.Time{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) UpdateLastLogin(_ context.Context, username string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLogin[username] = at
	return nil
}

// memoryRoles 内存角色存储
type memoryRoles map[uint][]models.Role

func (m memoryRoles) RolesForUser(_ context.Context, userID uint) ([]models.Role, error) {
	return m[userID], nil
}

// memoryDepts 内存部门存储
type memoryDepts []models.Dept

func (m memoryDepts) GetByID(_ context.Context, id uint) (*models.Dept, error) {
	for i := range m {
		if m[i].ID == id {
			d := m[i]
			return &d, nil
		}
	}
	return nil, nil
}

func (m memoryDepts) ListAvailable(_ context.Context) ([]models.Dept, error) {
	out := make([]models.Dept, 0, len(m))
	for _, d := range m {
		if !d.DelFlag {
			out = append(out, d)
		}
	}
	return out, nil
}

// memoryPolicies 内存策略存储，统计加载次数
type memoryPolicies struct {
	mu    sync.Mutex
	rules []models.CasbinRule
	loads int
}

func (m *memoryPolicies) ListRules(_ context.Context) ([]models.CasbinRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return append([]models.CasbinRule(nil), m.rules...), nil
}

func (m *memoryPolicies) set(rules ...models.CasbinRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = rules
}

// recordingAudit 记录投递的审计事件
type recordingAudit struct {
	mu     sync.Mutex
	events []LoginEvent
}

func (r *recordingAudit) RecordLogin(event LoginEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingAudit) all() []LoginEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LoginEvent(nil), r.events...)
}

// recordingNotifier 记录发布的会话事件
type recordingNotifier struct {
	mu     sync.Mutex
	events []SessionEvent
}

func (r *recordingNotifier) Publish(_ context.Context, event SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) reasons() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Reason)
	}
	return out
}

func newTestUser(t *testing.T, id uint, username, password string) *models.User {
	t.Helper()
	u := &models.User{
		BaseModel: models.BaseModel{ID: id},
		UUID:      "uuid-" + username,
		Username:  username,
		Nickname:  username,
		Status:    models.StatusEnable,
	}
	require.NoError(t, u.SetPassword(password))
	return u
}

func apiPermission(id uint, code, method, path string) models.Permission {
	return models.Permission{
		BaseModel: models.BaseModel{ID: id},
		Title:     code,
		Type:      models.PermissionTypeAPI,
		Code:      code,
		Method:    strPtr(method),
		Path:      strPtr(path),
		Status:    models.StatusEnable,
	}
}

func menuPermission(id uint, code string) models.Permission {
	return models.Permission{
		BaseModel: models.BaseModel{ID: id},
		Title:     code,
		Type:      models.PermissionTypeMenu,
		Code:      code,
		Status:    models.StatusEnable,
	}
}
