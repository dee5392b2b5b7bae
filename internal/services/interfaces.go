package services

import (
	"context"
	"time"

	"fbadmin/internal/models"
)

// IdentityStore 用户身份查询
type IdentityStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	UpdateLastLogin(ctx context.Context, username string, at time.Time) error
}

// RoleStore 角色查询，返回的角色需携带权限
type RoleStore interface {
	RolesForUser(ctx context.Context, userID uint) ([]models.Role, error)
}

// DeptStore 部门查询
type DeptStore interface {
	GetByID(ctx context.Context, id uint) (*models.Dept, error)
	ListAvailable(ctx context.Context) ([]models.Dept, error)
}

// PolicyStore 策略表查询，按 id 升序返回
type PolicyStore interface {
	ListRules(ctx context.Context) ([]models.CasbinRule, error)
}

// AuditSink 登录审计，调用方不等待写入结果
type AuditSink interface {
	RecordLogin(event LoginEvent)
}

// SessionNotifier 会话变更通知
type SessionNotifier interface {
	Publish(ctx context.Context, event SessionEvent) error
}

// LoginEvent 登录审计事件
type LoginEvent struct {
	UserUUID  string
	Username  string
	Status    int
	IP        string
	UserAgent string
	Msg       string
	LoginTime time.Time
}

// 会话事件原因
const (
	SessionReasonKicked = "kicked" // 单点登录被挤下线
	SessionReasonLogout = "logout" // 主动退出全部会话
)

// SessionEvent 会话事件
type SessionEvent struct {
	UserID string    `json:"user_id"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}
