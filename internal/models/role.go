package models

// 数据权限范围，数值越小范围越大
const (
	DataScopeAll          = 0 // 全部数据
	DataScopeCustom       = 1 // 自定义数据
	DataScopeDeptAndBelow = 2 // 所在部门及以下数据
	DataScopeDept         = 3 // 所在部门数据
	DataScopeSelf         = 4 // 仅本人数据
)

// Role 角色表
type Role struct {
	BaseModel
	Name      string  `json:"name" gorm:"size:20;uniqueIndex;not null"`
	DataScope int     `json:"data_scope" gorm:"default:0"`
	Status    int     `json:"status" gorm:"default:1"` // 角色状态（0停用 1正常）
	Remark    *string `json:"remark" gorm:"type:text"`

	Users       []User       `json:"-" gorm:"many2many:sys_user_role;"`
	Permissions []Permission `json:"permissions,omitempty" gorm:"many2many:sys_role_permission;"`
}

// TableName 表名
func (Role) TableName() string {
	return "sys_role"
}

// IsEnabled 角色是否启用
func (r *Role) IsEnabled() bool {
	return r.Status == StatusEnable
}
