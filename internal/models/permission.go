package models

import "strings"

// 权限类型
const (
	PermissionTypeDirectory = 0 // 目录
	PermissionTypeMenu      = 1 // 菜单
	PermissionTypeButton    = 2 // 功能按钮
	PermissionTypeAPI       = 9 // 后端接口
)

// Permission 权限表，目录/菜单/按钮为前端元素，接口类型额外记录请求方法与路径
type Permission struct {
	BaseModel
	Title     string  `json:"title" gorm:"size:50;not null"`
	Name      string  `json:"name" gorm:"size:50"`
	Type      int     `json:"type" gorm:"default:0"`
	Code      string  `json:"code" gorm:"size:100;uniqueIndex;not null"` // 权限代码，如 "sys:user:add"
	Icon      *string `json:"icon" gorm:"size:100"`
	Path      *string `json:"path" gorm:"size:200"`   // 菜单路由地址或接口路径模板
	Method    *string `json:"method" gorm:"size:16"`  // 接口请求方法，"*" 表示任意
	Component *string `json:"component" gorm:"size:255"`
	Sort      int     `json:"sort" gorm:"default:0"`
	Visible   bool    `json:"visible" gorm:"default:true"`
	Status    int     `json:"status" gorm:"default:1"` // 状态（0停用 1正常）
	Remark    *string `json:"remark" gorm:"type:text"`

	ParentID *uint `json:"parent_id" gorm:"index"`
}

// TableName 表名
func (Permission) TableName() string {
	return "sys_permission"
}

func (p Permission) TreeID() uint        { return p.ID }
func (p Permission) TreeParentID() *uint { return p.ParentID }
func (p Permission) TreeSort() int       { return p.Sort }

// IsEnabled 权限是否启用
func (p *Permission) IsEnabled() bool {
	return p.Status == StatusEnable
}

// IsAPI 是否后端接口权限
func (p *Permission) IsAPI() bool {
	return p.Type == PermissionTypeAPI
}

// IsUIElement 是否前端元素（目录、菜单、按钮）
func (p *Permission) IsUIElement() bool {
	return p.Type == PermissionTypeDirectory || p.Type == PermissionTypeMenu || p.Type == PermissionTypeButton
}

// Route 接口权限对应的 "METHOD path"，非接口权限返回空串
func (p *Permission) Route() (method, path string) {
	if !p.IsAPI() || p.Path == nil || *p.Path == "" {
		return "", ""
	}
	method = "*"
	if p.Method != nil && *p.Method != "" {
		method = strings.ToUpper(*p.Method)
	}
	return method, *p.Path
}
