package models

// Dept 部门表，parent_id 自关联形成树
type Dept struct {
	BaseModel
	Name     string  `json:"name" gorm:"size:50;uniqueIndex;not null"`
	Leader   *string `json:"leader" gorm:"size:20"`
	Phone    *string `json:"phone" gorm:"size:11"`
	Email    *string `json:"email" gorm:"size:50"`
	Level    int     `json:"level" gorm:"default:0"`
	Sort     int     `json:"sort" gorm:"default:0"`
	Status   int     `json:"status" gorm:"default:1"`      // 部门状态（0停用 1正常）
	DelFlag  bool    `json:"del_flag" gorm:"default:false"` // 软删除标志
	ParentID *uint   `json:"parent_id" gorm:"index"`
}

// TableName 表名
func (Dept) TableName() string {
	return "sys_dept"
}

func (d Dept) TreeID() uint        { return d.ID }
func (d Dept) TreeParentID() *uint { return d.ParentID }
func (d Dept) TreeSort() int       { return d.Sort }

// IsEnabled 部门是否启用
func (d *Dept) IsEnabled() bool {
	return d.Status == StatusEnable
}
