package models

// Ptype 取值
const (
	CasbinPolicy   = "p" // p = sub, obj, act, eft
	CasbinGrouping = "g" // g = 用户 uuid, 角色名
)

// CasbinRule 策略表，列布局与 casbin 通用适配器一致
type CasbinRule struct {
	ID    uint   `json:"id" gorm:"primarykey"`
	Ptype string `json:"ptype" gorm:"size:100;index"`
	V0    string `json:"v0" gorm:"size:100"`
	V1    string `json:"v1" gorm:"size:100"`
	V2    string `json:"v2" gorm:"size:100"`
	V3    string `json:"v3" gorm:"size:100"`
	V4    string `json:"v4" gorm:"size:100"`
	V5    string `json:"v5" gorm:"size:100"`
}

// TableName 表名
func (CasbinRule) TableName() string {
	return "casbin_rule"
}

// Values 去掉末尾空列后的规则字段
func (r *CasbinRule) Values() []string {
	vals := []string{r.V0, r.V1, r.V2, r.V3, r.V4, r.V5}
	n := len(vals)
	for n > 0 && vals[n-1] == "" {
		n--
	}
	return vals[:n]
}
