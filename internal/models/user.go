package models

import (
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户表
type User struct {
	BaseModel
	UUID         string     `json:"uuid" gorm:"size:50;uniqueIndex;not null"`
	Username     string     `json:"username" gorm:"size:20;uniqueIndex;not null"`
	Nickname     string     `json:"nickname" gorm:"size:20"`
	PasswordHash string     `json:"-" gorm:"column:password;size:255"`
	Email        string     `json:"email" gorm:"size:50;uniqueIndex"`
	Phone        *string    `json:"phone" gorm:"size:11"`
	Avatar       *string    `json:"avatar" gorm:"size:255"`
	Status       int        `json:"status" gorm:"default:1"` // 账号状态(0停用 1正常)
	IsSuperuser  bool       `json:"is_superuser" gorm:"default:false"`
	IsStaff      bool       `json:"is_staff" gorm:"default:false"`
	IsMultiLogin bool       `json:"is_multi_login" gorm:"default:false"` // 是否允许多点登录
	JoinTime     time.Time  `json:"join_time" gorm:"autoCreateTime"`
	LastLoginAt  *time.Time `json:"last_login_time"`

	DeptID *uint  `json:"dept_id" gorm:"index"`
	Dept   *Dept  `json:"dept,omitempty" gorm:"foreignKey:DeptID;constraint:OnDelete:SET NULL"`
	Roles  []Role `json:"roles,omitempty" gorm:"many2many:sys_user_role;"`
}

// TableName 表名
func (User) TableName() string {
	return "sys_user"
}

// Subject 令牌主体
func (u *User) Subject() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

// IsEnabled 账号是否启用
func (u *User) IsEnabled() bool {
	return u.Status == StatusEnable
}

// SetPassword 设置密码
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
