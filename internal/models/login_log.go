package models

import (
	"time"

	"gorm.io/datatypes"
)

// 登录日志状态
const (
	LoginStatusFail    = 0
	LoginStatusSuccess = 1
)

// LoginLog 登录日志表
type LoginLog struct {
	ID        uint              `json:"id" gorm:"primarykey"`
	UserUUID  string            `json:"user_uuid" gorm:"size:50;index"`
	Username  string            `json:"username" gorm:"size:20"`
	Status    int               `json:"status"`
	IP        string            `json:"ip" gorm:"size:50"`
	UserAgent string            `json:"user_agent" gorm:"size:255"`
	Msg       string            `json:"msg" gorm:"type:text"`
	Detail    datatypes.JSONMap `json:"detail"`
	LoginTime time.Time         `json:"login_time" gorm:"index"`
	CreatedAt time.Time         `json:"created_time"`
}

// TableName 表名
func (LoginLog) TableName() string {
	return "sys_login_log"
}
