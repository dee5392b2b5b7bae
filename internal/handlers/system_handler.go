package handlers

import (
	"context"
	"time"

	"fbadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Pinger 依赖存活检测
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler 系统处理器
type SystemHandler struct {
	db    *gorm.DB
	redis Pinger
}

func NewSystemHandler(db *gorm.DB, redis Pinger) *SystemHandler {
	return &SystemHandler{db: db, redis: redis}
}

// Health 健康检查
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"database": "ok", "redis": "ok"}
	healthy := true

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status["database"] = "unavailable"
		healthy = false
	}
	if err := h.redis.Ping(ctx); err != nil {
		status["redis"] = "unavailable"
		healthy = false
	}

	if !healthy {
		response.Error(c, 503, "服务不可用")
		return
	}
	response.Success(c, status)
}
