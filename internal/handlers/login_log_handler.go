package handlers

import (
	"strconv"

	"fbadmin/internal/middleware"
	"fbadmin/internal/services"
	"fbadmin/pkg/pagination"
	"fbadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type LoginLogHandler struct {
	service *services.LoginLogService
}

func NewLoginLogHandler(service *services.LoginLogService) *LoginLogHandler {
	return &LoginLogHandler{service: service}
}

// List 分页查询登录日志，结果受数据范围限制
func (h *LoginLogHandler) List(c *gin.Context) {
	grant, ok := middleware.GetGrant(c)
	if !ok {
		response.Forbidden(c, "权限不足")
		return
	}

	filter := services.LoginLogFilter{
		Username: c.Query("username"),
		IP:       c.Query("ip"),
	}
	if s := c.Query("status"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			response.BadRequest(c, "status 参数错误")
			return
		}
		filter.Status = &v
	}

	pageParams := pagination.ParsePageParams(c)
	logs, total, err := h.service.List(c.Request.Context(), grant.Scope, filter, pageParams)
	if err != nil {
		response.ServerError(c, "查询登录日志失败")
		return
	}
	response.SuccessWithPage(c, logs, pagination.NewPageInfo(pageParams, total))
}
