package handlers

import (
	"fbadmin/internal/middleware"
	"fbadmin/internal/services"
	"fbadmin/pkg/response"
	"fbadmin/pkg/tree"

	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	service   *services.PermissionService
	buildType tree.BuildType
}

func NewPermissionHandler(service *services.PermissionService, buildType tree.BuildType) *PermissionHandler {
	return &PermissionHandler{service: service, buildType: buildType}
}

// GetSidebar 当前用户的侧边栏菜单树
func (h *PermissionHandler) GetSidebar(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		response.Unauthorized(c, "请先登录")
		return
	}

	nodes, err := h.service.GetSidebar(c.Request.Context(), user, h.buildType)
	if err != nil {
		response.ServerError(c, "查询菜单失败")
		return
	}
	response.Success(c, nodes)
}
