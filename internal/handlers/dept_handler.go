package handlers

import (
	"strconv"

	"fbadmin/internal/services"
	"fbadmin/pkg/response"
	"fbadmin/pkg/tree"

	"github.com/gin-gonic/gin"
)

type DeptHandler struct {
	service   *services.DeptService
	buildType tree.BuildType
}

func NewDeptHandler(service *services.DeptService, buildType tree.BuildType) *DeptHandler {
	return &DeptHandler{service: service, buildType: buildType}
}

// GetTree 部门树
func (h *DeptHandler) GetTree(c *gin.Context) {
	var status *int
	if s := c.Query("status"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			response.BadRequest(c, "status 参数错误")
			return
		}
		status = &v
	}

	nodes, err := h.service.GetTree(c.Request.Context(), h.buildType, c.Query("name"), status)
	if err != nil {
		response.ServerError(c, "查询部门失败")
		return
	}
	response.Success(c, nodes)
}
