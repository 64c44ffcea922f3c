package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/service"
	"github.com/atakdmr/StudentAttendance/pkg/response"
)

// GroupHandler 班级模块 HTTP 处理器
type GroupHandler struct {
	groupSvc service.GroupService
}

// NewGroupHandler 创建 GroupHandler
func NewGroupHandler(groupSvc service.GroupService) *GroupHandler {
	return &GroupHandler{groupSvc: groupSvc}
}

// ListGroups 班级列表
// GET /api/v1/groups
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groupSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": groups})
}

// GetGroup 班级详情
// GET /api/v1/groups/:id
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groupSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, group)
}

// CreateGroup 创建班级
// POST /api/v1/groups
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	group, err := h.groupSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.Created(c, group)
}

// UpdateGroup 更新班级
// PUT /api/v1/groups/:id
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	var req dto.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	group, err := h.groupSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, group)
}

// DeleteGroup 删除班级
// DELETE /api/v1/groups/:id
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	if err := h.groupSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *GroupHandler) handleGroupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 13001, "班级不存在")
	case errors.Is(err, service.ErrGroupCodeExists):
		response.Conflict(c, 13002, "班级代码已存在")
	default:
		response.InternalError(c)
	}
}
