package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/service"
	"github.com/atakdmr/StudentAttendance/pkg/response"
)

// AnnouncementHandler 公告模块 HTTP 处理器
type AnnouncementHandler struct {
	announcementSvc service.AnnouncementService
}

// NewAnnouncementHandler 创建 AnnouncementHandler
func NewAnnouncementHandler(announcementSvc service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementSvc: announcementSvc}
}

// ListAnnouncements 公告列表；教师只看有效公告，管理员可用 all=true 查看全部
// GET /api/v1/announcements
func (h *AnnouncementHandler) ListAnnouncements(c *gin.Context) {
	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	activeOnly := !(isAdmin(role) && c.Query("all") == "true")

	list, err := h.announcementSvc.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetAnnouncement 公告详情
// GET /api/v1/announcements/:id
func (h *AnnouncementHandler) GetAnnouncement(c *gin.Context) {
	item, err := h.announcementSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, item)
}

// CreateAnnouncement 发布公告
// POST /api/v1/announcements
func (h *AnnouncementHandler) CreateAnnouncement(c *gin.Context) {
	var req dto.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	item, err := h.announcementSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.Created(c, item)
}

// UpdateAnnouncement 更新公告
// PUT /api/v1/announcements/:id
func (h *AnnouncementHandler) UpdateAnnouncement(c *gin.Context) {
	var req dto.UpdateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	item, err := h.announcementSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, item)
}

// DeleteAnnouncement 删除公告
// DELETE /api/v1/announcements/:id
func (h *AnnouncementHandler) DeleteAnnouncement(c *gin.Context) {
	if err := h.announcementSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *AnnouncementHandler) handleAnnouncementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAnnouncementNotFound):
		response.NotFound(c, 19001, "公告不存在")
	default:
		response.InternalError(c)
	}
}
