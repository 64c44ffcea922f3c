package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/service"
	"github.com/atakdmr/StudentAttendance/pkg/response"
)

// NotificationHandler 通知模块 HTTP 处理器（数据来自操作日志）
type NotificationHandler struct {
	auditSvc service.AuditLogService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(auditSvc service.AuditLogService) *NotificationHandler {
	return &NotificationHandler{auditSvc: auditSvc}
}

// ListNotifications 当前用户的通知
// GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.auditSvc.List(c.Request.Context(), userID, &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// DeleteAllNotifications 清空当前用户的通知
// DELETE /api/v1/notifications
func (h *NotificationHandler) DeleteAllNotifications(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	deleted, err := h.auditSvc.DeleteAllForUser(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"deleted": deleted})
}
