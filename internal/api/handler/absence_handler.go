package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/service"
	"github.com/atakdmr/StudentAttendance/pkg/response"
)

// AbsenceHandler 缺勤模块 HTTP 处理器（管理员）
type AbsenceHandler struct {
	absenceSvc service.AbsenceService
}

// NewAbsenceHandler 创建 AbsenceHandler
func NewAbsenceHandler(absenceSvc service.AbsenceService) *AbsenceHandler {
	return &AbsenceHandler{absenceSvc: absenceSvc}
}

// ListAbsences 已定稿会话中的缺勤记录
// GET /api/v1/absences?group_id=&start_date=&end_date=&search=&sort_by=
func (h *AbsenceHandler) ListAbsences(c *gin.Context) {
	var req dto.AbsenceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.absenceSvc.ListAbsences(c.Request.Context(), &req)
	if err != nil {
		h.handleAbsenceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list, "total": len(list)})
}

// NotifyAbsences 向缺勤学生家长发送短信
// POST /api/v1/absences/notify
func (h *AbsenceHandler) NotifyAbsences(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.absenceSvc.NotifyAbsences(c.Request.Context(), userID)
	if err != nil {
		h.handleAbsenceError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *AbsenceHandler) handleAbsenceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 17001, "日期格式无效，应为 yyyy-MM-dd")
	case errors.Is(err, service.ErrSMSUnavailable):
		response.Error(c, http.StatusServiceUnavailable, 17002, "短信服务不可用")
	default:
		response.InternalError(c)
	}
}
