package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/service"
	"github.com/atakdmr/StudentAttendance/pkg/response"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportHandler 报表模块 HTTP 处理器
type ReportHandler struct {
	reportSvc     service.ReportService
	attendanceSvc service.AttendanceService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService, attendanceSvc service.AttendanceService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, attendanceSvc: attendanceSvc}
}

// ExportSessionCSV 导出单次会话的考勤 CSV
// GET /api/v1/reports/sessions/:id/csv
func (h *ReportHandler) ExportSessionCSV(c *gin.Context) {
	userID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}
	id := c.Param("id")

	session, err := h.attendanceSvc.GetSession(c.Request.Context(), id)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	if !canActOn(userID, role, session.TeacherID) {
		response.Forbidden(c, 18005, "只能导出自己的考勤")
		return
	}

	body, filename, err := h.reportSvc.SessionCSV(c.Request.Context(), id)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.File(c, contentTypeCSV, filename, body)
}

// ListFinalizedSessions 已定稿会话（教师只看自己的）
// GET /api/v1/reports/sessions?group_id=xxx
func (h *ReportHandler) ListFinalizedSessions(c *gin.Context) {
	var req dto.FinalizedSessionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}
	teacherID := ""
	if !isAdmin(role) {
		teacherID = userID
	}

	sessions, err := h.reportSvc.ListFinalizedSessions(c.Request.Context(), teacherID, req.GroupID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": sessions})
}

// GetStudentReport 学生出勤报表（默认最近 30 天）
// GET /api/v1/reports/students/:id?from=&to=
func (h *ReportHandler) GetStudentReport(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	report, err := h.reportSvc.StudentReport(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// ExportStudentCSV 学生出勤 CSV
// GET /api/v1/reports/students/:id/csv?from=&to=
func (h *ReportHandler) ExportStudentCSV(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	body, filename, err := h.reportSvc.StudentCSV(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.File(c, contentTypeCSV, filename, body)
}

// GetGroupReport 班级出勤报表
// GET /api/v1/reports/groups/:id?from=&to=
func (h *ReportHandler) GetGroupReport(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	report, err := h.reportSvc.GroupReport(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// ExportGroupXLSX 班级出勤报表 Excel
// GET /api/v1/reports/groups/:id/xlsx?from=&to=
func (h *ReportHandler) ExportGroupXLSX(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.reportSvc.ExportGroupReportXLSX(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.File(c, contentTypeXLSX, filename, buf.Bytes())
}

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 18001, "考勤会话不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 18002, "学生不存在")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 18003, "班级不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 18004, "日期格式无效，应为 yyyy-MM-dd")
	default:
		response.InternalError(c)
	}
}
