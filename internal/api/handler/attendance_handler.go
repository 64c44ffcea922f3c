package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/internal/service"
	"github.com/atakdmr/StudentAttendance/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
// 只有课程所属教师或管理员可以开启会话、标记与定稿
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
	lessonSvc     service.LessonService
	now           func() time.Time
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService, lessonSvc service.LessonService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc, lessonSvc: lessonSvc, now: time.Now}
}

// ────────────────────── 会话 ──────────────────────

// OpenSession 开启（或获取已存在的）考勤会话
// POST /api/v1/attendance/sessions
func (h *AttendanceHandler) OpenSession(c *gin.Context) {
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	lesson, err := h.lessonSvc.GetByID(c.Request.Context(), req.LessonID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}
	if !canActOn(userID, role, lesson.TeacherID) {
		response.Forbidden(c, 16009, "只有该课程的教师或管理员可以操作")
		return
	}

	var scheduledAt time.Time
	if req.ScheduledAt != nil {
		scheduledAt = *req.ScheduledAt
	} else {
		scheduledAt, err = service.NextLessonOccurrence(lesson, h.now())
		if err != nil {
			response.InternalError(c)
			return
		}
	}

	session, err := h.attendanceSvc.OpenOrGetSession(c.Request.Context(), lesson.ID, scheduledAt, userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	h.respondView(c, session.SessionID)
}

// ListSessions 会话列表：教师看自己的全部会话，管理员看未定稿会话
// GET /api/v1/attendance/sessions?group_id=xxx
func (h *AttendanceHandler) ListSessions(c *gin.Context) {
	userID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var (
		sessions []dto.SessionResponse
		err      error
	)
	if isAdmin(role) {
		sessions, err = h.attendanceSvc.ListOpenSessions(c.Request.Context(), c.Query("group_id"))
	} else {
		sessions, err = h.attendanceSvc.ListTeacherSessions(c.Request.Context(), userID)
	}
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": sessions})
}

// GetSession 会话视图（学生名单 + 已有记录）
// GET /api/v1/attendance/sessions/:id
func (h *AttendanceHandler) GetSession(c *gin.Context) {
	session, ok := h.loadOwnedSession(c, c.Param("id"))
	if !ok {
		return
	}

	h.respondView(c, session.SessionID)
}

// FinalizeSession 定稿
// POST /api/v1/attendance/sessions/:id/finalize
func (h *AttendanceHandler) FinalizeSession(c *gin.Context) {
	session, ok := h.loadOwnedSession(c, c.Param("id"))
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.attendanceSvc.FinalizeSession(c.Request.Context(), session.SessionID, userID); err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── 记录 ──────────────────────

// MarkOne 标记单名学生
// POST /api/v1/attendance/sessions/:id/mark
func (h *AttendanceHandler) MarkOne(c *gin.Context) {
	var entry dto.MarkEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	session, ok := h.loadOwnedSession(c, c.Param("id"))
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.attendanceSvc.MarkOne(c.Request.Context(), session.SessionID, entry, userID); err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	h.respondView(c, session.SessionID)
}

// BulkMark 批量标记（全部成功或全部回滚）
// POST /api/v1/attendance/sessions/:id/bulk-mark
func (h *AttendanceHandler) BulkMark(c *gin.Context) {
	var req dto.BulkMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	session, ok := h.loadOwnedSession(c, c.Param("id"))
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.attendanceSvc.MarkBulk(c.Request.Context(), session.SessionID, req.Entries, userID); err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	h.respondView(c, session.SessionID)
}

// ────────────────────── 课表驱动 ──────────────────────

// LessonsToStart 本周尚未开启考勤的课程
// GET /api/v1/attendance/lessons-to-start?teacher_id=xxx
func (h *AttendanceHandler) LessonsToStart(c *gin.Context) {
	userID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}
	teacherID := userID
	if isAdmin(role) && c.Query("teacher_id") != "" {
		teacherID = c.Query("teacher_id")
	}

	lessons, err := h.attendanceSvc.ListLessonsToStart(c.Request.Context(), teacherID, h.now())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": lessons})
}

// ────────────────────── 内部方法 ──────────────────────

// loadOwnedSession 查询会话并校验调用者为管理员或会话教师
// 失败时已写入响应
func (h *AttendanceHandler) loadOwnedSession(c *gin.Context, id string) (*model.AttendanceSession, bool) {
	userID, role, ok := mustGetCaller(c)
	if !ok {
		return nil, false
	}

	session, err := h.attendanceSvc.GetSession(c.Request.Context(), id)
	if err != nil {
		h.handleAttendanceError(c, err)
		return nil, false
	}
	if !canActOn(userID, role, session.TeacherID) {
		response.Forbidden(c, 16009, "只有该课程的教师或管理员可以操作")
		return nil, false
	}
	return session, true
}

func (h *AttendanceHandler) respondView(c *gin.Context, sessionID string) {
	view, err := h.attendanceSvc.GetSessionView(c.Request.Context(), sessionID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}
	response.OK(c, view)
}

func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLessonNotFound):
		response.NotFound(c, 16001, "课程不存在")
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 16002, "考勤会话不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 16003, "学生不存在")
	case errors.Is(err, service.ErrSessionAlreadyFinalized):
		response.Conflict(c, 16004, "考勤会话已定稿")
	case errors.Is(err, service.ErrSessionFinalized):
		response.Conflict(c, 16005, "考勤会话已定稿，不能再修改记录")
	case errors.Is(err, service.ErrStudentNotInGroup):
		response.BadRequest(c, 16006, "学生不属于该会话的班级")
	case errors.Is(err, service.ErrConcurrencyConflict):
		response.Conflict(c, 16007, "考勤记录已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrInvalidAttendanceStatus):
		response.BadRequest(c, 16008, "无效的考勤状态")
	default:
		response.InternalError(c)
	}
}
