package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/service"
	"github.com/atakdmr/StudentAttendance/pkg/response"
)

// LessonHandler 课程模块 HTTP 处理器
// 教师只能查看与维护自己的课程
type LessonHandler struct {
	lessonSvc     service.LessonService
	attendanceSvc service.AttendanceService
}

// NewLessonHandler 创建 LessonHandler
func NewLessonHandler(lessonSvc service.LessonService, attendanceSvc service.AttendanceService) *LessonHandler {
	return &LessonHandler{lessonSvc: lessonSvc, attendanceSvc: attendanceSvc}
}

// ListLessons 课程列表
// GET /api/v1/lessons
func (h *LessonHandler) ListLessons(c *gin.Context) {
	var req dto.LessonListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}
	if !isAdmin(role) {
		req.TeacherID = userID
	}

	lessons, err := h.lessonSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": lessons})
}

// GetLesson 课程详情
// GET /api/v1/lessons/:id
func (h *LessonHandler) GetLesson(c *gin.Context) {
	lesson, ok := h.loadOwnedLesson(c, c.Param("id"))
	if !ok {
		return
	}

	response.OK(c, lesson)
}

// CreateLesson 创建课程（冲突检查后写入）
// POST /api/v1/lessons
func (h *LessonHandler) CreateLesson(c *gin.Context) {
	var req dto.LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}
	if !resolveLessonTeacher(c, &req, userID, role) {
		return
	}

	lesson, err := h.lessonSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleLessonError(c, err)
		return
	}

	response.Created(c, lesson)
}

// UpdateLesson 更新课程
// PUT /api/v1/lessons/:id
func (h *LessonHandler) UpdateLesson(c *gin.Context) {
	var req dto.LessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if _, ok := h.loadOwnedLesson(c, id); !ok {
		return
	}
	if !resolveLessonTeacher(c, &req, userID, role) {
		return
	}

	lesson, err := h.lessonSvc.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleLessonError(c, err)
		return
	}

	response.OK(c, lesson)
}

// DeleteLesson 删除课程
// DELETE /api/v1/lessons/:id
func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.loadOwnedLesson(c, id); !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.lessonSvc.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleLessonError(c, err)
		return
	}

	response.OK(c, nil)
}

// CheckConflicts 冲突预检（表单实时提示）
// GET /api/v1/lessons/conflicts
func (h *LessonHandler) CheckConflicts(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}
	if !isAdmin(role) {
		req.TeacherID = userID
	} else if req.TeacherID == "" {
		response.BadRequest(c, 10001, "teacher_id 不能为空")
		return
	}

	result, err := h.lessonSvc.CheckConflict(c.Request.Context(), &req)
	if err != nil {
		h.handleLessonError(c, err)
		return
	}

	response.OK(c, result)
}

// GetSchedule 周课表
// GET /api/v1/lessons/schedule?teacher_id=xxx
func (h *LessonHandler) GetSchedule(c *gin.Context) {
	userID, role, ok := mustGetCaller(c)
	if !ok {
		return
	}
	teacherID := c.Query("teacher_id")
	if !isAdmin(role) {
		teacherID = userID
	}

	days, err := h.lessonSvc.WeeklySchedule(c.Request.Context(), teacherID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"days": days})
}

// ListLessonSessions 课程的考勤会话历史
// GET /api/v1/lessons/:id/sessions
func (h *LessonHandler) ListLessonSessions(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.loadOwnedLesson(c, id); !ok {
		return
	}

	sessions, err := h.attendanceSvc.ListLessonSessions(c.Request.Context(), id)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": sessions})
}

// loadOwnedLesson 查询课程并校验调用者为管理员或该课程教师
// 失败时已写入响应
func (h *LessonHandler) loadOwnedLesson(c *gin.Context, id string) (*dto.LessonResponse, bool) {
	userID, role, ok := mustGetCaller(c)
	if !ok {
		return nil, false
	}

	lesson, err := h.lessonSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleLessonError(c, err)
		return nil, false
	}
	if !canActOn(userID, role, lesson.TeacherID) {
		response.Forbidden(c, 15007, "只能操作自己的课程")
		return nil, false
	}
	return lesson, true
}

// resolveLessonTeacher 教师只能为自己排课；管理员必须指定 teacher_id
func resolveLessonTeacher(c *gin.Context, req *dto.LessonRequest, userID, role string) bool {
	if !isAdmin(role) {
		req.TeacherID = userID
		return true
	}
	if req.TeacherID == "" {
		response.BadRequest(c, 10001, "teacher_id 不能为空")
		return false
	}
	return true
}

func (h *LessonHandler) handleLessonError(c *gin.Context, err error) {
	var conflictErr *service.LessonConflictError
	switch {
	case errors.As(err, &conflictErr):
		response.ErrorWithDetails(c, http.StatusConflict, 15004, conflictErr.Error(), conflictErr.Result)
	case errors.Is(err, service.ErrLessonNotFound):
		response.NotFound(c, 15001, "课程不存在")
	case errors.Is(err, service.ErrLessonInvalidDay):
		response.BadRequest(c, 15002, "星期必须在 1-7 之间")
	case errors.Is(err, service.ErrLessonInvalidTime), errors.Is(err, service.ErrInvalidClock):
		response.BadRequest(c, 15003, err.Error())
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 15005, "班级不存在")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 15006, "教师不存在")
	default:
		response.InternalError(c)
	}
}
