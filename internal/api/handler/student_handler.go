package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/service"
	"github.com/atakdmr/StudentAttendance/pkg/response"
)

// StudentHandler 学生模块 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// ListStudents 学生列表（分页，按姓名 / 学号搜索）
// GET /api/v1/students
func (h *StudentHandler) ListStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	students, total, err := h.studentSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, students, total, req.GetPage(), req.GetPageSize())
}

// GetStudent 学生详情
// GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	student, err := h.studentSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// CreateStudent 创建学生
// POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	student, err := h.studentSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.Created(c, student)
}

// UpdateStudent 更新学生
// PUT /api/v1/students/:id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	student, err := h.studentSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// DeleteStudent 删除学生
// DELETE /api/v1/students/:id
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	if err := h.studentSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, nil)
}

// ImportStudents Excel 导入学生名册
// POST /api/v1/students/import  (multipart: file, group_id)
func (h *StudentHandler) ImportStudents(c *gin.Context) {
	groupID := c.PostForm("group_id")
	if groupID == "" {
		response.BadRequest(c, 10001, "group_id 不能为空")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 14006, "请上传 Excel 文件")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 14006, "请上传 Excel 文件")
		return
	}
	defer f.Close()

	rows, err := service.ParseStudentImportFile(f)
	if err != nil {
		if errors.Is(err, service.ErrImportNoData) || errors.Is(err, service.ErrImportTooManyRows) || errors.Is(err, service.ErrImportBadHeader) {
			h.handleStudentError(c, err)
			return
		}
		response.BadRequest(c, 14007, "无法解析 Excel 文件")
		return
	}

	result, err := h.studentSvc.ImportStudents(c.Request.Context(), groupID, rows)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 14001, "学生不存在")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 14002, "班级不存在")
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 14003, err.Error())
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 14004, err.Error())
	case errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 14005, err.Error())
	default:
		response.InternalError(c)
	}
}
