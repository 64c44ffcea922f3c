package dto

// ── 学生模块 ──

// CreateStudentRequest 创建学生
type CreateStudentRequest struct {
	FirstName     string  `json:"first_name"     binding:"required,max=60"`
	LastName      string  `json:"last_name"      binding:"required,max=60"`
	StudentNumber string  `json:"student_number" binding:"required,max=30"`
	Phone         *string `json:"phone"          binding:"omitempty,max=20"`
	GroupID       string  `json:"group_id"       binding:"required"`
}

// UpdateStudentRequest 更新学生
type UpdateStudentRequest struct {
	FirstName     *string `json:"first_name"     binding:"omitempty,min=1,max=60"`
	LastName      *string `json:"last_name"      binding:"omitempty,min=1,max=60"`
	StudentNumber *string `json:"student_number" binding:"omitempty,min=1,max=30"`
	Phone         *string `json:"phone"          binding:"omitempty,max=20"`
	GroupID       *string `json:"group_id"`
	IsActive      *bool   `json:"is_active"`
}

// StudentListRequest 学生列表查询
type StudentListRequest struct {
	PaginationRequest
	GroupID         string `form:"group_id"`
	Search          string `form:"search"           binding:"omitempty,max=100"`
	IncludeInactive bool   `form:"include_inactive"`
}

// StudentResponse 学生信息
type StudentResponse struct {
	ID            string  `json:"id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	FullName      string  `json:"full_name"`
	StudentNumber string  `json:"student_number"`
	Phone         *string `json:"phone,omitempty"`
	GroupID       string  `json:"group_id"`
	GroupName     string  `json:"group_name,omitempty"`
	IsActive      bool    `json:"is_active"`
}

// ImportStudentError 导入失败的行
type ImportStudentError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportStudentResponse Excel 导入结果
type ImportStudentResponse struct {
	Total   int                  `json:"total"`
	Success int                  `json:"success"`
	Failed  int                  `json:"failed"`
	Errors  []ImportStudentError `json:"errors,omitempty"`
}
