package dto

// ── 班级模块 ──

// CreateGroupRequest 创建班级
type CreateGroupRequest struct {
	Name        string  `json:"name"        binding:"required,max=100"`
	Code        string  `json:"code"        binding:"required,max=30"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// UpdateGroupRequest 更新班级
type UpdateGroupRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=100"`
	Code        *string `json:"code"        binding:"omitempty,min=1,max=30"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// GroupResponse 班级信息
type GroupResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Code         string  `json:"code"`
	Description  *string `json:"description,omitempty"`
	StudentCount int64   `json:"student_count"`
	CreatedAt    string  `json:"created_at"`
}
