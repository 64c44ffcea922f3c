package dto

// ── 用户模块 ──

// UserResponse 用户信息（脱敏）
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	Version   int    `json:"version"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateUserRequest 创建用户
type CreateUserRequest struct {
	Username string `json:"username"  binding:"required,min=3,max=50"`
	Password string `json:"password"  binding:"required,min=6,max=128"`
	FullName string `json:"full_name" binding:"required,max=100"`
	Role     string `json:"role"      binding:"required,oneof=admin teacher"`
}

// UpdateUserRequest 更新用户（指针字段为 nil 表示不修改）
type UpdateUserRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=100"`
	Role     *string `json:"role"      binding:"omitempty,oneof=admin teacher"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"  binding:"omitempty,min=6,max=128"`
	Version  int     `json:"version"   binding:"required,min=1"`
}

// UserListRequest 用户列表查询
type UserListRequest struct {
	PaginationRequest
	Role string `form:"role" binding:"omitempty,oneof=admin teacher"`
}
