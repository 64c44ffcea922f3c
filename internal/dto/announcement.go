package dto

// ── 公告模块 ──

// CreateAnnouncementRequest 创建公告
type CreateAnnouncementRequest struct {
	Title    string `json:"title"    binding:"required,max=200"`
	Content  string `json:"content"  binding:"required"`
	Priority int    `json:"priority" binding:"omitempty,min=1,max=3"`
}

// UpdateAnnouncementRequest 更新公告
type UpdateAnnouncementRequest struct {
	Title    *string `json:"title"     binding:"omitempty,min=1,max=200"`
	Content  *string `json:"content"   binding:"omitempty,min=1"`
	Priority *int    `json:"priority"  binding:"omitempty,min=1,max=3"`
	IsActive *bool   `json:"is_active"`
}

// AnnouncementResponse 公告信息
type AnnouncementResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Priority    int    `json:"priority"`
	IsActive    bool   `json:"is_active"`
	CreatedBy   string `json:"created_by"`
	CreatorName string `json:"creator_name,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
