package dto

import "time"

// ── 课程模块 ──

// LessonRequest 创建 / 更新课程（时间格式 HH:mm）
type LessonRequest struct {
	Title     string `json:"title"       binding:"required,max=150"`
	DayOfWeek int    `json:"day_of_week" binding:"required,weekday"`
	StartTime string `json:"start_time"  binding:"required,hhmm"`
	EndTime   string `json:"end_time"    binding:"required,hhmm"`
	GroupID   string `json:"group_id"    binding:"required"`
	TeacherID string `json:"teacher_id"`
	IsActive  *bool  `json:"is_active"`
}

// LessonListRequest 课程列表查询
type LessonListRequest struct {
	GroupID    string `form:"group_id"`
	TeacherID  string `form:"teacher_id"`
	Title      string `form:"title"       binding:"omitempty,max=150"`
	DayOfWeek  int    `form:"day_of_week" binding:"omitempty,weekday"`
	ActiveOnly bool   `form:"active_only"`
}

// LessonResponse 课程信息
type LessonResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	GroupID     string `json:"group_id"`
	GroupName   string `json:"group_name,omitempty"`
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// ConflictCheckRequest 冲突检查（查询参数）
// 教师调用时 TeacherID 由服务端填充
type ConflictCheckRequest struct {
	TeacherID       string `form:"teacher_id"`
	GroupID         string `form:"group_id"          binding:"required"`
	DayOfWeek       int    `form:"day_of_week"       binding:"required,weekday"`
	StartTime       string `form:"start_time"        binding:"required,hhmm"`
	EndTime         string `form:"end_time"          binding:"required,hhmm"`
	ExcludeLessonID string `form:"exclude_lesson_id"`
}

// 冲突类型
const (
	ConflictTeacher = "teacher"
	ConflictGroup   = "group"
)

// ConflictResult 冲突检查结果
type ConflictResult struct {
	HasConflict    bool   `json:"has_conflict"`
	Type           string `json:"type,omitempty"`
	LessonID       string `json:"lesson_id,omitempty"`
	LessonTitle    string `json:"lesson_title,omitempty"`
	Start          string `json:"start,omitempty"`
	End            string `json:"end,omitempty"`
	OtherPartyName string `json:"other_party_name,omitempty"`
	Message        string `json:"message,omitempty"`
}

// ScheduleDay 周课表中的一天
type ScheduleDay struct {
	DayOfWeek int              `json:"day_of_week"`
	DayName   string           `json:"day_name"`
	Lessons   []LessonResponse `json:"lessons"`
}

// LessonToStartResponse 本周尚待开始考勤的课程
type LessonToStartResponse struct {
	LessonResponse
	NextScheduledAt time.Time `json:"next_scheduled_at"`
}
