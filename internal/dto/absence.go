package dto

import "time"

// ── 缺勤模块 ──

// AbsenceListRequest 缺勤列表查询
type AbsenceListRequest struct {
	GroupID   string `form:"group_id"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date"   binding:"omitempty,datetime=2006-01-02"`
	Search    string `form:"search"     binding:"omitempty,max=100"`
	SortBy    string `form:"sort_by"    binding:"omitempty,oneof=date student group lesson"`
}

// AbsenceResponse 一条缺勤记录
type AbsenceResponse struct {
	RecordID      string    `json:"record_id"`
	SessionID     string    `json:"session_id"`
	StudentID     string    `json:"student_id"`
	StudentName   string    `json:"student_name"`
	StudentNumber string    `json:"student_number"`
	Phone         *string   `json:"phone,omitempty"`
	GroupName     string    `json:"group_name"`
	LessonTitle   string    `json:"lesson_title"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Note          *string   `json:"note,omitempty"`
}

// NotifyAbsencesResponse 缺勤短信通知结果
type NotifyAbsencesResponse struct {
	Recipients int `json:"recipients"`
	Sent       int `json:"sent"`
}
