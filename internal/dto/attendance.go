package dto

import (
	"time"

	"github.com/atakdmr/StudentAttendance/internal/model"
)

// ── 考勤模块 ──

// OpenSessionRequest 开启（或获取）考勤会话
// ScheduledAt 为空时取课程的下一次上课时间
type OpenSessionRequest struct {
	LessonID    string     `json:"lesson_id"    binding:"required"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// MarkEntry 单条考勤标记
// Version 为调用方最后看到的记录版本；记录不存在时可为空
type MarkEntry struct {
	StudentID   string                 `json:"student_id"   binding:"required"`
	Status      model.AttendanceStatus `json:"status"       binding:"required,oneof=present absent late excused"`
	LateMinutes *int                   `json:"late_minutes" binding:"omitempty,min=0,max=600"`
	Note        *string                `json:"note"         binding:"omitempty,max=500"`
	Version     *int                   `json:"version"`
}

// BulkMarkRequest 批量标记
type BulkMarkRequest struct {
	Entries []MarkEntry `json:"entries" binding:"required,min=1,dive"`
}

// SessionResponse 考勤会话信息
type SessionResponse struct {
	ID          string     `json:"id"`
	LessonID    string     `json:"lesson_id"`
	LessonTitle string     `json:"lesson_title,omitempty"`
	GroupID     string     `json:"group_id"`
	GroupName   string     `json:"group_name,omitempty"`
	TeacherID   string     `json:"teacher_id"`
	TeacherName string     `json:"teacher_name,omitempty"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

// SessionStudentRow 会话视图中的一名学生；未标记时默认 present 且无版本号
type SessionStudentRow struct {
	StudentID     string                 `json:"student_id"`
	StudentNumber string                 `json:"student_number"`
	FirstName     string                 `json:"first_name"`
	LastName      string                 `json:"last_name"`
	FullName      string                 `json:"full_name"`
	Status        model.AttendanceStatus `json:"status"`
	LateMinutes   *int                   `json:"late_minutes,omitempty"`
	Note          *string                `json:"note,omitempty"`
	MarkedAt      *time.Time             `json:"marked_at,omitempty"`
	Version       *int                   `json:"version,omitempty"`
}

// SessionViewResponse 考勤会话视图
type SessionViewResponse struct {
	Session  SessionResponse     `json:"session"`
	Students []SessionStudentRow `json:"students"`
}
