package dto

import (
	"time"

	"github.com/atakdmr/StudentAttendance/internal/model"
)

// ── 报表模块 ──

// AttendanceSummary 出勤汇总
type AttendanceSummary struct {
	Total          int     `json:"total"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	Excused        int     `json:"excused"`
	AttendanceRate float64 `json:"attendance_rate"` // (present + late) / total * 100
}

// StudentReportItem 学生报表中的一次课
type StudentReportItem struct {
	SessionID   string                 `json:"session_id"`
	ScheduledAt time.Time              `json:"scheduled_at"`
	LessonTitle string                 `json:"lesson_title"`
	Status      model.AttendanceStatus `json:"status"`
	LateMinutes *int                   `json:"late_minutes,omitempty"`
	Note        *string                `json:"note,omitempty"`
}

// StudentReportResponse 学生出勤报表
type StudentReportResponse struct {
	Student StudentResponse     `json:"student"`
	From    string              `json:"from"`
	To      string              `json:"to"`
	Records []StudentReportItem `json:"records"`
	Summary AttendanceSummary   `json:"summary"`
}

// StudentSummary 班级报表中的一名学生
type StudentSummary struct {
	Student StudentResponse   `json:"student"`
	Summary AttendanceSummary `json:"summary"`
}

// GroupReportResponse 班级出勤报表
type GroupReportResponse struct {
	Group    GroupResponse    `json:"group"`
	From     string           `json:"from"`
	To       string           `json:"to"`
	Students []StudentSummary `json:"students"`
}

// FinalizedSessionsRequest 已定稿会话查询
type FinalizedSessionsRequest struct {
	GroupID string `form:"group_id"`
}
