package model

import "time"

// SessionStatus 考勤会话状态
type SessionStatus string

const (
	SessionOpen      SessionStatus = "open"
	SessionClosed    SessionStatus = "closed"
	SessionFinalized SessionStatus = "finalized"
)

// Valid 是否为合法状态
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionOpen, SessionClosed, SessionFinalized:
		return true
	}
	return false
}

// AttendanceStatus 考勤记录状态
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
	StatusExcused AttendanceStatus = "excused"
)

// Valid 是否为合法状态
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// AttendanceSession 考勤会话表，对应 attendance_sessions
// GroupID / TeacherID 为开课时从课程复制的快照
type AttendanceSession struct {
	SessionID   string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	LessonID    string        `gorm:"type:uuid;not null"                             json:"lesson_id"`
	GroupID     string        `gorm:"type:uuid;not null"                             json:"group_id"`
	TeacherID   string        `gorm:"type:uuid;not null"                             json:"teacher_id"`
	ScheduledAt time.Time     `gorm:"not null"                                       json:"scheduled_at"`
	Status      SessionStatus `gorm:"type:varchar(20);not null;default:'open'"       json:"status"`
	CreatedAt   time.Time     `gorm:"not null"                                       json:"created_at"`
	EndTime     *time.Time    `json:"end_time,omitempty"`

	// 关联
	Lesson  *Lesson `gorm:"foreignKey:LessonID;references:LessonID" json:"lesson,omitempty"`
	Group   *Group  `gorm:"foreignKey:GroupID;references:GroupID"   json:"group,omitempty"`
	Teacher *User   `gorm:"foreignKey:TeacherID;references:UserID"  json:"teacher,omitempty"`
}

// TableName 指定表名
func (AttendanceSession) TableName() string { return "attendance_sessions" }

// IsFinalized 是否已定稿
func (s *AttendanceSession) IsFinalized() bool { return s.Status == SessionFinalized }

// AttendanceRecord 考勤记录表，对应 attendance_records
// Version 为行版本号，每次更新 +1，用于乐观并发控制
type AttendanceRecord struct {
	RecordID    string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"record_id"`
	SessionID   string           `gorm:"type:uuid;not null"                             json:"session_id"`
	StudentID   string           `gorm:"type:uuid;not null"                             json:"student_id"`
	Status      AttendanceStatus `gorm:"type:varchar(20);not null;default:'present'"    json:"status"`
	LateMinutes *int             `json:"late_minutes,omitempty"`
	Note        *string          `gorm:"type:varchar(500)"                              json:"note,omitempty"`
	MarkedAt    time.Time        `gorm:"not null"                                       json:"marked_at"`
	MarkedBy    string           `gorm:"type:uuid;not null"                             json:"marked_by"`
	Version     int              `gorm:"not null;default:1"                             json:"version"`

	// 关联
	Student *Student           `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Session *AttendanceSession `gorm:"foreignKey:SessionID;references:SessionID" json:"session,omitempty"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }
