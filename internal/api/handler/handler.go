package handler

import (
	"github.com/atakdmr/StudentAttendance/config"
	"github.com/atakdmr/StudentAttendance/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Group        *GroupHandler
	Student      *StudentHandler
	Lesson       *LessonHandler
	Attendance   *AttendanceHandler
	Absence      *AbsenceHandler
	Report       *ReportHandler
	Notification *NotificationHandler
	Announcement *AnnouncementHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, cookieCfg *config.CookieConfig) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, cookieCfg),
		User:         NewUserHandler(svc.User),
		Group:        NewGroupHandler(svc.Group),
		Student:      NewStudentHandler(svc.Student),
		Lesson:       NewLessonHandler(svc.Lesson, svc.Attendance),
		Attendance:   NewAttendanceHandler(svc.Attendance, svc.Lesson),
		Absence:      NewAbsenceHandler(svc.Absence),
		Report:       NewReportHandler(svc.Report, svc.Attendance),
		Notification: NewNotificationHandler(svc.AuditLog),
		Announcement: NewAnnouncementHandler(svc.Announcement),
	}
}
