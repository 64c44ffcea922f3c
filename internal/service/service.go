package service

import (
	"go.uber.org/zap"

	"github.com/atakdmr/StudentAttendance/internal/repository"
	"github.com/atakdmr/StudentAttendance/pkg/jwt"
	"github.com/atakdmr/StudentAttendance/pkg/redis"
	"github.com/atakdmr/StudentAttendance/pkg/sms"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Group        GroupService
	Student      StudentService
	Lesson       LessonService
	Conflict     ConflictService
	Attendance   AttendanceService
	Absence      AbsenceService
	Report       ReportService
	AuditLog     AuditLogService
	Announcement AnnouncementService
}

// NewService 创建 Service 聚合
// rdb 与 smsSender 均可为 nil：Redis 不可用时不做 Token 黑名单，短信未配置时通知接口返回不可用
func NewService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	smsSender sms.Sender,
	logger *zap.Logger,
) *Service {
	// 避免把 nil *redis.Client 装进非 nil 接口
	var blacklist TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}

	conflict := NewConflictService(repo, logger)
	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, blacklist, logger),
		User:         NewUserService(repo, logger),
		Group:        NewGroupService(repo, logger),
		Student:      NewStudentService(repo, logger),
		Lesson:       NewLessonService(repo, conflict, logger),
		Conflict:     conflict,
		Attendance:   NewAttendanceService(repo, logger),
		Absence:      NewAbsenceService(repo, smsSender, logger),
		Report:       NewReportService(repo, logger),
		AuditLog:     NewAuditLogService(repo, logger),
		Announcement: NewAnnouncementService(repo, logger),
	}
}
