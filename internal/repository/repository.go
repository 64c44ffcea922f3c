package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxFunc 在同一事务内执行 fn，fn 收到绑定该事务的 Repository
type TxFunc func(ctx context.Context, fn func(repo *Repository) error) error

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User              UserRepository
	Group             GroupRepository
	Student           StudentRepository
	Lesson            LessonRepository
	AttendanceSession AttendanceSessionRepository
	AttendanceRecord  AttendanceRecordRepository
	AuditLog          AuditLogRepository
	Announcement      AnnouncementRepository

	// Tx 为 nil 时 Transaction 直接在当前 Repository 上执行（单元测试用）
	Tx TxFunc
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	repo := newRepository(db)
	repo.Tx = func(ctx context.Context, fn func(repo *Repository) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(newRepository(tx))
		})
	}
	return repo
}

func newRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:              NewUserRepo(db),
		Group:             NewGroupRepo(db),
		Student:           NewStudentRepo(db),
		Lesson:            NewLessonRepo(db),
		AttendanceSession: NewAttendanceSessionRepo(db),
		AttendanceRecord:  NewAttendanceRecordRepo(db),
		AuditLog:          NewAuditLogRepo(db),
		Announcement:      NewAnnouncementRepo(db),
	}
}

// Transaction 在单个数据库事务中执行 fn；fn 返回错误时整体回滚
func (r *Repository) Transaction(ctx context.Context, fn func(repo *Repository) error) error {
	if r.Tx == nil {
		return fn(r)
	}
	return r.Tx(ctx, fn)
}
