package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atakdmr/StudentAttendance/internal/model"
)

// SessionFilter 考勤会话查询条件
type SessionFilter struct {
	TeacherID string
	GroupID   string
	LessonID  string
	Status    model.SessionStatus // 精确匹配
	NotStatus model.SessionStatus // 排除该状态
	From      *time.Time          // scheduled_at >= From
	To        *time.Time          // scheduled_at < To
}

// AttendanceSessionRepository 考勤会话数据访问接口
type AttendanceSessionRepository interface {
	Create(ctx context.Context, session *model.AttendanceSession) error
	GetByID(ctx context.Context, id string) (*model.AttendanceSession, error)
	// GetByIDForShare 事务内以 FOR SHARE 读取会话，阻止并发定稿直到事务结束
	GetByIDForShare(ctx context.Context, id string) (*model.AttendanceSession, error)
	// FindByLessonAndTime 按 (lesson_id, scheduled_at) 精确查找
	FindByLessonAndTime(ctx context.Context, lessonID string, scheduledAt time.Time) (*model.AttendanceSession, error)
	// Finalize 条件更新为 finalized，返回是否发生了状态迁移
	Finalize(ctx context.Context, id string, endTime time.Time) (bool, error)
	// List 按条件查询，scheduled_at 倒序
	List(ctx context.Context, filter SessionFilter) ([]model.AttendanceSession, error)
}

type attendanceSessionRepo struct {
	db *gorm.DB
}

// NewAttendanceSessionRepo 创建 AttendanceSessionRepository 实例
func NewAttendanceSessionRepo(db *gorm.DB) AttendanceSessionRepository {
	return &attendanceSessionRepo{db: db}
}

func (r *attendanceSessionRepo) Create(ctx context.Context, session *model.AttendanceSession) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error
}

func (r *attendanceSessionRepo) GetByID(ctx context.Context, id string) (*model.AttendanceSession, error) {
	var session model.AttendanceSession
	err := r.db.WithContext(ctx).
		Preload("Lesson").
		Preload("Group").
		Preload("Teacher").
		Where("session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *attendanceSessionRepo) GetByIDForShare(ctx context.Context, id string) (*model.AttendanceSession, error) {
	var session model.AttendanceSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *attendanceSessionRepo) FindByLessonAndTime(ctx context.Context, lessonID string, scheduledAt time.Time) (*model.AttendanceSession, error) {
	var session model.AttendanceSession
	err := r.db.WithContext(ctx).
		Where("lesson_id = ? AND scheduled_at = ?", lessonID, scheduledAt).
		Order("created_at ASC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *attendanceSessionRepo) Finalize(ctx context.Context, id string, endTime time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceSession{}).
		Where("session_id = ? AND status <> ?", id, model.SessionFinalized).
		Updates(map[string]interface{}{
			"status":   model.SessionFinalized,
			"end_time": endTime,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *attendanceSessionRepo) List(ctx context.Context, filter SessionFilter) ([]model.AttendanceSession, error) {
	var sessions []model.AttendanceSession

	db := r.db.WithContext(ctx).Model(&model.AttendanceSession{})
	if filter.TeacherID != "" {
		db = db.Where("teacher_id = ?", filter.TeacherID)
	}
	if filter.GroupID != "" {
		db = db.Where("group_id = ?", filter.GroupID)
	}
	if filter.LessonID != "" {
		db = db.Where("lesson_id = ?", filter.LessonID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.NotStatus != "" {
		db = db.Where("status <> ?", filter.NotStatus)
	}
	if filter.From != nil {
		db = db.Where("scheduled_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("scheduled_at < ?", *filter.To)
	}

	err := db.Preload("Lesson").
		Preload("Group").
		Preload("Teacher").
		Order("scheduled_at DESC").
		Find(&sessions).Error
	return sessions, err
}
