package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atakdmr/StudentAttendance/internal/model"
	pkgerrors "github.com/atakdmr/StudentAttendance/pkg/errors"
)

// AbsenceFilter 缺勤查询条件（仅已定稿会话中的 absent 记录）
type AbsenceFilter struct {
	GroupID string
	From    *time.Time // scheduled_at >= From
	To      *time.Time // scheduled_at < To
}

// AttendanceRecordRepository 考勤记录数据访问接口
type AttendanceRecordRepository interface {
	// Create 插入记录；(session_id, student_id) 冲突时返回 ErrDuplicateKey
	Create(ctx context.Context, record *model.AttendanceRecord) error
	GetBySessionAndStudent(ctx context.Context, sessionID, studentID string) (*model.AttendanceRecord, error)
	// Update 以 record.Version 为期望版本做条件更新，成功后 Version +1；不匹配返回 ErrOptimisticLock
	Update(ctx context.Context, record *model.AttendanceRecord) error
	ListBySession(ctx context.Context, sessionID string) ([]model.AttendanceRecord, error)
	// ListByStudentsBetween 学生在时间段内的记录（含会话与课程），scheduled_at 倒序
	ListByStudentsBetween(ctx context.Context, studentIDs []string, from, to time.Time) ([]model.AttendanceRecord, error)
	ListAbsences(ctx context.Context, filter AbsenceFilter) ([]model.AttendanceRecord, error)
}

type attendanceRecordRepo struct {
	db *gorm.DB
}

// NewAttendanceRecordRepo 创建 AttendanceRecordRepository 实例
func NewAttendanceRecordRepo(db *gorm.DB) AttendanceRecordRepository {
	return &attendanceRecordRepo{db: db}
}

func (r *attendanceRecordRepo) Create(ctx context.Context, record *model.AttendanceRecord) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(record).Error)
}

func (r *attendanceRecordRepo) GetBySessionAndStudent(ctx context.Context, sessionID, studentID string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND student_id = ?", sessionID, studentID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRecordRepo) Update(ctx context.Context, record *model.AttendanceRecord) error {
	oldVersion := record.Version
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("record_id = ? AND version = ?", record.RecordID, oldVersion).
		Updates(map[string]interface{}{
			"status":       record.Status,
			"late_minutes": record.LateMinutes,
			"note":         record.Note,
			"marked_at":    record.MarkedAt,
			"marked_by":    record.MarkedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	record.Version = oldVersion + 1
	return nil
}

func (r *attendanceRecordRepo) ListBySession(ctx context.Context, sessionID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("session_id = ?", sessionID).
		Find(&records).Error
	return records, err
}

func (r *attendanceRecordRepo) ListByStudentsBetween(ctx context.Context, studentIDs []string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	if len(studentIDs) == 0 {
		return records, nil
	}
	err := r.db.WithContext(ctx).
		Joins("JOIN attendance_sessions s ON s.session_id = attendance_records.session_id").
		Preload("Session.Lesson").
		Where("attendance_records.student_id IN ?", studentIDs).
		Where("s.scheduled_at >= ? AND s.scheduled_at < ?", from, to).
		Order("s.scheduled_at DESC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRecordRepo) ListAbsences(ctx context.Context, filter AbsenceFilter) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord

	db := r.db.WithContext(ctx).
		Joins("JOIN attendance_sessions s ON s.session_id = attendance_records.session_id").
		Where("attendance_records.status = ? AND s.status = ?", model.StatusAbsent, model.SessionFinalized)
	if filter.GroupID != "" {
		db = db.Where("s.group_id = ?", filter.GroupID)
	}
	if filter.From != nil {
		db = db.Where("s.scheduled_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("s.scheduled_at < ?", *filter.To)
	}

	err := db.Preload("Student").
		Preload("Session.Lesson").
		Preload("Session.Group").
		Order("s.scheduled_at DESC").
		Find(&records).Error
	return records, err
}
