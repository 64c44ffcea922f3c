package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/atakdmr/StudentAttendance/internal/model"
)

// StudentFilter 学生查询条件
type StudentFilter struct {
	GroupID         string
	Search          string // 匹配姓名或学号
	IncludeInactive bool
}

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter StudentFilter, offset, limit int) ([]model.Student, int64, error)
	// ListActiveByGroup 班级在读学生，按姓、名排序
	ListActiveByGroup(ctx context.Context, groupID string) ([]model.Student, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return translateError(r.db.WithContext(ctx).Create(student).Error)
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("Group").
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Omit("Group").Save(student).Error
}

func (r *studentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("student_id = ?", id).Delete(&model.Student{}).Error
}

func (r *studentRepo) List(ctx context.Context, filter StudentFilter, offset, limit int) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Student{})
	if filter.GroupID != "" {
		db = db.Where("group_id = ?", filter.GroupID)
	}
	if !filter.IncludeInactive {
		db = db.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("(first_name ILIKE ? OR last_name ILIKE ? OR student_number ILIKE ?)", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Group").
		Offset(offset).Limit(limit).
		Order("last_name ASC, first_name ASC").
		Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepo) ListActiveByGroup(ctx context.Context, groupID string) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND is_active = ?", groupID, true).
		Order("last_name ASC, first_name ASC").
		Find(&students).Error
	return students, err
}
