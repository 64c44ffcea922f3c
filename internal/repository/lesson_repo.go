package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atakdmr/StudentAttendance/internal/model"
)

// LessonFilter 课程查询条件
type LessonFilter struct {
	GroupID    string
	TeacherID  string
	Title      string // 标题子串，不区分大小写
	DayOfWeek  int    // 0 表示不过滤
	ActiveOnly bool
}

// LessonRepository 课程数据访问接口
type LessonRepository interface {
	Create(ctx context.Context, lesson *model.Lesson) error
	GetByID(ctx context.Context, id string) (*model.Lesson, error)
	Update(ctx context.Context, lesson *model.Lesson) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter LessonFilter) ([]model.Lesson, error)
	// ListActiveByTeacherAndDay 教师某星期的有效课程；excludeID 非空时排除该课程
	ListActiveByTeacherAndDay(ctx context.Context, teacherID string, day int, excludeID string) ([]model.Lesson, error)
	// ListActiveByGroupAndDay 班级某星期的有效课程；excludeID 非空时排除该课程
	ListActiveByGroupAndDay(ctx context.Context, groupID string, day int, excludeID string) ([]model.Lesson, error)
}

type lessonRepo struct {
	db *gorm.DB
}

// NewLessonRepo 创建 LessonRepository 实例
func NewLessonRepo(db *gorm.DB) LessonRepository {
	return &lessonRepo{db: db}
}

func (r *lessonRepo) Create(ctx context.Context, lesson *model.Lesson) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(lesson).Error
}

func (r *lessonRepo) GetByID(ctx context.Context, id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.db.WithContext(ctx).
		Preload("Group").
		Preload("Teacher").
		Where("lesson_id = ?", id).
		First(&lesson).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepo) Update(ctx context.Context, lesson *model.Lesson) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(lesson).Error
}

func (r *lessonRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("lesson_id = ?", id).Delete(&model.Lesson{}).Error
}

func (r *lessonRepo) List(ctx context.Context, filter LessonFilter) ([]model.Lesson, error) {
	var lessons []model.Lesson

	db := r.db.WithContext(ctx).Model(&model.Lesson{})
	if filter.GroupID != "" {
		db = db.Where("group_id = ?", filter.GroupID)
	}
	if filter.TeacherID != "" {
		db = db.Where("teacher_id = ?", filter.TeacherID)
	}
	if filter.Title != "" {
		db = db.Where("title ILIKE ?", "%"+filter.Title+"%")
	}
	if filter.DayOfWeek > 0 {
		db = db.Where("day_of_week = ?", filter.DayOfWeek)
	}
	if filter.ActiveOnly {
		db = db.Where("is_active = ?", true)
	}

	err := db.Preload("Group").
		Preload("Teacher").
		Order("day_of_week ASC, start_time ASC").
		Find(&lessons).Error
	return lessons, err
}

func (r *lessonRepo) ListActiveByTeacherAndDay(ctx context.Context, teacherID string, day int, excludeID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	db := r.db.WithContext(ctx).
		Preload("Group").
		Where("teacher_id = ? AND day_of_week = ? AND is_active = ?", teacherID, day, true)
	if excludeID != "" {
		db = db.Where("lesson_id <> ?", excludeID)
	}
	err := db.Order("start_time ASC").Find(&lessons).Error
	return lessons, err
}

func (r *lessonRepo) ListActiveByGroupAndDay(ctx context.Context, groupID string, day int, excludeID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	db := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("group_id = ? AND day_of_week = ? AND is_active = ?", groupID, day, true)
	if excludeID != "" {
		db = db.Where("lesson_id <> ?", excludeID)
	}
	err := db.Order("start_time ASC").Find(&lessons).Error
	return lessons, err
}
