package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/atakdmr/StudentAttendance/internal/model"
)

// GroupRepository 班级数据访问接口
type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	GetByCode(ctx context.Context, code string) (*model.Group, error)
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.Group, error)
	// BatchCountStudents 批量统计各班级在读学生数
	BatchCountStudents(ctx context.Context, groupIDs []string) (map[string]int64, error)
}

type groupRepo struct {
	db *gorm.DB
}

// NewGroupRepo 创建 GroupRepository 实例
func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) Create(ctx context.Context, group *model.Group) error {
	return translateError(r.db.WithContext(ctx).Create(group).Error)
}

func (r *groupRepo) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).Where("group_id = ?", id).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) GetByCode(ctx context.Context, code string) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) Update(ctx context.Context, group *model.Group) error {
	return translateError(r.db.WithContext(ctx).Save(group).Error)
}

func (r *groupRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("group_id = ?", id).Delete(&model.Group{}).Error
}

func (r *groupRepo) List(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).Order("name ASC").Find(&groups).Error
	return groups, err
}

func (r *groupRepo) BatchCountStudents(ctx context.Context, groupIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(groupIDs))
	if len(groupIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		GroupID string
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Select("group_id, COUNT(*) AS count").
		Where("group_id IN ? AND is_active = ?", groupIDs, true).
		Group("group_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.GroupID] = row.Count
	}
	return result, nil
}
