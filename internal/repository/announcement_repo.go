package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atakdmr/StudentAttendance/internal/model"
)

// AnnouncementRepository 公告数据访问接口
type AnnouncementRepository interface {
	Create(ctx context.Context, a *model.Announcement) error
	GetByID(ctx context.Context, id string) (*model.Announcement, error)
	Update(ctx context.Context, a *model.Announcement) error
	Delete(ctx context.Context, id string) error
	// List 按优先级倒序、创建时间倒序
	List(ctx context.Context, activeOnly bool) ([]model.Announcement, error)
}

type announcementRepo struct {
	db *gorm.DB
}

// NewAnnouncementRepo 创建 AnnouncementRepository 实例
func NewAnnouncementRepo(db *gorm.DB) AnnouncementRepository {
	return &announcementRepo{db: db}
}

func (r *announcementRepo) Create(ctx context.Context, a *model.Announcement) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

func (r *announcementRepo) GetByID(ctx context.Context, id string) (*model.Announcement, error) {
	var a model.Announcement
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("announcement_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *announcementRepo) Update(ctx context.Context, a *model.Announcement) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(a).Error
}

func (r *announcementRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("announcement_id = ?", id).Delete(&model.Announcement{}).Error
}

func (r *announcementRepo) List(ctx context.Context, activeOnly bool) ([]model.Announcement, error) {
	var list []model.Announcement
	db := r.db.WithContext(ctx).Preload("Creator")
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("priority DESC, created_at DESC").Find(&list).Error
	return list, err
}
