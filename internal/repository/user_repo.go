package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/atakdmr/StudentAttendance/internal/model"
	pkgerrors "github.com/atakdmr/StudentAttendance/pkg/errors"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, role string, offset, limit int) ([]model.User, int64, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock
func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	oldVersion := user.Version
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ? AND version = ?", user.UserID, oldVersion).
		Updates(map[string]interface{}{
			"username":      user.Username,
			"password_hash": user.PasswordHash,
			"full_name":     user.FullName,
			"role":          user.Role,
			"is_active":     user.IsActive,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version = oldVersion + 1
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", id).
		Delete(&model.User{}).Error
}

func (r *userRepo) List(ctx context.Context, role string, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if role != "" {
		db = db.Where("role = ?", role)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("full_name ASC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}
