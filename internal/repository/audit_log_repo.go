package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/atakdmr/StudentAttendance/internal/model"
)

// AuditLogRepository 操作日志数据访问接口
type AuditLogRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.AuditLog, int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type auditLogRepo struct {
	db *gorm.DB
}

// NewAuditLogRepo 创建 AuditLogRepository 实例
func NewAuditLogRepo(db *gorm.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Create(ctx context.Context, log *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *auditLogRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.AuditLog{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *auditLogRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.AuditLog{})
	return result.RowsAffected, result.Error
}
