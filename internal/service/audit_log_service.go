package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/internal/repository"
)

// AuditLogService 操作日志 / 通知业务接口
type AuditLogService interface {
	Record(ctx context.Context, userID, action, entityType, entityID string, details interface{}) error
	List(ctx context.Context, userID string, req *dto.PaginationRequest) ([]dto.NotificationResponse, int64, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

type auditLogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuditLogService 创建 AuditLogService 实例
func NewAuditLogService(repo *repository.Repository, logger *zap.Logger) AuditLogService {
	return &auditLogService{repo: repo, logger: logger}
}

func (s *auditLogService) Record(ctx context.Context, userID, action, entityType, entityID string, details interface{}) error {
	entry, err := newAuditLog(userID, action, entityType, entityID, details)
	if err != nil {
		return err
	}
	if err := s.repo.AuditLog.Create(ctx, entry); err != nil {
		s.logger.Error("写入操作日志失败", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *auditLogService) List(ctx context.Context, userID string, req *dto.PaginationRequest) ([]dto.NotificationResponse, int64, error) {
	logs, total, err := s.repo.AuditLog.ListByUser(ctx, userID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NotificationResponse, 0, len(logs))
	for i := range logs {
		result = append(result, dto.NotificationResponse{
			ID:         logs[i].AuditLogID,
			Action:     logs[i].Action,
			EntityType: logs[i].EntityType,
			EntityID:   logs[i].EntityID,
			Details:    json.RawMessage(logs[i].Details),
			CreatedAt:  logs[i].CreatedAt,
		})
	}
	return result, total, nil
}

func (s *auditLogService) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.AuditLog.DeleteByUser(ctx, userID)
	if err != nil {
		s.logger.Error("清空通知失败", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

func newAuditLog(userID, action, entityType, entityID string, details interface{}) (*model.AuditLog, error) {
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
	}
	if entityID != "" {
		entry.EntityID = &entityID
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return nil, err
		}
		entry.Details = datatypes.JSON(raw)
	}
	return entry, nil
}

// writeAudit 尽力写入操作日志，失败只记录告警，不影响主流程
func writeAudit(ctx context.Context, repo *repository.Repository, logger *zap.Logger, userID, action, entityType, entityID string, details interface{}) {
	entry, err := newAuditLog(userID, action, entityType, entityID, details)
	if err == nil {
		err = repo.AuditLog.Create(ctx, entry)
	}
	if err != nil {
		logger.Warn("写入操作日志失败",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}
