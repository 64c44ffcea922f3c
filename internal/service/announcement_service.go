package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/internal/repository"
)

// ErrAnnouncementNotFound 公告不存在
var ErrAnnouncementNotFound = errors.New("公告不存在")

// AnnouncementService 公告业务接口
type AnnouncementService interface {
	Create(ctx context.Context, req *dto.CreateAnnouncementRequest, callerID string) (*dto.AnnouncementResponse, error)
	GetByID(ctx context.Context, id string) (*dto.AnnouncementResponse, error)
	// List activeOnly=true 时仅返回有效公告
	List(ctx context.Context, activeOnly bool) ([]dto.AnnouncementResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	Delete(ctx context.Context, id string) error
}

type announcementService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAnnouncementService 创建 AnnouncementService 实例
func NewAnnouncementService(repo *repository.Repository, logger *zap.Logger) AnnouncementService {
	return &announcementService{repo: repo, logger: logger}
}

func (s *announcementService) Create(ctx context.Context, req *dto.CreateAnnouncementRequest, callerID string) (*dto.AnnouncementResponse, error) {
	priority := req.Priority
	if priority == 0 {
		priority = model.PriorityNormal
	}
	now := time.Now()
	a := &model.Announcement{
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Priority:  priority,
		IsActive:  true,
		CreatedBy: callerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Announcement.Create(ctx, a); err != nil {
		s.logger.Error("创建公告失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("公告已创建", zap.String("announcement_id", a.AnnouncementID), zap.String("created_by", callerID))
	resp := toAnnouncementResponse(a)
	return &resp, nil
}

func (s *announcementService) GetByID(ctx context.Context, id string) (*dto.AnnouncementResponse, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toAnnouncementResponse(a)
	return &resp, nil
}

func (s *announcementService) List(ctx context.Context, activeOnly bool) ([]dto.AnnouncementResponse, error) {
	list, err := s.repo.Announcement.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("查询公告列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.AnnouncementResponse, 0, len(list))
	for i := range list {
		result = append(result, toAnnouncementResponse(&list[i]))
	}
	return result, nil
}

func (s *announcementService) Update(ctx context.Context, id string, req *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		a.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		a.Content = *req.Content
	}
	if req.Priority != nil {
		a.Priority = *req.Priority
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	a.UpdatedAt = time.Now()

	if err := s.repo.Announcement.Update(ctx, a); err != nil {
		s.logger.Error("更新公告失败", zap.String("announcement_id", id), zap.Error(err))
		return nil, err
	}
	resp := toAnnouncementResponse(a)
	return &resp, nil
}

func (s *announcementService) Delete(ctx context.Context, id string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Announcement.Delete(ctx, id); err != nil {
		s.logger.Error("删除公告失败", zap.String("announcement_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *announcementService) get(ctx context.Context, id string) (*model.Announcement, error) {
	a, err := s.repo.Announcement.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		s.logger.Error("查询公告失败", zap.String("announcement_id", id), zap.Error(err))
		return nil, err
	}
	return a, nil
}

func toAnnouncementResponse(a *model.Announcement) dto.AnnouncementResponse {
	resp := dto.AnnouncementResponse{
		ID:        a.AnnouncementID,
		Title:     a.Title,
		Content:   a.Content,
		Priority:  a.Priority,
		IsActive:  a.IsActive,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
	if a.Creator != nil {
		resp.CreatorName = a.Creator.FullName
	}
	return resp
}
