package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/internal/repository"
	pkgerrors "github.com/atakdmr/StudentAttendance/pkg/errors"
)

// ── 班级模块业务错误 ──

var (
	ErrGroupNotFound   = errors.New("班级不存在")
	ErrGroupCodeExists = errors.New("班级代码已存在")
)

// GroupService 班级业务接口
type GroupService interface {
	Create(ctx context.Context, req *dto.CreateGroupRequest) (*dto.GroupResponse, error)
	GetByID(ctx context.Context, id string) (*dto.GroupResponse, error)
	List(ctx context.Context) ([]dto.GroupResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateGroupRequest) (*dto.GroupResponse, error)
	Delete(ctx context.Context, id string) error
}

type groupService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGroupService 创建 GroupService 实例
func NewGroupService(repo *repository.Repository, logger *zap.Logger) GroupService {
	return &groupService{repo: repo, logger: logger}
}

func (s *groupService) Create(ctx context.Context, req *dto.CreateGroupRequest) (*dto.GroupResponse, error) {
	if err := s.ensureCodeFree(ctx, req.Code, ""); err != nil {
		return nil, err
	}

	group := &model.Group{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
	}
	if err := s.repo.Group.Create(ctx, group); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, ErrGroupCodeExists
		}
		s.logger.Error("创建班级失败", zap.Error(err))
		return nil, err
	}

	resp := toGroupResponse(group, 0)
	return &resp, nil
}

func (s *groupService) GetByID(ctx context.Context, id string) (*dto.GroupResponse, error) {
	group, err := s.getGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.Group.BatchCountStudents(ctx, []string{id})
	if err != nil {
		s.logger.Warn("查询班级学生数失败，回退为0", zap.Error(err))
		counts = map[string]int64{}
	}

	resp := toGroupResponse(group, counts[id])
	return &resp, nil
}

func (s *groupService) List(ctx context.Context) ([]dto.GroupResponse, error) {
	groups, err := s.repo.Group.List(ctx)
	if err != nil {
		s.logger.Error("查询班级列表失败", zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.GroupID)
	}
	counts, err := s.repo.Group.BatchCountStudents(ctx, ids)
	if err != nil {
		s.logger.Warn("批量查询班级学生数失败，回退为0", zap.Error(err))
		counts = map[string]int64{}
	}

	result := make([]dto.GroupResponse, 0, len(groups))
	for i := range groups {
		result = append(result, toGroupResponse(&groups[i], counts[groups[i].GroupID]))
	}
	return result, nil
}

func (s *groupService) Update(ctx context.Context, id string, req *dto.UpdateGroupRequest) (*dto.GroupResponse, error) {
	group, err := s.getGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil && *req.Code != group.Code {
		if err := s.ensureCodeFree(ctx, *req.Code, id); err != nil {
			return nil, err
		}
		group.Code = *req.Code
	}
	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = req.Description
	}
	group.UpdatedAt = time.Now()

	if err := s.repo.Group.Update(ctx, group); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, ErrGroupCodeExists
		}
		s.logger.Error("更新班级失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, id)
}

func (s *groupService) Delete(ctx context.Context, id string) error {
	if _, err := s.getGroup(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Group.Delete(ctx, id); err != nil {
		s.logger.Error("删除班级失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *groupService) getGroup(ctx context.Context, id string) (*model.Group, error) {
	group, err := s.repo.Group.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		s.logger.Error("查询班级失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return group, nil
}

func (s *groupService) ensureCodeFree(ctx context.Context, code, selfID string) error {
	existing, err := s.repo.Group.GetByCode(ctx, code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询班级代码失败", zap.Error(err))
		return err
	}
	if existing != nil && existing.GroupID != selfID {
		return ErrGroupCodeExists
	}
	return nil
}

func toGroupResponse(g *model.Group, studentCount int64) dto.GroupResponse {
	return dto.GroupResponse{
		ID:           g.GroupID,
		Name:         g.Name,
		Code:         g.Code,
		Description:  g.Description,
		StudentCount: studentCount,
		CreatedAt:    g.CreatedAt.Format(time.RFC3339),
	}
}
