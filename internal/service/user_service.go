package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/internal/repository"
	pkgerrors "github.com/atakdmr/StudentAttendance/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrUsernameExists      = errors.New("用户名已存在")
	ErrUserSelfRoleChange  = errors.New("不能修改自己的角色或停用自己")
	ErrUserSelfDelete      = errors.New("不能删除自己")
	ErrUserVersionConflict = errors.New("用户信息已被其他操作修改，请刷新后重试")
)

// UserService 用户业务接口（管理员维护教师与管理员账号）
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// EnsureAdmin 系统中没有管理员时创建初始管理员，返回是否创建
	EnsureAdmin(ctx context.Context, username, password, fullName string) (bool, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	username := strings.TrimSpace(req.Username)

	existing, err := s.repo.User.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码加密失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		IsActive:     true,
		Version:      1,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, ErrUsernameExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.Role, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if id == callerID {
		if (req.Role != nil && *req.Role != user.Role) || (req.IsActive != nil && !*req.IsActive) {
			return nil, ErrUserSelfRoleChange
		}
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("密码加密失败", zap.Error(err))
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	user.Version = req.Version

	if err := s.repo.User.Update(ctx, user); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrUserVersionConflict
		}
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id string, callerID string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}
	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}
	if err := s.repo.User.Delete(ctx, id); err != nil {
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── EnsureAdmin ──────────────────────

func (s *userService) EnsureAdmin(ctx context.Context, username, password, fullName string) (bool, error) {
	count, err := s.repo.User.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		s.logger.Error("统计管理员数量失败", zap.Error(err))
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if password == "" {
		s.logger.Warn("系统中没有管理员，且未配置 bootstrap.admin_password，跳过初始化")
		return false, nil
	}

	if _, err := s.Create(ctx, &dto.CreateUserRequest{
		Username: username,
		Password: password,
		FullName: fullName,
		Role:     model.RoleAdmin,
	}); err != nil {
		return false, err
	}

	s.logger.Info("已创建初始管理员", zap.String("username", username))
	return true, nil
}

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:       u.UserID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
		IsActive: u.IsActive,
		Version:  u.Version,
	}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	return resp
}
