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

// StudentService 学生业务接口
type StudentService interface {
	Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error)
	GetByID(ctx context.Context, id string) (*dto.StudentResponse, error)
	List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	Delete(ctx context.Context, id string) error
	// ImportStudents 导入已解析的名册行（见 ParseStudentImportFile）
	ImportStudents(ctx context.Context, groupID string, rows []ImportStudentRow) (*dto.ImportStudentResponse, error)
}

type studentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, logger: logger}
}

func (s *studentService) Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	if err := s.ensureGroup(ctx, req.GroupID); err != nil {
		return nil, err
	}

	student := &model.Student{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		StudentNumber: strings.TrimSpace(req.StudentNumber),
		Phone:         normalizePhone(req.Phone),
		GroupID:       req.GroupID,
		IsActive:      true,
	}
	if err := s.repo.Student.Create(ctx, student); err != nil {
		s.logger.Error("创建学生失败", zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, student.StudentID)
}

func (s *studentService) GetByID(ctx context.Context, id string) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toStudentResponse(student)
	return &resp, nil
}

func (s *studentService) List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	students, total, err := s.repo.Student.List(ctx, repository.StudentFilter{
		GroupID:         req.GroupID,
		Search:          strings.TrimSpace(req.Search),
		IncludeInactive: req.IncludeInactive,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, toStudentResponse(&students[i]))
	}
	return result, total, nil
}

func (s *studentService) Update(ctx context.Context, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.GroupID != nil && *req.GroupID != student.GroupID {
		if err := s.ensureGroup(ctx, *req.GroupID); err != nil {
			return nil, err
		}
		student.GroupID = *req.GroupID
		student.Group = nil
	}
	if req.FirstName != nil {
		student.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		student.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.StudentNumber != nil {
		student.StudentNumber = strings.TrimSpace(*req.StudentNumber)
	}
	if req.Phone != nil {
		student.Phone = normalizePhone(req.Phone)
	}
	if req.IsActive != nil {
		student.IsActive = *req.IsActive
	}
	student.UpdatedAt = time.Now()

	if err := s.repo.Student.Update(ctx, student); err != nil {
		s.logger.Error("更新学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, id)
}

func (s *studentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Student.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if err := s.repo.Student.Delete(ctx, id); err != nil {
		s.logger.Error("删除学生失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *studentService) ensureGroup(ctx context.Context, groupID string) error {
	if _, err := s.repo.Group.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		s.logger.Error("查询班级失败", zap.String("group_id", groupID), zap.Error(err))
		return err
	}
	return nil
}

// normalizePhone 去除空白；空串视为未填写
func normalizePhone(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.Join(strings.Fields(*p), "")
	if v == "" {
		return nil
	}
	return &v
}

func toStudentResponse(st *model.Student) dto.StudentResponse {
	resp := dto.StudentResponse{
		ID:            st.StudentID,
		FirstName:     st.FirstName,
		LastName:      st.LastName,
		FullName:      st.FullName(),
		StudentNumber: st.StudentNumber,
		Phone:         st.Phone,
		GroupID:       st.GroupID,
		IsActive:      st.IsActive,
	}
	if st.Group != nil {
		resp.GroupName = st.Group.Name
	}
	return resp
}
