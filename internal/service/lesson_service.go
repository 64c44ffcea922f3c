package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/internal/repository"
)

// ── 课程模块业务错误 ──

var (
	ErrLessonInvalidDay  = errors.New("星期必须在 1-7 之间")
	ErrLessonInvalidTime = errors.New("结束时间必须晚于开始时间")
	ErrTeacherNotFound   = errors.New("教师不存在")
)

// LessonConflictError 课程时间冲突，携带冲突详情
type LessonConflictError struct {
	Result *dto.ConflictResult
}

func (e *LessonConflictError) Error() string { return e.Result.Message }

// Is 使 errors.Is(err, ErrLessonConflict) 成立
func (e *LessonConflictError) Is(target error) bool { return target == ErrLessonConflict }

// ErrLessonConflict 课程时间冲突
var ErrLessonConflict = errors.New("课程时间冲突")

// LessonService 课程业务接口
type LessonService interface {
	Create(ctx context.Context, req *dto.LessonRequest, callerID string) (*dto.LessonResponse, error)
	GetByID(ctx context.Context, id string) (*dto.LessonResponse, error)
	List(ctx context.Context, req *dto.LessonListRequest) ([]dto.LessonResponse, error)
	Update(ctx context.Context, id string, req *dto.LessonRequest, callerID string) (*dto.LessonResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// WeeklySchedule 有效课程按星期 1..7 分组；teacherID 非空时只含该教师
	WeeklySchedule(ctx context.Context, teacherID string) ([]dto.ScheduleDay, error)
	CheckConflict(ctx context.Context, req *dto.ConflictCheckRequest) (*dto.ConflictResult, error)
}

type lessonService struct {
	repo     *repository.Repository
	conflict ConflictService
	logger   *zap.Logger
}

// NewLessonService 创建 LessonService 实例
func NewLessonService(repo *repository.Repository, conflict ConflictService, logger *zap.Logger) LessonService {
	return &lessonService{repo: repo, conflict: conflict, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *lessonService) Create(ctx context.Context, req *dto.LessonRequest, callerID string) (*dto.LessonResponse, error) {
	lesson := &model.Lesson{IsActive: true}
	if err := s.apply(ctx, lesson, req, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Lesson.Create(ctx, lesson); err != nil {
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}

	writeAudit(ctx, s.repo, s.logger, callerID, model.AuditActionCreate, "lesson", lesson.LessonID, map[string]interface{}{
		"title":       lesson.Title,
		"day_of_week": lesson.DayOfWeek,
	})
	return s.GetByID(ctx, lesson.LessonID)
}

// ────────────────────── GetByID / List ──────────────────────

func (s *lessonService) GetByID(ctx context.Context, id string) (*dto.LessonResponse, error) {
	lesson, err := s.repo.Lesson.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toLessonResponse(lesson)
	return &resp, nil
}

func (s *lessonService) List(ctx context.Context, req *dto.LessonListRequest) ([]dto.LessonResponse, error) {
	lessons, err := s.repo.Lesson.List(ctx, repository.LessonFilter{
		GroupID:    req.GroupID,
		TeacherID:  req.TeacherID,
		Title:      req.Title,
		DayOfWeek:  req.DayOfWeek,
		ActiveOnly: req.ActiveOnly,
	})
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.LessonResponse, 0, len(lessons))
	for i := range lessons {
		result = append(result, toLessonResponse(&lessons[i]))
	}
	return result, nil
}

// ────────────────────── Update / Delete ──────────────────────

func (s *lessonService) Update(ctx context.Context, id string, req *dto.LessonRequest, callerID string) (*dto.LessonResponse, error) {
	lesson, err := s.repo.Lesson.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if err := s.apply(ctx, lesson, req, lesson.LessonID); err != nil {
		return nil, err
	}

	if err := s.repo.Lesson.Update(ctx, lesson); err != nil {
		s.logger.Error("更新课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	writeAudit(ctx, s.repo, s.logger, callerID, model.AuditActionUpdate, "lesson", id, nil)
	return s.GetByID(ctx, id)
}

func (s *lessonService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Lesson.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Lesson.Delete(ctx, id); err != nil {
		s.logger.Error("删除课程失败", zap.String("id", id), zap.Error(err))
		return err
	}

	writeAudit(ctx, s.repo, s.logger, callerID, model.AuditActionDelete, "lesson", id, nil)
	return nil
}

// apply 校验请求并写入 lesson；excludeID 为更新时的课程自身
func (s *lessonService) apply(ctx context.Context, lesson *model.Lesson, req *dto.LessonRequest, excludeID string) error {
	if req.DayOfWeek < 1 || req.DayOfWeek > 7 {
		return ErrLessonInvalidDay
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		return err
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return ErrLessonInvalidTime
	}

	if _, err := s.repo.Group.GetByID(ctx, req.GroupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		s.logger.Error("查询班级失败", zap.String("group_id", req.GroupID), zap.Error(err))
		return err
	}
	teacher, err := s.repo.User.GetByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.String("teacher_id", req.TeacherID), zap.Error(err))
		return err
	}
	if !teacher.IsActive {
		return ErrTeacherNotFound
	}

	isActive := lesson.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	// 停用的课程不参与冲突检查
	if isActive {
		res, err := s.conflict.CheckConflict(ctx, req.TeacherID, req.GroupID, req.DayOfWeek, start, end, excludeID)
		if err != nil {
			return err
		}
		if res.HasConflict {
			return &LessonConflictError{Result: res}
		}
	}

	lesson.Title = req.Title
	lesson.DayOfWeek = req.DayOfWeek
	lesson.StartTime = start
	lesson.EndTime = end
	lesson.GroupID = req.GroupID
	lesson.TeacherID = req.TeacherID
	lesson.IsActive = isActive
	lesson.Group = nil
	lesson.Teacher = nil
	return nil
}

// ────────────────────── 周课表 / 冲突检查 ──────────────────────

func (s *lessonService) WeeklySchedule(ctx context.Context, teacherID string) ([]dto.ScheduleDay, error) {
	lessons, err := s.repo.Lesson.List(ctx, repository.LessonFilter{TeacherID: teacherID, ActiveOnly: true})
	if err != nil {
		s.logger.Error("查询周课表失败", zap.Error(err))
		return nil, err
	}

	days := make([]dto.ScheduleDay, 7)
	for i := range days {
		days[i] = dto.ScheduleDay{
			DayOfWeek: i + 1,
			DayName:   weekdayNames[i+1],
			Lessons:   []dto.LessonResponse{},
		}
	}
	for i := range lessons {
		d := lessons[i].DayOfWeek
		if d < 1 || d > 7 {
			continue
		}
		days[d-1].Lessons = append(days[d-1].Lessons, toLessonResponse(&lessons[i]))
	}
	return days, nil
}

func (s *lessonService) CheckConflict(ctx context.Context, req *dto.ConflictCheckRequest) (*dto.ConflictResult, error) {
	if req.DayOfWeek < 1 || req.DayOfWeek > 7 {
		return nil, ErrLessonInvalidDay
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, ErrLessonInvalidTime
	}
	return s.conflict.CheckConflict(ctx, req.TeacherID, req.GroupID, req.DayOfWeek, start, end, req.ExcludeLessonID)
}

// ────────────────────── 转换 ──────────────────────

func toLessonResponse(l *model.Lesson) dto.LessonResponse {
	resp := dto.LessonResponse{
		ID:        l.LessonID,
		Title:     l.Title,
		DayOfWeek: l.DayOfWeek,
		StartTime: formatClock(l.StartTime),
		EndTime:   formatClock(l.EndTime),
		GroupID:   l.GroupID,
		TeacherID: l.TeacherID,
		IsActive:  l.IsActive,
	}
	if l.Group != nil {
		resp.GroupName = l.Group.Name
	}
	if l.Teacher != nil {
		resp.TeacherName = l.Teacher.FullName
	}
	return resp
}

