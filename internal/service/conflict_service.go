package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/repository"
)

// ConflictService 课程时间冲突检查
// 同一教师或同一班级在同一星期内，时间段（左闭右开）不得相交
type ConflictService interface {
	CheckTeacherConflict(ctx context.Context, teacherID string, day int, start, end datatypes.Time, excludeLessonID string) (*dto.ConflictResult, error)
	CheckGroupConflict(ctx context.Context, groupID string, day int, start, end datatypes.Time, excludeLessonID string) (*dto.ConflictResult, error)
	// CheckConflict 先查教师冲突，再查班级冲突
	CheckConflict(ctx context.Context, teacherID, groupID string, day int, start, end datatypes.Time, excludeLessonID string) (*dto.ConflictResult, error)
}

type conflictService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewConflictService 创建 ConflictService 实例
func NewConflictService(repo *repository.Repository, logger *zap.Logger) ConflictService {
	return &conflictService{repo: repo, logger: logger}
}

// lessonsOverlap 左闭右开区间 [aStart,aEnd) 与 [bStart,bEnd) 是否相交
// 首尾相接（aEnd == bStart）不算冲突
func lessonsOverlap(aStart, aEnd, bStart, bEnd datatypes.Time) bool {
	return aStart < bEnd && bStart < aEnd
}

func (s *conflictService) CheckTeacherConflict(ctx context.Context, teacherID string, day int, start, end datatypes.Time, excludeLessonID string) (*dto.ConflictResult, error) {
	lessons, err := s.repo.Lesson.ListActiveByTeacherAndDay(ctx, teacherID, day, excludeLessonID)
	if err != nil {
		s.logger.Error("查询教师课程失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	for i := range lessons {
		l := &lessons[i]
		if !lessonsOverlap(l.StartTime, l.EndTime, start, end) {
			continue
		}
		groupName := ""
		if l.Group != nil {
			groupName = l.Group.Name
		}
		return &dto.ConflictResult{
			HasConflict:    true,
			Type:           dto.ConflictTeacher,
			LessonID:       l.LessonID,
			LessonTitle:    l.Title,
			Start:          formatClock(l.StartTime),
			End:            formatClock(l.EndTime),
			OtherPartyName: groupName,
			Message: fmt.Sprintf("教师在 %s-%s 已有课程「%s」（班级：%s）",
				formatClock(l.StartTime), formatClock(l.EndTime), l.Title, groupName),
		}, nil
	}

	return &dto.ConflictResult{HasConflict: false}, nil
}

func (s *conflictService) CheckGroupConflict(ctx context.Context, groupID string, day int, start, end datatypes.Time, excludeLessonID string) (*dto.ConflictResult, error) {
	lessons, err := s.repo.Lesson.ListActiveByGroupAndDay(ctx, groupID, day, excludeLessonID)
	if err != nil {
		s.logger.Error("查询班级课程失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}

	for i := range lessons {
		l := &lessons[i]
		if !lessonsOverlap(l.StartTime, l.EndTime, start, end) {
			continue
		}
		teacherName := ""
		if l.Teacher != nil {
			teacherName = l.Teacher.FullName
		}
		return &dto.ConflictResult{
			HasConflict:    true,
			Type:           dto.ConflictGroup,
			LessonID:       l.LessonID,
			LessonTitle:    l.Title,
			Start:          formatClock(l.StartTime),
			End:            formatClock(l.EndTime),
			OtherPartyName: teacherName,
			Message: fmt.Sprintf("班级在 %s-%s 已有课程「%s」（教师：%s）",
				formatClock(l.StartTime), formatClock(l.EndTime), l.Title, teacherName),
		}, nil
	}

	return &dto.ConflictResult{HasConflict: false}, nil
}

func (s *conflictService) CheckConflict(ctx context.Context, teacherID, groupID string, day int, start, end datatypes.Time, excludeLessonID string) (*dto.ConflictResult, error) {
	res, err := s.CheckTeacherConflict(ctx, teacherID, day, start, end, excludeLessonID)
	if err != nil || res.HasConflict {
		return res, err
	}
	return s.CheckGroupConflict(ctx, groupID, day, start, end, excludeLessonID)
}

