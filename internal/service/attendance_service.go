package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/internal/repository"
	pkgerrors "github.com/atakdmr/StudentAttendance/pkg/errors"
	"github.com/atakdmr/StudentAttendance/pkg/metrics"
)

// ── 考勤模块业务错误 ──

var (
	ErrLessonNotFound          = errors.New("课程不存在")
	ErrSessionNotFound         = errors.New("考勤会话不存在")
	ErrStudentNotFound         = errors.New("学生不存在")
	ErrSessionAlreadyFinalized = errors.New("考勤会话已定稿")
	ErrSessionFinalized        = errors.New("考勤会话已定稿，不能再修改记录")
	ErrStudentNotInGroup       = errors.New("学生不属于该会话的班级")
	ErrInvalidAttendanceStatus = errors.New("无效的考勤状态")
	// ErrConcurrencyConflict 记录已被他人修改（或调用方未携带版本号）
	ErrConcurrencyConflict = fmt.Errorf("考勤记录已被其他操作修改: %w", pkgerrors.ErrOptimisticLock)
)

// AttendanceService 考勤会话与记录业务接口
type AttendanceService interface {
	// OpenOrGetSession 按 (课程, 上课时间) 幂等地开启会话
	OpenOrGetSession(ctx context.Context, lessonID string, scheduledAt time.Time, actorID string) (*model.AttendanceSession, error)
	// FinalizeSession open → finalized，定稿后不可逆
	FinalizeSession(ctx context.Context, sessionID, actorID string) error
	MarkOne(ctx context.Context, sessionID string, entry dto.MarkEntry, actorID string) error
	// MarkBulk 全部成功或全部回滚，返回第一个错误
	MarkBulk(ctx context.Context, sessionID string, entries []dto.MarkEntry, actorID string) error

	GetSession(ctx context.Context, sessionID string) (*model.AttendanceSession, error)
	GetSessionView(ctx context.Context, sessionID string) (*dto.SessionViewResponse, error)
	ListTeacherSessions(ctx context.Context, teacherID string) ([]dto.SessionResponse, error)
	// ListOpenSessions 未定稿会话；groupID 为空时不过滤
	ListOpenSessions(ctx context.Context, groupID string) ([]dto.SessionResponse, error)
	ListLessonSessions(ctx context.Context, lessonID string) ([]dto.SessionResponse, error)
	// ListLessonsToStart 教师本周（周一起）尚无未定稿会话的有效课程
	ListLessonsToStart(ctx context.Context, teacherID string, now time.Time) ([]dto.LessonToStartResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── 会话生命周期 ──────────────────────

func (s *attendanceService) OpenOrGetSession(ctx context.Context, lessonID string, scheduledAt time.Time, actorID string) (*model.AttendanceSession, error) {
	lesson, err := s.repo.Lesson.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		s.logger.Error("查询课程失败", zap.String("lesson_id", lessonID), zap.Error(err))
		return nil, err
	}
	if !lesson.IsActive {
		return nil, ErrLessonNotFound
	}

	at := normalizeScheduledAt(scheduledAt)

	existing, err := s.repo.AttendanceSession.FindByLessonAndTime(ctx, lessonID, at)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询考勤会话失败", zap.String("lesson_id", lessonID), zap.Error(err))
		return nil, err
	}

	session := &model.AttendanceSession{
		LessonID:    lesson.LessonID,
		GroupID:     lesson.GroupID,
		TeacherID:   lesson.TeacherID,
		ScheduledAt: at,
		Status:      model.SessionOpen,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.AttendanceSession.Create(ctx, session); err != nil {
		s.logger.Error("创建考勤会话失败", zap.String("lesson_id", lessonID), zap.Error(err))
		return nil, err
	}

	metrics.SessionsOpened.Inc()
	s.logger.Info("考勤会话已开启",
		zap.String("session_id", session.SessionID),
		zap.String("lesson_id", lessonID),
		zap.Time("scheduled_at", at),
		zap.String("actor_id", actorID),
	)
	return session, nil
}

func (s *attendanceService) FinalizeSession(ctx context.Context, sessionID, actorID string) error {
	session, err := s.repo.AttendanceSession.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		s.logger.Error("查询考勤会话失败", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	if session.IsFinalized() {
		return ErrSessionAlreadyFinalized
	}

	// 条件更新：并发的第二次定稿影响 0 行
	ok, err := s.repo.AttendanceSession.Finalize(ctx, sessionID, s.now().UTC())
	if err != nil {
		s.logger.Error("定稿考勤会话失败", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	if !ok {
		return ErrSessionAlreadyFinalized
	}

	metrics.SessionsFinalized.Inc()
	writeAudit(ctx, s.repo, s.logger, actorID, model.AuditActionFinalize, "attendance_session", sessionID, map[string]interface{}{
		"lesson_id":    session.LessonID,
		"scheduled_at": session.ScheduledAt,
	})
	return nil
}

// ────────────────────── 记录写入 ──────────────────────

func (s *attendanceService) MarkOne(ctx context.Context, sessionID string, entry dto.MarkEntry, actorID string) error {
	return s.MarkBulk(ctx, sessionID, []dto.MarkEntry{entry}, actorID)
}

func (s *attendanceService) MarkBulk(ctx context.Context, sessionID string, entries []dto.MarkEntry, actorID string) error {
	now := s.now().UTC()
	var created, updated int

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// FOR SHARE：与 FinalizeSession 的条件更新互斥，定稿不会落在批量写入中间
		session, err := tx.AttendanceSession.GetByIDForShare(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if session.IsFinalized() {
			return ErrSessionFinalized
		}

		for i := range entries {
			isNew, err := s.upsertRecord(ctx, tx, session, &entries[i], actorID, now)
			if err != nil {
				return err
			}
			if isNew {
				created++
			} else {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			metrics.RecordsMarked.WithLabelValues("conflict").Inc()
		} else if !isAttendanceRejection(err) {
			s.logger.Error("写入考勤记录失败", zap.String("session_id", sessionID), zap.Error(err))
		}
		return err
	}

	metrics.RecordsMarked.WithLabelValues("created").Add(float64(created))
	metrics.RecordsMarked.WithLabelValues("updated").Add(float64(updated))
	return nil
}

// upsertRecord 插入或按版本号条件更新一条记录，返回是否为新建
func (s *attendanceService) upsertRecord(ctx context.Context, tx *repository.Repository, session *model.AttendanceSession, e *dto.MarkEntry, actorID string, now time.Time) (bool, error) {
	if !e.Status.Valid() {
		return false, ErrInvalidAttendanceStatus
	}

	student, err := tx.Student.GetByID(ctx, e.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrStudentNotFound
		}
		return false, err
	}
	if student.GroupID != session.GroupID {
		return false, ErrStudentNotInGroup
	}

	existing, err := tx.AttendanceRecord.GetBySessionAndStudent(ctx, session.SessionID, e.StudentID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if existing == nil {
		record := &model.AttendanceRecord{
			SessionID:   session.SessionID,
			StudentID:   e.StudentID,
			Status:      e.Status,
			LateMinutes: e.LateMinutes,
			Note:        e.Note,
			MarkedAt:    now,
			MarkedBy:    actorID,
			Version:     1,
		}
		if err := tx.AttendanceRecord.Create(ctx, record); err != nil {
			// 并发插入命中 (session_id, student_id) 唯一约束
			if errors.Is(err, pkgerrors.ErrDuplicateKey) {
				return false, ErrConcurrencyConflict
			}
			return false, err
		}
		return true, nil
	}

	// 已有记录：调用方必须携带最后看到的版本号
	if e.Version == nil || *e.Version != existing.Version {
		return false, ErrConcurrencyConflict
	}

	existing.Status = e.Status
	existing.LateMinutes = e.LateMinutes
	existing.Note = e.Note
	existing.MarkedAt = now
	existing.MarkedBy = actorID
	if err := tx.AttendanceRecord.Update(ctx, existing); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return false, ErrConcurrencyConflict
		}
		return false, err
	}
	return false, nil
}

// isAttendanceRejection 业务拒绝（非存储故障），无需记录错误日志
func isAttendanceRejection(err error) bool {
	for _, target := range []error{
		ErrSessionNotFound, ErrSessionFinalized, ErrStudentNotFound,
		ErrStudentNotInGroup, ErrInvalidAttendanceStatus, ErrConcurrencyConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ────────────────────── 查询 ──────────────────────

func (s *attendanceService) GetSession(ctx context.Context, sessionID string) (*model.AttendanceSession, error) {
	session, err := s.repo.AttendanceSession.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询考勤会话失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (s *attendanceService) GetSessionView(ctx context.Context, sessionID string) (*dto.SessionViewResponse, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	students, err := s.repo.Student.ListActiveByGroup(ctx, session.GroupID)
	if err != nil {
		s.logger.Error("查询班级学生失败", zap.String("group_id", session.GroupID), zap.Error(err))
		return nil, err
	}
	records, err := s.repo.AttendanceRecord.ListBySession(ctx, sessionID)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	byStudent := make(map[string]*model.AttendanceRecord, len(records))
	for i := range records {
		byStudent[records[i].StudentID] = &records[i]
	}

	rows := make([]dto.SessionStudentRow, 0, len(students))
	for i := range students {
		st := &students[i]
		row := dto.SessionStudentRow{
			StudentID:     st.StudentID,
			StudentNumber: st.StudentNumber,
			FirstName:     st.FirstName,
			LastName:      st.LastName,
			FullName:      st.FullName(),
			Status:        model.StatusPresent,
		}
		if rec, ok := byStudent[st.StudentID]; ok {
			version := rec.Version
			markedAt := rec.MarkedAt
			row.Status = rec.Status
			row.LateMinutes = rec.LateMinutes
			row.Note = rec.Note
			row.MarkedAt = &markedAt
			row.Version = &version
		}
		rows = append(rows, row)
	}

	return &dto.SessionViewResponse{
		Session:  toSessionResponse(session),
		Students: rows,
	}, nil
}

func (s *attendanceService) ListTeacherSessions(ctx context.Context, teacherID string) ([]dto.SessionResponse, error) {
	return s.listSessions(ctx, repository.SessionFilter{TeacherID: teacherID})
}

func (s *attendanceService) ListOpenSessions(ctx context.Context, groupID string) ([]dto.SessionResponse, error) {
	return s.listSessions(ctx, repository.SessionFilter{GroupID: groupID, NotStatus: model.SessionFinalized})
}

func (s *attendanceService) ListLessonSessions(ctx context.Context, lessonID string) ([]dto.SessionResponse, error) {
	return s.listSessions(ctx, repository.SessionFilter{LessonID: lessonID})
}

func (s *attendanceService) listSessions(ctx context.Context, filter repository.SessionFilter) ([]dto.SessionResponse, error) {
	sessions, err := s.repo.AttendanceSession.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询考勤会话列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, toSessionResponse(&sessions[i]))
	}
	return result, nil
}

func (s *attendanceService) ListLessonsToStart(ctx context.Context, teacherID string, now time.Time) ([]dto.LessonToStartResponse, error) {
	lessons, err := s.repo.Lesson.List(ctx, repository.LessonFilter{TeacherID: teacherID, ActiveOnly: true})
	if err != nil {
		s.logger.Error("查询教师课程失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	from := weekStart(now)
	to := from.AddDate(0, 0, 7)
	sessions, err := s.repo.AttendanceSession.List(ctx, repository.SessionFilter{
		TeacherID: teacherID,
		NotStatus: model.SessionFinalized,
		From:      &from,
		To:        &to,
	})
	if err != nil {
		s.logger.Error("查询本周考勤会话失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	started := make(map[string]bool, len(sessions))
	for _, sess := range sessions {
		started[sess.LessonID] = true
	}

	result := make([]dto.LessonToStartResponse, 0, len(lessons))
	for i := range lessons {
		l := &lessons[i]
		if started[l.LessonID] {
			continue
		}
		result = append(result, dto.LessonToStartResponse{
			LessonResponse:  toLessonResponse(l),
			NextScheduledAt: NextOccurrence(l.DayOfWeek, l.StartTime, now),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

// ────────────────────── 转换 ──────────────────────

func toSessionResponse(s *model.AttendanceSession) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:          s.SessionID,
		LessonID:    s.LessonID,
		GroupID:     s.GroupID,
		TeacherID:   s.TeacherID,
		ScheduledAt: s.ScheduledAt,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
		EndTime:     s.EndTime,
	}
	if s.Lesson != nil {
		resp.LessonTitle = s.Lesson.Title
	}
	if s.Group != nil {
		resp.GroupName = s.Group.Name
	}
	if s.Teacher != nil {
		resp.TeacherName = s.Teacher.FullName
	}
	return resp
}
