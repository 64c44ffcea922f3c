package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/internal/repository"
	"github.com/atakdmr/StudentAttendance/pkg/metrics"
	"github.com/atakdmr/StudentAttendance/pkg/sms"
)

// ErrSMSUnavailable 短信网关未配置或未启用
var ErrSMSUnavailable = errors.New("短信服务不可用")

// absenceSMSTemplate 发给家长的缺勤通知（土耳其语）
const absenceSMSTemplate = "Sayın veli, öğrenciniz bazı ders(ler)e katılmamıştır. Son yoklama: %s."

// AbsenceService 缺勤查询与家长短信通知
type AbsenceService interface {
	// ListAbsences 已定稿会话中的 absent 记录
	ListAbsences(ctx context.Context, req *dto.AbsenceListRequest) ([]dto.AbsenceResponse, error)
	// NotifyAbsences 每个手机号一条短信，内容带该号码最近一次缺勤时间
	NotifyAbsences(ctx context.Context, actorID string) (*dto.NotifyAbsencesResponse, error)
}

type absenceService struct {
	repo   *repository.Repository
	sender sms.Sender
	logger *zap.Logger
	now    func() time.Time
}

// NewAbsenceService 创建 AbsenceService 实例；sender 可为 nil
func NewAbsenceService(repo *repository.Repository, sender sms.Sender, logger *zap.Logger) AbsenceService {
	return &absenceService{repo: repo, sender: sender, logger: logger, now: time.Now}
}

func (s *absenceService) ListAbsences(ctx context.Context, req *dto.AbsenceListRequest) ([]dto.AbsenceResponse, error) {
	filter := repository.AbsenceFilter{GroupID: req.GroupID}
	loc := s.now().Location()

	if req.StartDate != "" {
		from, err := time.ParseInLocation(dateLayout, req.StartDate, loc)
		if err != nil {
			return nil, ErrInvalidDate
		}
		filter.From = &from
	}
	if req.EndDate != "" {
		end, err := time.ParseInLocation(dateLayout, req.EndDate, loc)
		if err != nil {
			return nil, ErrInvalidDate
		}
		to := end.AddDate(0, 0, 1)
		filter.To = &to
	}

	records, err := s.repo.AttendanceRecord.ListAbsences(ctx, filter)
	if err != nil {
		s.logger.Error("查询缺勤记录失败", zap.Error(err))
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(req.Search))
	result := make([]dto.AbsenceResponse, 0, len(records))
	for i := range records {
		item := toAbsenceResponse(&records[i])
		if search != "" && !absenceMatches(&item, search) {
			continue
		}
		result = append(result, item)
	}

	sortAbsences(result, req.SortBy)
	return result, nil
}

func (s *absenceService) NotifyAbsences(ctx context.Context, actorID string) (*dto.NotifyAbsencesResponse, error) {
	if s.sender == nil {
		return nil, ErrSMSUnavailable
	}

	records, err := s.repo.AttendanceRecord.ListAbsences(ctx, repository.AbsenceFilter{})
	if err != nil {
		s.logger.Error("查询缺勤记录失败", zap.Error(err))
		return nil, err
	}

	// 按手机号聚合，取最近一次缺勤时间
	latest := make(map[string]time.Time)
	for i := range records {
		st := records[i].Student
		if st == nil || st.Phone == nil || strings.TrimSpace(*st.Phone) == "" || records[i].Session == nil {
			continue
		}
		phone := strings.TrimSpace(*st.Phone)
		at := records[i].Session.ScheduledAt
		if prev, ok := latest[phone]; !ok || at.After(prev) {
			latest[phone] = at
		}
	}

	phones := make([]string, 0, len(latest))
	for p := range latest {
		phones = append(phones, p)
	}
	sort.Strings(phones)

	loc := s.now().Location()
	messages := make([]sms.Message, 0, len(phones))
	for _, p := range phones {
		messages = append(messages, sms.Message{
			Phone: p,
			Text:  fmt.Sprintf(absenceSMSTemplate, latest[p].In(loc).Format("02.01.2006 15:04")),
		})
	}

	resp := &dto.NotifyAbsencesResponse{Recipients: len(messages)}
	if len(messages) == 0 {
		return resp, nil
	}

	sent, err := s.sender.SendBulk(ctx, messages)
	if err != nil {
		if errors.Is(err, sms.ErrDisabled) {
			return nil, ErrSMSUnavailable
		}
		s.logger.Error("发送缺勤短信失败", zap.Int("recipients", len(messages)), zap.Error(err))
		return nil, err
	}
	resp.Sent = sent
	metrics.SMSSent.Add(float64(sent))

	writeAudit(ctx, s.repo, s.logger, actorID, model.AuditActionNotifyAbsent, "sms", "", map[string]interface{}{
		"recipients": resp.Recipients,
		"sent":       resp.Sent,
	})
	return resp, nil
}

func toAbsenceResponse(r *model.AttendanceRecord) dto.AbsenceResponse {
	item := dto.AbsenceResponse{
		RecordID:  r.RecordID,
		SessionID: r.SessionID,
		StudentID: r.StudentID,
		Note:      r.Note,
	}
	if r.Student != nil {
		item.StudentName = r.Student.FullName()
		item.StudentNumber = r.Student.StudentNumber
		item.Phone = r.Student.Phone
	}
	if r.Session != nil {
		item.ScheduledAt = r.Session.ScheduledAt
		if r.Session.Lesson != nil {
			item.LessonTitle = r.Session.Lesson.Title
		}
		if r.Session.Group != nil {
			item.GroupName = r.Session.Group.Name
		}
	}
	return item
}

// absenceMatches 在姓名、学号、课程名、班级名中做不区分大小写的子串匹配
func absenceMatches(a *dto.AbsenceResponse, needle string) bool {
	for _, field := range []string{a.StudentName, a.StudentNumber, a.LessonTitle, a.GroupName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func sortAbsences(list []dto.AbsenceResponse, sortBy string) {
	switch sortBy {
	case "student":
		sort.SliceStable(list, func(i, j int) bool { return list[i].StudentName < list[j].StudentName })
	case "group":
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].GroupName != list[j].GroupName {
				return list[i].GroupName < list[j].GroupName
			}
			return list[i].StudentName < list[j].StudentName
		})
	case "lesson":
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].LessonTitle != list[j].LessonTitle {
				return list[i].LessonTitle < list[j].LessonTitle
			}
			return list[i].StudentName < list[j].StudentName
		})
	default:
		sort.SliceStable(list, func(i, j int) bool { return list[i].ScheduledAt.After(list[j].ScheduledAt) })
	}
}
