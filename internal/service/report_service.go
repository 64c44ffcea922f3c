package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/internal/repository"
)

// ErrReportGenerateFail 报表文件生成失败
var ErrReportGenerateFail = errors.New("报表生成失败")

const defaultReportDays = 30

var sessionCSVHeader = []string{"Student No", "First Name", "Last Name", "Status", "Late (min)", "Note", "Marked At"}
var studentCSVHeader = []string{"Date", "Lesson", "Status", "Late (min)", "Note"}

// ReportService 出勤报表与导出
type ReportService interface {
	// SessionCSV 单次会话的考勤表，返回内容与文件名
	SessionCSV(ctx context.Context, sessionID string) ([]byte, string, error)
	StudentReport(ctx context.Context, studentID string, req *dto.DateRangeRequest) (*dto.StudentReportResponse, error)
	StudentCSV(ctx context.Context, studentID string, req *dto.DateRangeRequest) ([]byte, string, error)
	GroupReport(ctx context.Context, groupID string, req *dto.DateRangeRequest) (*dto.GroupReportResponse, error)
	ExportGroupReportXLSX(ctx context.Context, groupID string, req *dto.DateRangeRequest) (*bytes.Buffer, string, error)
	// ListFinalizedSessions 已定稿会话；teacherID / groupID 为空时不过滤
	ListFinalizedSessions(ctx context.Context, teacherID, groupID string) ([]dto.SessionResponse, error)
}

type reportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── 会话 CSV ──────────────────────

func (s *reportService) SessionCSV(ctx context.Context, sessionID string) ([]byte, string, error) {
	session, err := s.repo.AttendanceSession.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrSessionNotFound
		}
		s.logger.Error("查询考勤会话失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, "", err
	}

	records, err := s.repo.AttendanceRecord.ListBySession(ctx, sessionID)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, "", err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return studentNumberOf(&records[i]) < studentNumberOf(&records[j])
	})

	loc := s.now().Location()
	rows := make([][]string, 0, len(records))
	for i := range records {
		r := &records[i]
		var first, last string
		if r.Student != nil {
			first, last = r.Student.FirstName, r.Student.LastName
		}
		rows = append(rows, []string{
			studentNumberOf(r),
			first,
			last,
			statusText(r.Status),
			intOrEmpty(r.LateMinutes),
			strOrEmpty(r.Note),
			r.MarkedAt.In(loc).Format("2006-01-02 15:04"),
		})
	}

	body, err := writeCSV(sessionCSVHeader, rows)
	if err != nil {
		s.logger.Error("生成 CSV 失败", zap.Error(err))
		return nil, "", ErrReportGenerateFail
	}

	var groupCode, lessonTitle string
	if session.Group != nil {
		groupCode = session.Group.Code
	}
	if session.Lesson != nil {
		lessonTitle = session.Lesson.Title
	}
	filename := fmt.Sprintf("attendance_%s_%s_%s.csv",
		fileSafe(groupCode), fileSafe(lessonTitle), session.ScheduledAt.In(loc).Format("20060102_1504"))
	return body, filename, nil
}

// ────────────────────── 学生报表 ──────────────────────

func (s *reportService) StudentReport(ctx context.Context, studentID string, req *dto.DateRangeRequest) (*dto.StudentReportResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	from, to, err := parseDateRange(req.From, req.To, s.now(), defaultReportDays)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.AttendanceRecord.ListByStudentsBetween(ctx, []string{studentID}, from, to)
	if err != nil {
		s.logger.Error("查询学生考勤记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	items := make([]dto.StudentReportItem, 0, len(records))
	for i := range records {
		r := &records[i]
		item := dto.StudentReportItem{
			SessionID:   r.SessionID,
			Status:      r.Status,
			LateMinutes: r.LateMinutes,
			Note:        r.Note,
		}
		if r.Session != nil {
			item.ScheduledAt = r.Session.ScheduledAt
			if r.Session.Lesson != nil {
				item.LessonTitle = r.Session.Lesson.Title
			}
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ScheduledAt.After(items[j].ScheduledAt) })

	return &dto.StudentReportResponse{
		Student: toStudentResponse(student),
		From:    from.Format(dateLayout),
		To:      to.AddDate(0, 0, -1).Format(dateLayout),
		Records: items,
		Summary: summarize(records),
	}, nil
}

func (s *reportService) StudentCSV(ctx context.Context, studentID string, req *dto.DateRangeRequest) ([]byte, string, error) {
	report, err := s.StudentReport(ctx, studentID, req)
	if err != nil {
		return nil, "", err
	}

	loc := s.now().Location()
	rows := make([][]string, 0, len(report.Records))
	for _, r := range report.Records {
		rows = append(rows, []string{
			r.ScheduledAt.In(loc).Format("2006-01-02 15:04"),
			r.LessonTitle,
			statusText(r.Status),
			intOrEmpty(r.LateMinutes),
			strOrEmpty(r.Note),
		})
	}

	body, err := writeCSV(studentCSVHeader, rows)
	if err != nil {
		s.logger.Error("生成 CSV 失败", zap.Error(err))
		return nil, "", ErrReportGenerateFail
	}

	filename := fmt.Sprintf("student_report_%s_%s_%s.csv",
		fileSafe(report.Student.StudentNumber),
		strings.ReplaceAll(report.From, "-", ""),
		strings.ReplaceAll(report.To, "-", ""))
	return body, filename, nil
}

// ────────────────────── 班级报表 ──────────────────────

func (s *reportService) GroupReport(ctx context.Context, groupID string, req *dto.DateRangeRequest) (*dto.GroupReportResponse, error) {
	group, err := s.repo.Group.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		s.logger.Error("查询班级失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}

	from, to, err := parseDateRange(req.From, req.To, s.now(), defaultReportDays)
	if err != nil {
		return nil, err
	}

	students, err := s.repo.Student.ListActiveByGroup(ctx, groupID)
	if err != nil {
		s.logger.Error("查询班级学生失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.StudentID)
	}
	records, err := s.repo.AttendanceRecord.ListByStudentsBetween(ctx, ids, from, to)
	if err != nil {
		s.logger.Error("查询班级考勤记录失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}

	byStudent := make(map[string][]model.AttendanceRecord, len(students))
	for _, r := range records {
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
	}

	summaries := make([]dto.StudentSummary, 0, len(students))
	for i := range students {
		summaries = append(summaries, dto.StudentSummary{
			Student: toStudentResponse(&students[i]),
			Summary: summarize(byStudent[students[i].StudentID]),
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].Student, summaries[j].Student
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		return a.FirstName < b.FirstName
	})

	return &dto.GroupReportResponse{
		Group:    toGroupResponse(group, int64(len(students))),
		From:     from.Format(dateLayout),
		To:       to.AddDate(0, 0, -1).Format(dateLayout),
		Students: summaries,
	}, nil
}

func (s *reportService) ExportGroupReportXLSX(ctx context.Context, groupID string, req *dto.DateRangeRequest) (*bytes.Buffer, string, error) {
	report, err := s.GroupReport(ctx, groupID, req)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Rapor"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s (%s) %s ~ %s", report.Group.Name, report.Group.Code, report.From, report.To))
	f.MergeCell(sheetName, "A1", "H1")

	headers := []string{"Student No", "Full Name", "Total", "Present", "Absent", "Late", "Excused", "Rate (%)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheetName, cell, h)
	}
	f.SetCellStyle(sheetName, "A2", "H2", headerStyle)
	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "B", 28)

	for i, st := range report.Students {
		row := i + 3
		values := []interface{}{
			st.Student.StudentNumber,
			st.Student.FullName,
			st.Summary.Total,
			st.Summary.Present,
			st.Summary.Absent,
			st.Summary.Late,
			st.Summary.Excused,
			st.Summary.AttendanceRate,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成 Excel 失败", zap.Error(err))
		return nil, "", ErrReportGenerateFail
	}

	filename := fmt.Sprintf("group_report_%s_%s_%s.xlsx",
		fileSafe(report.Group.Code),
		strings.ReplaceAll(report.From, "-", ""),
		strings.ReplaceAll(report.To, "-", ""))
	return buf, filename, nil
}

func (s *reportService) ListFinalizedSessions(ctx context.Context, teacherID, groupID string) ([]dto.SessionResponse, error) {
	sessions, err := s.repo.AttendanceSession.List(ctx, repository.SessionFilter{
		TeacherID: teacherID,
		GroupID:   groupID,
		Status:    model.SessionFinalized,
	})
	if err != nil {
		s.logger.Error("查询已定稿会话失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, toSessionResponse(&sessions[i]))
	}
	return result, nil
}

// ────────────────────── 工具函数 ──────────────────────

func summarize(records []model.AttendanceRecord) dto.AttendanceSummary {
	var sum dto.AttendanceSummary
	for _, r := range records {
		sum.Total++
		switch r.Status {
		case model.StatusPresent:
			sum.Present++
		case model.StatusAbsent:
			sum.Absent++
		case model.StatusLate:
			sum.Late++
		case model.StatusExcused:
			sum.Excused++
		}
	}
	if sum.Total > 0 {
		rate := float64(sum.Present+sum.Late) / float64(sum.Total) * 100
		sum.AttendanceRate = math.Round(rate*10) / 10
	}
	return sum
}

func statusText(s model.AttendanceStatus) string {
	switch s {
	case model.StatusPresent:
		return "Present"
	case model.StatusAbsent:
		return "Absent"
	case model.StatusLate:
		return "Late"
	case model.StatusExcused:
		return "Excused"
	}
	return "Unknown"
}

// writeCSV 按 RFC 4180 输出（含逗号、引号、换行的字段加引号）
func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func studentNumberOf(r *model.AttendanceRecord) string {
	if r.Student == nil {
		return ""
	}
	return r.Student.StudentNumber
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// fileSafe 文件名中只保留字母、数字、- 与 _，空格替换为 _
func fileSafe(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == ' ':
			b.WriteRune('_')
		case r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
