package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/internal/repository"
)

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel 文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel 表头缺少必要列（学号/名/姓）")
)

// ImportStudentRow Excel 导入解析后的单行数据
type ImportStudentRow struct {
	Row           int
	StudentNumber string
	FirstName     string
	LastName      string
	Phone         string
}

// ParseStudentImportFile 解析学生名册（第一张工作表，首行为表头，列序不限）
func ParseStudentImportFile(reader io.Reader) ([]ImportStudentRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析 Excel 文件: %w", err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	col := parseStudentHeader(excelRows[0])
	if col["number"] < 0 || col["first_name"] < 0 || col["last_name"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, key string) string {
		if idx := col[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportStudentRow
	for i := 1; i < len(excelRows); i++ {
		item := ImportStudentRow{
			Row:           i + 1,
			StudentNumber: cell(excelRows[i], "number"),
			FirstName:     cell(excelRows[i], "first_name"),
			LastName:      cell(excelRows[i], "last_name"),
			Phone:         cell(excelRows[i], "phone"),
		}
		// 跳过全空行
		if item.StudentNumber == "" && item.FirstName == "" && item.LastName == "" && item.Phone == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseStudentHeader 表头 -> 列索引（支持土耳其语与英文列名）
func parseStudentHeader(header []string) map[string]int {
	idx := map[string]int{"number": -1, "first_name": -1, "last_name": -1, "phone": -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "öğrenci no", "student no", "student_number", "学号":
			idx["number"] = i
		case "ad", "first name", "first_name", "名":
			idx["first_name"] = i
		case "soyad", "last name", "last_name", "姓":
			idx["last_name"] = i
		case "telefon", "phone", "电话":
			idx["phone"] = i
		}
	}
	return idx
}

// ImportStudents 逐行导入到指定班级；单行失败不影响其他行
func (s *studentService) ImportStudents(ctx context.Context, groupID string, rows []ImportStudentRow) (*dto.ImportStudentResponse, error) {
	if err := s.ensureGroup(ctx, groupID); err != nil {
		return nil, err
	}

	// 同班已有学号，避免重复导入
	existing, _, err := s.repo.Student.List(ctx, repository.StudentFilter{GroupID: groupID, IncludeInactive: true}, 0, maxImportRows*10)
	if err != nil {
		s.logger.Error("加载班级学生失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, st := range existing {
		seen[st.StudentNumber] = true
	}

	resp := &dto.ImportStudentResponse{Total: len(rows)}
	for _, row := range rows {
		if row.StudentNumber == "" || row.FirstName == "" || row.LastName == "" {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportStudentError{Row: row.Row, Reason: "必填字段为空"})
			continue
		}
		if seen[row.StudentNumber] {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportStudentError{
				Row: row.Row, Reason: fmt.Sprintf("学号已存在: %s", row.StudentNumber),
			})
			continue
		}

		phone := row.Phone
		student := &model.Student{
			FirstName:     row.FirstName,
			LastName:      row.LastName,
			StudentNumber: row.StudentNumber,
			Phone:         normalizePhone(&phone),
			GroupID:       groupID,
			IsActive:      true,
		}
		if err := s.repo.Student.Create(ctx, student); err != nil {
			s.logger.Warn("导入学生失败", zap.Int("row", row.Row), zap.Error(err))
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportStudentError{Row: row.Row, Reason: "写入失败"})
			continue
		}
		seen[row.StudentNumber] = true
		resp.Success++
	}

	s.logger.Info("学生导入完成",
		zap.String("group_id", groupID),
		zap.Int("success", resp.Success),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}
