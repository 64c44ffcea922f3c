package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/atakdmr/StudentAttendance/internal/dto"
)

func TestStudentService_CreateAndUpdate(t *testing.T) {
	st := newMockStore()
	group := st.addGroup("9-A", "9A")
	other := st.addGroup("9-B", "9B")
	svc := NewStudentService(st.repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Create(ctx, &dto.CreateStudentRequest{FirstName: "Ali", LastName: "Yılmaz", StudentNumber: "101", GroupID: "none"}); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("期望 ErrGroupNotFound，实际: %v", err)
	}

	resp, err := svc.Create(ctx, &dto.CreateStudentRequest{
		FirstName: " Ali ", LastName: "Yılmaz", StudentNumber: "101",
		Phone: strPtr(" 0532 111 22 33 "), GroupID: group.GroupID,
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.FullName != "Ali Yılmaz" || resp.GroupName != "9-A" {
		t.Errorf("学生信息不正确: %+v", resp)
	}
	if resp.Phone == nil || *resp.Phone != "05321112233" {
		t.Errorf("电话应去除空白，实际=%v", resp.Phone)
	}

	updated, err := svc.Update(ctx, resp.ID, &dto.UpdateStudentRequest{GroupID: &other.GroupID, Phone: strPtr("  ")})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if updated.GroupID != other.GroupID || updated.Phone != nil {
		t.Errorf("应转班并清空电话，实际=%+v", updated)
	}

	if err := svc.Delete(ctx, "missing"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
}

func buildImportFile(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("写入测试 Excel 失败: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("生成测试 Excel 失败: %v", err)
	}
	return buf
}

func TestParseStudentImportFile(t *testing.T) {
	buf := buildImportFile(t, [][]interface{}{
		{"Soyad", "Ad", "Öğrenci No", "Telefon"},
		{"Yılmaz", "Ali", "101", "05321112233"},
		{"", "", "", ""},
		{"Kaya", "Zeynep", "102", ""},
	})

	rows, err := ParseStudentImportFile(buf)
	if err != nil {
		t.Fatalf("ParseStudentImportFile 应成功: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望 2 行（跳过空行），实际=%d", len(rows))
	}
	if rows[0].StudentNumber != "101" || rows[0].FirstName != "Ali" || rows[0].LastName != "Yılmaz" || rows[0].Row != 2 {
		t.Errorf("第一行解析不正确: %+v", rows[0])
	}
	if rows[1].Row != 4 {
		t.Errorf("行号应对应 Excel 行，实际=%d", rows[1].Row)
	}
}

func TestParseStudentImportFile_BadInput(t *testing.T) {
	onlyHeader := buildImportFile(t, [][]interface{}{{"Ad", "Soyad", "Öğrenci No"}})
	if _, err := ParseStudentImportFile(onlyHeader); !errors.Is(err, ErrImportNoData) {
		t.Errorf("只有表头期望 ErrImportNoData，实际: %v", err)
	}

	badHeader := buildImportFile(t, [][]interface{}{{"Name", "Class"}, {"Ali", "9A"}})
	if _, err := ParseStudentImportFile(badHeader); !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("缺少必要列期望 ErrImportBadHeader，实际: %v", err)
	}

	if _, err := ParseStudentImportFile(bytes.NewBufferString("not an xlsx")); err == nil {
		t.Error("非 Excel 内容应返回错误")
	}
}

func TestImportStudents(t *testing.T) {
	st := newMockStore()
	group := st.addGroup("9-A", "9A")
	st.addStudent(group.GroupID, "101", "Ali", "Yılmaz", nil)
	svc := NewStudentService(st.repo, zap.NewNop())

	resp, err := svc.ImportStudents(context.Background(), group.GroupID, []ImportStudentRow{
		{Row: 2, StudentNumber: "101", FirstName: "Ali", LastName: "Yılmaz"},
		{Row: 3, StudentNumber: "102", FirstName: "Zeynep", LastName: "Kaya", Phone: "0532 000 00 00"},
		{Row: 4, StudentNumber: "103", FirstName: "", LastName: "Demir"},
		{Row: 5, StudentNumber: "102", FirstName: "Zeynep", LastName: "Kaya"},
	})
	if err != nil {
		t.Fatalf("ImportStudents 应成功: %v", err)
	}
	if resp.Total != 4 || resp.Success != 1 || resp.Failed != 3 {
		t.Errorf("期望 total=4 success=1 failed=3，实际=%+v", resp)
	}
	if len(st.students.students) != 2 {
		t.Errorf("期望班级共 2 名学生，实际=%d", len(st.students.students))
	}
}
