package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/atakdmr/StudentAttendance/internal/dto"
)

func TestGroupService_CRUD(t *testing.T) {
	st := newMockStore()
	svc := NewGroupService(st.repo, zap.NewNop())
	ctx := context.Background()

	g, err := svc.Create(ctx, &dto.CreateGroupRequest{Name: "9-A", Code: "9A"})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if _, err := svc.Create(ctx, &dto.CreateGroupRequest{Name: "9-A bis", Code: "9A"}); !errors.Is(err, ErrGroupCodeExists) {
		t.Errorf("重复代码期望 ErrGroupCodeExists，实际: %v", err)
	}

	st.groups.counts[g.ID] = 12
	got, err := svc.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if got.StudentCount != 12 {
		t.Errorf("期望 student_count=12，实际=%d", got.StudentCount)
	}

	other, _ := svc.Create(ctx, &dto.CreateGroupRequest{Name: "9-B", Code: "9B"})
	code := "9A"
	if _, err := svc.Update(ctx, other.ID, &dto.UpdateGroupRequest{Code: &code}); !errors.Is(err, ErrGroupCodeExists) {
		t.Errorf("改为已占用代码期望 ErrGroupCodeExists，实际: %v", err)
	}
	name := "9-B Fen"
	updated, err := svc.Update(ctx, other.ID, &dto.UpdateGroupRequest{Name: &name})
	if err != nil || updated.Name != name {
		t.Errorf("Update 应成功并改名，实际=%+v err=%v", updated, err)
	}

	list, _ := svc.List(ctx)
	if len(list) != 2 {
		t.Errorf("期望 2 个班级，实际=%d", len(list))
	}

	if err := svc.Delete(ctx, g.ID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, err := svc.GetByID(ctx, g.ID); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("删除后期望 ErrGroupNotFound，实际: %v", err)
	}
}
