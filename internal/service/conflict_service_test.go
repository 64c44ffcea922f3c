package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/atakdmr/StudentAttendance/internal/dto"
)

func TestLessonsOverlap(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"部分重叠", "08:00", "08:45", "08:30", "09:00", true},
		{"首尾相接", "08:00", "08:45", "08:45", "09:30", false},
		{"完全包含", "08:00", "10:00", "08:30", "09:00", true},
		{"完全分离", "08:00", "08:45", "10:00", "10:45", false},
		{"相同区间", "13:00", "13:40", "13:00", "13:40", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as, _ := parseClock(tt.aStart)
			ae, _ := parseClock(tt.aEnd)
			bs, _ := parseClock(tt.bStart)
			be, _ := parseClock(tt.bEnd)
			if got := lessonsOverlap(as, ae, bs, be); got != tt.want {
				t.Errorf("%s-%s 与 %s-%s：期望 %v，实际=%v", tt.aStart, tt.aEnd, tt.bStart, tt.bEnd, tt.want, got)
			}
		})
	}
}

func TestCheckConflict(t *testing.T) {
	st := newMockStore()
	teacher := st.addTeacher("ayse")
	otherTeacher := st.addTeacher("mehmet")
	g1 := st.addGroup("9-A", "9A")
	g2 := st.addGroup("9-B", "9B")
	existing := st.addLesson("Matematik", 1, "08:00", "08:45", g1.GroupID, teacher.UserID)
	svc := NewConflictService(st.repo, zap.NewNop())
	ctx := context.Background()

	start, _ := parseClock("08:30")
	end, _ := parseClock("09:00")

	res, err := svc.CheckConflict(ctx, teacher.UserID, g2.GroupID, 1, start, end, "")
	if err != nil {
		t.Fatalf("CheckConflict 应成功: %v", err)
	}
	if !res.HasConflict || res.Type != dto.ConflictTeacher || res.LessonID != existing.LessonID {
		t.Errorf("期望教师冲突，实际=%+v", res)
	}
	if res.OtherPartyName != "9-A" || res.Start != "08:00" || res.End != "08:45" {
		t.Errorf("冲突详情不正确: %+v", res)
	}

	// 首尾相接不冲突
	s2, _ := parseClock("08:45")
	e2, _ := parseClock("09:30")
	res, err = svc.CheckConflict(ctx, teacher.UserID, g1.GroupID, 1, s2, e2, "")
	if err != nil || res.HasConflict {
		t.Errorf("08:45-09:30 不应冲突，实际=%+v err=%v", res, err)
	}

	// 其他教师在同一班级上课
	res, err = svc.CheckConflict(ctx, otherTeacher.UserID, g1.GroupID, 1, start, end, "")
	if err != nil {
		t.Fatalf("CheckConflict 应成功: %v", err)
	}
	if !res.HasConflict || res.Type != dto.ConflictGroup || res.OtherPartyName != teacher.FullName {
		t.Errorf("期望班级冲突，实际=%+v", res)
	}

	// 其他星期不冲突
	res, _ = svc.CheckConflict(ctx, teacher.UserID, g1.GroupID, 2, start, end, "")
	if res.HasConflict {
		t.Error("不同星期不应冲突")
	}

	// 更新自身时排除自己
	res, _ = svc.CheckConflict(ctx, teacher.UserID, g1.GroupID, 1, start, end, existing.LessonID)
	if res.HasConflict {
		t.Error("排除自身后不应冲突")
	}

	// 停用课程不参与
	st.lessons.lessons[existing.LessonID].IsActive = false
	res, _ = svc.CheckConflict(ctx, teacher.UserID, g1.GroupID, 1, start, end, "")
	if res.HasConflict {
		t.Error("停用课程不应造成冲突")
	}
}
