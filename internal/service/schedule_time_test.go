package service

import (
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/atakdmr/StudentAttendance/internal/dto"
)

func TestParseAndFormatClock(t *testing.T) {
	c, err := parseClock("08:45")
	if err != nil {
		t.Fatalf("parseClock 应成功: %v", err)
	}
	if c != datatypes.NewTime(8, 45, 0, 0) {
		t.Errorf("期望 08:45，实际=%v", c)
	}
	if got := formatClock(c); got != "08:45" {
		t.Errorf("期望 formatClock=08:45，实际=%s", got)
	}

	for _, bad := range []string{"", "8", "25:00", "08:60", "abc"} {
		if _, err := parseClock(bad); !errors.Is(err, ErrInvalidClock) {
			t.Errorf("parseClock(%q) 期望 ErrInvalidClock，实际: %v", bad, err)
		}
	}
}

func TestNextOccurrence(t *testing.T) {
	loc := time.FixedZone("TRT", 3*3600)
	// 2026-10-14 是周三
	wed := time.Date(2026, 10, 14, 10, 0, 0, 0, loc)
	start := datatypes.NewTime(9, 30, 0, 0)

	tests := []struct {
		name string
		day  int
		want time.Time
	}{
		{"当天", 3, time.Date(2026, 10, 14, 9, 30, 0, 0, loc)},
		{"明天", 4, time.Date(2026, 10, 15, 9, 30, 0, 0, loc)},
		{"周日", 7, time.Date(2026, 10, 18, 9, 30, 0, 0, loc)},
		{"下周一", 1, time.Date(2026, 10, 19, 9, 30, 0, 0, loc)},
		{"下周二", 2, time.Date(2026, 10, 20, 9, 30, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.day, start, wed)
			if !got.Equal(tt.want) {
				t.Errorf("期望 %s，实际 %s", tt.want, got)
			}
		})
	}
}

func TestWeekStart(t *testing.T) {
	sun := time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC)
	want := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	if got := weekStart(sun); !got.Equal(want) {
		t.Errorf("周日所在周的周一应为 %s，实际 %s", want, got)
	}

	mon := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	if got := weekStart(mon); !got.Equal(mon) {
		t.Errorf("周一 00:00 的周起点应为自身，实际 %s", got)
	}
}

func TestParseDateRange(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

	from, to, err := parseDateRange("", "", now, 30)
	if err != nil {
		t.Fatalf("默认区间应成功: %v", err)
	}
	if !from.Equal(time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("默认 from 错误: %s", from)
	}
	if !to.Equal(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("默认 to 应为明天 00:00: %s", to)
	}

	from, to, err = parseDateRange("2026-10-01", "2026-10-01", now, 30)
	if err != nil {
		t.Fatalf("显式区间应成功: %v", err)
	}
	if to.Sub(from) != 24*time.Hour {
		t.Errorf("同一天的闭区间应覆盖 24 小时，实际 %s", to.Sub(from))
	}

	if _, _, err := parseDateRange("01.10.2026", "", now, 30); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
	if _, _, err := parseDateRange("2026-10-10", "2026-10-01", now, 30); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("from 晚于 to 期望 ErrInvalidDate，实际: %v", err)
	}
}

func TestNextLessonOccurrence(t *testing.T) {
	// 2026-10-14 周三
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	got, err := NextLessonOccurrence(&dto.LessonResponse{DayOfWeek: 5, StartTime: "09:30"}, now)
	if err != nil {
		t.Fatalf("应成功: %v", err)
	}
	want := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("期望 %s，实际 %s", want, got)
	}

	if _, err := NextLessonOccurrence(&dto.LessonResponse{DayOfWeek: 5, StartTime: "9h"}, now); !errors.Is(err, ErrInvalidClock) {
		t.Errorf("期望 ErrInvalidClock，实际: %v", err)
	}
}
