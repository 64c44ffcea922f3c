package service

import (
	"errors"
	"time"

	"gorm.io/datatypes"

	"github.com/atakdmr/StudentAttendance/internal/dto"
)

// ErrInvalidClock 时间格式无效（需 HH:mm）
var ErrInvalidClock = errors.New("时间格式无效，应为 HH:mm")

// ErrInvalidDate 日期格式无效（需 yyyy-MM-dd）
var ErrInvalidDate = errors.New("日期格式无效，应为 yyyy-MM-dd")

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

var weekdayNames = [...]string{"", "Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi", "Pazar"}

// parseClock 解析 HH:mm 为一天内的时间点
func parseClock(s string) (datatypes.Time, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, ErrInvalidClock
	}
	return datatypes.NewTime(t.Hour(), t.Minute(), 0, 0), nil
}

// formatClock 格式化为 HH:mm
func formatClock(t datatypes.Time) string {
	d := time.Duration(t)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return time.Date(0, 1, 1, h, m, 0, 0, time.UTC).Format(clockLayout)
}

// isoWeekday 周一=1 .. 周日=7
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// weekStart now 所在 ISO 周的周一 00:00（now 的时区）
func weekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -(isoWeekday(now) - 1))
}

// NextOccurrence 从 now 所在日期（含当天）起，第一个星期为 dayOfWeek 的日期在 start 时刻的时间点
// 结果使用 now 的时区
func NextOccurrence(dayOfWeek int, start datatypes.Time, now time.Time) time.Time {
	delta := (dayOfWeek - isoWeekday(now) + 7) % 7
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, delta)
	return day.Add(time.Duration(start))
}

// NextLessonOccurrence 课程的下一次上课时间（开启会话时未指定 scheduled_at 的默认值）
func NextLessonOccurrence(lesson *dto.LessonResponse, now time.Time) (time.Time, error) {
	start, err := parseClock(lesson.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	return NextOccurrence(lesson.DayOfWeek, start, now), nil
}

// normalizeScheduledAt 统一为 UTC 并截断到秒，保证 (lesson_id, scheduled_at) 精确匹配稳定
func normalizeScheduledAt(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// parseDateRange 解析闭区间日期，返回 [from 00:00, to+1 天 00:00)
// 两端为空时默认最近 defaultDays 天（含今天）
func parseDateRange(fromStr, toStr string, now time.Time, defaultDays int) (time.Time, time.Time, error) {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	to := today
	if toStr != "" {
		t, err := time.ParseInLocation(dateLayout, toStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
		to = t
	}

	from := today.AddDate(0, 0, -defaultDays)
	if fromStr != "" {
		t, err := time.ParseInLocation(dateLayout, fromStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
		from = t
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}

	return from, to.AddDate(0, 0, 1), nil
}
