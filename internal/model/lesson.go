package model

import "gorm.io/datatypes"

// Lesson 课程表，对应 lessons
// 每周固定星期几（1=周一 .. 7=周日）的一段时间，属于一个班级与一位教师
type Lesson struct {
	LessonID  string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lesson_id"`
	Title     string         `gorm:"type:varchar(150);not null"                     json:"title"`
	DayOfWeek int            `gorm:"type:smallint;not null"                         json:"day_of_week"`
	StartTime datatypes.Time `gorm:"type:time;not null"                             json:"start_time"`
	EndTime   datatypes.Time `gorm:"type:time;not null"                             json:"end_time"`
	GroupID   string         `gorm:"type:uuid;not null"                             json:"group_id"`
	TeacherID string         `gorm:"type:uuid;not null"                             json:"teacher_id"`
	IsActive  bool           `gorm:"not null;default:true"                          json:"is_active"`
	Timestamps

	// 关联
	Group   *Group `gorm:"foreignKey:GroupID;references:GroupID"  json:"group,omitempty"`
	Teacher *User  `gorm:"foreignKey:TeacherID;references:UserID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (Lesson) TableName() string { return "lessons" }
