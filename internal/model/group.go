package model

// Group 班级表，对应 student_groups
type Group struct {
	GroupID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"group_id"`
	Name        string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Code        string  `gorm:"type:varchar(30);not null;uniqueIndex"          json:"code"`
	Description *string `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	Timestamps
}

// TableName 指定表名
func (Group) TableName() string { return "student_groups" }
