package model

// Student 学生表，对应 students
type Student struct {
	StudentID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	FirstName     string  `gorm:"type:varchar(60);not null"                      json:"first_name"`
	LastName      string  `gorm:"type:varchar(60);not null"                      json:"last_name"`
	StudentNumber string  `gorm:"type:varchar(30);not null"                      json:"student_number"`
	Phone         *string `gorm:"type:varchar(20)"                               json:"phone,omitempty"`
	GroupID       string  `gorm:"type:uuid;not null;index"                       json:"group_id"`
	IsActive      bool    `gorm:"not null;default:true"                          json:"is_active"`
	Timestamps

	// 关联
	Group *Group `gorm:"foreignKey:GroupID;references:GroupID" json:"group,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// FullName 名 + 空格 + 姓
func (s *Student) FullName() string { return s.FirstName + " " + s.LastName }
