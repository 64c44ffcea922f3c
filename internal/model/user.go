package model

// 用户角色
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// User 用户表，对应 users（管理员与教师）
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string `gorm:"type:varchar(50);not null;uniqueIndex"         json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null"                    json:"-"`
	FullName     string `gorm:"type:varchar(100);not null"                    json:"full_name"`
	Role         string `gorm:"type:varchar(20);not null;default:'teacher'"   json:"role"`
	IsActive     bool   `gorm:"not null;default:true"                         json:"is_active"`
	Version      int    `gorm:"not null;default:1"                            json:"version"`
	Timestamps
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
