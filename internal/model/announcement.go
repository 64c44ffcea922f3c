package model

import "time"

// 公告优先级
const (
	PriorityNormal    = 1
	PriorityImportant = 2
	PriorityCritical  = 3
)

// Announcement 公告表，对应 announcements
type Announcement struct {
	AnnouncementID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"announcement_id"`
	Title          string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string    `gorm:"type:text;not null"                             json:"content"`
	Priority       int       `gorm:"type:smallint;not null;default:1"               json:"priority"`
	IsActive       bool      `gorm:"not null;default:true"                          json:"is_active"`
	CreatedBy      string    `gorm:"type:uuid;not null"                             json:"created_by"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// 关联
	Creator *User `gorm:"foreignKey:CreatedBy;references:UserID" json:"creator,omitempty"`
}

// TableName 指定表名
func (Announcement) TableName() string { return "announcements" }
