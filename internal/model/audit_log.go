package model

import (
	"time"

	"gorm.io/datatypes"
)

// 审计动作
const (
	AuditActionCreate       = "create"
	AuditActionUpdate       = "update"
	AuditActionDelete       = "delete"
	AuditActionFinalize     = "finalize"
	AuditActionNotifyAbsent = "notify_absent"
)

// AuditLog 操作日志表，对应 audit_logs（同时作为用户通知流）
type AuditLog struct {
	AuditLogID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_log_id"`
	UserID     string         `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Action     string         `gorm:"type:varchar(50);not null"                      json:"action"`
	EntityType string         `gorm:"type:varchar(50);not null"                      json:"entity_type"`
	EntityID   *string        `gorm:"type:varchar(64)"                               json:"entity_id,omitempty"`
	Details    datatypes.JSON `gorm:"type:jsonb"                                     json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "audit_logs" }
