package dto

import (
	"encoding/json"
	"time"
)

// ── 通知（操作日志）模块 ──

// NotificationResponse 一条通知
type NotificationResponse struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   *string         `json:"entity_id,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
