package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// mustGetCaller 同时提取 user_id 与 role
func mustGetCaller(c *gin.Context) (userID, role string, ok bool) {
	if userID, ok = MustGetUserID(c); !ok {
		return "", "", false
	}
	if role, ok = MustGetRole(c); !ok {
		return "", "", false
	}
	return userID, role, true
}

func isAdmin(role string) bool { return role == model.RoleAdmin }

// canActOn 管理员或资源所属教师
func canActOn(userID, role, ownerID string) bool {
	return isAdmin(role) || (ownerID != "" && userID == ownerID)
}

// tokenInfo 当前请求 Token 的 jti 与过期时间（登出时使用）
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString("token_jti")
	exp, _ := c.Get("token_exp")
	expAt, _ := exp.(time.Time)
	return jti, expAt
}
