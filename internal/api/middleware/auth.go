package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atakdmr/StudentAttendance/pkg/jwt"
	"github.com/atakdmr/StudentAttendance/pkg/response"
)

// TokenChecker Token 黑名单查询（Redis 实现见 pkg/redis）
type TokenChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 优先读取 Authorization: Bearer <token>，其次读取登录 Cookie
// checker 为 nil 时不检查黑名单（Redis 不可用）
func JWTAuth(jwtMgr *jwt.Manager, checker TokenChecker, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			response.Unauthorized(c, 10002, "缺少认证信息")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if checker != nil && claims.ID != "" {
			// Redis 出错时降级放行
			if revoked, err := checker.IsBlacklisted(c.Request.Context(), claims.ID); err == nil && revoked {
				response.Unauthorized(c, 10002, "Token 已注销")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("full_name", claims.FullName)
		c.Set("role", claims.Role)
		c.Set("token_jti", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("token_exp", claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil {
			return v
		}
	}
	return ""
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString("role")
		if userRole == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}
