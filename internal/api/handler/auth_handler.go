package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atakdmr/StudentAttendance/config"
	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/service"
	"github.com/atakdmr/StudentAttendance/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc   service.AuthService
	cookieCfg *config.CookieConfig
}

// NewAuthHandler 创建 AuthHandler
// cookieCfg 为 nil 时只返回 Token，不写 Cookie
func NewAuthHandler(authSvc service.AuthService, cookieCfg *config.CookieConfig) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookieCfg: cookieCfg}
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setAuthCookie(c, result.AccessToken, result.ExpiresIn)
	response.OK(c, result)
}

// Logout 用户登出
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, expAt := tokenInfo(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, expAt); err != nil {
		response.InternalError(c)
		return
	}

	h.setAuthCookie(c, "", -1)
	response.OK(c, nil)
}

// GetCurrentUser 获取当前用户信息
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// ChangePassword 修改密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// setAuthCookie 写入 HttpOnly 登录 Cookie；maxAge<0 表示清除
func (h *AuthHandler) setAuthCookie(c *gin.Context, value string, maxAge int) {
	if h.cookieCfg == nil || h.cookieCfg.Name == "" {
		return
	}
	c.SetSameSite(parseSameSite(h.cookieCfg.SameSite))
	c.SetCookie(h.cookieCfg.Name, value, maxAge, "/", h.cookieCfg.Domain, h.cookieCfg.Secure, true)
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, "用户名或密码错误")
	case errors.Is(err, service.ErrUserDisabled):
		response.Forbidden(c, 11002, "账号已停用")
	case errors.Is(err, service.ErrWrongPassword):
		response.BadRequest(c, 11003, "原密码错误")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11004, "用户不存在")
	default:
		response.InternalError(c)
	}
}
