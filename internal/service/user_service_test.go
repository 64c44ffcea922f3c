package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atakdmr/StudentAttendance/config"
	"github.com/atakdmr/StudentAttendance/internal/dto"
	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/pkg/jwt"
)

// ── 测试辅助 ──

type fakeBlacklist struct {
	jti string
	ttl time.Duration
}

func (f *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	f.jti, f.ttl = jti, ttl
	return nil
}

func setupTestAuthService() (AuthService, *mockStore, *fakeBlacklist, *jwt.Manager) {
	st := newMockStore()
	jwtMgr := jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL: 15 * time.Minute,
	})
	bl := &fakeBlacklist{}
	return NewAuthService(st.repo, jwtMgr, bl, zap.NewNop()), st, bl, jwtMgr
}

func createTestUser(st *mockStore, username, password, role string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &model.User{
		UserID:       "user-" + username,
		Username:     username,
		PasswordHash: string(hash),
		FullName:     "Test " + username,
		Role:         role,
		IsActive:     true,
		Version:      1,
	}
	st.users.users[u.UserID] = u
	return u
}

// ── 登录 ──

func TestLogin_Success(t *testing.T) {
	svc, st, _, jwtMgr := setupTestAuthService()
	createTestUser(st, "ayse", "password123", model.RoleTeacher)

	result, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "ayse", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" {
		t.Error("AccessToken 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}
	if result.User.Username != "ayse" || result.User.Role != model.RoleTeacher {
		t.Errorf("返回用户信息不正确: %+v", result.User)
	}

	claims, err := jwtMgr.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("签发的 Token 应可解析: %v", err)
	}
	if claims.UserID != "user-ayse" || claims.Role != model.RoleTeacher {
		t.Errorf("Token 声明不正确: %+v", claims)
	}
}

func TestLogin_Failures(t *testing.T) {
	svc, st, _, _ := setupTestAuthService()
	createTestUser(st, "ayse", "password123", model.RoleTeacher)
	disabled := createTestUser(st, "eski", "password123", model.RoleTeacher)
	disabled.IsActive = false

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"密码错误", "ayse", "wrong_password", ErrInvalidCredentials},
		{"用户不存在", "nobody", "password123", ErrInvalidCredentials},
		{"账号停用", "eski", "password123", ErrUserDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: tt.username, Password: tt.password})
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
}

func TestLogout_Blacklists(t *testing.T) {
	svc, _, bl, _ := setupTestAuthService()

	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if bl.jti != "jti-1" || bl.ttl <= 0 || bl.ttl > 10*time.Minute {
		t.Errorf("黑名单写入不正确: jti=%s ttl=%s", bl.jti, bl.ttl)
	}
}

func TestChangePassword(t *testing.T) {
	svc, st, _, _ := setupTestAuthService()
	u := createTestUser(st, "ayse", "password123", model.RoleTeacher)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, u.UserID, &dto.ChangePasswordRequest{OldPassword: "bad", NewPassword: "newpass456"})
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("期望 ErrWrongPassword，实际: %v", err)
	}

	if err := svc.ChangePassword(ctx, u.UserID, &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpass456"}); err != nil {
		t.Fatalf("ChangePassword 应成功: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "ayse", Password: "newpass456"}); err != nil {
		t.Errorf("新密码应可登录: %v", err)
	}
}

// ── 用户管理 ──

func TestUserService_CreateDuplicate(t *testing.T) {
	st := newMockStore()
	svc := NewUserService(st.repo, zap.NewNop())
	ctx := context.Background()

	req := &dto.CreateUserRequest{Username: "ayse", Password: "password123", FullName: "Ayşe Yılmaz", Role: model.RoleTeacher}
	resp, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Version != 1 || !resp.IsActive {
		t.Errorf("新用户应为 version=1 且有效，实际=%+v", resp)
	}
	if _, err := svc.Create(ctx, req); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("重复用户名期望 ErrUsernameExists，实际: %v", err)
	}
}

func TestUserService_UpdateGuards(t *testing.T) {
	st := newMockStore()
	svc := NewUserService(st.repo, zap.NewNop())
	admin := createTestUser(st, "admin", "password123", model.RoleAdmin)
	teacher := createTestUser(st, "ayse", "password123", model.RoleTeacher)
	ctx := context.Background()

	role := model.RoleTeacher
	if _, err := svc.Update(ctx, admin.UserID, &dto.UpdateUserRequest{Role: &role, Version: 1}, admin.UserID); !errors.Is(err, ErrUserSelfRoleChange) {
		t.Errorf("修改自己的角色期望 ErrUserSelfRoleChange，实际: %v", err)
	}
	if err := svc.Delete(ctx, admin.UserID, admin.UserID); !errors.Is(err, ErrUserSelfDelete) {
		t.Errorf("删除自己期望 ErrUserSelfDelete，实际: %v", err)
	}

	name := "Ayşe Kaya"
	resp, err := svc.Update(ctx, teacher.UserID, &dto.UpdateUserRequest{FullName: &name, Version: 1}, admin.UserID)
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.FullName != name || resp.Version != 2 {
		t.Errorf("期望 full_name=%s version=2，实际=%+v", name, resp)
	}

	// 旧版本号
	if _, err := svc.Update(ctx, teacher.UserID, &dto.UpdateUserRequest{FullName: &name, Version: 1}, admin.UserID); !errors.Is(err, ErrUserVersionConflict) {
		t.Errorf("旧版本号期望 ErrUserVersionConflict，实际: %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	st := newMockStore()
	svc := NewUserService(st.repo, zap.NewNop())
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin", "", "Yönetici")
	if err != nil || created {
		t.Errorf("未配置密码时不应创建管理员，created=%v err=%v", created, err)
	}

	created, err = svc.EnsureAdmin(ctx, "admin", "admin-secret", "Yönetici")
	if err != nil || !created {
		t.Fatalf("首次 EnsureAdmin 应创建管理员，created=%v err=%v", created, err)
	}
	created, err = svc.EnsureAdmin(ctx, "admin2", "admin-secret", "Yönetici")
	if err != nil || created {
		t.Errorf("已有管理员时不应重复创建，created=%v err=%v", created, err)
	}
	if n, _ := st.users.CountByRole(ctx, model.RoleAdmin); n != 1 {
		t.Errorf("期望 1 名管理员，实际=%d", n)
	}
}
