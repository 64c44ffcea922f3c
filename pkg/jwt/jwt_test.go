package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/atakdmr/StudentAttendance/config"
)

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL: ttl,
	})
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	token, issued, err := m.GenerateAccessToken("user-1", "ayse", "Ayşe Yılmaz", "teacher")
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("期望 UserID=user-1，实际=%s", claims.UserID)
	}
	if claims.Role != "teacher" {
		t.Errorf("期望 Role=teacher，实际=%s", claims.Role)
	}
	if claims.FullName != "Ayşe Yılmaz" {
		t.Errorf("期望 FullName=Ayşe Yılmaz，实际=%s", claims.FullName)
	}
	if claims.Issuer != "yoklama" {
		t.Errorf("期望 Issuer=yoklama，实际=%s", claims.Issuer)
	}
	if claims.ID == "" || claims.ID != issued.ID {
		t.Errorf("JTI 应一致且非空: parsed=%s issued=%s", claims.ID, issued.ID)
	}
}

func TestParseToken_Expired(t *testing.T) {
	m := newTestManager(-time.Minute)

	token, _, err := m.GenerateAccessToken("user-1", "ayse", "Ayşe", "teacher")
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}

	if _, err := m.ParseToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager(time.Minute)
	m2 := NewManager(&config.AuthConfig{JWTSecret: "another-secret-key-0123456789", AccessTokenTTL: time.Minute})

	token, _, _ := m1.GenerateAccessToken("user-1", "ayse", "Ayşe", "admin")
	if _, err := m2.ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	m := newTestManager(time.Minute)
	if _, err := m.ParseToken("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}
