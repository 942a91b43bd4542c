package jwt

import (
	"testing"
	"time"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/config"
)

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-at-least-16-chars",
		AccessTokenTTL: ttl,
	})
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	token, err := m.GenerateAccessToken("user-001", "admin")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("解析 Token 失败: %v", err)
	}
	if claims.UserID != "user-001" {
		t.Errorf("期望 UserID=user-001，实际=%s", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Errorf("期望 Role=admin，实际=%s", claims.Role)
	}
	if claims.TokenType != "access" {
		t.Errorf("期望 TokenType=access，实际=%s", claims.TokenType)
	}
	if claims.ID == "" {
		t.Error("JWT ID 不应为空")
	}
}

func TestParseExpiredToken(t *testing.T) {
	m := newTestManager(-1 * time.Minute)

	token, err := m.GenerateAccessToken("user-001", "user")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	_, err = m.ParseToken(token)
	if err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}

func TestParseInvalidToken(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	if _, err := m.ParseToken("not-a-token"); err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}

	// 不同密钥签发的 Token 也应拒绝
	other := NewManager(&config.AuthConfig{
		JWTSecret:      "another-secret-16-chars!",
		AccessTokenTTL: 15 * time.Minute,
	})
	token, err := other.GenerateAccessToken("user-002", "user")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}
	if _, err := m.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}
