package auth

import (
	"testing"
	"time"
)

func testJWTConfig(ttl time.Duration) JWTConfig {
	return JWTConfig{
		Secret:         "test-secret-that-is-long-enough-00",
		Issuer:         "vboard",
		AccessTokenTTL: ttl,
	}
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(testJWTConfig(15 * time.Minute))

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "a@b.dev", "alice", true)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Error("token already expired at issue time")
	}

	uc, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if uc.UserID != "user-1" || uc.Email != "a@b.dev" || uc.Username != "alice" {
		t.Errorf("claims mismatch: %+v", uc)
	}
	if !uc.IsAdmin {
		t.Error("admin claim lost")
	}
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(testJWTConfig(-time.Minute))

	token, _, err := svc.GenerateAccessToken("user-1", "a@b.dev", "alice", false)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expired token must not validate")
	}
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(testJWTConfig(15 * time.Minute))
	verifier := NewJWTService(JWTConfig{
		Secret:         "a-completely-different-secret-0000",
		Issuer:         "vboard",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, _, err := issuer.GenerateAccessToken("user-1", "a@b.dev", "alice", false)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}
