package security

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"
)

func newTestSigner(t *testing.T, ttl time.Duration) *JWTSigner {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return NewJWTSigner(key, &key.PublicKey, "lobby-service", "lobby-clients", ttl, 30*time.Second)
}

func TestSignAndParseAccessToken(t *testing.T) {
	s := newTestSigner(t, 15*time.Minute)

	token, err := s.SignAccessToken("u-123", "owl@example.com", time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := s.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	uid, err := SubjectAsUserID(claims)
	if err != nil {
		t.Fatalf("subject: %v", err)
	}
	if string(uid) != "u-123" {
		t.Fatalf("subject mismatch: %q", uid)
	}
	if claims.Email != "owl@example.com" {
		t.Fatalf("email claim mismatch: %q", claims.Email)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	s := newTestSigner(t, time.Minute)

	// токен выпущен сильно в прошлом
	token, err := s.SignAccessToken("u-123", "", time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := s.ParseAndValidate(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseRejectsForeignKey(t *testing.T) {
	a := newTestSigner(t, time.Minute)
	b := newTestSigner(t, time.Minute)

	token, err := a.SignAccessToken("u-123", "", time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := b.ParseAndValidate(token); err == nil {
		t.Fatalf("token signed with another key must not validate")
	}
}

func TestSubjectAsUserIDEmpty(t *testing.T) {
	if _, err := SubjectAsUserID(&AccessClaims{}); !errors.Is(err, ErrInvalidSubject) {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
}

func TestHashPasswordPolicy(t *testing.T) {
	if _, err := HashPassword("short", &BcryptConfig{MinLength: 8}); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}

	hash, err := HashPassword("long-enough-password", nil)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := ComparePassword(hash, "long-enough-password"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hash, "wrong-password"); err == nil {
		t.Fatalf("wrong password must not compare")
	}
}
