package utils

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "CUSTOMER", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	c, err := ParseAccessToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if c.UserID != 42 || c.Role != "CUSTOMER" {
		t.Errorf("claims = %+v", c)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, _ := NewAccessToken("secret", 1, "ADMIN", 15)
	expired, _ := NewAccessToken("secret", 1, "ADMIN", -5)
	foreign, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 1, "iss": "someone-else", "exp": good.Exp.Unix(),
	}).SignedString([]byte("secret"))

	tests := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"secret", expired.Token},
		"wrong issuer": {"secret", foreign},
		"garbage":      {"secret", "a.b.c"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseAccessToken(tt.secret, tt.raw); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	b, _ := NewRefreshToken(30)
	if len(a.Raw) != 96 || a.Raw == b.Raw {
		t.Errorf("raw tokens %q / %q", a.Raw, b.Raw)
	}
	if h := HashRefreshRaw(a.Raw); len(h) != 64 || strings.Contains(h, a.Raw) {
		t.Errorf("hash = %q", h)
	}
	if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) {
		t.Error("hash not deterministic")
	}
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("hunter22", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(h, "hunter22") || VerifyPassword(h, "hunter23") {
		t.Error("password verification mismatch")
	}
}
