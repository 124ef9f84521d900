package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewIssuer([]byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	token, expiresAt, err := issuer.GenerateControlToken("ui-1")
	if err != nil {
		t.Fatalf("GenerateControlToken failed: %v", err)
	}
	if time.Until(expiresAt) <= 59*time.Minute {
		t.Errorf("Expected expiry about an hour out, got %v", expiresAt)
	}

	claims, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.ClientID != "ui-1" {
		t.Errorf("Expected client id ui-1, got %s", claims.ClientID)
	}
	if claims.Role != RoleController {
		t.Errorf("Expected role %s, got %s", RoleController, claims.Role)
	}
}

func TestIssuer_RejectsForeignAndExpiredTokens(t *testing.T) {
	issuer, _ := NewIssuer([]byte("secret-a"), time.Hour)
	other, _ := NewIssuer([]byte("secret-b"), time.Hour)

	token, _, err := other.GenerateControlToken("ui-1")
	if err != nil {
		t.Fatalf("GenerateControlToken failed: %v", err)
	}
	if _, err := issuer.ValidateToken(token); err == nil {
		t.Error("Expected token signed with another secret to be rejected")
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		ClientID: "ui-1",
		Role:     RoleController,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret-a"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err := issuer.ValidateToken(signed); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}

	if _, err := issuer.ValidateToken("not-a-token"); err == nil {
		t.Error("Expected malformed token to be rejected")
	}
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	if _, err := NewIssuer(nil, 0); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("Expected ErrEmptySecret, got %v", err)
	}
}
