package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenIssuer_MintAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Mint("admin-1", "admin@vitalink.dev")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if claims.Subject != "admin-1" {
		t.Errorf("expected subject admin-1, got %s", claims.Subject)
	}
	if claims.Email != "admin@vitalink.dev" {
		t.Errorf("expected email admin@vitalink.dev, got %s", claims.Email)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, err := issuer.Mint("admin-1", "admin@vitalink.dev")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Mint("admin-1", "admin@vitalink.dev")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenIssuer_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	if _, err := issuer.Verify("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
