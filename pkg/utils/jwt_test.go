package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWT_RoundTrip(t *testing.T) {
	userID := uuid.New()
	secret := "test-secret"

	token, err := GenerateJWT(userID, "user@example.com", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT() failed: %v", err)
	}

	claims, err := ValidateJWT(token, secret)
	if err != nil {
		t.Fatalf("ValidateJWT() failed: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("UserID mismatch: expected %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Email mismatch: got %s", claims.Email)
	}
}

func TestJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT(uuid.New(), "user@example.com", "secret-a", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT() failed: %v", err)
	}

	if _, err := ValidateJWT(token, "secret-b"); err == nil {
		t.Error("Expected validation to fail with wrong secret")
	}
}

func TestJWT_Expired(t *testing.T) {
	token, err := GenerateJWT(uuid.New(), "user@example.com", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT() failed: %v", err)
	}

	if _, err := ValidateJWT(token, "secret"); err == nil {
		t.Error("Expected validation to fail for expired token")
	}
}
