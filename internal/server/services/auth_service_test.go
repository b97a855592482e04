package services

import (
	"context"
	"testing"

	"github.com/unilocator/server/internal/testutil"
)

func TestAuthService_Register_Validation(t *testing.T) {
	tdb := testutil.GetTestDB(t)
	if tdb == nil {
		return
	}
	defer tdb.Close()

	ctx := context.Background()
	service := NewAuthService(tdb.Repositories().Users)

	if _, err := service.Register(ctx, "", testutil.GenerateTestEmail(), "password123"); err == nil {
		t.Error("Expected error for empty name")
	}
	if _, err := service.Register(ctx, "Test", "not-an-email", "password123"); err == nil {
		t.Error("Expected error for invalid email")
	}
	if _, err := service.Register(ctx, "Test", testutil.GenerateTestEmail(), "short"); err == nil {
		t.Error("Expected error for short password")
	}
}

func TestAuthService_Register_And_Login(t *testing.T) {
	tdb := testutil.GetTestDB(t)
	if tdb == nil {
		return
	}
	defer tdb.Close()

	t.Setenv("JWT_SECRET", "test-secret")

	ctx := context.Background()
	service := NewAuthService(tdb.Repositories().Users)
	email := testutil.GenerateTestEmail()

	user, err := service.Register(ctx, "Test User", email, "password123")
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	defer tdb.DeleteTestUser(ctx, user.ID)

	if user.PasswordHash == "password123" {
		t.Error("Password stored in plaintext")
	}

	// Duplicate registration rejected.
	if _, err := service.Register(ctx, "Test User", email, "password123"); err == nil {
		t.Error("Expected error for duplicate email")
	}

	// Correct password logs in.
	token, expiresAt, err := service.Login(ctx, email, "password123")
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if token == "" {
		t.Error("Login returned empty token")
	}
	if !expiresAt.After(user.CreatedAt) {
		t.Errorf("Token expiry %s not in the future", expiresAt)
	}

	// Wrong password rejected with a generic message.
	_, _, err = service.Login(ctx, email, "wrong-password")
	if err == nil {
		t.Fatal("Expected error for wrong password")
	}
	if err.Error() != "invalid email or password" {
		t.Errorf("Expected generic login error, got: %v", err)
	}

	// Unknown email gets the same generic message.
	_, _, err = service.Login(ctx, testutil.GenerateTestEmail(), "password123")
	if err == nil || err.Error() != "invalid email or password" {
		t.Errorf("Expected generic login error for unknown email, got: %v", err)
	}
}
