package testutil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unilocator/server/pkg/models"
)

// TestUser is a user fixture created directly in the database
type TestUser struct {
	ID    uuid.UUID
	Email string
}

// CreateTestUser creates a test user in the database
func (tdb *TestDB) CreateTestUser(ctx context.Context, email string) *TestUser {
	tdb.t.Helper()

	id := uuid.New()

	_, err := tdb.DB.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, active)
		VALUES ($1, $2, $3, $4, true)
	`, id, "Test User", email, "")
	if err != nil {
		tdb.t.Fatalf("Failed to create test user: %v", err)
	}

	return &TestUser{ID: id, Email: email}
}

// DeleteTestUser removes a test user and its devices and codes
func (tdb *TestDB) DeleteTestUser(ctx context.Context, userID uuid.UUID) {
	tdb.t.Helper()
	_, _ = tdb.DB.ExecContext(ctx, "DELETE FROM connected_devices WHERE user_id = $1", userID)
	_, _ = tdb.DB.ExecContext(ctx, "DELETE FROM pending_codes WHERE user_id = $1", userID)
	_, _ = tdb.DB.ExecContext(ctx, "DELETE FROM users WHERE id = $1", userID)
}

// CreateTestCode creates a pairing code fixture
func (tdb *TestDB) CreateTestCode(ctx context.Context, userID uuid.UUID, code string, maxUses int, expiresAt time.Time) *models.PendingCode {
	tdb.t.Helper()

	id := uuid.New()
	now := time.Now().UTC()

	pc := &models.PendingCode{
		ID:        id,
		UserID:    userID,
		Code:      code,
		MaxUses:   maxUses,
		UseCount:  0,
		Active:    true,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	_, err := tdb.DB.ExecContext(ctx, `
		INSERT INTO pending_codes (id, user_id, code, max_uses, use_count, active, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, pc.ID, pc.UserID, pc.Code, pc.MaxUses, pc.UseCount, pc.Active, pc.CreatedAt, pc.ExpiresAt)
	if err != nil {
		tdb.t.Fatalf("Failed to create test code: %v", err)
	}

	return pc
}

// CreateTestDevice creates a connected device fixture
func (tdb *TestDB) CreateTestDevice(ctx context.Context, userID uuid.UUID, name, code string) *models.Device {
	tdb.t.Helper()

	id := uuid.New()
	now := time.Now().UTC()

	device := &models.Device{
		ID:          id,
		UserID:      userID,
		Code:        code,
		DeviceName:  name,
		Active:      true,
		ConnectedAt: now,
	}

	_, err := tdb.DB.ExecContext(ctx, `
		INSERT INTO connected_devices (id, user_id, code, device_name, active, connected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, device.ID, device.UserID, device.Code, device.DeviceName, device.Active, device.ConnectedAt)
	if err != nil {
		tdb.t.Fatalf("Failed to create test device: %v", err)
	}

	return device
}

// DeleteTestDevice removes a device fixture
func (tdb *TestDB) DeleteTestDevice(ctx context.Context, deviceID uuid.UUID) {
	tdb.t.Helper()
	_, _ = tdb.DB.ExecContext(ctx, "DELETE FROM connected_devices WHERE id = $1", deviceID)
}

// GenerateTestEmail generates a unique test email
func GenerateTestEmail() string {
	return fmt.Sprintf("test-%s@example.com", uuid.New().String()[:8])
}

// GenerateTestPairCode generates a unique well-formed pairing code.
// Hex digits of a UUID are valid code characters once uppercased.
func GenerateTestPairCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return raw[:4] + "-" + raw[4:8]
}
